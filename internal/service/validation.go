package service

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func numericString(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validateRegister(req *RegisterRequest) error {
	ve := &ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		ve.add("name", "name is required")
	}
	if req.Email == "" {
		ve.add("email", "email is required")
	} else if !validEmail(req.Email) {
		ve.add("email", "email is not well-formed")
	}
	if req.Number == "" {
		ve.add("number", "number is required")
	} else if !numericString(req.Number) {
		ve.add("number", "number must contain only digits")
	}
	if req.Password == "" {
		ve.add("password", "password is required")
	}
	return ve.orNil()
}

func validateLogin(req *LoginRequest) error {
	ve := &ValidationError{}
	if req.Email == "" {
		ve.add("email", "email is required")
	} else if !validEmail(req.Email) {
		ve.add("email", "email is not well-formed")
	}
	if req.Password == "" {
		ve.add("password", "password is required")
	}
	return ve.orNil()
}

func validateRequestReset(number string) error {
	ve := &ValidationError{}
	if number == "" {
		ve.add("number", "number is required")
	} else if !numericString(number) {
		ve.add("number", "number must contain only digits")
	}
	return ve.orNil()
}

func validateConfirmReset(req *ConfirmResetRequest) error {
	ve := &ValidationError{}
	if req.Number == "" {
		ve.add("number", "number is required")
	} else if !numericString(req.Number) {
		ve.add("number", "number must contain only digits")
	}
	if req.Code == "" {
		ve.add("otp", "otp is required")
	}
	if req.NewPassword == "" {
		ve.add("password", "password is required")
	}
	return ve.orNil()
}

func validateSignal(req *SignalRequest) error {
	ve := &ValidationError{}
	if strings.TrimSpace(req.Title) == "" {
		ve.add("title", "title is required")
	}
	if strings.TrimSpace(req.From) == "" {
		ve.add("from", "from is required")
	}
	return ve.orNil()
}
