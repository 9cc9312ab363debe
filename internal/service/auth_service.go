package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"signals-api/internal/hashing"
	"signals-api/internal/model"
	redisrepo "signals-api/internal/repository/redis"
	"signals-api/internal/repository/scylla"
	"signals-api/internal/sms"
	"signals-api/internal/token"
	"signals-api/internal/util"
)

// RegisterRequest carries a new account's details.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Number   string `json:"number"`
	Password string `json:"password"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ConfirmResetRequest redeems a reset code for a new password.
type ConfirmResetRequest struct {
	Number      string `json:"number"`
	Code        string `json:"otp"`
	NewPassword string `json:"password"`
}

// AuthResult is returned by Register and Login: a signed session token plus
// the public projection of the account.
type AuthResult struct {
	Token string            `json:"token"`
	User  *model.PublicUser `json:"user"`
}

// AuthService implements registration, login and the OTP password-reset
// flow.
type AuthService struct {
	users   scylla.UserRepository
	otps    redisrepo.OTPStore
	hasher  *hashing.Hasher
	tokens  *token.Issuer
	gateway sms.Gateway
	events  *EventPublisher
	audit   *AuditRecorder
}

func NewAuthService(
	users scylla.UserRepository,
	otps redisrepo.OTPStore,
	hasher *hashing.Hasher,
	tokens *token.Issuer,
	gateway sms.Gateway,
	events *EventPublisher,
	audit *AuditRecorder,
) *AuthService {
	return &AuthService{
		users:   users,
		otps:    otps,
		hasher:  hasher,
		tokens:  tokens,
		gateway: gateway,
		events:  events,
		audit:   audit,
	}
}

// Register creates a new account and signs it in. Email and number
// uniqueness is checked up front for a fast answer and enforced again
// atomically by the repository, so two concurrent registrations of the same
// email can never both succeed.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Number = strings.TrimSpace(req.Number)
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.users.FindByEmail(gctx, req.Email)
		if err == nil {
			return ErrEmailExists
		}
		if errors.Is(err, scylla.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("email lookup failed: %w", err)
	})
	g.Go(func() error {
		_, err := s.users.FindByNumber(gctx, req.Number)
		if err == nil {
			return ErrNumberExists
		}
		if errors.Is(err, scylla.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("number lookup failed: %w", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Number:       req.Number,
		Role:         model.RoleUser,
		Membership:   "none",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		// The lookups raced: someone else claimed the email or number
		// between the pre-check and the insert.
		switch {
		case errors.Is(err, scylla.ErrEmailTaken):
			return nil, ErrEmailExists
		case errors.Is(err, scylla.ErrNumberTaken):
			return nil, ErrNumberExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.events.Publish(ctx, eventUserRegistered, user.ID)
	s.audit.Record(eventUserRegistered, user.ID)
	util.Info("User registered", util.String("user_id", user.ID))

	return &AuthResult{Token: signed, User: user.PublicView()}, nil
}

// Login verifies credentials and issues a fresh session token. An unknown
// email yields ErrUserNotFound; a known email with the wrong password
// yields the deliberately generic ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateLogin(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, scylla.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("email lookup failed: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.events.Publish(ctx, eventUserLoggedIn, user.ID)
	s.audit.Record(eventUserLoggedIn, user.ID)

	return &AuthResult{Token: signed, User: user.PublicView()}, nil
}

// RequestReset issues a fresh OTP for the account owning number and
// dispatches it over SMS. Issuing and sending are not atomic: a code that
// fails to send stays pending until it expires, which is harmless.
func (s *AuthService) RequestReset(ctx context.Context, number string) error {
	number = strings.TrimSpace(number)
	if err := validateRequestReset(number); err != nil {
		return err
	}

	user, err := s.users.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, scylla.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("number lookup failed: %w", err)
	}

	code, err := s.otps.Issue(ctx, user.ID, user.Number)
	if err != nil {
		return fmt.Errorf("failed to issue reset code: %w", err)
	}

	if err := s.gateway.Send(ctx, user.Number, code); err != nil {
		util.Error("Failed to dispatch reset code",
			util.String("user_id", user.ID),
			util.ErrorField(err))
		return ErrDeliveryFailed
	}

	s.events.Publish(ctx, eventResetRequested, user.ID)
	s.audit.Record(eventResetRequested, user.ID)
	util.Info("Reset code dispatched", util.String("user_id", user.ID))

	return nil
}

// ConfirmReset redeems a pending code and replaces the account's password.
// The claim is the linearization point: of N concurrent confirmations with
// the same code, exactly one claims it and the rest observe ErrInvalidCode.
// If the password update then fails, the claimed code is restored so the
// user is not locked out of retrying.
func (s *AuthService) ConfirmReset(ctx context.Context, req *ConfirmResetRequest) error {
	req.Number = strings.TrimSpace(req.Number)
	if err := validateConfirmReset(req); err != nil {
		return err
	}

	otp, err := s.otps.Consume(ctx, req.Number, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, redisrepo.ErrCodeInvalid):
			return ErrInvalidCode
		case errors.Is(err, redisrepo.ErrCodeExpired):
			return ErrCodeExpired
		}
		return fmt.Errorf("failed to redeem reset code: %w", err)
	}

	user, err := s.users.FindByID(ctx, otp.UserID)
	if err != nil {
		if errors.Is(err, scylla.ErrNotFound) {
			// Account deleted after the code was issued. The code is
			// spent; there is nothing to restore it for.
			return ErrUserNotFound
		}
		s.restore(ctx, otp)
		return fmt.Errorf("user lookup failed: %w", err)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		s.restore(ctx, otp)
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.restore(ctx, otp)
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.events.Publish(ctx, eventResetConfirmed, user.ID)
	s.audit.Record(eventResetConfirmed, user.ID)
	util.Info("Password reset confirmed", util.String("user_id", user.ID))

	return nil
}

func (s *AuthService) restore(ctx context.Context, otp *model.OTP) {
	if err := s.otps.Restore(ctx, otp); err != nil {
		util.Warn("Failed to restore claimed reset code",
			util.String("user_id", otp.UserID),
			util.ErrorField(err))
	}
}
