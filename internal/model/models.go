package model

import "time"

// Role values stored on a user record.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. Email and Number are each globally unique;
// PasswordHash is only ever replaced by a confirmed password reset.
type User struct {
	ID           string     `json:"id" db:"user_id"`
	Bucket       int        `json:"-" db:"user_bucket"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Number       string     `json:"number" db:"number"`
	Role         string     `json:"role" db:"role"`
	Membership   string     `json:"membership" db:"membership"`
	PasswordHash string     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// PublicView strips everything a client must never see, in particular the
// password hash.
func (u *User) PublicView() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Number:     u.Number,
		Role:       u.Role,
		Membership: u.Membership,
	}
}

// PublicUser is the client-facing projection of a user record.
type PublicUser struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Number     string `json:"number"`
	Role       string `json:"role"`
	Membership string `json:"membership"`
}

// OTP is a pending one-time password-reset code. The backing store expires
// records on its own after the TTL, but that expiry is best-effort, so every
// consumer re-checks CreatedAt.
type OTP struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Number    string    `json:"number"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the code's validity window has elapsed at now.
func (o *OTP) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(o.CreatedAt) > ttl
}

// Signal is a published trading signal (the generic data-entry record of the
// original system).
type Signal struct {
	ID          string    `json:"id" db:"signal_id"`
	Index       string    `json:"index" db:"market_index"`
	From        string    `json:"from" db:"from_source"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	EntryPoint  float64   `json:"entryPoint" db:"entry_point"`
	StopLoss    float64   `json:"stopLoss" db:"stop_loss"`
	Profit1     float64   `json:"profit1" db:"profit1"`
	Profit2     float64   `json:"profit2" db:"profit2"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
}
