package scylla

import (
	"context"
	"errors"

	"signals-api/internal/model"
)

// Sentinel errors surfaced by the repositories. The service layer maps them
// onto its own taxonomy.
var (
	ErrNotFound    = errors.New("record not found")
	ErrEmailTaken  = errors.New("email already registered")
	ErrNumberTaken = errors.New("number already registered")
)

// UserRepository is the durable credential store. Create must enforce
// email/number uniqueness atomically, not just by prior lookup.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByNumber(ctx context.Context, number string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	HealthCheck(ctx context.Context) error
}

// SignalRepository stores published trading signals.
type SignalRepository interface {
	Create(ctx context.Context, signal *model.Signal) error
	FindByID(ctx context.Context, id string) (*model.Signal, error)
	Update(ctx context.Context, signal *model.Signal) error
	List(ctx context.Context) ([]*model.Signal, error)
}
