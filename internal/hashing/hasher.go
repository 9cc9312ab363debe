package hashing

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"signals-api/internal/config"
)

var ErrPasswordTooLong = errors.New("password exceeds maximum length")

// Hasher produces and verifies one-way password digests. bcrypt embeds a
// random per-hash salt, so hashing the same plaintext twice yields different
// digests.
type Hasher struct {
	cost int
}

func NewHasher(cfg *config.Config) *Hasher {
	cost := cfg.Hashing.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns an opaque digest of plaintext. The digest is never reversible.
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest is
// treated as a mismatch rather than an error so callers cannot distinguish
// corrupt records from wrong passwords.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
