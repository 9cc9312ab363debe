package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPExpired(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	otp := &OTP{CreatedAt: created}
	ttl := 10 * time.Minute

	assert.False(t, otp.Expired(created, ttl))
	assert.False(t, otp.Expired(created.Add(10*time.Minute), ttl))
	assert.True(t, otp.Expired(created.Add(10*time.Minute+time.Second), ttl))
}

func TestPublicViewStripsPasswordHash(t *testing.T) {
	user := &User{
		ID:           "id-1",
		Name:         "Asha",
		Email:        "asha@example.com",
		Number:       "9876543210",
		Role:         RoleUser,
		Membership:   "none",
		PasswordHash: "$2a$10$secret",
	}

	payload, err := json.Marshal(user.PublicView())
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "secret")
	assert.NotContains(t, string(payload), "password")
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	user := &User{ID: "id-1", PasswordHash: "$2a$10$secret"}

	payload, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "secret")
}
