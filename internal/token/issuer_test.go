package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signals-api/internal/config"
)

func testIssuer(t *testing.T, secret string, ttl time.Duration) *Issuer {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.TTL = ttl
	return NewIssuer(cfg)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := testIssuer(t, "test-secret", time.Hour)

	signed, err := issuer.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	userID, err := issuer.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := testIssuer(t, "test-secret", time.Hour).WithClock(func() time.Time { return issuedAt })

	signed, err := issuer.Issue("user-123")
	require.NoError(t, err)

	// Just inside the window.
	issuer.WithClock(func() time.Time { return issuedAt.Add(59 * time.Minute) })
	userID, err := issuer.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	// Just past the window.
	issuer.WithClock(func() time.Time { return issuedAt.Add(61 * time.Minute) })
	_, err = issuer.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	signer := testIssuer(t, "secret-a", time.Hour)
	verifier := testIssuer(t, "secret-b", time.Hour)

	signed, err := signer.Issue("user-123")
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformedToken(t *testing.T) {
	issuer := testIssuer(t, "test-secret", time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", raw)
	}
}
