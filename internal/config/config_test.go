package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, ":4000", cfg.GetServerAddress())
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 12, cfg.Hashing.BcryptCost)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 6, cfg.OTP.CodeLength)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfigRejectsWeakBcryptCost(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("BCRYPT_COST", "6")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("SCYLLA_NODES", "node1:9042, node2:9042")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, []string{"node1:9042", "node2:9042"}, cfg.Scylla.Nodes)
	assert.True(t, cfg.IsProduction())
}
