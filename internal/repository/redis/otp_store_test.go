package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeLengthAndCharset(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		code, err := GenerateCode(length)
		require.NoError(t, err)
		require.Len(t, code, length)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit %q", code, r)
		}
	}
}

func TestGenerateCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode(6)
		require.NoError(t, err)
		seen[code] = true
	}
	// 50 draws from a million-value space colliding down to a handful would
	// mean the generator is broken.
	assert.Greater(t, len(seen), 40)
}

func TestOTPKeyIsPerNumberAndCode(t *testing.T) {
	assert.Equal(t, "otp:9876543210:123456", otpKey("9876543210", "123456"))
	assert.NotEqual(t, otpKey("111", "222"), otpKey("11", "1222"))
}
