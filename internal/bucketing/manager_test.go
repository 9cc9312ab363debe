package bucketing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"signals-api/internal/config"
)

func TestUserBucketDeterministicAndInRange(t *testing.T) {
	cfg := &config.Config{}
	cfg.Bucketing.UserBuckets = 64
	mgr := NewBucketingManager(cfg)

	ids := []string{"user-1", "user-2", "b2a6e9a0-3f32-4c8f-9a41-000000000001"}
	for _, id := range ids {
		first := mgr.UserBucket(id)
		second := mgr.UserBucket(id)
		assert.Equal(t, first, second, "bucket for %q must be stable", id)
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, mgr.UserBuckets())
	}
}

func TestUserBucketSpreads(t *testing.T) {
	cfg := &config.Config{}
	cfg.Bucketing.UserBuckets = 8
	mgr := NewBucketingManager(cfg)

	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		seen[mgr.UserBucket(string(rune('a'+i%26))+string(rune('0'+i%10)))] = true
	}
	assert.Greater(t, len(seen), 1)
}
