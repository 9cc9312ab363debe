package bucketing

import (
	"hash"
	"sync"

	"github.com/spaolacci/murmur3"

	"signals-api/internal/config"
)

// BucketingManager maps user ids onto a fixed number of partition buckets so
// the users table never concentrates on a single partition.
type BucketingManager struct {
	userBuckets int
	hasherPool  sync.Pool
}

func NewBucketingManager(cfg *config.Config) *BucketingManager {
	bm := &BucketingManager{
		userBuckets: cfg.Bucketing.UserBuckets,
	}

	// Pool of hash functions to avoid allocation overhead
	bm.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}

	return bm
}

// UserBucket returns a consistent bucket for a user id (0 to userBuckets-1).
func (bm *BucketingManager) UserBucket(userID string) int {
	return int(bm.hashKey(userID) % uint64(bm.userBuckets))
}

// UserBuckets returns the configured bucket count.
func (bm *BucketingManager) UserBuckets() int {
	return bm.userBuckets
}

func (bm *BucketingManager) hashKey(key string) uint64 {
	hasher := bm.hasherPool.Get().(hash.Hash64)
	defer bm.hasherPool.Put(hasher)

	hasher.Reset()
	hasher.Write([]byte(key))
	return hasher.Sum64()
}
