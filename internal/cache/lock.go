package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Abhishek-Shewale/salesdash/internal/pkg/logger"
)

// Locker is implemented by stores that can guard expensive rebuilds so that
// only one instance refreshes a given cache entry at a time.
type Locker interface {
	// TryLock attempts to take the rebuild lock for key. On success it
	// returns a release func and true. ok=false means another holder has it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context), ok bool)
}

// TryLock on the in-process store always succeeds with a no-op release:
// within one process the aggregation cost is bounded and rebuild races are
// harmless.
func (m *Memory) TryLock(_ context.Context, _ string, _ time.Duration) (func(context.Context), bool) {
	return func(context.Context) {}, true
}

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// TryLock takes a cross-instance rebuild lock via SET NX with TTL. The lock
// value is random so a holder never releases a lock that expired and was
// re-acquired elsewhere. Redis errors report the lock as acquired; locking
// is an optimization and must not block serving.
func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context), bool) {
	b := make([]byte, 16)
	rand.Read(b)
	value := hex.EncodeToString(b)
	lockKey := keyPrefix + "lock:" + key

	acquired, err := r.client.SetNX(ctx, lockKey, value, ttl).Result()
	if err != nil {
		logger.Warn("lock acquire failed, proceeding unlocked", "error", err.Error())
		return func(context.Context) {}, true
	}
	if !acquired {
		return nil, false
	}
	release := func(ctx context.Context) {
		if _, err := releaseScript.Run(ctx, r.client, []string{lockKey}, value).Result(); err != nil {
			logger.Warn("lock release failed", "error", err.Error())
		}
	}
	return release, true
}
