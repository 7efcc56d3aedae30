package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Abhishek-Shewale/salesdash/internal/pkg/logger"
)

// keyPrefix namespaces dashboard entries so a shared Redis can be flushed
// without touching other tenants.
const keyPrefix = "salesdash:"

// Redis is a Store backed by a shared Redis instance. Errors degrade to
// cache misses; the dashboard must keep working when Redis is down.
type Redis struct {
	client *redis.Client
}

// NewRedis builds a store over an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn("redis get failed, treating as miss", "error", err.Error())
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := r.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		logger.Warn("redis set failed", "error", err.Error())
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		logger.Warn("redis delete failed", "error", err.Error())
	}
}

// Clear removes every dashboard entry, leaving other keyspaces alone.
func (r *Redis) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn("redis scan failed", "error", err.Error())
		return
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			logger.Warn("redis clear failed", "error", err.Error())
		}
	}
}
