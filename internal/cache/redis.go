// Package cache implements the Redis-backed fast-read layer: the progress
// cache (C3) in front of durable job counters.
package cache

import (
	"github.com/redis/go-redis/v9"
)

// NewRedis builds the shared client used by both the progress cache and
// the job lock manager.
func NewRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
