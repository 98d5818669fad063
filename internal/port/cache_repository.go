package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// Get reads the value stored under key into dest, returns false on miss
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value under key with a TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys by exact match
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPrefix scans for keys with the given prefix and removes them
	DeleteByPrefix(ctx context.Context, prefix string) error
}
