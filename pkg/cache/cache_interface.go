package cache

import (
	"context"
	"time"
)

// Cache is the read-through store used for rendered documents.
// Implementations: infrastructure/cache.RedisCache, MemoryCache (fallback + tests).
type Cache interface {
	// Get decodes the JSON value at key into dest.
	// found=false là cache miss; dest giữ nguyên.
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)

	// Set stores value as JSON. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete is a no-op for missing keys
	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error
}
