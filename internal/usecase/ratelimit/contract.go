package ratelimit

import (
	"context"
	"time"
)

// Counter is the cache-tier contract the limiter depends on. Errors
// must be surfaced: they are what makes the limiter fail open.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
