// Package ratelimit implements a fixed-window request limiter backed by
// the cache tier. Availability beats quota enforcement: any backend
// failure allows the request.
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const window = time.Minute

// Service counts requests per client identity over a rolling window.
type Service struct {
	counter Counter
	limit   int64
	logger  *zap.Logger
}

// New creates a limiter allowing perWindow requests per identity per
// 60-second window.
func New(counter Counter, perWindow int, logger *zap.Logger) *Service {
	return &Service{counter: counter, limit: int64(perWindow), logger: logger}
}

// Allow reports whether the identity may proceed. The first increment
// in a window establishes the 60-second expiry; a failed backend call
// fails open.
func (s *Service) Allow(ctx context.Context, identity string) bool {
	key := "rate_limit:" + identity

	n, err := s.counter.Incr(ctx, key)
	if err != nil {
		s.logger.Debug("Rate limiter unavailable, failing open", zap.Error(err))
		return true
	}

	if n == 1 {
		if err := s.counter.Expire(ctx, key, window); err != nil {
			s.logger.Debug("Failed to set rate limit window", zap.Error(err))
		}
	}

	return n <= s.limit
}
