// Package trend records recent search queries in a capped list.
package trend

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tiergate/internal/health"
)

const (
	key      = "global:searches"
	capacity = 20
)

// store is the consumer interface for the cache tier (ISP).
type store interface {
	PushCapped(ctx context.Context, key, value string, capacity int64) error
	Range(ctx context.Context, key string) ([]string, error)
}

// Repository keeps the most recent search queries, newest first.
type Repository struct {
	store  store
	health *health.Tracker
	logger *zap.Logger
}

// New creates a trend repository.
func New(s store, tracker *health.Tracker, logger *zap.Logger) *Repository {
	return &Repository{store: s, health: tracker, logger: logger}
}

// Record pushes a query onto the trend list. Best-effort: failures are
// logged and discarded at the call site.
func (r *Repository) Record(ctx context.Context, query string) {
	err := r.store.PushCapped(ctx, key, query, capacity)
	r.health.MarkCache(err == nil)
	if err != nil {
		r.logger.Debug("Failed to record search trend", zap.Error(err))
	}
}

// Recent returns the trend list, newest first. Never errors; a down
// cache tier yields an empty list.
func (r *Repository) Recent(ctx context.Context) []string {
	items, err := r.store.Range(ctx, key)
	r.health.MarkCache(err == nil)
	if err != nil {
		r.logger.Debug("Failed to read search trends", zap.Error(err))
		return []string{}
	}
	if items == nil {
		items = []string{}
	}
	return items
}
