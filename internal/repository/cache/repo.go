// Package cache is the read-through cache repository over the cache
// tier. It is strictly an optimization: every failure is absorbed here,
// logged, and reported to the health tracker, so callers never
// special-case cache unavailability.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tiergate/internal/db"
	"github.com/kailas-cloud/tiergate/internal/domain/product"
	"github.com/kailas-cloud/tiergate/internal/health"
)

// Per-namespace TTLs.
const (
	SearchTTL  = 60 * time.Second
	ProductTTL = 300 * time.Second
	SimilarTTL = 120 * time.Second
)

// store is the consumer interface for the cache tier (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Repository serializes product payloads in and out of the cache tier.
type Repository struct {
	store  store
	health *health.Tracker
	logger *zap.Logger
}

// New creates a cache repository.
func New(s store, tracker *health.Tracker, logger *zap.Logger) *Repository {
	return &Repository{store: s, health: tracker, logger: logger}
}

// Search returns the cached result list for a query, if present.
func (r *Repository) Search(ctx context.Context, query string) ([]product.Product, bool) {
	return r.getList(ctx, searchKey(query))
}

// StoreSearch caches a search result list. Best-effort.
func (r *Repository) StoreSearch(ctx context.Context, query string, items []product.Product) {
	r.put(ctx, searchKey(query), items, SearchTTL)
}

// Product returns the cached record for an identifier, if present.
func (r *Repository) Product(ctx context.Context, id string) (product.Product, bool) {
	data, ok := r.get(ctx, productKey(id))
	if !ok {
		return product.Product{}, false
	}
	var p product.Product
	if err := json.Unmarshal(data, &p); err != nil {
		r.logger.Debug("Discarding undecodable cache entry", zap.String("key", productKey(id)), zap.Error(err))
		return product.Product{}, false
	}
	return p, true
}

// StoreProduct caches a single record. Best-effort.
func (r *Repository) StoreProduct(ctx context.Context, id string, p product.Product) {
	r.put(ctx, productKey(id), p, ProductTTL)
}

// Similar returns the cached similar-products list, if present.
func (r *Repository) Similar(ctx context.Context, id string) ([]product.Product, bool) {
	return r.getList(ctx, similarKey(id))
}

// StoreSimilar caches a similar-products list. Best-effort.
func (r *Repository) StoreSimilar(ctx context.Context, id string, items []product.Product) {
	r.put(ctx, similarKey(id), items, SimilarTTL)
}

// Incr increments a raw counter key. Unlike the read/write paths the
// error is returned: the rate limiter needs to observe backend failure
// to fail open.
func (r *Repository) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.store.Incr(ctx, key)
	r.health.MarkCache(err == nil)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Expire sets a TTL on a raw key.
func (r *Repository) Expire(ctx context.Context, key string, ttl time.Duration) error {
	err := r.store.Expire(ctx, key, ttl)
	r.health.MarkCache(err == nil)
	return err
}

func (r *Repository) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			r.health.MarkCache(true)
			return nil, false
		}
		r.health.MarkCache(false)
		r.logger.Debug("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	r.health.MarkCache(true)
	return data, true
}

func (r *Repository) getList(ctx context.Context, key string) ([]product.Product, bool) {
	data, ok := r.get(ctx, key)
	if !ok {
		return nil, false
	}
	var items []product.Product
	if err := json.Unmarshal(data, &items); err != nil {
		r.logger.Debug("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return items, true
}

func (r *Repository) put(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Debug("Cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.store.SetEx(ctx, key, data, ttl); err != nil {
		r.health.MarkCache(false)
		r.logger.Debug("Cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	r.health.MarkCache(true)
}

func searchKey(query string) string { return "search:" + query }
func productKey(id string) string   { return "product:" + id }
func similarKey(id string) string   { return "similar:" + id }
