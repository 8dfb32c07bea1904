// Package catalog is the domain repository over the primary store. It
// owns the split the handlers depend on: a confirmed absence surfaces
// as domain.ErrNotFound, a tier-level failure as domain.ErrPrimaryDown.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/tiergate/internal/db"
	"github.com/kailas-cloud/tiergate/internal/domain"
	"github.com/kailas-cloud/tiergate/internal/domain/product"
	"github.com/kailas-cloud/tiergate/internal/health"
)

// store is the consumer interface for the primary tier (ISP).
type store interface {
	Search(ctx context.Context, text string, limit int64) ([]product.Product, error)
	GetByID(ctx context.Context, id string) (product.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]product.Product, error)
	FindByCategory(ctx context.Context, category, excludeID string, limit int64) ([]product.Product, error)
	CountApprox(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, items []product.Product) (int, error)
	EnsureIndexes(ctx context.Context) error
}

// Repository wraps the primary store with health marking and sentinel
// error mapping.
type Repository struct {
	store  store
	health *health.Tracker
}

// New creates a catalog repository.
func New(s store, tracker *health.Tracker) *Repository {
	return &Repository{store: s, health: tracker}
}

// Search runs a case-insensitive multi-field search.
func (r *Repository) Search(ctx context.Context, text string, limit int64) ([]product.Product, error) {
	items, err := r.store.Search(ctx, text, limit)
	if err != nil {
		r.health.MarkPrimary(false)
		return nil, fmt.Errorf("%w: %w", domain.ErrPrimaryDown, err)
	}
	r.health.MarkPrimary(true)
	return product.NormalizeAll(items), nil
}

// GetByID performs a point lookup. A db.ErrKeyNotFound is a confirmed
// absence: it becomes domain.ErrNotFound and still counts as a healthy
// primary tier. A db.ErrInvalidKey never reached the backend, so the
// tracker is left alone and the last observed tier state decides: a
// healthy tier is authoritative that the record cannot exist, a down
// tier means the answer must come from the fallback path.
func (r *Repository) GetByID(ctx context.Context, id string) (product.Product, error) {
	p, err := r.store.GetByID(ctx, id)
	switch {
	case err == nil:
		r.health.MarkPrimary(true)
		return product.Normalize(p), nil
	case errors.Is(err, db.ErrInvalidKey):
		if r.health.PrimaryHealthy() {
			return product.Product{}, domain.ErrNotFound
		}
		return product.Product{}, fmt.Errorf("%w: %w", domain.ErrPrimaryDown, err)
	case errors.Is(err, db.ErrKeyNotFound):
		r.health.MarkPrimary(true)
		return product.Product{}, domain.ErrNotFound
	default:
		r.health.MarkPrimary(false)
		return product.Product{}, fmt.Errorf("%w: %w", domain.ErrPrimaryDown, err)
	}
}

// GetByIDs fetches records for the given identifiers.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	items, err := r.store.GetByIDs(ctx, ids)
	if err != nil {
		r.health.MarkPrimary(false)
		return nil, fmt.Errorf("%w: %w", domain.ErrPrimaryDown, err)
	}
	r.health.MarkPrimary(true)
	return product.NormalizeAll(items), nil
}

// FindByCategory returns records sharing a category, excluding one id.
func (r *Repository) FindByCategory(ctx context.Context, category, excludeID string, limit int64) ([]product.Product, error) {
	items, err := r.store.FindByCategory(ctx, category, excludeID, limit)
	if err != nil {
		r.health.MarkPrimary(false)
		return nil, fmt.Errorf("%w: %w", domain.ErrPrimaryDown, err)
	}
	r.health.MarkPrimary(true)
	return product.NormalizeAll(items), nil
}

// CountApprox returns the estimated catalog size.
func (r *Repository) CountApprox(ctx context.Context) (int64, error) {
	n, err := r.store.CountApprox(ctx)
	if err != nil {
		r.health.MarkPrimary(false)
		return 0, fmt.Errorf("%w: %w", domain.ErrPrimaryDown, err)
	}
	r.health.MarkPrimary(true)
	return n, nil
}

// InsertMany bulk-inserts records, returning how many made it in.
func (r *Repository) InsertMany(ctx context.Context, items []product.Product) (int, error) {
	inserted, err := r.store.InsertMany(ctx, items)
	if err != nil {
		r.health.MarkPrimary(false)
		return inserted, fmt.Errorf("%w: %w", domain.ErrPrimaryDown, err)
	}
	r.health.MarkPrimary(true)
	return inserted, nil
}

// EnsureIndexes creates lookup indexes; failures are non-fatal for
// callers but still reported.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	err := r.store.EnsureIndexes(ctx)
	r.health.MarkPrimary(err == nil)
	if err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}
