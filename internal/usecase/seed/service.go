// Package seed populates an under-filled catalog at startup. The run is
// idempotent: the target is checked against the live count, so a
// partial earlier attempt is topped up, never duplicated.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tiergate/internal/domain/product"
)

var categories = []string{
	"Electronics",
	"Computers",
	"Accessories",
	"Home Office",
	"Audio",
	"Gaming",
}

// Config controls the seeding run.
type Config struct {
	Enabled   bool
	Target    int
	BatchSize int
}

// Service is the seed orchestrator. At most one seeding attempt runs at
// a time; concurrent triggers block on the lock and observe the
// completion flag.
type Service struct {
	catalog Catalog
	cfg     Config
	logger  *zap.Logger

	mu        sync.Mutex
	completed atomic.Bool
}

// New creates a seed orchestrator.
func New(catalog Catalog, cfg Config, logger *zap.Logger) *Service {
	return &Service{catalog: catalog, cfg: cfg, logger: logger}
}

// Completed reports whether a run has reached the target.
func (s *Service) Completed() bool { return s.completed.Load() }

// Run seeds the catalog if needed. Safe under concurrent invocation:
// the flag is re-checked inside the lock. Failures leave the flag unset
// so the next invocation retries against the live count.
func (s *Service) Run(ctx context.Context) {
	if s.completed.Load() || !s.cfg.Enabled {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed.Load() {
		return
	}

	existing, err := s.catalog.CountApprox(ctx)
	if err != nil {
		s.logger.Warn("Unable to count products, skipping seed", zap.Error(err))
		return
	}

	target := int64(s.cfg.Target)
	if existing >= target {
		s.completed.Store(true)
		s.logger.Info("Catalog already populated, skipping seed", zap.Int64("count", existing))
		return
	}

	s.logger.Info("Seeding catalog", zap.Int64("existing", existing), zap.Int64("target", target))

	created := existing
	for created < target {
		size := int64(s.cfg.BatchSize)
		if remaining := target - created; remaining < size {
			size = remaining
		}

		inserted, err := s.catalog.InsertMany(ctx, generateBatch(int(size)))
		created += int64(inserted)
		if err != nil {
			// Inserted records stay; the flag stays unset so the next
			// startup tops up against the live count.
			s.logger.Error("Seed batch failed", zap.Int64("created", created), zap.Error(err))
			return
		}
		s.logger.Info("Seed progress", zap.Int64("created", created), zap.Int64("target", target))
	}

	if err := s.catalog.EnsureIndexes(ctx); err != nil {
		s.logger.Debug("Index creation skipped", zap.Error(err))
	}
	s.completed.Store(true)
	s.logger.Info("Seed complete", zap.Int64("count", created))
}

// generateBatch produces size synthetic catalog rows.
func generateBatch(size int) []product.Product {
	items := make([]product.Product, size)
	for i := range items {
		items[i] = product.Product{
			Name:        gofakeit.ProductName(),
			Price:       roundCents(20 + rand.Float64()*(2500-20)),
			Description: gofakeit.ProductDescription(),
			Category:    categories[rand.IntN(len(categories))],
			Brand:       gofakeit.Company(),
			InStock:     gofakeit.Bool(),
			Rating:      float64(int((1.5+rand.Float64()*(5.0-1.5))*10)) / 10,
			ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%d/400/300", gofakeit.Number(1, 1_000_000)),
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		}
	}
	return items
}

func roundCents(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
