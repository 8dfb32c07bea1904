package seed

import (
	"context"

	"github.com/kailas-cloud/tiergate/internal/domain/product"
)

// Catalog is the primary-store contract for bulk seeding.
type Catalog interface {
	CountApprox(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, items []product.Product) (int, error)
	EnsureIndexes(ctx context.Context) error
}
