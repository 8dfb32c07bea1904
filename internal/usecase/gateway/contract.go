package gateway

import (
	"context"

	"github.com/kailas-cloud/tiergate/internal/domain/product"
)

// ProductCache is the cache-tier contract. All writes are best-effort
// and must never fail the caller.
type ProductCache interface {
	Search(ctx context.Context, query string) ([]product.Product, bool)
	StoreSearch(ctx context.Context, query string, items []product.Product)
	Product(ctx context.Context, id string) (product.Product, bool)
	StoreProduct(ctx context.Context, id string, p product.Product)
	Similar(ctx context.Context, id string) ([]product.Product, bool)
	StoreSimilar(ctx context.Context, id string, items []product.Product)
}

// Catalog is the primary-tier contract. Point lookups distinguish a
// confirmed absence (domain.ErrNotFound) from a tier outage
// (domain.ErrPrimaryDown); handlers depend on that split.
type Catalog interface {
	Search(ctx context.Context, text string, limit int64) ([]product.Product, error)
	GetByID(ctx context.Context, id string) (product.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]product.Product, error)
	FindByCategory(ctx context.Context, category, excludeID string, limit int64) ([]product.Product, error)
}

// Trends records and lists recent search queries, best-effort.
type Trends interface {
	Record(ctx context.Context, query string)
	Recent(ctx context.Context) []string
}

// Recommender is the pretrained similarity lookup. An unloaded model
// returns an empty list and no error.
type Recommender interface {
	FindSimilar(ctx context.Context, text string, limit int) ([]string, error)
}

// Synthesizer produces degraded-path records.
type Synthesizer interface {
	ForQuery(query string, count int) []product.Product
	ForID(id string) product.Product
}
