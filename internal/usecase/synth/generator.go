// Package synth produces synthetic catalog records for the degraded
// path. Output is shape-identical to real records; only the content
// markers (description, image seed) reveal it is not from the catalog.
package synth

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/tiergate/internal/domain/product"
)

var tiers = []string{"Pro", "Elite", "Plus", "Lite", "Studio", "Max"}

var categories = []string{
	"Electronics",
	"Computers",
	"Accessories",
	"Home Office",
	"Audio",
	"Gaming",
}

var brands = []string{
	"Northgate Labs",
	"ApexWare",
	"FutureCore",
	"BlueSky Systems",
	"Harborlight Digital",
}

// seq disambiguates ids generated within the same nanosecond.
var seq atomic.Int64

// Generator synthesizes fallback records.
type Generator struct{}

// New creates a Generator.
func New() *Generator { return &Generator{} }

// ForQuery synthesizes count records whose names interpolate the query.
// Every record passes the full normalization contract.
func (g *Generator) ForQuery(query string, count int) []product.Product {
	base := strings.TrimSpace(query)
	if base == "" {
		base = "Product"
	}
	imageSeed := strings.ReplaceAll(base, " ", "")

	items := make([]product.Product, count)
	for i := range items {
		items[i] = product.Normalize(product.Product{
			ID:          syntheticID(i),
			Name:        fmt.Sprintf("%s %s", base, tiers[i%len(tiers)]),
			Price:       round2(50 + rand.Float64()*(1200-50)),
			Description: "Served from in-memory fallback data because the primary store is offline.",
			Category:    categories[i%len(categories)],
			Brand:       brands[rand.IntN(len(brands))],
			InStock:     true,
			Rating:      round1(3.5 + rand.Float64()*(5.0-3.5)),
			ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s%d/400/300", imageSeed, i),
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}
	return items
}

// ForID synthesizes a single record seeded by the requested identifier,
// so repeated calls for the same id stay visually related even though
// price is re-randomized.
func (g *Generator) ForID(id string) product.Product {
	name := "Standby Unit SKU"
	if len(id) >= 6 {
		name = "Standby Unit " + id[len(id)-6:]
	}
	return product.Normalize(product.Product{
		ID:          id,
		Name:        name,
		Price:       round2(199 + rand.Float64()*(499-199)),
		Description: "Generated by the gateway to keep responses flowing while the primary store is unavailable.",
		Category:    "Fallback",
		Brand:       "Gateway Edge",
		InStock:     true,
		Rating:      4.7,
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/800/600", id),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

// syntheticID is unique within a process: position, wall clock, counter,
// and a uuid fragment.
func syntheticID(idx int) string {
	return fmt.Sprintf("fallback-%d-%d-%d-%s",
		idx, time.Now().UnixMilli(), seq.Add(1), uuid.NewString()[:8])
}

func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }
