// Package gateway composes the cache, primary, and synthetic tiers into
// the three read paths. Each list path is an ordered sequence of
// strategies tried until one produces a tagged result; the point-lookup
// path additionally separates a confirmed absence (authoritative 404)
// from a tier outage (synthetic fallback).
package gateway

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tiergate/internal/domain"
	"github.com/kailas-cloud/tiergate/internal/domain/product"
	"github.com/kailas-cloud/tiergate/internal/domain/source"
)

const (
	maxQueryLen   = 100
	searchLimit   = 20
	similarLimit  = 4
	fallbackCount = 8
)

// Result is a tagged multi-record answer.
type Result struct {
	Source   source.Source
	Cached   bool
	Products []product.Product
}

// Item is a tagged single-record answer.
type Item struct {
	Source  source.Source
	Cached  bool
	Product product.Product
}

// Service orchestrates the tiered read paths.
type Service struct {
	cache   ProductCache
	catalog Catalog
	trends  Trends
	rec     Recommender
	synth   Synthesizer
	logger  *zap.Logger
}

// New creates the gateway service.
func New(
	cache ProductCache,
	catalog Catalog,
	trends Trends,
	rec Recommender,
	synth Synthesizer,
	logger *zap.Logger,
) *Service {
	return &Service{
		cache:   cache,
		catalog: catalog,
		trends:  trends,
		rec:     rec,
		synth:   synth,
		logger:  logger,
	}
}

// step is one tier strategy: it either answers with a tagged result or
// signals the next strategy to try.
type step func(ctx context.Context) (Result, bool)

func (s *Service) run(ctx context.Context, steps []step) Result {
	for _, st := range steps {
		if res, ok := st(ctx); ok {
			return res
		}
	}
	// The final strategy of every chain is unconditional.
	return Result{Source: source.Synthetic, Products: []product.Product{}}
}

// Search answers a free-text query from the first tier able to serve
// it. Synthetic results are never written back to the cache.
func (s *Service) Search(ctx context.Context, rawQuery string) (Result, error) {
	query := strings.TrimSpace(rawQuery)
	if query == "" || len(query) > maxQueryLen {
		return Result{}, domain.ErrInvalidQuery
	}

	s.trends.Record(ctx, query)

	// The cache key is lowercased; the primary-tier match is already
	// case-insensitive so the query itself keeps its casing.
	key := strings.ToLower(query)

	return s.run(ctx, []step{
		s.searchCache(key),
		s.searchPrimary(query, key),
		s.searchSynthetic(query),
	}), nil
}

func (s *Service) searchCache(key string) step {
	return func(ctx context.Context) (Result, bool) {
		items, ok := s.cache.Search(ctx, key)
		if !ok {
			return Result{}, false
		}
		return Result{Source: source.Cache, Cached: true, Products: items}, true
	}
}

func (s *Service) searchPrimary(query, key string) step {
	return func(ctx context.Context) (Result, bool) {
		items, err := s.catalog.Search(ctx, query, searchLimit)
		if err != nil {
			s.logger.Warn("Primary search failed", zap.String("query", query), zap.Error(err))
			return Result{}, false
		}
		if len(items) > 0 {
			s.cache.StoreSearch(ctx, key, items)
		}
		return Result{Source: source.Primary, Products: items}, true
	}
}

func (s *Service) searchSynthetic(query string) step {
	return func(ctx context.Context) (Result, bool) {
		return Result{Source: source.Synthetic, Products: s.synth.ForQuery(query, fallbackCount)}, true
	}
}

// Product performs the point lookup. Three terminal outcomes: a real
// record (write-through cached), a confirmed absence (ErrNotFound, no
// fallback), or a tier outage answered synthetically and never cached.
func (s *Service) Product(ctx context.Context, id string) (Item, error) {
	if p, ok := s.cache.Product(ctx, id); ok {
		return Item{Source: source.Cache, Cached: true, Product: p}, nil
	}

	p, err := s.catalog.GetByID(ctx, id)
	switch {
	case err == nil:
		s.cache.StoreProduct(ctx, id, p)
		return Item{Source: source.Primary, Product: p}, nil
	case errors.Is(err, domain.ErrNotFound):
		// A healthy primary tier is authoritative about absence.
		return Item{}, domain.ErrNotFound
	default:
		s.logger.Warn("Primary lookup failed, serving synthetic record",
			zap.String("id", id), zap.Error(err))
		return Item{Source: source.Synthetic, Product: s.synth.ForID(id)}, nil
	}
}

// Similar returns products related to the origin record: model-derived
// when the similarity model answers, same-category heuristic otherwise.
// Only the fully degraded branch (origin unavailable) skips the cache.
func (s *Service) Similar(ctx context.Context, id string) (Result, error) {
	if items, ok := s.cache.Similar(ctx, id); ok {
		return Result{Source: source.Cache, Cached: true, Products: items}, nil
	}

	origin, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		s.logger.Debug("Similar origin unavailable, serving synthetic batch",
			zap.String("id", id), zap.Error(err))
		return Result{Source: source.Synthetic, Products: s.synth.ForQuery("Similar", similarLimit)}, nil
	}

	res := s.run(ctx, []step{
		s.similarModel(origin),
		s.similarHeuristic(origin),
		s.similarSynthetic(),
	})
	if res.Source != source.Synthetic {
		s.cache.StoreSimilar(ctx, id, res.Products)
	}
	return res, nil
}

func (s *Service) similarModel(origin product.Product) step {
	return func(ctx context.Context) (Result, bool) {
		ids, err := s.rec.FindSimilar(ctx, origin.TextFeatures(), similarLimit)
		if err != nil {
			s.logger.Debug("Similarity model lookup failed", zap.Error(err))
			return Result{}, false
		}
		if len(ids) == 0 {
			return Result{}, false
		}
		items, err := s.catalog.GetByIDs(ctx, ids)
		if err != nil || len(items) == 0 {
			return Result{}, false
		}
		return Result{Source: source.Model, Products: items}, true
	}
}

func (s *Service) similarHeuristic(origin product.Product) step {
	return func(ctx context.Context) (Result, bool) {
		items, err := s.catalog.FindByCategory(ctx, origin.Category, origin.ID, similarLimit)
		if err != nil {
			s.logger.Debug("Same-category lookup failed", zap.Error(err))
			return Result{}, false
		}
		// Similar responses are never empty; a lone record in its
		// category falls through to the synthetic batch.
		if len(items) == 0 {
			return Result{}, false
		}
		return Result{Source: source.Heuristic, Products: items}, true
	}
}

func (s *Service) similarSynthetic() step {
	return func(ctx context.Context) (Result, bool) {
		return Result{Source: source.Synthetic, Products: s.synth.ForQuery("Similar", similarLimit)}, true
	}
}

// Trending lists the most recent search queries, newest first.
func (s *Service) Trending(ctx context.Context) []string {
	return s.trends.Recent(ctx)
}
