// Package chi exposes the gateway over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tiergate/internal/domain"
	"github.com/kailas-cloud/tiergate/internal/domain/product"
	"github.com/kailas-cloud/tiergate/internal/domain/source"
	logpkg "github.com/kailas-cloud/tiergate/internal/logger"
	"github.com/kailas-cloud/tiergate/internal/metrics"
	gatewayuc "github.com/kailas-cloud/tiergate/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/tiergate/internal/usecase/health"
	ratelimituc "github.com/kailas-cloud/tiergate/internal/usecase/ratelimit"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server wires the gateway use cases onto chi routes.
type Server struct {
	gateway       *gatewayuc.Service
	health        *healthuc.Service
	limiter       *ratelimituc.Service
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server.
func NewServer(
	gateway *gatewayuc.Service,
	health *healthuc.Service,
	limiter *ratelimituc.Service,
) *Server {
	s := &Server{
		gateway: gateway,
		health:  health,
		limiter: limiter,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, "invalid_query"),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"),
	}
	return s
}

// Routes mounts all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api", func(r chi.Router) {
		r.With(s.rateLimit).Get("/search", s.SearchProducts)
		r.Get("/products/{id}", s.GetProduct)
		r.Get("/products/{id}/similar", s.GetSimilarProducts)
		r.Get("/trending", s.GetTrending)
	})
}

type listResponse struct {
	Source source.Source     `json:"source"`
	Time   string            `json:"time"`
	Cached bool              `json:"cached"`
	Count  int               `json:"count"`
	Data   []product.Product `json:"data"`
}

type itemResponse struct {
	Source source.Source   `json:"source"`
	Time   string          `json:"time"`
	Cached bool            `json:"cached"`
	Data   product.Product `json:"data"`
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "tiergate gateway is running"})
}

// SearchProducts handles GET /api/search.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	res, err := s.gateway.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	metrics.ObserveResponse("search", string(res.Source))
	writeJSON(w, http.StatusOK, listResponse{
		Source: res.Source,
		Time:   formatLatency(start),
		Cached: res.Cached,
		Count:  len(res.Products),
		Data:   res.Products,
	})
}

// GetProduct handles GET /api/products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	res, err := s.gateway.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	metrics.ObserveResponse("product", string(res.Source))
	writeJSON(w, http.StatusOK, itemResponse{
		Source: res.Source,
		Time:   formatLatency(start),
		Cached: res.Cached,
		Data:   res.Product,
	})
}

// GetSimilarProducts handles GET /api/products/{id}/similar.
func (s *Server) GetSimilarProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	res, err := s.gateway.Similar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	metrics.ObserveResponse("similar", string(res.Source))
	writeJSON(w, http.StatusOK, listResponse{
		Source: res.Source,
		Time:   formatLatency(start),
		Cached: res.Cached,
		Count:  len(res.Products),
		Data:   res.Products,
	})
}

// GetTrending handles GET /api/trending.
func (s *Server) GetTrending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gateway.Trending(r.Context()))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    report.Status,
		"timestamp": report.Timestamp.Format(time.RFC3339),
		"connections": map[string]bool{
			"cache":   report.Cache,
			"primary": report.Primary,
		},
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// rateLimit guards a route with the per-identity limiter. The limiter
// fails open, so a down cache tier never blocks traffic.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(r.Context(), clientIP(r)) {
			s.handleDomainError(w, r, domain.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client identity: first X-Forwarded-For hop if
// present, otherwise the remote address host.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// formatLatency renders elapsed handler time as whole milliseconds.
func formatLatency(start time.Time) string {
	elapsed := time.Since(start).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return fmt.Sprintf("%dms", elapsed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	// The request-scoped logger carries the request id.
	logpkg.FromContext(r.Context()).Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
