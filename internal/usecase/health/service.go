// Package health aggregates live tier reachability for the health
// endpoint.
package health

import (
	"context"
	"time"

	"github.com/kailas-cloud/tiergate/internal/health"
)

// Status is the aggregated gateway status.
type Status string

const (
	// Healthy means at least one tier can answer queries.
	Healthy Status = "healthy"
	// Degraded means every tier is down; only synthetic data remains.
	Degraded Status = "degraded"
)

// Report is the health snapshot served to clients.
type Report struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Cache     bool      `json:"cache"`
	Primary   bool      `json:"primary"`
}

// Service runs live pings against both tiers and feeds the tracker.
type Service struct {
	cache   Pinger
	primary Pinger
	tracker *health.Tracker
}

// New creates a health service.
func New(cache, primary Pinger, tracker *health.Tracker) *Service {
	return &Service{cache: cache, primary: primary, tracker: tracker}
}

// Check pings both tiers, records the outcomes, and returns a report.
// The gateway stays "healthy" as long as any tier can answer.
func (s *Service) Check(ctx context.Context) Report {
	cacheOK := s.cache.Ping(ctx) == nil
	primaryOK := s.primary.Ping(ctx) == nil

	s.tracker.MarkCache(cacheOK)
	s.tracker.MarkPrimary(primaryOK)

	status := Degraded
	if cacheOK || primaryOK {
		status = Healthy
	}

	return Report{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Cache:     cacheOK,
		Primary:   primaryOK,
	}
}
