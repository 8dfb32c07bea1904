// Package health tracks backend tier reachability.
//
// The tracker is advisory: its booleans steer fallback decisions but are
// never a correctness mechanism, so plain last-writer-wins atomics are
// enough. Every operation that touches a backend must mark the outcome.
package health

import "sync/atomic"

// Tracker records reachability of the cache and primary tiers.
// The zero value reports both tiers down until first marked.
type Tracker struct {
	cache   atomic.Bool
	primary atomic.Bool
}

// NewTracker returns a tracker with both tiers unknown (down).
func NewTracker() *Tracker { return &Tracker{} }

// MarkCache records the outcome of a cache-tier operation.
func (t *Tracker) MarkCache(ok bool) { t.cache.Store(ok) }

// MarkPrimary records the outcome of a primary-tier operation.
func (t *Tracker) MarkPrimary(ok bool) { t.primary.Store(ok) }

// CacheHealthy reports the last observed cache-tier state.
func (t *Tracker) CacheHealthy() bool { return t.cache.Load() }

// PrimaryHealthy reports the last observed primary-tier state.
func (t *Tracker) PrimaryHealthy() bool { return t.primary.Load() }

// Snapshot returns both booleans for the health endpoint.
func (t *Tracker) Snapshot() (cache, primary bool) {
	return t.cache.Load(), t.primary.Load()
}
