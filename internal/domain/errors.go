package domain

import "errors"

// Sentinel errors mapped to HTTP statuses by the transport layer.
var (
	// ErrNotFound means the primary tier is reachable and confirmed the
	// identifier does not resolve. Never masked by synthetic data.
	ErrNotFound = errors.New("product not found")

	// ErrPrimaryDown means the primary tier could not be consulted.
	// Recovered locally via the fallback generator, never surfaced.
	ErrPrimaryDown = errors.New("primary store unavailable")

	// ErrInvalidQuery means the search query is empty or too long.
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrRateLimited means the client exceeded its request window.
	ErrRateLimited = errors.New("rate limit exceeded")
)
