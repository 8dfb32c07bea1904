// Package source enumerates which tier answered a gateway request.
package source

// Source tags a response with the tier that produced it. The tag is
// part of the public response envelope and is relied on by tests.
type Source string

const (
	// Cache means the response was served from the cache tier.
	Cache Source = "cache"
	// Primary means the response came from the durable document store.
	Primary Source = "primary"
	// Model means the similarity model chose the result set.
	Model Source = "model"
	// Heuristic means the same-category primary-tier query answered
	// because the model returned nothing.
	Heuristic Source = "heuristic"
	// Synthetic means the fallback generator produced the records
	// because no authoritative answer was obtainable.
	Synthetic Source = "synthetic"
)

// Valid reports whether s is one of the enumerated tags.
func (s Source) Valid() bool {
	switch s {
	case Cache, Primary, Model, Heuristic, Synthetic:
		return true
	}
	return false
}
