// Package recommender is the pretrained nearest-neighbor lookup behind
// the similar-products path. The gateway treats it as a black box: an
// ordered list of candidate identifiers, or nothing when no model is
// loaded.
package recommender

import "context"

// Recommender finds catalog identifiers similar to the given text
// features. An unloaded model returns an empty list and no error.
type Recommender interface {
	FindSimilar(ctx context.Context, text string, limit int) ([]string, error)
}

// Disabled is the no-model recommender.
type Disabled struct{}

// FindSimilar always returns an empty result.
func (Disabled) FindSimilar(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}
