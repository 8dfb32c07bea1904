// Package product defines the canonical catalog record served to clients.
package product

import "time"

// PlaceholderImageURL is used when a stored record carries no image.
const PlaceholderImageURL = "https://picsum.photos/seed/placeholder/400/300"

// Product is the canonical unit served to clients. Every Product that
// leaves the gateway is normalized: no field is ever null or missing.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	InStock     bool    `json:"inStock"`
	Rating      float64 `json:"rating"`
	ImageURL    string  `json:"imageUrl"`
	CreatedAt   string  `json:"createdAt"`
}

// Normalize fills absent fields with their documented defaults and
// clamps negative numerics. It returns the normalized copy.
func Normalize(p Product) Product {
	if p.Price < 0 {
		p.Price = 0
	}
	if p.Rating < 0 {
		p.Rating = 0
	}
	if p.ImageURL == "" {
		p.ImageURL = PlaceholderImageURL
	}
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return p
}

// NormalizeAll normalizes a slice in place and returns it, never nil.
func NormalizeAll(items []Product) []Product {
	if items == nil {
		return []Product{}
	}
	for i := range items {
		items[i] = Normalize(items[i])
	}
	return items
}

// TextFeatures returns the free-text representation handed to the
// similarity model, matching what the model was trained on.
func (p Product) TextFeatures() string {
	return p.Name + " " + p.Description
}
