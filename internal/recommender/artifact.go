package recommender

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact is the precomputed model: one embedding vector per catalog
// identifier, produced by an offline training job.
type Artifact struct {
	Model string         `json:"model"`
	Items []ArtifactItem `json:"items"`
}

// ArtifactItem pairs a catalog identifier with its embedding.
type ArtifactItem struct {
	ID     string    `json:"id"`
	Vector []float32 `json:"vector"`
}

// LoadArtifact reads a model artifact from disk.
func LoadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Artifact{}, fmt.Errorf("read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("parse model artifact: %w", err)
	}
	if len(a.Items) == 0 {
		return Artifact{}, fmt.Errorf("model artifact %s has no items", path)
	}
	return a, nil
}
