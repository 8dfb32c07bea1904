package recommender

import (
	"context"
	"fmt"
	"math"
	"sort"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// embeddingAPI is the slice of the OpenAI client the recommender uses.
type embeddingAPI interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Config holds the embedding recommender settings.
type Config struct {
	ArtifactPath string
	APIKey       string
	BaseURL      string
	Model        string
}

// Embedding ranks artifact vectors by cosine similarity against a
// query embedding fetched from an OpenAI-compatible API.
type Embedding struct {
	client embeddingAPI
	model  openai.EmbeddingModel
	items  []ArtifactItem
	logger *zap.Logger
}

// New builds the recommender from configuration. A missing API key or
// artifact means no model is loaded: the gateway gets Disabled and the
// similar path falls back to its same-category heuristic.
func New(cfg Config, logger *zap.Logger) Recommender {
	if cfg.APIKey == "" || cfg.ArtifactPath == "" {
		logger.Info("Similarity model disabled: no API key or artifact configured")
		return Disabled{}
	}

	artifact, err := LoadArtifact(cfg.ArtifactPath)
	if err != nil {
		logger.Warn("Similarity model not loaded", zap.Error(err))
		return Disabled{}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger.Info("Similarity model loaded",
		zap.String("model", artifact.Model),
		zap.Int("items", len(artifact.Items)),
	)
	return &Embedding{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.EmbeddingModel(cfg.Model),
		items:  artifact.Items,
		logger: logger,
	}
}

// FindSimilar embeds the text features and returns the closest catalog
// identifiers, best first.
func (e *Embedding) FindSimilar(ctx context.Context, text string, limit int) ([]string, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("embed query text: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	query := resp.Data[0].Embedding

	type scored struct {
		id    string
		score float64
	}
	ranked := make([]scored, 0, len(e.items))
	for _, item := range e.items {
		if score, ok := cosine(query, item.Vector); ok {
			ranked = append(ranked, scored{id: item.ID, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.id
	}
	return ids, nil
}

// cosine returns the cosine similarity of two vectors; ok is false when
// the dimensions differ or either vector has zero norm.
func cosine(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}
