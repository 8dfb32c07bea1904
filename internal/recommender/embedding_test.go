package recommender

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// --- Mocks ---

type mockEmbeddingAPI struct {
	vector []float32
	err    error
}

func (m *mockEmbeddingAPI) CreateEmbeddings(_ context.Context, _ openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	if m.err != nil {
		return openai.EmbeddingResponse{}, m.err
	}
	return openai.EmbeddingResponse{
		Data: []openai.Embedding{{Embedding: m.vector}},
	}, nil
}

func newEmbedding(api embeddingAPI, items []ArtifactItem) *Embedding {
	return &Embedding{
		client: api,
		model:  openai.SmallEmbedding3,
		items:  items,
		logger: zap.NewNop(),
	}
}

// --- Tests ---

func TestFindSimilar_RanksByCosine(t *testing.T) {
	items := []ArtifactItem{
		{ID: "opposite", Vector: []float32{-1, 0}},
		{ID: "aligned", Vector: []float32{1, 0}},
		{ID: "orthogonal", Vector: []float32{0, 1}},
	}
	e := newEmbedding(&mockEmbeddingAPI{vector: []float32{1, 0}}, items)

	ids, err := e.FindSimilar(context.Background(), "laptop", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if ids[0] != "aligned" {
		t.Errorf("expected the aligned vector first, got %v", ids)
	}
	if ids[1] != "orthogonal" {
		t.Errorf("expected the orthogonal vector second, got %v", ids)
	}
}

func TestFindSimilar_SkipsMismatchedVectors(t *testing.T) {
	items := []ArtifactItem{
		{ID: "wrong-dims", Vector: []float32{1, 0, 0}},
		{ID: "zero-norm", Vector: []float32{0, 0}},
		{ID: "good", Vector: []float32{1, 1}},
	}
	e := newEmbedding(&mockEmbeddingAPI{vector: []float32{1, 0}}, items)

	ids, err := e.FindSimilar(context.Background(), "laptop", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "good" {
		t.Errorf("expected only the comparable vector ranked, got %v", ids)
	}
}

func TestFindSimilar_APIError(t *testing.T) {
	e := newEmbedding(&mockEmbeddingAPI{err: errors.New("rate limited")}, []ArtifactItem{
		{ID: "x", Vector: []float32{1, 0}},
	})

	if _, err := e.FindSimilar(context.Background(), "laptop", 4); err == nil {
		t.Error("expected the API error surfaced")
	}
}

func TestCosine(t *testing.T) {
	if score, ok := cosine([]float32{1, 0}, []float32{1, 0}); !ok || score < 0.999 {
		t.Errorf("identical vectors should score ~1, got %f (ok=%v)", score, ok)
	}
	if _, ok := cosine([]float32{1}, []float32{1, 0}); ok {
		t.Error("mismatched dimensions must not be comparable")
	}
	if _, ok := cosine([]float32{0, 0}, []float32{1, 0}); ok {
		t.Error("zero-norm vectors must not be comparable")
	}
}

func TestLoadArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	content := `{"model":"text-embedding-3-small","items":[{"id":"a","vector":[0.1,0.2]}]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	a, err := LoadArtifact(path)
	if err != nil {
		t.Fatal(err)
	}
	if a.Model != "text-embedding-3-small" || len(a.Items) != 1 {
		t.Errorf("unexpected artifact: %+v", a)
	}
}

func TestLoadArtifact_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(`{"model":"m","items":[]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadArtifact(path); err == nil {
		t.Error("an empty artifact must be rejected")
	}
}

func TestNew_DisabledWithoutCredentials(t *testing.T) {
	rec := New(Config{}, zap.NewNop())

	if _, ok := rec.(Disabled); !ok {
		t.Fatalf("expected Disabled recommender, got %T", rec)
	}
	ids, err := rec.FindSimilar(context.Background(), "laptop", 4)
	if err != nil || len(ids) != 0 {
		t.Errorf("disabled model must answer empty without error, got %v (%v)", ids, err)
	}
}

func TestNew_DisabledWhenArtifactMissing(t *testing.T) {
	rec := New(Config{
		APIKey:       "key",
		ArtifactPath: filepath.Join(t.TempDir(), "missing.json"),
		Model:        "text-embedding-3-small",
	}, zap.NewNop())

	if _, ok := rec.(Disabled); !ok {
		t.Fatalf("expected Disabled recommender, got %T", rec)
	}
}
