package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/tiergate/internal/db"
	"github.com/kailas-cloud/tiergate/internal/domain"
	"github.com/kailas-cloud/tiergate/internal/domain/product"
	"github.com/kailas-cloud/tiergate/internal/health"
)

// --- Mocks ---

type mockStore struct {
	searchResult []product.Product
	searchErr    error
	getResult    product.Product
	getErr       error
	countResult  int64
	countErr     error
	insertErr    error
	indexErr     error
}

func (m *mockStore) Search(_ context.Context, _ string, _ int64) ([]product.Product, error) {
	return m.searchResult, m.searchErr
}

func (m *mockStore) GetByID(_ context.Context, _ string) (product.Product, error) {
	return m.getResult, m.getErr
}

func (m *mockStore) GetByIDs(_ context.Context, _ []string) ([]product.Product, error) {
	return m.searchResult, m.searchErr
}

func (m *mockStore) FindByCategory(_ context.Context, _, _ string, _ int64) ([]product.Product, error) {
	return m.searchResult, m.searchErr
}

func (m *mockStore) CountApprox(_ context.Context) (int64, error) {
	return m.countResult, m.countErr
}

func (m *mockStore) InsertMany(_ context.Context, items []product.Product) (int, error) {
	return len(items), m.insertErr
}

func (m *mockStore) EnsureIndexes(_ context.Context) error { return m.indexErr }

// --- Tests ---

func TestGetByID_KeyNotFound_MapsToNotFound(t *testing.T) {
	tracker := health.NewTracker()
	repo := New(&mockStore{getErr: db.ErrKeyNotFound}, tracker)

	_, err := repo.GetByID(context.Background(), "bad-id")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, domain.ErrPrimaryDown) {
		t.Error("a confirmed absence must not read as an outage")
	}
	if !tracker.PrimaryHealthy() {
		t.Error("an authoritative miss still marks the tier healthy")
	}
}

func TestGetByID_InvalidKey_HealthyTier_NotFound(t *testing.T) {
	tracker := health.NewTracker()
	tracker.MarkPrimary(true)
	repo := New(&mockStore{getErr: db.ErrInvalidKey}, tracker)

	_, err := repo.GetByID(context.Background(), "not-an-objectid")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !tracker.PrimaryHealthy() {
		t.Error("an unparseable id must not change the tracker")
	}
}

func TestGetByID_InvalidKey_DownTier_PrimaryDown(t *testing.T) {
	tracker := health.NewTracker()
	tracker.MarkPrimary(false)
	repo := New(&mockStore{getErr: db.ErrInvalidKey}, tracker)

	_, err := repo.GetByID(context.Background(), "not-an-objectid")
	if !errors.Is(err, domain.ErrPrimaryDown) {
		t.Fatalf("expected ErrPrimaryDown so the fallback path answers, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("a down tier cannot confirm absence")
	}
	if tracker.PrimaryHealthy() {
		t.Error("an unparseable id must not flip a down tracker healthy")
	}
}

func TestGetByID_StoreFailure_MapsToPrimaryDown(t *testing.T) {
	tracker := health.NewTracker()
	tracker.MarkPrimary(true)
	repo := New(&mockStore{getErr: errors.New("no reachable servers")}, tracker)

	_, err := repo.GetByID(context.Background(), "abc")
	if !errors.Is(err, domain.ErrPrimaryDown) {
		t.Fatalf("expected ErrPrimaryDown, got %v", err)
	}
	if tracker.PrimaryHealthy() {
		t.Error("a store failure must mark the tier down")
	}
}

func TestGetByID_NormalizesRecord(t *testing.T) {
	repo := New(&mockStore{getResult: product.Product{ID: "abc"}}, health.NewTracker())

	p, err := repo.GetByID(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if p.ImageURL != product.PlaceholderImageURL {
		t.Errorf("expected normalized image url, got %q", p.ImageURL)
	}
}

func TestSearch_NilResultBecomesEmpty(t *testing.T) {
	tracker := health.NewTracker()
	repo := New(&mockStore{searchResult: nil}, tracker)

	items, err := repo.Search(context.Background(), "laptop", 20)
	if err != nil {
		t.Fatal(err)
	}
	if items == nil {
		t.Fatal("expected a non-nil slice")
	}
	if !tracker.PrimaryHealthy() {
		t.Error("a successful search marks the tier healthy")
	}
}

func TestSearch_FailureWrapsPrimaryDown(t *testing.T) {
	cause := errors.New("server selection timeout")
	repo := New(&mockStore{searchErr: cause}, health.NewTracker())

	_, err := repo.Search(context.Background(), "laptop", 20)
	if !errors.Is(err, domain.ErrPrimaryDown) {
		t.Fatalf("expected ErrPrimaryDown, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("expected the store cause preserved in the chain")
	}
}

func TestCountApprox_FailureWrapsPrimaryDown(t *testing.T) {
	repo := New(&mockStore{countErr: errors.New("down")}, health.NewTracker())

	if _, err := repo.CountApprox(context.Background()); !errors.Is(err, domain.ErrPrimaryDown) {
		t.Fatalf("expected ErrPrimaryDown, got %v", err)
	}
}

func TestInsertMany_ReturnsPartialCountOnError(t *testing.T) {
	repo := New(&mockStore{insertErr: errors.New("bulk write error")}, health.NewTracker())

	n, err := repo.InsertMany(context.Background(), make([]product.Product, 5))
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 5 {
		t.Errorf("expected the inserted count preserved, got %d", n)
	}
}
