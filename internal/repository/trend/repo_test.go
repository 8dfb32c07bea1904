package trend

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tiergate/internal/health"
)

// --- Mocks ---

type mockStore struct {
	lists   map[string][]string
	pushErr error
	readErr error
}

func newMockStore() *mockStore {
	return &mockStore{lists: map[string][]string{}}
}

func (m *mockStore) PushCapped(_ context.Context, key, value string, capacity int64) error {
	if m.pushErr != nil {
		return m.pushErr
	}
	list := append([]string{value}, m.lists[key]...)
	if int64(len(list)) > capacity {
		list = list[:capacity]
	}
	m.lists[key] = list
	return nil
}

func (m *mockStore) Range(_ context.Context, key string) ([]string, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.lists[key], nil
}

// --- Tests ---

func TestRecordAndRecent_NewestFirst(t *testing.T) {
	repo := New(newMockStore(), health.NewTracker(), zap.NewNop())
	ctx := context.Background()

	repo.Record(ctx, "first")
	repo.Record(ctx, "second")

	got := repo.Recent(ctx)
	if len(got) != 2 || got[0] != "second" || got[1] != "first" {
		t.Errorf("expected newest first, got %v", got)
	}
}

func TestRecord_Capped(t *testing.T) {
	store := newMockStore()
	repo := New(store, health.NewTracker(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		repo.Record(ctx, "q")
	}
	if got := len(repo.Recent(ctx)); got != capacity {
		t.Errorf("expected list capped at %d, got %d", capacity, got)
	}
}

func TestRecord_FailureSwallowed(t *testing.T) {
	store := newMockStore()
	store.pushErr = errors.New("connection refused")
	tracker := health.NewTracker()
	tracker.MarkCache(true)
	repo := New(store, tracker, zap.NewNop())

	// Must not panic or surface the error.
	repo.Record(context.Background(), "q")

	if tracker.CacheHealthy() {
		t.Error("a failed push must mark the tier down")
	}
}

func TestRecent_FailureYieldsEmpty(t *testing.T) {
	store := newMockStore()
	store.readErr = errors.New("connection refused")
	repo := New(store, health.NewTracker(), zap.NewNop())

	got := repo.Recent(context.Background())
	if got == nil {
		t.Fatal("expected an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
}

func TestRecent_EmptyListNotNil(t *testing.T) {
	repo := New(newMockStore(), health.NewTracker(), zap.NewNop())

	if got := repo.Recent(context.Background()); got == nil {
		t.Fatal("expected an empty slice, not nil")
	}
}
