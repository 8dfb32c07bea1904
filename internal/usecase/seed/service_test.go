package seed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tiergate/internal/domain/product"
)

// --- Mocks ---

type mockCatalog struct {
	mu sync.Mutex

	count    int64
	countErr error

	insertErr    error
	insertCalls  int
	inserted     int
	indexCalls   int
	indexErr     error
	partialBatch int // when >0, the failing batch reports this many inserted
}

func (m *mockCatalog) CountApprox(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count, m.countErr
}

func (m *mockCatalog) InsertMany(_ context.Context, items []product.Product) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if m.insertErr != nil {
		n := m.partialBatch
		m.inserted += n
		m.count += int64(n)
		return n, m.insertErr
	}
	m.inserted += len(items)
	m.count += int64(len(items))
	return len(items), nil
}

func (m *mockCatalog) EnsureIndexes(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexCalls++
	return m.indexErr
}

func newService(catalog *mockCatalog, target, batch int) *Service {
	return New(catalog, Config{Enabled: true, Target: target, BatchSize: batch}, zap.NewNop())
}

// --- Tests ---

func TestRun_SeedsToTarget(t *testing.T) {
	catalog := &mockCatalog{}
	svc := newService(catalog, 100, 40)

	svc.Run(context.Background())

	if catalog.inserted != 100 {
		t.Errorf("expected 100 inserted, got %d", catalog.inserted)
	}
	if catalog.insertCalls != 3 {
		t.Errorf("expected 3 batches (40+40+20), got %d", catalog.insertCalls)
	}
	if catalog.indexCalls != 1 {
		t.Errorf("expected indexes ensured once, got %d", catalog.indexCalls)
	}
	if !svc.Completed() {
		t.Error("expected completion flag set")
	}
}

func TestRun_TopsUpExisting(t *testing.T) {
	catalog := &mockCatalog{count: 70}
	svc := newService(catalog, 100, 40)

	svc.Run(context.Background())

	if catalog.inserted != 30 {
		t.Errorf("expected top-up of 30, got %d", catalog.inserted)
	}
	if !svc.Completed() {
		t.Error("expected completion flag set")
	}
}

func TestRun_AlreadyPopulated(t *testing.T) {
	catalog := &mockCatalog{count: 2000}
	svc := newService(catalog, 100, 40)

	svc.Run(context.Background())

	if catalog.insertCalls != 0 {
		t.Errorf("expected no inserts, got %d", catalog.insertCalls)
	}
	if !svc.Completed() {
		t.Error("a full catalog still marks the run complete")
	}
}

func TestRun_Disabled(t *testing.T) {
	catalog := &mockCatalog{}
	svc := New(catalog, Config{Enabled: false, Target: 100, BatchSize: 40}, zap.NewNop())

	svc.Run(context.Background())

	if catalog.insertCalls != 0 {
		t.Errorf("disabled seeder must not insert, got %d calls", catalog.insertCalls)
	}
	if svc.Completed() {
		t.Error("disabled seeder must not mark completion")
	}
}

func TestRun_Idempotent(t *testing.T) {
	catalog := &mockCatalog{}
	svc := newService(catalog, 100, 40)

	svc.Run(context.Background())
	first := catalog.insertCalls
	svc.Run(context.Background())

	if catalog.insertCalls != first {
		t.Errorf("second run must be a no-op, calls went %d -> %d", first, catalog.insertCalls)
	}
}

func TestRun_ConcurrentSingleAttempt(t *testing.T) {
	catalog := &mockCatalog{}
	svc := newService(catalog, 100, 40)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Run(context.Background())
		}()
	}
	wg.Wait()

	if catalog.inserted != 100 {
		t.Errorf("concurrent runs must insert the target exactly once, got %d", catalog.inserted)
	}
}

func TestRun_CountError_SkipsSeed(t *testing.T) {
	catalog := &mockCatalog{countErr: errors.New("primary down")}
	svc := newService(catalog, 100, 40)

	svc.Run(context.Background())

	if catalog.insertCalls != 0 {
		t.Error("an unknown count must not trigger inserts")
	}
	if svc.Completed() {
		t.Error("a skipped run must leave the flag unset")
	}
}

func TestRun_BatchError_FlagStaysUnset(t *testing.T) {
	catalog := &mockCatalog{insertErr: errors.New("write failed"), partialBatch: 10}
	svc := newService(catalog, 100, 40)

	svc.Run(context.Background())

	if svc.Completed() {
		t.Error("a failed batch must leave the flag unset for retry")
	}
	if catalog.insertCalls != 1 {
		t.Errorf("expected the run to stop after the failing batch, got %d calls", catalog.insertCalls)
	}

	// A retry tops up against the live count including the partial batch.
	catalog.mu.Lock()
	catalog.insertErr = nil
	catalog.mu.Unlock()
	svc.Run(context.Background())

	if catalog.count != 100 {
		t.Errorf("retry must reach the target exactly, got %d", catalog.count)
	}
	if !svc.Completed() {
		t.Error("expected completion after the retry")
	}
}

func TestGenerateBatch_Shape(t *testing.T) {
	items := generateBatch(25)

	if len(items) != 25 {
		t.Fatalf("expected 25 items, got %d", len(items))
	}
	for i, p := range items {
		if p.Name == "" || p.Description == "" || p.Brand == "" {
			t.Errorf("item %d has empty text fields: %+v", i, p)
		}
		if p.Price < 20 || p.Price > 2500 {
			t.Errorf("item %d price %f out of range", i, p.Price)
		}
		if p.Category == "" {
			t.Errorf("item %d has no category", i)
		}
		if p.CreatedAt == "" {
			t.Errorf("item %d has no creation timestamp", i)
		}
	}
}
