package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sorabase/catalog"
	"github.com/sorabase/catalog/internal/domain"
)

// mockRawStore is shared with the orchestrator tests, which claim from it
// concurrently, so all access is mutex-guarded.
type mockRawStore struct {
	mu          sync.Mutex
	saved       []domain.RawRecord
	outcome     domain.SaveOutcome
	claimed     []domain.RawRecord
	claimOwner  string
	marked      []string
	markCalls   int
	unprocessed int64
}

func (m *mockRawStore) Save(ctx context.Context, rec domain.RawRecord) (string, domain.SaveOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, rec)
	return "raw-1", m.outcome, nil
}

func (m *mockRawStore) ClaimBatch(ctx context.Context, n int, owner string, ttl time.Duration) ([]domain.RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimOwner = owner
	if n > len(m.claimed) {
		n = len(m.claimed)
	}
	batch := m.claimed[:n]
	m.claimed = m.claimed[n:]
	return batch, nil
}

func (m *mockRawStore) MarkProcessed(ctx context.Context, ids []string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, ids...)
	m.markCalls++
	return nil
}

func (m *mockRawStore) CountUnprocessed(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unprocessed, nil
}

func TestCollectorSave(t *testing.T) {
	store := &mockRawStore{outcome: domain.SaveCreated}
	uc := NewCollectorUsecase(store)

	id, outcome, err := uc.Save(context.Background(), catalog.RawItem{
		Platform:   "steam",
		Domain:     "game",
		PlatformID: "730",
		URL:        "https://store.example.com/app/730",
		Payload:    catalog.Payload{"name": "Counter-Strike 2"},
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if id != "raw-1" || outcome != domain.SaveCreated {
		t.Fatalf("unexpected save result: %s %v", id, outcome)
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected one store call, got %d", len(store.saved))
	}
	rec := store.saved[0]
	if rec.ContentHash == "" {
		t.Fatalf("expected content hash to be computed")
	}
	if rec.Domain != domain.DomainGame {
		t.Fatalf("expected parsed domain, got %s", rec.Domain)
	}
}

func TestCollectorSaveHashIsOrderInsensitive(t *testing.T) {
	store := &mockRawStore{}
	uc := NewCollectorUsecase(store)

	a := catalog.Payload{"name": "Hades", "appid": float64(1145360)}
	b := catalog.Payload{"appid": float64(1145360), "name": "Hades"}

	for _, payload := range []catalog.Payload{a, b} {
		_, _, err := uc.Save(context.Background(), catalog.RawItem{
			Platform:   "steam",
			Domain:     "game",
			PlatformID: "1145360",
			Payload:    payload,
		})
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	if store.saved[0].ContentHash != store.saved[1].ContentHash {
		t.Fatalf("identical content must hash identically regardless of key order")
	}
}

func TestCollectorSaveValidation(t *testing.T) {
	uc := NewCollectorUsecase(&mockRawStore{})

	cases := []catalog.RawItem{
		{Platform: "steam", Domain: "game"},              // missing platform id
		{Domain: "game", PlatformID: "1"},                // missing platform
		{Platform: "steam", Domain: "music", PlatformID: "1"}, // unknown domain
	}
	for i, item := range cases {
		_, _, err := uc.Save(context.Background(), item)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
}

func TestCollectorBacklog(t *testing.T) {
	uc := NewCollectorUsecase(&mockRawStore{unprocessed: 42})

	n, err := uc.Backlog(context.Background())
	if err != nil {
		t.Fatalf("backlog failed: %v", err)
	}
	if n != 42 {
		t.Fatalf("expected backlog 42, got %d", n)
	}
}
