package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sorabase/catalog"
	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/ratelimit"
	"github.com/sorabase/catalog/internal/usecase"
)

type stubRawStore struct {
	mu    sync.Mutex
	saved []domain.RawRecord
}

func (s *stubRawStore) Save(ctx context.Context, rec domain.RawRecord) (string, domain.SaveOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, rec)
	return "raw-1", domain.SaveCreated, nil
}

func (s *stubRawStore) ClaimBatch(ctx context.Context, n int, owner string, ttl time.Duration) ([]domain.RawRecord, error) {
	return nil, nil
}

func (s *stubRawStore) MarkProcessed(ctx context.Context, ids []string, at time.Time) error {
	return nil
}

func (s *stubRawStore) CountUnprocessed(ctx context.Context) (int64, error) { return 0, nil }

func (s *stubRawStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type stubAdapter struct {
	mu       sync.Mutex
	failures int
	fetches  int
	items    []catalog.RawItem
}

func (a *stubAdapter) Platform() string      { return "steam" }
func (a *stubAdapter) Domain() domain.Domain { return domain.DomainGame }

func (a *stubAdapter) FetchBatch(ctx context.Context) ([]catalog.RawItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetches++
	if a.fetches <= a.failures {
		return nil, errors.New("target unavailable")
	}
	return a.items, nil
}

func testConf() domain.Config {
	return domain.Config{
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
		LeaseTTL:      time.Minute,
	}
}

func gameItem(id string) catalog.RawItem {
	return catalog.RawItem{
		Platform:   "steam",
		Domain:     "game",
		PlatformID: id,
		Payload:    catalog.Payload{"name": "Game " + id},
	}
}

func TestCrawlServiceStagesFetchedItems(t *testing.T) {
	store := &stubRawStore{}
	collector := usecase.NewCollectorUsecase(store)
	limiter := ratelimit.New(100, 1000)
	svc := NewCrawlService(collector, limiter, testConf(), 2, 4)

	adapter := &stubAdapter{items: []catalog.RawItem{gameItem("1"), gameItem("2")}}
	svc.Submit(context.Background(), adapter)
	svc.Close()

	if store.count() != 2 {
		t.Fatalf("expected 2 items staged, got %d", store.count())
	}
	if limiter.Stats().TotalAcquired != 1 {
		t.Fatalf("expected one permit per fetch, got %d", limiter.Stats().TotalAcquired)
	}
}

func TestCrawlServiceRetriesThenSucceeds(t *testing.T) {
	store := &stubRawStore{}
	collector := usecase.NewCollectorUsecase(store)
	svc := NewCrawlService(collector, ratelimit.New(100, 1000), testConf(), 1, 2)

	adapter := &stubAdapter{failures: 2, items: []catalog.RawItem{gameItem("1")}}
	svc.Submit(context.Background(), adapter)
	svc.Close()

	if adapter.fetches != 3 {
		t.Fatalf("expected 3 fetch attempts, got %d", adapter.fetches)
	}
	if store.count() != 1 {
		t.Fatalf("expected the item staged after retries, got %d", store.count())
	}
}

func TestCrawlServiceGivesUpAfterRetries(t *testing.T) {
	store := &stubRawStore{}
	collector := usecase.NewCollectorUsecase(store)
	svc := NewCrawlService(collector, ratelimit.New(100, 1000), testConf(), 1, 2)

	adapter := &stubAdapter{failures: 10}
	svc.Submit(context.Background(), adapter)
	svc.Close()

	if adapter.fetches != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", adapter.fetches)
	}
	if store.count() != 0 {
		t.Fatalf("no item may be staged on failure, got %d", store.count())
	}
}

func TestCrawlServiceSkipsInvalidItems(t *testing.T) {
	store := &stubRawStore{}
	collector := usecase.NewCollectorUsecase(store)
	svc := NewCrawlService(collector, ratelimit.New(100, 1000), testConf(), 1, 2)

	adapter := &stubAdapter{items: []catalog.RawItem{
		gameItem("1"),
		{Platform: "steam", Domain: "game"}, // no platform id
	}}
	svc.Submit(context.Background(), adapter)
	svc.Close()

	if store.count() != 1 {
		t.Fatalf("expected only the valid item staged, got %d", store.count())
	}
}
