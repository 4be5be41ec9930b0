package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-results-service/internal/calendar"
	"quiz-results-service/internal/domain"
)

func TestResultRepositoryCaches(t *testing.T) {
	store := &countingStore{StaticStore: NewStaticStore(sampleResults()...)}
	repo := NewResultRepository(store, time.Minute)
	ctx := context.Background()

	if _, err := repo.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.lists != 1 {
		t.Fatalf("expected store once, got %d", store.lists)
	}

	if _, err := repo.Get(ctx, calendar.MustParse("2025-03-10")); err != nil {
		t.Fatalf("get: %v", err)
	}
	if store.lists != 1 {
		t.Fatalf("expected cache hit, store calls %d", store.lists)
	}
}

func TestResultRepositoryExpires(t *testing.T) {
	store := &countingStore{StaticStore: NewStaticStore(sampleResults()...)}
	repo := NewResultRepository(store, time.Minute)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }
	ctx := context.Background()

	_, _ = repo.List(ctx)
	now = now.Add(2 * time.Minute) // beyond ttl plus 10% jitter
	_, _ = repo.List(ctx)
	if store.lists != 2 {
		t.Fatalf("expected reload after expiry, store calls %d", store.lists)
	}
}

func TestResultRepositorySaveInvalidates(t *testing.T) {
	store := &countingStore{StaticStore: NewStaticStore(sampleResults()...)}
	repo := NewResultRepository(store, time.Hour)
	ctx := context.Background()

	day := calendar.MustParse("2025-03-12")
	if _, err := repo.Get(ctx, day); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := repo.Save(ctx, domain.Result{Date: day, Score: 7, Total: 10, Source: "Aftenposten"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Get(ctx, day)
	if err != nil {
		t.Fatalf("get after save: %v", err)
	}
	if got.Score != 7 {
		t.Fatalf("expected saved score 7, got %d", got.Score)
	}
	if store.lists != 2 {
		t.Fatalf("expected reload after save, store calls %d", store.lists)
	}
}

func TestStaticStoreUpsertKeepsOnePerDate(t *testing.T) {
	store := NewStaticStore(sampleResults()...)
	ctx := context.Background()
	day := calendar.MustParse("2025-03-10")

	if _, err := store.UpsertResult(ctx, domain.Result{Date: day, Score: 2, Total: 10, Source: "VG"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	all, _ := store.ListResults(ctx)
	if len(all) != 2 {
		t.Fatalf("expected 2 results, got %d", len(all))
	}
	got, _ := store.GetResult(ctx, day)
	if got.Score != 2 || got.Source != "VG" {
		t.Fatalf("expected replaced result, got %+v", got)
	}

	sources, _ := store.DistinctSources(ctx)
	if len(sources) != 1 || sources[0] != "VG" {
		t.Fatalf("unexpected sources %v", sources)
	}
}

type countingStore struct {
	*StaticStore
	lists int
}

func (s *countingStore) ListResults(ctx context.Context) ([]domain.Result, error) {
	s.lists++
	return s.StaticStore.ListResults(ctx)
}

func sampleResults() []domain.Result {
	return []domain.Result{
		{Date: calendar.MustParse("2025-03-10"), Score: 6, Total: 10, Source: "Aftenposten"},
		{Date: calendar.MustParse("2025-03-11"), Score: 10, Total: 10},
	}
}
