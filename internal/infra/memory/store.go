package memory

import (
	"context"
	"slices"
	"sync"

	"quiz-results-service/internal/calendar"
	"quiz-results-service/internal/domain"
)

// ResultStore is the backing store a cache repository loads from and
// writes through to.
type ResultStore interface {
	ListResults(ctx context.Context) ([]domain.Result, error)
	GetResult(ctx context.Context, date calendar.Date) (domain.Result, error)
	UpsertResult(ctx context.Context, result domain.Result) (domain.Result, error)
	DistinctSources(ctx context.Context) ([]string, error)
}

// StaticStore keeps results in a map keyed by date (useful for tests/demos
// and for running without Postgres).
type StaticStore struct {
	mu      sync.RWMutex
	results map[calendar.Date]domain.Result
}

func NewStaticStore(results ...domain.Result) *StaticStore {
	s := &StaticStore{results: make(map[calendar.Date]domain.Result, len(results))}
	for _, r := range results {
		s.results[r.Date] = r
	}
	return s
}

func (s *StaticStore) ListResults(_ context.Context) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Result, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.Result) int {
		return a.Date.Compare(b.Date)
	})
	return out, nil
}

func (s *StaticStore) GetResult(_ context.Context, date calendar.Date) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.results[date]; ok {
		return r, nil
	}
	return domain.Result{}, domain.ErrResultNotFound
}

// UpsertResult replaces any result already stored for the same date.
func (s *StaticStore) UpsertResult(_ context.Context, result domain.Result) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.Date] = result
	return result, nil
}

func (s *StaticStore) DistinctSources(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, r := range s.results {
		if r.Source != "" {
			seen[r.Source] = struct{}{}
		}
	}
	sources := make([]string, 0, len(seen))
	for src := range seen {
		sources = append(sources, src)
	}
	slices.Sort(sources)
	return sources, nil
}
