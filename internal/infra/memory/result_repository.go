package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-results-service/internal/calendar"
	"quiz-results-service/internal/domain"
)

const allResultsKey = "all"

// ResultRepository caches the full result set with a TTL to avoid
// repeated store hits. Saves write through and drop the cache.
type ResultRepository struct {
	store ResultStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu        sync.Mutex
	rnd       *rand.Rand
	cached    map[calendar.Date]domain.Result
	expiresAt time.Time
	gen       uint64 // bumped on every invalidation
}

func NewResultRepository(store ResultStore, ttl time.Duration) *ResultRepository {
	return &ResultRepository{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ResultRepository) List(ctx context.Context) ([]domain.Result, error) {
	byDate, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Result, 0, len(byDate))
	for _, res := range byDate {
		out = append(out, res)
	}
	return out, nil
}

func (r *ResultRepository) Get(ctx context.Context, date calendar.Date) (domain.Result, error) {
	byDate, err := r.load(ctx)
	if err != nil {
		return domain.Result{}, err
	}
	if res, ok := byDate[date]; ok {
		return res, nil
	}
	return domain.Result{}, domain.ErrResultNotFound
}

func (r *ResultRepository) Save(ctx context.Context, result domain.Result) (domain.Result, error) {
	saved, err := r.store.UpsertResult(ctx, result)
	if err != nil {
		return domain.Result{}, err
	}
	r.Invalidate()
	return saved, nil
}

func (r *ResultRepository) Sources(ctx context.Context) ([]string, error) {
	return r.store.DistinctSources(ctx)
}

// Invalidate drops the cached result set.
func (r *ResultRepository) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.expiresAt = time.Time{}
	r.gen++
	r.mu.Unlock()
}

func (r *ResultRepository) fresh(now time.Time) (map[calendar.Date]domain.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached != nil && r.expiresAt.After(now) {
		return r.cached, true
	}
	return nil, false
}

func (r *ResultRepository) load(ctx context.Context) (map[calendar.Date]domain.Result, error) {
	if cached, ok := r.fresh(r.clock()); ok {
		return cached, nil
	}

	result, err, _ := r.sf.Do(allResultsKey, func() (interface{}, error) {
		now := r.clock()
		if cached, ok := r.fresh(now); ok {
			return cached, nil
		}
		r.mu.Lock()
		gen := r.gen
		r.mu.Unlock()

		results, err := r.store.ListResults(ctx)
		if err != nil {
			return nil, err
		}
		byDate := make(map[calendar.Date]domain.Result, len(results))
		for _, res := range results {
			byDate[res.Date] = res
		}

		r.mu.Lock()
		// A save during the load makes byDate stale; serve it but do not keep it.
		if gen == r.gen {
			r.cached = byDate
			r.expiresAt = now.Add(r.ttlWithJitter())
		}
		r.mu.Unlock()
		return byDate, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[calendar.Date]domain.Result), nil
}

// ttlWithJitter is called with r.mu held.
func (r *ResultRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
