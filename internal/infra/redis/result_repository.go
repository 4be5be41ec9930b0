package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-results-service/internal/calendar"
	"quiz-results-service/internal/domain"
)

// ResultStore is the backing store (e.g. Postgres) behind the cache.
type ResultStore interface {
	ListResults(ctx context.Context) ([]domain.Result, error)
	UpsertResult(ctx context.Context, result domain.Result) (domain.Result, error)
	DistinctSources(ctx context.Context) ([]string, error)
}

// ResultsKey is the hash holding the cached result set:
// HSET results:all {YYYY-MM-DD} {json}
const ResultsKey = "results:all"

// GenerationKey is bumped by every save. A cache fill only writes
// ResultsKey if the generation it started from is still current.
const GenerationKey = "results:gen"

// ResultRepository caches results in Redis and falls back to the store on
// a cache miss. Saves write through to the store and drop the hash.
type ResultRepository struct {
	client *redis.Client
	store  ResultStore
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewResultRepository(client *redis.Client, store ResultStore, ttl time.Duration) *ResultRepository {
	return &ResultRepository{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
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
	data, err := r.client.HGet(ctx, ResultsKey, date.String()).Bytes()
	if err == nil {
		return decodeResult(data)
	}
	if !errors.Is(err, redis.Nil) {
		return domain.Result{}, fmt.Errorf("redis hget: %w", err)
	}

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
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, ResultsKey)
		return nil
	})
	if err != nil {
		return domain.Result{}, fmt.Errorf("redis invalidate: %w", err)
	}
	return saved, nil
}

func (r *ResultRepository) Sources(ctx context.Context) ([]string, error) {
	return r.store.DistinctSources(ctx)
}

func (r *ResultRepository) load(ctx context.Context) (map[calendar.Date]domain.Result, error) {
	cached, err := r.client.HGetAll(ctx, ResultsKey).Result()
	if err == nil && len(cached) > 0 {
		return decodeAll(cached)
	}

	gen, err := r.generation(ctx, r.client)
	if err != nil {
		return nil, err
	}

	// Callers arriving after a save must not join a fill that started before it.
	key := fmt.Sprintf("%s@%d", ResultsKey, gen)
	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := r.client.HGetAll(ctx, ResultsKey).Result()
		if err == nil && len(cached) > 0 {
			return decodeAll(cached)
		}

		results, err := r.store.ListResults(ctx)
		if err != nil {
			return nil, err
		}

		byDate := make(map[calendar.Date]domain.Result, len(results))
		for _, res := range results {
			byDate[res.Date] = res
		}
		// best effort: a failed or skipped fill only costs another store read
		_ = r.fill(ctx, gen, results)
		return byDate, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[calendar.Date]domain.Result), nil
}

// fill writes results to ResultsKey unless a save bumped the generation
// after gen was read. A save racing the write aborts the transaction.
func (r *ResultRepository) fill(ctx context.Context, gen int64, results []domain.Result) error {
	if len(results) == 0 {
		return nil
	}
	fields := make([]interface{}, 0, 2*len(results))
	for _, res := range results {
		data, err := json.Marshal(domain.FromResult(res))
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fields = append(fields, res.Date.String(), data)
	}

	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.generation(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, ResultsKey, fields...)
			if ttl := r.ttlWithJitter(); ttl > 0 {
				pipe.Expire(ctx, ResultsKey, ttl)
			}
			return nil
		})
		return err
	}, GenerationKey)
}

var errStaleFill = errors.New("results changed during cache fill")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *ResultRepository) generation(ctx context.Context, c getter) (int64, error) {
	gen, err := c.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis generation: %w", err)
	}
	return gen, nil
}

func decodeAll(cached map[string]string) (map[calendar.Date]domain.Result, error) {
	byDate := make(map[calendar.Date]domain.Result, len(cached))
	for _, data := range cached {
		res, err := decodeResult([]byte(data))
		if err != nil {
			return nil, err
		}
		byDate[res.Date] = res
	}
	return byDate, nil
}

func decodeResult(data []byte) (domain.Result, error) {
	var raw domain.RawResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Result{}, fmt.Errorf("decode cached result: %w", err)
	}
	return raw.ToResult()
}

func (r *ResultRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
