package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-results-service/internal/app"
	"quiz-results-service/internal/config"
	"quiz-results-service/internal/infra/memory"
	"quiz-results-service/internal/infra/postgres"
	infraredis "quiz-results-service/internal/infra/redis"
)

// backend is the storage and messaging stack selected by the config:
// Postgres or an in-memory store, fronted by a Redis or in-process cache.
type backend struct {
	service *app.ResultService
	feed    *app.Feed
	relay   *infraredis.ChangeRelay
	durable bool
	closers []func()
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	b := &backend{feed: app.NewFeed()}

	var store memory.ResultStore = memory.NewStaticStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		store = postgres.NewResultStore(pool)
		b.durable = true
	} else {
		logger.Warn("postgres not configured, results are kept in memory")
	}

	cacheTTL := config.TTLDuration(cfg.Results.CacheTTL, time.Minute)
	opts := []app.Option{
		app.WithLogger(logger),
		app.WithTrendWindow(cfg.Statistics.TrendWindow),
	}

	loc, err := cfg.Location()
	if err != nil {
		b.Close()
		return nil, err
	}
	opts = append(opts, app.WithLocation(loc))

	var repo app.ResultRepository
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		repo = infraredis.NewResultRepository(client, store, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		b.relay = infraredis.NewChangeRelay(client, b.feed, logger)
		opts = append(opts, app.WithPublisher(b.relay))
	} else {
		repo = memory.NewResultRepository(store, cacheTTL)
	}

	b.service = app.NewResultService(repo, b.feed, opts...)
	return b, nil
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}
