package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-results-service/internal/calendar"
	"quiz-results-service/internal/domain"
)

// ResultStore keeps results in the results table, one row per date.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) ListResults(ctx context.Context) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx, `SELECT date, score, total, quiz_source FROM results ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

func (s *ResultStore) GetResult(ctx context.Context, date calendar.Date) (domain.Result, error) {
	row := s.pool.QueryRow(ctx, `SELECT date, score, total, quiz_source FROM results WHERE date=$1`, date.Time())
	res, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return res, err
}

// UpsertResult inserts the result or replaces the one stored for its date.
func (s *ResultStore) UpsertResult(ctx context.Context, result domain.Result) (domain.Result, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO results (date, score, total, quiz_source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date) DO UPDATE
		SET score=EXCLUDED.score, total=EXCLUDED.total, quiz_source=EXCLUDED.quiz_source, updated_at=now()
		RETURNING date, score, total, quiz_source`,
		result.Date.Time(), result.Score, result.Total, result.Source)
	return scanResult(row)
}

func (s *ResultStore) DistinctSources(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT quiz_source FROM results WHERE quiz_source <> '' ORDER BY quiz_source`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	sources := []string{}
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

func scanResult(row pgx.Row) (domain.Result, error) {
	var (
		date   time.Time
		result domain.Result
	)
	if err := row.Scan(&date, &result.Score, &result.Total, &result.Source); err != nil {
		return domain.Result{}, fmt.Errorf("scan result: %w", err)
	}
	result.Date = calendar.FromTime(date)
	return result, nil
}
