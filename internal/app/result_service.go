package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"quiz-results-service/internal/calendar"
	"quiz-results-service/internal/domain"
	"quiz-results-service/internal/statistics"
)

// ResultRepository abstracts where results live (memory, Redis cache, Postgres).
type ResultRepository interface {
	List(ctx context.Context) ([]domain.Result, error)
	Get(ctx context.Context, date calendar.Date) (domain.Result, error)
	Save(ctx context.Context, result domain.Result) (domain.Result, error)
	Sources(ctx context.Context) ([]string, error)
}

// Reasons a day view has no result.
const (
	MissingToday    = "today"
	MissingFuture   = "future"
	MissingNotFound = "not_found"
)

// ResultService contains the result use cases.
type ResultService struct {
	results     ResultRepository
	feed        *Feed
	publisher   Publisher
	logger      *slog.Logger
	now         func() time.Time
	location    *time.Location
	trendWindow int
}

type Option func(*ResultService)

// WithPublisher routes change events through p instead of the local feed.
func WithPublisher(p Publisher) Option {
	return func(s *ResultService) { s.publisher = p }
}

// WithClock is used by tests for deterministic "today".
func WithClock(now func() time.Time) Option {
	return func(s *ResultService) { s.now = now }
}

// WithLocation sets the zone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *ResultService) { s.location = loc }
}

func WithTrendWindow(n int) Option {
	return func(s *ResultService) {
		if n > 0 {
			s.trendWindow = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *ResultService) { s.logger = logger }
}

func NewResultService(results ResultRepository, feed *Feed, opts ...Option) *ResultService {
	s := &ResultService{
		results:     results,
		feed:        feed,
		publisher:   feed,
		logger:      slog.Default(),
		now:         time.Now,
		location:    time.UTC,
		trendWindow: statistics.DefaultTrendWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar day in the configured zone.
func (s *ResultService) Today() calendar.Date {
	return calendar.Today(s.now(), s.location)
}

// ListResults returns every result, most recent first.
func (s *ResultService) ListResults(ctx context.Context) ([]domain.Result, error) {
	results, err := s.results.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	sorted := slices.Clone(results)
	slices.SortFunc(sorted, func(a, b domain.Result) int {
		return b.Date.Compare(a.Date)
	})
	return sorted, nil
}

// GetResult returns the result for a YYYY-MM-DD date.
func (s *ResultService) GetResult(ctx context.Context, date string) (domain.Result, error) {
	d, err := calendar.Parse(date)
	if err != nil {
		return domain.Result{}, domain.ErrInvalidDate
	}
	return s.results.Get(ctx, d)
}

// SaveResult validates and stores a result, then announces the change.
func (s *ResultService) SaveResult(ctx context.Context, raw domain.RawResult, notify bool) (domain.Result, error) {
	result, err := raw.ToResult()
	if err != nil {
		return domain.Result{}, err
	}
	if err := s.validate(result); err != nil {
		return domain.Result{}, err
	}

	saved, err := s.results.Save(ctx, result)
	if err != nil {
		return domain.Result{}, fmt.Errorf("save result: %w", err)
	}
	s.logger.Info("result saved",
		slog.String("date", saved.Date.String()),
		slog.Int("score", saved.Score),
		slog.Int("total", saved.Total),
		slog.String("source", saved.Source))

	event := domain.ChangeEvent{
		ID:      uuid.NewString(),
		Date:    saved.Date.String(),
		Result:  saved,
		Notify:  notify,
		SavedAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish change event", slog.String("date", event.Date), slog.Any("error", err))
	}
	return saved, nil
}

func (s *ResultService) validate(r domain.Result) error {
	if r.Date.IsWeekend() {
		return domain.ErrWeekend
	}
	if r.Date.After(s.Today()) {
		return domain.ErrFutureDate
	}
	if r.Total <= 0 || r.Score < 0 || r.Score > r.Total {
		return domain.ErrInvalidScore
	}
	if r.Source == "" {
		return domain.ErrMissingSource
	}
	return nil
}

// QuizSources lists the distinct quiz providers seen so far.
func (s *ResultService) QuizSources(ctx context.Context) ([]string, error) {
	sources, err := s.results.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// Statistics summarises all results. window <= 0 selects the configured
// trend window. A nil summary means there is not enough data.
func (s *ResultService) Statistics(ctx context.Context, window int) (*domain.StatisticsInfo, error) {
	if window <= 0 {
		window = s.trendWindow
	}
	results, err := s.results.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return statistics.CalculateStatistics(results, window), nil
}

// Day builds the view for a single day, including navigation to the
// neighbouring quiz days and, when there is no result, why.
func (s *ResultService) Day(ctx context.Context, date string) (domain.DayView, error) {
	d, err := calendar.Parse(date)
	if err != nil {
		return domain.DayView{}, domain.ErrInvalidDate
	}
	today := s.Today()
	view := domain.DayView{
		Date:     d.String(),
		Headline: calendar.Headline(d, today),
		Previous: calendar.PreviousQuizDay(d).String(),
		Next:     calendar.NextQuizDay(d).String(),
	}

	result, err := s.results.Get(ctx, d)
	switch {
	case err == nil:
		tier := statistics.TierForPercentage(result.Percentage())
		view.Result = &result
		view.Tier = string(tier)
		view.Colour = tier.AccentColour()
		return view, nil
	case !errors.Is(err, domain.ErrResultNotFound):
		return domain.DayView{}, err
	}

	switch {
	case d.Equal(today):
		view.MissingReason = MissingToday
	case d.After(today):
		view.MissingReason = MissingFuture
	default:
		view.MissingReason = MissingNotFound
	}

	last, err := s.lastResultOnOrBefore(ctx, d)
	if err != nil {
		return domain.DayView{}, err
	}
	if !last.IsZero() {
		view.LastResultDate = last.String()
	}
	return view, nil
}

func (s *ResultService) lastResultOnOrBefore(ctx context.Context, d calendar.Date) (calendar.Date, error) {
	results, err := s.results.List(ctx)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("list results: %w", err)
	}
	var last calendar.Date
	for _, r := range results {
		if r.Date.After(d) {
			continue
		}
		if last.IsZero() || r.Date.After(last) {
			last = r.Date
		}
	}
	return last, nil
}

// Subscribe returns a channel of change events for this instance.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ResultService) Subscribe(_ context.Context) (<-chan domain.ChangeEvent, func()) {
	return s.feed.Subscribe()
}
