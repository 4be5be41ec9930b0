// Package statistics derives summary figures from a set of daily quiz
// results. Everything here is a pure function of its input.
package statistics

import (
	"math"
	"slices"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"

	"quiz-results-service/internal/calendar"
	"quiz-results-service/internal/domain"
)

// DefaultTrendWindow is the number of quizzes shown on the trend chart.
const DefaultTrendWindow = 31

// CalculateStatistics summarises results. Results with a non-positive
// total are left out; if nothing is left, nil is returned. The input slice
// is not modified and the output depends only on the input.
func CalculateStatistics(results []domain.Result, trendWindowSize int) *domain.StatisticsInfo {
	valid := make([]domain.Result, 0, len(results))
	for _, r := range results {
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	// Chronological order, oldest first. Stable so equal dates keep input order.
	ascending := slices.Clone(valid)
	slices.SortStableFunc(ascending, func(a, b domain.Result) int {
		return a.Date.Compare(b.Date)
	})

	scores := make([]float64, len(ascending))
	perfect := 0
	for i, r := range ascending {
		scores[i] = float64(r.Score)
		if r.Perfect() {
			perfect++
		}
	}

	return &domain.StatisticsInfo{
		TotalNumberOfQuizzes: len(ascending),
		AverageScore:         round1(mean(scores)),
		MedianScore:          round1(median(scores)),
		PerfectCount:         perfect,
		LastBestDay:          lastBestDay(ascending),
		LastWorstDay:         lastWorstDay(ascending),
		AverageByWeekday:     averageByWeekday(ascending),
		AverageByMonth:       averageByMonth(ascending),
		TrendLastQuizzes:     trend(ascending, trendWindowSize),
	}
}

// lastBestDay is the most recent perfect day.
func lastBestDay(ascending []domain.Result) *domain.Result {
	for i := len(ascending) - 1; i >= 0; i-- {
		if ascending[i].Percentage() == 100 {
			r := ascending[i]
			return &r
		}
	}
	return nil
}

// lastWorstDay is the day with the lowest percentage. On ties the most
// recent such day wins.
func lastWorstDay(ascending []domain.Result) *domain.Result {
	worst := ascending[len(ascending)-1]
	for i := len(ascending) - 2; i >= 0; i-- {
		if ascending[i].Percentage() < worst.Percentage() {
			worst = ascending[i]
		}
	}
	return &worst
}

type bucket struct {
	order  int
	key    string
	label  string
	scores []float64
}

func (b *bucket) row() domain.TableRow {
	return domain.TableRow{
		Key:   b.key,
		Label: b.label,
		Value: mean(b.scores),
		Count: len(b.scores),
	}
}

func averageByWeekday(results []domain.Result) []domain.TableRow {
	buckets := map[time.Weekday]*bucket{}
	for _, r := range results {
		wd := r.Date.Weekday()
		b, ok := buckets[wd]
		if !ok {
			b = &bucket{
				order: isoWeekday(wd),
				key:   strconv.Itoa(isoWeekday(wd)),
				label: calendar.WeekdayName(wd),
			}
			buckets[wd] = b
		}
		b.scores = append(b.scores, float64(r.Score))
	}

	sorted := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		sorted = append(sorted, b)
	}
	slices.SortFunc(sorted, func(a, b *bucket) int {
		if d := mean(b.scores) - mean(a.scores); d != 0 {
			if d > 0 {
				return 1
			}
			return -1
		}
		return a.order - b.order
	})
	return rows(sorted)
}

func averageByMonth(results []domain.Result) []domain.TableRow {
	buckets := map[int]*bucket{}
	for _, r := range results {
		ym := r.Date.YearMonth()
		b, ok := buckets[ym]
		if !ok {
			b = &bucket{
				order: ym,
				key:   r.Date.Time().Format("2006-01"),
				label: calendar.MonthLabel(r.Date.Year(), r.Date.Month()),
			}
			buckets[ym] = b
		}
		b.scores = append(b.scores, float64(r.Score))
	}

	sorted := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		sorted = append(sorted, b)
	}
	// Most recent month first, by the numeric key rather than the label.
	slices.SortFunc(sorted, func(a, b *bucket) int {
		return b.order - a.order
	})
	return rows(sorted)
}

func rows(buckets []*bucket) []domain.TableRow {
	out := make([]domain.TableRow, len(buckets))
	for i, b := range buckets {
		out[i] = b.row()
	}
	return out
}

// trend returns the trailing window of results in chronological order.
func trend(ascending []domain.Result, window int) []domain.TrendPoint {
	if window < 0 {
		window = 0
	}
	start := max(0, len(ascending)-window)
	points := make([]domain.TrendPoint, 0, len(ascending)-start)
	for _, r := range ascending[start:] {
		points = append(points, domain.TrendPoint{
			Label:      calendar.ShortLabel(r.Date),
			Value:      r.Score,
			Colour:     ColourForPercentage(r.Percentage()),
			DateString: r.Date.String(),
		})
	}
	return points
}

// isoWeekday numbers Monday 1 through Sunday 7.
func isoWeekday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
