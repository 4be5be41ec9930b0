package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"quiz-results-service/internal/calendar"
)

// Result is one day's quiz outcome. Values are immutable once built; the
// store is keyed by Date so there is at most one result per day.
type Result struct {
	Date   calendar.Date
	Score  int
	Total  int
	Source string
}

// Valid reports whether the result can take part in statistics.
func (r Result) Valid() bool {
	return r.Total > 0
}

// Percentage is round(100*score/total) clamped to 0..100. A result with
// no total has 0%.
func (r Result) Percentage() int {
	return PercentageFromScore(r.Score, r.Total)
}

// Perfect reports whether every question was answered correctly.
func (r Result) Perfect() bool {
	return r.Valid() && r.Score == r.Total
}

// PercentageFromScore converts a score to a whole percentage.
func PercentageFromScore(score, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(score) / float64(total) * 100))
	return max(0, min(100, p))
}

// RawResult is the wire shape of a result at the HTTP and storage edges.
type RawResult struct {
	Date       string `json:"date"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	QuizSource string `json:"quizSource,omitempty"`
}

// ToResult adapts the wire shape into the canonical record.
func (r RawResult) ToResult() (Result, error) {
	d, err := calendar.Parse(strings.TrimSpace(r.Date))
	if err != nil {
		return Result{}, ErrInvalidDate
	}
	return Result{
		Date:   d,
		Score:  r.Score,
		Total:  r.Total,
		Source: strings.TrimSpace(r.QuizSource),
	}, nil
}

type resultJSON struct {
	RawResult
	Percentage int `json:"percentage"`
}

// MarshalJSON encodes the wire shape plus the derived percentage.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{RawResult: FromResult(r), Percentage: r.Percentage()})
}

func (r *Result) UnmarshalJSON(b []byte) error {
	var raw RawResult
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := raw.ToResult()
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// FromResult is the inverse of ToResult.
func FromResult(r Result) RawResult {
	return RawResult{
		Date:       r.Date.String(),
		Score:      r.Score,
		Total:      r.Total,
		QuizSource: r.Source,
	}
}

// User is the logged-in person as seen by the API.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

// Initials builds the avatar fallback from the e-mail local part:
// "ola.nordmann@x" -> "ON", "ola@x" -> "O", "" -> "?".
func (u User) Initials() string {
	if u.Email == "" {
		return "?"
	}
	local, _, _ := strings.Cut(u.Email, "@")
	if local == "" {
		return "?"
	}
	if parts := strings.Split(local, "."); len(parts) > 1 {
		return firstUpper(parts[0]) + firstUpper(parts[len(parts)-1])
	}
	return firstUpper(local)
}

func firstUpper(s string) string {
	for _, r := range s {
		return strings.ToUpper(string(r))
	}
	return ""
}

// TableRow is one bucket of an averages table.
type TableRow struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// TrendPoint is one bar of the trend chart.
type TrendPoint struct {
	Label      string `json:"label"`
	Value      int    `json:"value"`
	Colour     string `json:"colour"`
	DateString string `json:"dateString"`
}

// StatisticsInfo is the derived summary over a set of results.
type StatisticsInfo struct {
	TotalNumberOfQuizzes int          `json:"totalNumberOfQuizzes"`
	AverageScore         float64      `json:"averageScore"`
	MedianScore          float64      `json:"medianScore"`
	PerfectCount         int          `json:"perfectCount"`
	LastBestDay          *Result      `json:"lastBestDay"`
	LastWorstDay         *Result      `json:"lastWorstDay"`
	AverageByWeekday     []TableRow   `json:"averageByWeekday"`
	AverageByMonth       []TableRow   `json:"averageByMonth"`
	TrendLastQuizzes     []TrendPoint `json:"trendLastQuizzes"`
}

// ChangeEvent is published after a result has been saved.
type ChangeEvent struct {
	ID      string    `json:"id"`
	Date    string    `json:"date"`
	Result  Result    `json:"result"`
	Notify  bool      `json:"notify"`
	SavedAt time.Time `json:"savedAt"`
}

// DayView is everything needed to render one day's page.
type DayView struct {
	Date           string  `json:"date"`
	Headline       string  `json:"headline"`
	Result         *Result `json:"result"`
	Tier           string  `json:"tier,omitempty"`
	Colour         string  `json:"colour,omitempty"`
	Previous       string  `json:"previous"`
	Next           string  `json:"next"`
	MissingReason  string  `json:"missingReason,omitempty"`
	LastResultDate string  `json:"lastResultDate,omitempty"`
}
