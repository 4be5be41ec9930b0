package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-results-service/internal/app"
	"quiz-results-service/internal/auth"
	"quiz-results-service/internal/calendar"
	"quiz-results-service/internal/domain"
	"quiz-results-service/internal/infra/memory"
)

// friday 2025-03-14, midday
var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	server  *httptest.Server
	service *app.ResultService
	issuer  *auth.Issuer
}

func newTestEnv(t *testing.T, results ...domain.Result) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := memory.NewResultRepository(memory.NewStaticStore(results...), time.Minute)
	service := app.NewResultService(repo, app.NewFeed(),
		app.WithClock(func() time.Time { return testNow }),
		app.WithLogger(logger),
	)
	issuer, err := auth.NewIssuer("test-secret", time.Hour, []string{"admin@example.com"})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	server := httptest.NewServer(NewRouter(service, auth.NewSessions(issuer, "", false), logger, nil))
	t.Cleanup(server.Close)
	return &testEnv{server: server, service: service, issuer: issuer}
}

func sampleResults() []domain.Result {
	return []domain.Result{
		{Date: calendar.MustParse("2025-03-10"), Score: 6, Total: 10, Source: "Aftenposten"},
		{Date: calendar.MustParse("2025-03-11"), Score: 10, Total: 10, Source: "VG"},
	}
}

func (e *testEnv) do(t *testing.T, method, path, body, email string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if email != "" {
		token, _, err := e.issuer.Issue(email, "Test")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestAllResultsNewestFirst(t *testing.T) {
	env := newTestEnv(t, sampleResults()...)
	resp := env.do(t, http.MethodGet, "/api/result/all", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	results := decode[[]domain.RawResult](t, resp)
	if len(results) != 2 || results[0].Date != "2025-03-11" || results[1].QuizSource != "Aftenposten" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestGetResultStatuses(t *testing.T) {
	env := newTestEnv(t, sampleResults()...)

	resp := env.do(t, http.MethodGet, "/api/result/2025-03-10", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := decode[domain.RawResult](t, resp); got.Score != 6 {
		t.Fatalf("unexpected result %+v", got)
	}

	if resp := env.do(t, http.MethodGet, "/api/result/2025-03-12", "", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodGet, "/api/result/yesterday", "", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSaveResultRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, sampleResults()...)
	body := `{"date":"2025-03-13","score":7,"total":10,"quizSource":"VG"}`

	if resp := env.do(t, http.MethodPost, "/api/result", body, ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodPost, "/api/result", body, "guest@example.com"); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	resp := env.do(t, http.MethodPost, "/api/result?notify=true", body, "admin@example.com")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := decode[domain.RawResult](t, resp); got.Date != "2025-03-13" || got.Score != 7 {
		t.Fatalf("unexpected saved result %+v", got)
	}

	resp = env.do(t, http.MethodGet, "/api/result/2025-03-13", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected saved result to be readable, got %d", resp.StatusCode)
	}
}

func TestSaveResultValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := map[string]string{
		"weekend":       `{"date":"2025-03-15","score":7,"total":10,"quizSource":"VG"}`,
		"future":        `{"date":"2025-03-17","score":7,"total":10,"quizSource":"VG"}`,
		"score > total": `{"date":"2025-03-13","score":11,"total":10,"quizSource":"VG"}`,
		"zero total":    `{"date":"2025-03-13","score":0,"total":0,"quizSource":"VG"}`,
		"no source":     `{"date":"2025-03-13","score":7,"total":10}`,
		"bad date":      `{"date":"13.03.2025","score":7,"total":10,"quizSource":"VG"}`,
		"not json":      `score=7`,
	}
	for name, body := range cases {
		resp := env.do(t, http.MethodPost, "/api/result", body, "admin@example.com")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, resp.StatusCode)
		}
	}
}

func TestSourcesAreDistinct(t *testing.T) {
	results := append(sampleResults(), domain.Result{Date: calendar.MustParse("2025-03-12"), Score: 3, Total: 10, Source: "VG"})
	env := newTestEnv(t, results...)
	resp := env.do(t, http.MethodGet, "/api/result/sources", "", "")
	sources := decode[[]string](t, resp)
	if len(sources) != 2 || sources[0] != "Aftenposten" || sources[1] != "VG" {
		t.Fatalf("unexpected sources %v", sources)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/statistics", "", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "null" {
		t.Fatalf("expected null statistics without data, got %d %s", resp.StatusCode, body)
	}

	env = newTestEnv(t, sampleResults()...)
	resp = env.do(t, http.MethodGet, "/api/statistics?window=1", "", "")
	info := decode[domain.StatisticsInfo](t, resp)
	if info.TotalNumberOfQuizzes != 2 || info.AverageScore != 8 || info.PerfectCount != 1 {
		t.Fatalf("unexpected statistics %+v", info)
	}
	if len(info.TrendLastQuizzes) != 1 || info.TrendLastQuizzes[0].DateString != "2025-03-11" {
		t.Fatalf("unexpected trend %+v", info.TrendLastQuizzes)
	}
	if info.LastBestDay == nil || info.LastBestDay.Date.String() != "2025-03-11" {
		t.Fatalf("unexpected best day %+v", info.LastBestDay)
	}

	if resp := env.do(t, http.MethodGet, "/api/statistics?window=-3", "", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative window, got %d", resp.StatusCode)
	}
}

func TestUserAndLogout(t *testing.T) {
	env := newTestEnv(t)
	if resp := env.do(t, http.MethodGet, "/api/user", "", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/api/user", "", "admin@example.com")
	user := decode[userResponse](t, resp)
	if !user.Admin || user.Initials != "A" || user.Email != "admin@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	resp = env.do(t, http.MethodPost, "/api/logout", "", "admin@example.com")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == "quiz_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected session cookie to be cleared")
	}
}

func TestSessionSetsCookie(t *testing.T) {
	env := newTestEnv(t)
	token, _, err := env.issuer.Issue("admin@example.com", "Ada")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if resp := env.do(t, http.MethodPost, "/api/session", `{"token":"garbage"}`, ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodPost, "/api/session", `{}`, ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without token, got %d", resp.StatusCode)
	}

	resp := env.do(t, http.MethodPost, "/api/session", `{"token":"`+token+`"}`, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "quiz_session" {
			session = c
		}
	}
	if session == nil || !session.HttpOnly || session.Value != token {
		t.Fatalf("expected http-only session cookie, got %+v", session)
	}

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/user", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	userResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	defer userResp.Body.Close()
	user := decode[userResponse](t, userResp)
	if user.Email != "admin@example.com" || !user.Admin {
		t.Fatalf("unexpected user from cookie %+v", user)
	}
}

func TestDayView(t *testing.T) {
	env := newTestEnv(t, sampleResults()...)

	view := decode[domain.DayView](t, env.do(t, http.MethodGet, "/api/day/2025-03-11", "", ""))
	if view.Result == nil || view.Tier != "perfect" || view.Colour != "green" {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Previous != "2025-03-10" || view.Next != "2025-03-12" {
		t.Fatalf("unexpected navigation %s / %s", view.Previous, view.Next)
	}

	view = decode[domain.DayView](t, env.do(t, http.MethodGet, "/api/day/2025-03-12", "", ""))
	if view.Result != nil || view.MissingReason != app.MissingNotFound || view.LastResultDate != "2025-03-11" {
		t.Fatalf("unexpected missing view %+v", view)
	}

	view = decode[domain.DayView](t, env.do(t, http.MethodGet, "/api/day/2025-03-14", "", ""))
	if view.MissingReason != app.MissingToday || !strings.HasPrefix(view.Headline, "Dagens quiz: Fredag") {
		t.Fatalf("unexpected today view %+v", view)
	}
	if view.Next != "2025-03-17" {
		t.Fatalf("expected next to skip the weekend, got %s", view.Next)
	}
}
