package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-results-service/internal/domain"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer("test-secret", time.Hour, []string{"Admin@Example.com"})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newTestIssuer(t)

	token, expires, err := issuer.Issue("admin@example.com", "Ada")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected expiry in the future")
	}
	user, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.Email != "admin@example.com" || user.Name != "Ada" || !user.Admin {
		t.Fatalf("unexpected user %+v", user)
	}

	token, _, _ = issuer.Issue("guest@example.com", "Guest")
	user, err = issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify guest: %v", err)
	}
	if user.Admin {
		t.Fatalf("guest must not be admin")
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := newTestIssuer(t)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := issuer.Issue("admin@example.com", "Ada")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	issuer.now = time.Now
	if _, err := issuer.Verify(stale); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}

	other, _ := NewIssuer("other-secret", time.Hour, nil)
	foreign, _, _ := other.Issue("admin@example.com", "Ada")
	if _, err := issuer.Verify(foreign); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected foreign token to fail, got %v", err)
	}
}

func TestStartSetsCookieUntilExpiry(t *testing.T) {
	issuer := newTestIssuer(t)
	sessions := NewSessions(issuer, "", true)
	token, expires, _ := issuer.Issue("admin@example.com", "Ada")

	rec := httptest.NewRecorder()
	user, err := sessions.Start(rec, token)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !user.Admin {
		t.Fatalf("expected admin user, got %+v", user)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "quiz_session" || c.Value != token || !c.HttpOnly || !c.Secure {
		t.Fatalf("unexpected cookie %+v", c)
	}
	if !c.Expires.Equal(expires.Truncate(time.Second)) {
		t.Fatalf("expected cookie to expire at %s, got %s", expires, c.Expires)
	}

	rec = httptest.NewRecorder()
	if _, err := sessions.Start(rec, "garbage"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("expected no cookie for a bad token")
	}
}

func TestMiddlewareAttachesUser(t *testing.T) {
	issuer := newTestIssuer(t)
	sessions := NewSessions(issuer, "", false)
	token, _, _ := issuer.Issue("admin@example.com", "Ada")

	var seen domain.User
	var ok bool
	handler := sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(&http.Cookie{Name: "quiz_session", Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !ok || seen.Email != "admin@example.com" {
		t.Fatalf("expected user from cookie, got %+v ok=%v", seen, ok)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !ok || !seen.Admin {
		t.Fatalf("expected admin from bearer token")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if ok {
		t.Fatalf("expected anonymous request for invalid token")
	}
}
