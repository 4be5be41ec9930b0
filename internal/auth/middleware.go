package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"quiz-results-service/internal/domain"
)

type contextKey struct{}

// WithUser stores the verified user in ctx.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// FromContext returns the user attached by the middleware, if any.
func FromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(contextKey{}).(domain.User)
	return user, ok
}

// Sessions reads the session from a cookie or a bearer token.
type Sessions struct {
	issuer     *Issuer
	cookieName string
	secure     bool
}

func NewSessions(issuer *Issuer, cookieName string, secure bool) *Sessions {
	if cookieName == "" {
		cookieName = "quiz_session"
	}
	return &Sessions{issuer: issuer, cookieName: cookieName, secure: secure}
}

// Middleware attaches the user to the request context when the request
// carries a valid token. Anonymous requests pass through unchanged.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.token(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.issuer.Verify(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (s *Sessions) token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(s.cookieName); err == nil {
		return c.Value
	}
	return ""
}

// Start verifies token and stores it in the session cookie, so browsers
// can switch from a bearer token to the cookie. The cookie expires with
// the token.
func (s *Sessions) Start(w http.ResponseWriter, token string) (domain.User, error) {
	user, expires, err := s.issuer.verify(token)
	if err != nil {
		return domain.User{}, err
	}
	s.SetCookie(w, token, expires)
	return user, nil
}

// SetCookie writes a session cookie holding token.
func (s *Sessions) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
