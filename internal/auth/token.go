// Package auth issues and verifies session tokens. The OAuth login itself
// happens elsewhere; this package only trusts tokens it signed.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quiz-results-service/internal/domain"
)

// Claims is the JWT payload of a session.
type Claims struct {
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	admins []string
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration, admins []string) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret is empty")
	}
	normalised := make([]string, 0, len(admins))
	for _, a := range admins {
		normalised = append(normalised, strings.ToLower(strings.TrimSpace(a)))
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		admins: normalised,
		now:    time.Now,
	}, nil
}

// IsAdmin reports whether email is on the configured admin list.
func (i *Issuer) IsAdmin(email string) bool {
	return slices.Contains(i.admins, strings.ToLower(strings.TrimSpace(email)))
}

// Issue returns a signed token for the user. Admin rights come from the
// admin list, not from the caller.
func (i *Issuer) Issue(email, name string) (string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", time.Time{}, errors.New("auth: email is required")
	}
	now := i.now()
	expires := now.Add(i.ttl)
	claims := Claims{
		Name:  name,
		Admin: i.IsAdmin(email),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a token and returns the user it names.
func (i *Issuer) Verify(token string) (domain.User, error) {
	user, _, err := i.verify(token)
	return user, err
}

func (i *Issuer) verify(token string) (domain.User, time.Time, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.User{}, time.Time{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	user := domain.User{
		Email: claims.Subject,
		Name:  claims.Name,
		Admin: claims.Admin && i.IsAdmin(claims.Subject),
	}
	return user, claims.ExpiresAt.Time, nil
}
