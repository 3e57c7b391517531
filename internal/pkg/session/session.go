// Package session carries the authenticated caller through a request and
// owns the session cookie format.
package session

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// CookieName is the cookie holding the opaque session token.
const CookieName = "session_token"

// Auth is the identity resolved from a valid session.
type Auth struct {
	UserID      int64
	PhoneNumber string
	ExpiresAt   time.Time
}

// Subject is the principal name used in authorization policies.
func (a *Auth) Subject() string {
	return a.PhoneNumber
}

// Validator resolves a raw token into an identity. A nil Auth with a nil
// error means the token is unknown, revoked or expired.
type Validator interface {
	Authenticate(ctx context.Context, token string) (*Auth, error)
}

type authKey struct{}

// SetAuth stores the authenticated identity in ctx.
func SetAuth(ctx context.Context, a *Auth) context.Context {
	return context.WithValue(ctx, authKey{}, a)
}

// GetAuth returns the identity stored in ctx, or nil.
func GetAuth(ctx context.Context) *Auth {
	a, _ := ctx.Value(authKey{}).(*Auth)
	return a
}

// TokenFromRequest returns the trimmed session cookie value, or "".
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// Cookie builds the session cookie. HttpOnly and SameSite=Lax are fixed;
// secure is expected to be on outside local development.
func Cookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie builds a cookie that makes the browser drop the session.
func ExpiredCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
