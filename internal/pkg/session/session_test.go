package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	http.SetCookie(rec, Cookie("abc", time.Hour, true))

	header := rec.Header().Get("Set-Cookie")
	for _, want := range []string{"session_token=abc", "Path=/", "Max-Age=3600", "HttpOnly", "Secure", "SameSite=Lax"} {
		if !strings.Contains(header, want) {
			t.Errorf("Set-Cookie %q missing %q", header, want)
		}
	}
}

func TestExpiredCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	http.SetCookie(rec, ExpiredCookie(false))

	header := rec.Header().Get("Set-Cookie")
	if !strings.Contains(header, "Max-Age=0") || strings.Contains(header, "Secure") {
		t.Errorf("Set-Cookie = %q", header)
	}
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := TokenFromRequest(req); got != "" {
		t.Fatalf("TokenFromRequest(no cookie) = %q", got)
	}

	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok"})
	if got := TokenFromRequest(req); got != "tok" {
		t.Fatalf("TokenFromRequest() = %q", got)
	}
}

func TestAuthContext(t *testing.T) {
	if GetAuth(context.Background()) != nil {
		t.Fatal("GetAuth(empty) != nil")
	}

	ctx := SetAuth(context.Background(), &Auth{UserID: 7, PhoneNumber: "09123456789"})
	a := GetAuth(ctx)
	if a == nil || a.UserID != 7 || a.Subject() != "09123456789" {
		t.Fatalf("GetAuth() = %+v", a)
	}
}
