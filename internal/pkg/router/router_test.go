package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/freightbite/internal/pkg/goerror"
	"github.com/shandysiswandi/freightbite/internal/pkg/instrument"
	"github.com/shandysiswandi/freightbite/internal/pkg/session"
	"github.com/shandysiswandi/freightbite/internal/pkg/uid"
)

type fakeValidator struct {
	auth *session.Auth
	err  error
}

func (f fakeValidator) Authenticate(context.Context, string) (*session.Auth, error) {
	return f.auth, f.err
}

type fakeReadiness struct{ err error }

func (f fakeReadiness) EnsureReady(context.Context) error { return f.err }

type cookieResponse struct {
	OK bool `json:"ok"`
}

func (cookieResponse) StatusCode() int { return http.StatusCreated }

func (cookieResponse) Cookies() []*http.Cookie {
	return []*http.Cookie{{Name: "a", Value: "b"}}
}

func newTestRouter(rd Readiness) *Router {
	return NewRouter(Config{UUID: uid.NewUUID(), Instrument: instrument.NewNoop(), Readiness: rd})
}

func do(r http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRouterResponseEncoding(t *testing.T) {
	r := newTestRouter(nil)
	r.POST("/api/v1/auth/send-otp", func(*Request) (any, error) { return cookieResponse{OK: true}, nil })

	rec := do(r, http.MethodPost, "/api/v1/auth/send-otp", "")

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if got := decode(t, rec)["ok"]; got != true {
		t.Fatalf("ok = %v", got)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "a=b") {
		t.Fatalf("Set-Cookie = %q", rec.Header().Get("Set-Cookie"))
	}
	if rec.Header().Get(HeaderCorrelationID) == "" {
		t.Fatal("correlation id header missing")
	}
}

func TestRouterErrorEncoding(t *testing.T) {
	r := newTestRouter(nil)
	r.POST("/api/v1/auth/verify-otp", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(nil, "phone_number", "too short")
	})
	r.POST("/api/v1/auth/logout", func(*Request) (any, error) { return nil, errors.New("raw") })

	rec := do(r, http.MethodPost, "/api/v1/auth/verify-otp", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode(t, rec)
	fields, _ := body["fields"].(map[string]any)
	if body["error"] != "Validation error" || fields["phone_number"] != "too short" {
		t.Fatalf("body = %v", body)
	}

	rec = do(r, http.MethodPost, "/api/v1/auth/logout", "")
	if rec.Code != http.StatusInternalServerError || decode(t, rec)["error"] != "Internal server error" {
		t.Fatalf("unexpected %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouterAuthentication(t *testing.T) {
	handler := func(r *Request) (any, error) {
		return map[string]any{"user_id": session.GetAuth(r.Context()).UserID}, nil
	}
	cookie := &http.Cookie{Name: session.CookieName, Value: "tok"}

	tests := []struct {
		name      string
		validator session.Validator
		cookies   []*http.Cookie
		want      int
	}{
		{name: "no cookie", validator: fakeValidator{auth: &session.Auth{UserID: 1}}, want: http.StatusUnauthorized},
		{name: "unknown session", validator: fakeValidator{}, cookies: []*http.Cookie{cookie}, want: http.StatusUnauthorized},
		{name: "store failure", validator: fakeValidator{err: errors.New("db down")}, cookies: []*http.Cookie{cookie}, want: http.StatusInternalServerError},
		{name: "valid session", validator: fakeValidator{auth: &session.Auth{UserID: 9}}, cookies: []*http.Cookie{cookie}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(nil)
			r.UseAuthenticator(tt.validator)
			r.GET("/api/v1/freight/requests", handler)

			rec := do(r, http.MethodGet, "/api/v1/freight/requests", "", tt.cookies...)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && decode(t, rec)["user_id"] != float64(9) {
				t.Fatalf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestRouterPublicEndpointSkipsAuthentication(t *testing.T) {
	r := newTestRouter(nil)
	r.GET("/api/v1/auth/session", func(r *Request) (any, error) {
		return map[string]bool{"authenticated": session.GetAuth(r.Context()) != nil}, nil
	})

	rec := do(r, http.MethodGet, "/api/v1/auth/session", "")
	if rec.Code != http.StatusOK || decode(t, rec)["authenticated"] != false {
		t.Fatalf("unexpected %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouterReadiness(t *testing.T) {
	r := newTestRouter(fakeReadiness{err: errors.New("migrating")})
	r.GET("/health", func(*Request) (any, error) { return map[string]string{"status": "ok"}, nil })

	rec := do(r, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestRouterRecoversPanic(t *testing.T) {
	r := newTestRouter(nil)
	r.GET("/health", func(*Request) (any, error) { panic("boom") })

	rec := do(r, http.MethodGet, "/health", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestDecodeBody(t *testing.T) {
	type in struct {
		PhoneNumber string `json:"phone_number"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"phone_number":"09123456789"}`},
		{name: "unknown field", body: `{"phone":"x"}`, wantErr: true},
		{name: "trailing data", body: `{"phone_number":"x"}{}`, wantErr: true},
		{name: "not json", body: `phone=1`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))}
			var dst in
			err := req.DecodeBody(&dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeBody() error = %v, wantErr %v", err, tt.wantErr)
			}
			var gerr *goerror.Error
			if err != nil && (!errors.As(err, &gerr) || gerr.StatusCode() != http.StatusBadRequest) {
				t.Fatalf("DecodeBody() error = %v, want 400 goerror", err)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("clientIP() = %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("clientIP(xff) = %q", got)
	}
}
