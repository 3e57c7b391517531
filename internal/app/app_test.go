package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shandysiswandi/freightbite/internal/pkg/session"
)

const (
	customerPhone = "09121234567"
	adminPhone    = "09120000000"
)

const testConfig = `app:
  name: freightbite
  tz: UTC
  node_id: 1
  server:
    max_goroutine: 50
    http:
      address: "127.0.0.1:0"
database:
  driver: sqlite
  sqlite:
    path: %s
hash:
  hmac:
    secret: e2e-secret
sms:
  driver: log
modules:
  auth:
    enabled: true
    otp:
      ttl_seconds: 300
    session:
      ttl_seconds: 3600
      sweep_interval_seconds: 600
    admin:
      phone_numbers:
        - "%s"
  freight:
    enabled: true
    pricing:
      base_price: 5000
      per_km: 10000
      per_kg: 400
`

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (c *client) do(method, path string, payload any, token string) (int, map[string]any, []*http.Cookie) {
	c.t.Helper()

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			c.t.Fatalf("encode json: %v", err)
		}
		body = buf
	}

	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read response: %v", err)
	}

	var out map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			c.t.Fatalf("decode %s: %v", raw, err)
		}
	}

	return resp.StatusCode, out, resp.Cookies()
}

func startApp(t *testing.T) (*App, *client) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(testConfig, filepath.Join(dir, "e2e.db"), adminPhone)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	a := New()
	if err := a.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	a.Serve(l)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Stop(ctx)
	})

	return a, &client{t: t, base: "http://" + l.Addr().String(), http: &http.Client{Timeout: 5 * time.Second}}
}

func login(t *testing.T, a *App, c *client, phone string) string {
	t.Helper()

	status, body, _ := c.do(http.MethodPost, "/api/v1/auth/send-otp", map[string]string{"phone_number": phone}, "")
	if status != http.StatusOK {
		t.Fatalf("send-otp status = %d, body %v", status, body)
	}

	var code string
	if err := a.gormDB.Raw("SELECT otp_code FROM otp_logs WHERE phone_number = ? ORDER BY id DESC LIMIT 1", phone).
		Scan(&code).Error; err != nil || code == "" {
		t.Fatalf("read otp code: %q, %v", code, err)
	}

	status, body, cookies := c.do(http.MethodPost, "/api/v1/auth/verify-otp",
		map[string]string{"phone_number": phone, "otp_code": code}, "")
	if status != http.StatusOK {
		t.Fatalf("verify-otp status = %d, body %v", status, body)
	}
	for _, ck := range cookies {
		if ck.Name == session.CookieName && ck.Value != "" {
			return ck.Value
		}
	}
	t.Fatal("verify-otp did not set a session cookie")
	return ""
}

func TestEndToEndFreightLifecycle(t *testing.T) {
	a, c := startApp(t)

	status, _, _ := c.do(http.MethodPost, "/api/v1/freight/quote", map[string]float64{"weight_kg": 1}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("anonymous quote status = %d, want 401", status)
	}

	customer := login(t, a, c, customerPhone)

	status, body, _ := c.do(http.MethodGet, "/api/v1/auth/session", nil, customer)
	if status != http.StatusOK || body["authenticated"] != true {
		t.Fatalf("session = %d %v", status, body)
	}

	route := map[string]any{
		"source_address":      "Warehouse",
		"source_lat":          0,
		"source_lng":          0,
		"destination_address": "Store",
		"destination_lat":     1,
		"destination_lng":     0,
		"weight_kg":           100,
	}

	status, body, _ = c.do(http.MethodPost, "/api/v1/freight/quote", map[string]any{
		"source_lat": 0, "source_lng": 0, "destination_lat": 1, "destination_lng": 0, "weight_kg": 100,
	}, customer)
	if status != http.StatusOK || body["calculated_price"] != float64(1156900) {
		t.Fatalf("quote = %d %v", status, body)
	}

	status, body, _ = c.do(http.MethodPost, "/api/v1/freight/requests", route, customer)
	if status != http.StatusCreated || body["status"] != "pending" {
		t.Fatalf("create = %d %v", status, body)
	}
	id, _ := body["id"].(string)

	status, body, _ = c.do(http.MethodGet, "/api/v1/freight/requests", nil, customer)
	if reqs, _ := body["requests"].([]any); status != http.StatusOK || len(reqs) != 1 {
		t.Fatalf("list = %d %v", status, body)
	}

	status, _, _ = c.do(http.MethodGet, "/api/v1/admin/freight/requests", nil, customer)
	if status != http.StatusForbidden {
		t.Fatalf("customer admin list status = %d, want 403", status)
	}

	admin := login(t, a, c, adminPhone)

	status, body, _ = c.do(http.MethodPatch, "/api/v1/admin/freight/requests/"+id, map[string]string{"status": "completed"}, admin)
	if status != http.StatusConflict {
		t.Fatalf("pending to completed = %d %v, want 409", status, body)
	}

	status, body, _ = c.do(http.MethodPatch, "/api/v1/admin/freight/requests/"+id, map[string]string{"status": "confirmed"}, admin)
	if status != http.StatusOK || body["status"] != "confirmed" {
		t.Fatalf("confirm = %d %v", status, body)
	}

	status, body, _ = c.do(http.MethodGet, "/api/v1/admin/freight/requests?status=confirmed", nil, admin)
	if reqs, _ := body["requests"].([]any); status != http.StatusOK || len(reqs) != 1 {
		t.Fatalf("admin list = %d %v", status, body)
	}

	status, _, _ = c.do(http.MethodPost, "/api/v1/admin/freight/requests/export", nil, admin)
	if status != http.StatusServiceUnavailable {
		t.Fatalf("export without storage status = %d, want 503", status)
	}

	status, _, _ = c.do(http.MethodPost, "/api/v1/auth/logout", nil, customer)
	if status != http.StatusOK {
		t.Fatalf("logout status = %d", status)
	}

	status, _, _ = c.do(http.MethodGet, "/api/v1/freight/requests", nil, customer)
	if status != http.StatusUnauthorized {
		t.Fatalf("after logout status = %d, want 401", status)
	}
}
