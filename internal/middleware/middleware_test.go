package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"seatime-backend/internal/ctxkeys"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User", ctxkeys.GetUserID(r.Context()))
		w.Header().Set("X-Role", ctxkeys.GetUserRole(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	valid := signToken(t, jwt.MapClaims{"userId": "u-1", "role": "crew", "exp": exp}, testSecret)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, jwt.MapClaims{"userId": "u-1", "role": "crew", "exp": exp}, "another-secret-another-secret-xx"), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, jwt.MapClaims{"userId": "u-1", "role": "crew", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret), http.StatusUnauthorized},
		{"no expiry", "Bearer " + signToken(t, jwt.MapClaims{"userId": "u-1", "role": "crew"}, testSecret), http.StatusUnauthorized},
		{"no user", "Bearer " + signToken(t, jwt.MapClaims{"role": "crew", "exp": exp}, testSecret), http.StatusUnauthorized},
		{"unknown role", "Bearer " + signToken(t, jwt.MapClaims{"userId": "u-1", "role": "captain", "exp": exp}, testSecret), http.StatusUnauthorized},
	}

	h := Auth(testSecret)(echoIdentity())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/vessels", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status == http.StatusOK {
				if rec.Header().Get("X-User") != "u-1" || rec.Header().Get("X-Role") != "crew" {
					t.Errorf("identity not injected: %v", rec.Header())
				}
			}
		})
	}
}

func TestRequireMinRole(t *testing.T) {
	tests := []struct {
		role   string
		status int
	}{
		{"crew", http.StatusForbidden},
		{"admin", http.StatusOK},
		{"super_admin", http.StatusOK},
		{"", http.StatusForbidden},
	}

	h := RequireMinRole("admin")(echoIdentity())
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/activity", nil)
		req = req.WithContext(ctxkeys.WithUser(req.Context(), "u-1", tt.role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.status {
			t.Errorf("role %q: expected %d, got %d", tt.role, tt.status, rec.Code)
		}
	}
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	h := RateLimit(rate.Every(time.Minute), 2)(echoIdentity())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:5123"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header")
		}
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected status sequence %v", codes)
	}

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "198.51.100.4:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("second client should not be limited, got %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name, xff, remote, want string
	}{
		{"forwarded header ignored", "203.0.113.1, 10.0.0.1", "10.0.0.2:443", "10.0.0.2"},
		{"remote with port", "", "192.0.2.10:5555", "192.0.2.10"},
		{"remote without port", "", "192.0.2.10", "192.0.2.10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimit_SpoofedForwardedForSharesBucket(t *testing.T) {
	h := RateLimit(rate.Every(time.Minute), 1)(echoIdentity())

	codes := make([]int, 0, 3)
	for i, xff := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.7:" + strconv.Itoa(40000+i)
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Errorf("rotating X-Forwarded-For should not reset the limit, got %v", codes)
	}
}

func TestRateLimit_BehindTrustedProxy(t *testing.T) {
	h := chimw.RealIP(RateLimit(rate.Every(time.Minute), 1)(echoIdentity()))

	codes := make([]int, 0, 2)
	for _, ip := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:443"
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("distinct clients behind the proxy should get their own buckets, got %v", codes)
	}
}

func TestClientLimiters_Sweep(t *testing.T) {
	c := newClientLimiters(rate.Inf, 1)
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	c.get("a", start)
	c.get("b", start.Add(9*time.Minute))

	if removed := c.sweep(start.Add(15 * time.Minute)); removed != 1 {
		t.Errorf("expected 1 stale bucket removed, got %d", removed)
	}
	if c.size() != 1 {
		t.Errorf("expected 1 bucket left, got %d", c.size())
	}
}
