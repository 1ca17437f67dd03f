package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crewdeck/roster/internal/config"
)

func rateLimitedServer(t *testing.T, trustedProxies []string) *Server {
	t.Helper()

	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		ImportLimit:       1,
	}
	cfg.Security.TrustedProxies = trustedProxies

	s := newTestServerWithConfig(&fakeStore{}, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func getHealth(s *Server, remoteAddr, realIP string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = remoteAddr
	if realIP != "" {
		req.Header.Set("X-Real-IP", realIP)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// Rate Limiter Tests
// ============================================================================

func TestRateLimiter_IgnoresSpoofedRealIP(t *testing.T) {
	s := rateLimitedServer(t, nil)

	// Same untrusted client rotating X-Real-IP must share one bucket
	spoofed := []string{"10.0.0.0", "10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}
	allowed := 0
	for _, ip := range spoofed {
		rec := getHealth(s, "203.0.113.7:4123", ip)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}

	if allowed != 1 {
		t.Errorf("allowed = %d requests at limit 1/min, want 1", allowed)
	}
}

func TestRateLimiter_RejectsWithRetryAfter(t *testing.T) {
	s := rateLimitedServer(t, nil)

	getHealth(s, "203.0.113.7:4123", "")
	rec := getHealth(s, "203.0.113.7:4123", "")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	if got := decodeError(t, rec); got.Code != "IMP010" {
		t.Errorf("error code = %s, want IMP010", got.Code)
	}
}

func TestRateLimiter_SeparateBucketsPerAddr(t *testing.T) {
	s := rateLimitedServer(t, nil)

	first := getHealth(s, "203.0.113.7:4123", "")
	second := getHealth(s, "203.0.113.8:4123", "")

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Errorf("distinct clients = %d and %d, want both 200", first.Code, second.Code)
	}

	// Port rotation is not a new client
	third := getHealth(s, "203.0.113.7:9999", "")
	if third.Code != http.StatusTooManyRequests {
		t.Errorf("same IP new port = %d, want 429", third.Code)
	}
}

func TestRateLimiter_TrustedProxyForwardedIP(t *testing.T) {
	s := rateLimitedServer(t, []string{"192.0.2.1"})

	// Behind a trusted proxy the forwarded client IP keys the bucket
	first := getHealth(s, "192.0.2.1:555", "10.0.0.1")
	repeat := getHealth(s, "192.0.2.1:555", "10.0.0.1")
	other := getHealth(s, "192.0.2.1:555", "10.0.0.2")

	if first.Code != http.StatusOK {
		t.Errorf("first forwarded request = %d, want 200", first.Code)
	}
	if repeat.Code != http.StatusTooManyRequests {
		t.Errorf("repeat from same forwarded IP = %d, want 429", repeat.Code)
	}
	if other.Code != http.StatusOK {
		t.Errorf("other forwarded client = %d, want 200", other.Code)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	rl.stop()
	rl.stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.7:4123", "203.0.113.7"},
		{"203.0.113.7", "203.0.113.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		req.Header.Set("X-Real-IP", "10.9.9.9")

		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}
