package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig(burst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1), // 補充を事実上止める
		GeneralBurst:    burst,
		CleanupInterval: time.Hour,
	}
}

// バースト以内のリクエストが許可されることを検証
func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(3))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.RemoteAddr = "192.0.2.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

// バースト超過で429とRetry-Afterが返ることを検証
func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.RemoteAddr = "192.0.2.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", w.Code, http.StatusOK)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.RemoteAddr = "192.0.2.1:12345"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q, want RATE_LIMIT_EXCEEDED", body.Code)
	}
}

// クライアントIPごとに独立したリミッターが使われることを検証
func TestRateLimiter_PerClientIsolation(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// クライアントAがバーストを使い切る
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.RemoteAddr = "192.0.2.1:12345"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// クライアントBは影響を受けない
	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.RemoteAddr = "192.0.2.2:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want %d", w.Code, http.StatusOK)
	}

	if got := rl.LimiterCount(); got != 2 {
		t.Errorf("LimiterCount = %d, want 2", got)
	}
}

// 同一IPの別ポートが同じリミッターにまとまることを検証
func TestRateLimiter_PortIsIgnored(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, addr := range []string{"192.0.2.1:1111", "192.0.2.1:2222"} {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.RemoteAddr = addr
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := rl.LimiterCount(); got != 1 {
		t.Errorf("LimiterCount = %d, want 1", got)
	}
}

func TestClientIPFromRequest(t *testing.T) {
	cases := []struct {
		remoteAddr string
		want       string
	}{
		{"192.0.2.1:12345", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"no-port", "no-port"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remoteAddr
		if got := clientIPFromRequest(req); got != tc.want {
			t.Errorf("clientIPFromRequest(%q) = %q, want %q", tc.remoteAddr, got, tc.want)
		}
	}
}
