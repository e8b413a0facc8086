package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newRateLimitedHandler(t *testing.T, limit int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Second,
		KeyPrefix:         "pos_rate_limit",
	}

	handler := RateLimitMiddleware(client, config, zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	return handler, mr
}

func TestRateLimitBlocksExcessRequests(t *testing.T) {
	const limit = 5
	handler, _ := newRateLimitedHandler(t, limit)

	for i := 0; i < limit; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
		req.Header.Set(TerminalIDHeader, "caja-1")
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d blocked below the limit: %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
	req.Header.Set(TerminalIDHeader, "caja-1")
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 response is missing Retry-After")
	}
}

func TestRateLimitIsPerTerminal(t *testing.T) {
	handler, _ := newRateLimitedHandler(t, 1)

	for _, terminal := range []string{"caja-1", "caja-2"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
		req.Header.Set(TerminalIDHeader, terminal)
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("terminal %s blocked on first request: %d", terminal, w.Code)
		}
	}
}

func TestRateLimitFailsOpenWhenRedisDown(t *testing.T) {
	handler, mr := newRateLimitedHandler(t, 1)
	mr.Close()

	// With the counter unreachable the sale floor keeps working.
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
		req.Header.Set(TerminalIDHeader, "caja-1")
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("request %d should pass when redis is down, got %d", i+1, w.Code)
		}
	}
}
