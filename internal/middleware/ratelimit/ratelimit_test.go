package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, cfg Config) *Limiter {
	t.Helper()
	rl := NewLimiter(cfg)
	t.Cleanup(rl.Stop)
	return rl
}

func TestAllowBurstThenThrottle(t *testing.T) {
	rl := newTestLimiter(t, Config{RequestsPerMinute: 60, Burst: 3})
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "request %d should pass", i)
	}
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "other clients have their own bucket")

	// One request per second refills.
	fixed = fixed.Add(time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.Equal(t, 2, rl.ActiveClients())
}

func TestCleanupForgetsIdleClients(t *testing.T) {
	rl := newTestLimiter(t, Config{RequestsPerMinute: 60, IdleTTL: time.Minute})
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	rl.Allow("a")
	fixed = fixed.Add(30 * time.Second)
	rl.Allow("b")
	fixed = fixed.Add(45 * time.Second)

	assert.Equal(t, 1, rl.cleanupStaleEntries())
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestMiddleware(t *testing.T) {
	rl := newTestLimiter(t, Config{RequestsPerMinute: 60, Burst: 1})
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	onlyPost := func(r *http.Request) bool { return r.Method == http.MethodPost }
	h := rl.Middleware(func(*http.Request) string { return "ip" }, onlyPost, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/", nil))
		return rr
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost).Code)
	rr := do(http.MethodPost)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet).Code, "GET is not throttled")
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
