package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour, Now: clock.Now})
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestAllowWithinWindow(t *testing.T) {
	rl, clock := newLimiter(t, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "other clients are counted separately")
	assert.Equal(t, int64(1), rl.Hits())

	clock.Advance(time.Minute)
	assert.True(t, rl.Allow("10.0.0.1"), "a new window starts after a minute")
}

func TestSteadyTrafficDoesNotExtendWindow(t *testing.T) {
	rl, clock := newLimiter(t, 2)

	require.True(t, rl.Allow("a"))
	clock.Advance(40 * time.Second)
	require.True(t, rl.Allow("a"))
	clock.Advance(30 * time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestCleanupDropsIdleClients(t *testing.T) {
	rl, clock := newLimiter(t, 10)
	rl.Allow("a")
	rl.Allow("b")
	require.Equal(t, 2, rl.ActiveClients())

	clock.Advance(11 * time.Minute)
	rl.Allow("b")
	rl.cleanupStaleEntries()
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestMiddlewareOnlyCountsMutations(t *testing.T) {
	rl, _ := newLimiter(t, 1)
	handler := rl.Middleware(
		func(*http.Request) string { return "client" },
		IsMutation,
		nil,
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(method, "/transactions", nil))
		return rr
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost).Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet).Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet).Code)

	rr := do(http.MethodDelete)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
}
