package cache

import (
	"testing"
	"time"

	"anjo/internal/log"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCache_TTL(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := NewLRUCache[string](4, time.Minute).WithClock(clk.now)

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}
	clk.t = clk.t.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on read")
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatalf("least recently used key should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("recently used key should survive")
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	c.Set("u1/transactions", 1)
	c.Set("u1/accounts", 2)
	c.Set("u2/transactions", 3)
	if n := c.DeletePrefix("u1/"); n != 2 {
		t.Fatalf("expected 2 removals, got %d", n)
	}
	if _, ok := c.Get("u2/transactions"); !ok {
		t.Fatalf("other owner must be untouched")
	}
}

func TestManager_Sweep(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := NewLRUCache[int](10, time.Second).WithClock(clk.now)
	c.Set("a", 1)
	c.Set("b", 2)

	m := NewManager(log.Discard())
	m.Register(c)
	clk.t = clk.t.Add(time.Minute)
	if n := m.Sweep(); n != 2 {
		t.Fatalf("expected 2 expired entries, got %d", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
