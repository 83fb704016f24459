package storage

import (
	"context"
	"path/filepath"
	"testing"

	"anjo/internal/log"
)

func TestSQLiteKV_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "anjo.db")
	kv, err := NewSQLiteKV(dbPath, log.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := kv.Put(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := kv.Put(ctx, "k", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || string(v) != `{"a":2}` {
		t.Fatalf("unexpected read %q ok=%v err=%v", v, ok, err)
	}
	if err := kv.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSQLiteKV_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "anjo.db")
	ctx := context.Background()

	kv, err := NewSQLiteKV(dbPath, log.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := kv.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	kv.Close()

	kv, err = NewSQLiteKV(dbPath, log.Discard())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv.Close()
	v, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("record lost after reopen: %q ok=%v err=%v", v, ok, err)
	}
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	buf := []byte("abc")
	if err := kv.Put(ctx, "k", buf); err != nil {
		t.Fatalf("put: %v", err)
	}
	buf[0] = 'x'
	v, ok, _ := kv.Get(ctx, "k")
	if !ok || string(v) != "abc" {
		t.Fatalf("stored value must not alias caller buffer, got %q", v)
	}
}
