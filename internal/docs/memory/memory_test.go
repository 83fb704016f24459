package memory

import (
	"context"
	"errors"
	"testing"

	"anjo/internal/docs"
)

func TestStore_CRUD(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Insert(ctx, "u1", docs.Goals, docs.Document{ID: id, Data: []byte(`{"id":"` + id + `"}`)}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if err := s.Update(ctx, "u1", docs.Goals, docs.Document{ID: "b", Data: []byte(`{"id":"b","x":1}`)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Delete(ctx, "u1", docs.Goals, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := s.List(ctx, "u1", docs.Goals)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" || string(got[0].Data) != `{"id":"b","x":1}` {
		t.Fatalf("unexpected documents %+v", got)
	}

	other, _ := s.List(ctx, "u2", docs.Goals)
	if len(other) != 0 {
		t.Fatalf("owners must be isolated")
	}
	if err := s.Update(ctx, "u1", docs.Goals, docs.Document{ID: "zz"}); !errors.Is(err, docs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "u1", docs.Goals, "zz"); !errors.Is(err, docs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_FailNext(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")
	s.FailNext(docs.OpInsert, docs.Accounts, boom, nil)

	if err := s.Insert(ctx, "u", docs.Accounts, docs.Document{ID: "1"}); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if err := s.Insert(ctx, "u", docs.Accounts, docs.Document{ID: "1"}); err != nil {
		t.Fatalf("second call should succeed, got %v", err)
	}
	if n := s.Calls(docs.OpInsert, docs.Accounts); n != 2 {
		t.Fatalf("expected 2 calls, got %d", n)
	}
	list, _ := s.List(ctx, "u", docs.Accounts)
	if len(list) != 1 {
		t.Fatalf("failed insert must not be stored, got %d docs", len(list))
	}
}
