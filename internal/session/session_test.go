package session

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParse(t *testing.T) {
	m := NewManager(secret, time.Hour)
	token, err := m.Issue("user-42", "Ana")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id.Owner != "user-42" || id.Name != "Ana" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestExpiredAndForeignTokens(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(secret, time.Hour).WithClock(func() time.Time { return now })
	token, err := m.Issue("user-1", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: got %v", err)
	}

	other := NewManager("ffffffffffffffffffffffffffffffff", time.Hour)
	foreign, _ := other.Issue("user-1", "")
	if _, err := NewManager(secret, time.Hour).Parse(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign token: got %v", err)
	}
}

func TestFromRequest(t *testing.T) {
	m := NewManager(secret, time.Hour)
	token, _ := m.Issue("owner-7", "")

	tests := []struct {
		name    string
		header  string
		wantOK  bool
		wantErr bool
	}{
		{name: "guest", header: ""},
		{name: "bearer", header: "Bearer " + token, wantOK: true},
		{name: "lowercase scheme", header: "bearer " + token, wantOK: true},
		{name: "basic auth", header: "Basic abc", wantErr: true},
		{name: "garbage token", header: "Bearer nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/transactions", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			id, ok, err := m.FromRequest(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && id.Owner != "owner-7" {
				t.Fatalf("owner = %q", id.Owner)
			}
		})
	}
}

func TestDisabledManagerTreatsEveryoneAsGuest(t *testing.T) {
	var m *Manager = NewManager("", time.Hour)
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer whatever")
	_, ok, err := m.FromRequest(r)
	if ok || err != nil {
		t.Fatalf("disabled manager: ok=%v err=%v", ok, err)
	}
	if _, err := m.Issue("x", ""); !errors.Is(err, ErrDisabled) {
		t.Fatalf("Issue on disabled manager: %v", err)
	}
}

func TestContext(t *testing.T) {
	ctx := NewContext(context.Background(), Identity{Owner: "o"})
	id, ok := FromContext(ctx)
	if !ok || id.Owner != "o" {
		t.Fatalf("FromContext = %+v, %v", id, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context has identity")
	}
}
