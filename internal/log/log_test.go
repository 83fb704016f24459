package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"anjo/internal/core"
)

func bufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Level: slog.LevelDebug, Format: "json", Output: buf, Component: ComponentLedger})
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	bufferLogger(&buf).Info("hello")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log: %v", err)
	}
	if rec[FieldComponent] != ComponentLedger {
		t.Fatalf("expected component %q, got %v", ComponentLedger, rec[FieldComponent])
	}
}

func TestLogMutationLevels(t *testing.T) {
	cases := []struct {
		err   error
		level string
	}{
		{nil, "INFO"},
		{core.ErrInvalidAmount, "WARN"},
		{core.ErrGoalNotFound, "WARN"},
		{core.ErrRemote.Wrap(errors.New("timeout")), "ERROR"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		sl := NewStructuredLogger(bufferLogger(&buf))
		sl.LogMutation(context.Background(), OpCreate, NewFields().WithOwner("u1"), tc.err)
		if !strings.Contains(buf.String(), `"level":"`+tc.level+`"`) {
			t.Fatalf("err %v: expected level %s in %s", tc.err, tc.level, buf.String())
		}
	}
}

func TestFieldsToSliceSorted(t *testing.T) {
	s := NewFields().WithOperation(OpDelete).WithClientIP("1.2.3.4").ToSlice()
	if len(s) != 4 || s[0] != FieldClientIP || s[2] != FieldOperation {
		t.Fatalf("unexpected field order %v", s)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug || ParseLevel("warn") != slog.LevelWarn || ParseLevel("x") != slog.LevelInfo {
		t.Fatalf("unexpected level mapping")
	}
}

func TestFromContextFallback(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected default logger")
	}
	l := Discard()
	if FromContext(NewContext(context.Background(), l)) != l {
		t.Fatalf("expected stored logger")
	}
}
