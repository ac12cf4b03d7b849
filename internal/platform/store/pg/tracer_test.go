package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestOneLine(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"SELECT 1":                      "SELECT 1",
		"  SELECT\n\t key,\r\n sum  ":   "SELECT key, sum",
		"UPDATE sums\nSET current = $1": "UPDATE sums SET current = $1",
		"":                              "",
	}
	for in, want := range cases {
		if got := oneLine(in); got != want {
			t.Fatalf("oneLine(%q) = %q, want %q", in, got, want)
		}
	}
}

type line struct {
	Level     string  `json:"level"`
	Took      float64 `json:"took"`
	Slow      bool    `json:"slow"`
	SQL       string  `json:"sql"`
	Args      []any   `json:"args"`
	Error     string  `json:"error"`
	Component string  `json:"component"`
}

func trace(t *testing.T, ev QueryEvent) line {
	t.Helper()

	var buf bytes.Buffer
	Tracer(zerolog.New(&buf)).OnQuery(context.Background(), ev)

	var l line
	if err := json.Unmarshal(buf.Bytes(), &l); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return l
}

func TestTracerLevels(t *testing.T) {
	t.Parallel()

	ev := QueryEvent{
		SQL:     "SELECT key, sum\n  FROM entity_sums WHERE parent = $1",
		Args:    []any{"org-1"},
		Elapsed: 12 * time.Millisecond,
	}

	l := trace(t, ev)
	if l.Level != "debug" || l.Component != "pg" || l.Took != 12 {
		t.Fatalf("fast statement = %+v", l)
	}
	if l.SQL != "SELECT key, sum FROM entity_sums WHERE parent = $1" || len(l.Args) != 1 || l.Args[0] != "org-1" {
		t.Fatalf("statement fields = %+v", l)
	}

	ev.Slow = true
	if l := trace(t, ev); l.Level != "warn" || !l.Slow {
		t.Fatalf("slow statement = %+v", l)
	}

	ev.Slow, ev.Err = false, errors.New("deadlock detected")
	if l := trace(t, ev); l.Level != "warn" || l.Error != "deadlock detected" {
		t.Fatalf("failed statement = %+v", l)
	}
}
