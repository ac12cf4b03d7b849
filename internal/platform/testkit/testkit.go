// Package testkit has helpers for tests that swap package level seams, such
// as the pool constructor the postgres opener calls
package testkit

import (
	"sync"
	"testing"
)

var seamMu sync.Mutex

// Swap points *target at replacement until the test ends
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

// Serial holds a process wide lock for the rest of the test, so tests that
// Swap the same seam never overlap
func Serial(t *testing.T) {
	t.Helper()
	seamMu.Lock()
	t.Cleanup(seamMu.Unlock)
}

// MustPanic fails the test unless fn panics, and returns what it panicked with
func MustPanic(t *testing.T, fn func()) (v any) {
	t.Helper()
	defer func() {
		if v = recover(); v == nil {
			t.Fatal("expected a panic")
		}
	}()
	fn()
	return nil
}
