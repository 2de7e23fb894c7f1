package testkit

import (
	"sync"
	"testing"
)

var seams sync.Mutex

// Swap points a package-level hook (a sleeper, an opener) at replacement until the test ends
func Swap[T any](t *testing.T, hook *T, replacement T) {
	t.Helper()
	prev := *hook
	*hook = replacement
	t.Cleanup(func() { *hook = prev })
}

// Serial keeps tests that touch process-wide state (package hooks, the global logger) from overlapping
func Serial(t *testing.T) {
	t.Helper()
	seams.Lock()
	t.Cleanup(seams.Unlock)
}
