package format

import (
	"os"
	"sync"
	"sync/atomic"
)

var (
	styling  atomic.Bool
	initOnce sync.Once
)

// EnableStyling turns ANSI output on or off explicitly, overriding the
// terminal probe.
func EnableStyling(on bool) {
	initOnce.Do(func() {})
	styling.Store(on)
}

// stylingEnabled lazily probes the terminal on first use.
func stylingEnabled() bool {
	initOnce.Do(func() {
		styling.Store(probeTerminal())
	})
	return styling.Load()
}

// probeTerminal decides whether stdout accepts ANSI sequences.
func probeTerminal() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	info, err := os.Stdout.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return false
	}
	return enableVirtualTerminal()
}
