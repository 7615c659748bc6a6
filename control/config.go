// Package control implements the userspace control plane (spec.md §7):
// loading and attaching gamesched.bpf.c, watching for foreground/audio
// changes, draining the input rings, aggregating per-CPU counters, and
// watchdogging forward progress.
package control

import (
	"time"

	"github.com/gamesched/core/engine/inputpipe"
)

// Config collects every tunable the control plane needs at startup,
// mirroring the flag set server/server.go exposes for its own process
// (cmd/gamesched/main.go turns flags into one of these).
type Config struct {
	// RingCapacityBytes sizes each of engine/inputpipe's NumRings rings
	// plus the game-detection ring.
	RingCapacityBytes int

	// AggregateInterval is how often per-CPU counters fold into Globals
	// (spec.md §4.7 "~5ms").
	AggregateInterval time.Duration

	// WatchdogInterval is how often the watchdog samples TotalDispatches,
	// and WatchdogStallAfter is how long without advancement counts as a
	// stall (spec.md §4.6).
	WatchdogInterval  time.Duration
	WatchdogStallAfter time.Duration

	// RingDrainPollInterval backs off the ring-drain loop when a ring has
	// nothing queued, since engine/inputpipe.Ring is polled rather than
	// epoll-waited.
	RingDrainPollInterval time.Duration

	// ProcRoot lets tests substitute internal/testprocfs for the real
	// /proc when watching for foreground/audio-owning processes.
	ProcRoot string

	// LaneDurations overrides engine/inputpipe's per-lane boost-window
	// length (DESIGN.md's Open Question decision: a struct, not constants,
	// specifically so this field can override it). cmd/gamesched's
	// -mouse_ms/-keyboard_ms/-controller_ms/-other_ms flags populate this;
	// DefaultConfig leaves it at inputpipe.DefaultLaneDurations.
	LaneDurations inputpipe.LaneDurations
}

// DefaultConfig returns the values spec.md names explicitly, or values
// consistent with the intervals it does name, for everything else.
func DefaultConfig() Config {
	return Config{
		RingCapacityBytes:     64 * 1024,
		AggregateInterval:     5 * time.Millisecond,
		WatchdogInterval:      100 * time.Millisecond,
		WatchdogStallAfter:    30 * time.Second,
		RingDrainPollInterval: 500 * time.Microsecond,
		ProcRoot:              "/proc",
		LaneDurations:         inputpipe.DefaultLaneDurations,
	}
}
