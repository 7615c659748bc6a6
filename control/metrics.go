package control

import "github.com/gamesched/core/engine/taskstate"

// Metrics is the control plane's exported snapshot: the aggregated
// scheduler counters plus a couple of control-plane-only facts no CPU
// context carries (current foreground TGID, per-hook attach state).
type Metrics struct {
	taskstate.Counters
	ForegroundTGID   taskstate.TGID
	HookAvailability map[string]bool
}

// Snapshot assembles a Metrics value from the current plane state. Kept as
// a free function over its inputs rather than a Plane method so
// control/external's debug-HTTP collaborator (out of scope here) can call
// it without importing Plane's full surface.
func Snapshot(globals *taskstate.Globals, hookAvailability map[string]bool) Metrics {
	return Metrics{
		Counters:         globals.Snapshot(),
		ForegroundTGID:   globals.ForegroundTGID(),
		HookAvailability: hookAvailability,
	}
}
