// Package migration implements C6: the per-task migration token bucket and
// the frame-window migration block (spec.md §4.6).
package migration

import "github.com/gamesched/core/engine/taskstate"

// DefaultWindowNs and DefaultMaxTokens are spec.md §4.6's stated defaults
// ("Window defaults to ~50 ms; max-tokens defaults to ~3").
const (
	DefaultWindowNs  int64 = 50_000_000
	DefaultMaxTokens int32 = 3
	// CooldownNs is spec.md §4.6's "32ms cooldown after any successful
	// migration" that bars further migrations regardless of token count.
	CooldownNs int64 = 32_000_000
)

// Limiter holds the bucket parameters; it carries no per-task state itself
// (that lives on taskstate.TaskContext, since the bucket's refill clock
// must persist across calls on the same task and survive relocation
// between per-CPU contexts).
type Limiter struct {
	WindowNs  int64
	MaxTokens int32
}

// NewLimiter returns a Limiter configured with spec.md's stated defaults.
func NewLimiter() Limiter {
	return Limiter{WindowNs: DefaultWindowNs, MaxTokens: DefaultMaxTokens}
}

// refill applies spec.md §4.6's linear refill rule using only integer
// arithmetic (no floating point is permitted in the kernel component,
// spec.md §5): add = (elapsed_ns * max_tokens) / window_ns, capped at max.
// S3 requires this to floor rather than round.
func (l Limiter) refill(tc *taskstate.TaskContext, nowNs int64) {
	elapsed := nowNs - tc.LastRefillNs
	if elapsed <= 0 {
		return
	}
	// int64 throughout: elapsed can be an arbitrary nanosecond timestamp
	// delta (e.g. time since the epoch on a task's very first refill), and
	// token counts are capped to MaxTokens (small) immediately after, so
	// there is no need to risk an int32 overflow computing the raw add.
	add := (elapsed * int64(l.MaxTokens)) / l.WindowNs
	if add <= 0 {
		// Sub-token elapsed time: leave LastRefillNs untouched so it keeps
		// accumulating instead of being discarded on every short-interval call.
		return
	}
	tc.LastRefillNs += add * l.WindowNs / int64(l.MaxTokens)
	tokens := int64(tc.MigrationTokens) + add
	if tokens > int64(l.MaxTokens) {
		tokens = int64(l.MaxTokens)
	}
	tc.MigrationTokens = int32(tokens)
}

// Allow reports whether tc may migrate to a different CPU right now, and if
// so consumes exactly one token and starts the post-migration cooldown
// (spec.md §4.6, P5: "post-migration migration-token count equals
// pre-event count minus 1"). It never mutates state when it refuses.
//
// frameWindowActive implements the frame-window migration block (§4.6):
// during an open frame window, gpu-submit and compositor tasks are refused
// outright regardless of token count, so a caller only needs to determine
// whether the candidate task is one of those two roles and whether a frame
// window is currently open.
func (l Limiter) Allow(tc *taskstate.TaskContext, nowNs int64, frameWindowActive bool) bool {
	if tc.MigrationDisabled {
		return false
	}
	if frameWindowActive && (tc.Role == taskstate.RoleGPUSubmit || tc.Role == taskstate.RoleCompositor) {
		return false
	}
	if nowNs-tc.LastMigrationNs < CooldownNs {
		return false
	}
	l.refill(tc, nowNs)
	if tc.MigrationTokens < 1 {
		return false
	}
	tc.MigrationTokens--
	tc.LastMigrationNs = nowNs
	return true
}
