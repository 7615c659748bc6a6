package migration

import (
	"testing"

	"github.com/gamesched/core/engine/taskstate"
)

func newTask() *taskstate.TaskContext {
	return taskstate.NewTaskContext(1, 1)
}

// S3 — Migration limiter enforcement: tokens=0, last_refill 10ms ago,
// window 50ms, max 3 -> add = 3*10/50 = 0.6 -> floors to 0 -> blocked.
func TestLimiterFloorsFractionalRefill(t *testing.T) {
	l := Limiter{WindowNs: 50_000_000, MaxTokens: 3}
	tc := newTask()
	tc.LastRefillNs = 0
	tc.MigrationTokens = 0
	if l.Allow(tc, 10_000_000, false) {
		t.Fatalf("expected migration to be blocked by fractional-token floor")
	}
	if tc.MigrationTokens != 0 {
		t.Fatalf("MigrationTokens = %d, want unchanged at 0", tc.MigrationTokens)
	}
}

// P5 — post-migration token count equals pre-event count minus 1.
func TestAllowConsumesExactlyOneToken(t *testing.T) {
	l := NewLimiter()
	tc := newTask()
	tc.MigrationTokens = 2
	tc.LastRefillNs = 1000
	before := tc.MigrationTokens
	if !l.Allow(tc, 1000, false) {
		t.Fatalf("expected migration to be allowed with 2 tokens available")
	}
	if tc.MigrationTokens != before-1 {
		t.Fatalf("MigrationTokens = %d, want %d", tc.MigrationTokens, before-1)
	}
}

func TestRefillCapsAtMaxTokens(t *testing.T) {
	l := Limiter{WindowNs: 1000, MaxTokens: 3}
	tc := newTask()
	tc.MigrationTokens = 0
	tc.LastRefillNs = 0
	l.refill(tc, 1_000_000) // enormous elapsed time relative to window
	if tc.MigrationTokens != 3 {
		t.Fatalf("MigrationTokens = %d, want capped at 3", tc.MigrationTokens)
	}
}

func TestMigrationDisabledAlwaysRefused(t *testing.T) {
	l := NewLimiter()
	tc := newTask()
	tc.MigrationDisabled = true
	tc.MigrationTokens = 3
	if l.Allow(tc, 1000, false) {
		t.Fatalf("migration-disabled task must never be allowed to migrate")
	}
	if tc.MigrationTokens != 3 {
		t.Fatalf("refusal must not consume a token")
	}
}

func TestFrameWindowBlocksGPUSubmitAndCompositor(t *testing.T) {
	l := NewLimiter()
	for _, role := range []taskstate.Role{taskstate.RoleGPUSubmit, taskstate.RoleCompositor} {
		tc := newTask()
		tc.Role = role
		tc.MigrationTokens = 3
		if l.Allow(tc, 1000, true) {
			t.Fatalf("role %s must be blocked during an open frame window", role)
		}
	}
}

func TestFrameWindowDoesNotBlockOtherRoles(t *testing.T) {
	l := NewLimiter()
	tc := newTask()
	tc.Role = taskstate.RoleInputHandler
	tc.MigrationTokens = 3
	tc.LastRefillNs = 1000
	if !l.Allow(tc, 1000, true) {
		t.Fatalf("frame window should only gate gpu-submit/compositor, not %s", tc.Role)
	}
}

// A stream of calls each spaced closer than window/maxTokens must still
// accumulate fractional elapsed time across calls rather than discarding it
// on every zero-token refill, or a high-wake-rate task could never refill
// off zero (the liveness bug fixed alongside S3's floor-to-zero behavior).
func TestRefillAccumulatesFractionalElapsedTimeAcrossCalls(t *testing.T) {
	l := Limiter{WindowNs: 50_000_000, MaxTokens: 3} // window/maxTokens ~= 16.67ms
	tc := newTask()
	tc.LastRefillNs = 0
	tc.MigrationTokens = 0
	tc.LastMigrationNs = -CooldownNs // clear of the post-migration cooldown

	const step = 10_000_000 // 10ms: add = 3*10/50 = 0.6, floors to 0 every call
	now := int64(0)
	for i := 0; i < 5; i++ {
		now += step
		l.refill(tc, now)
	}
	if tc.MigrationTokens == 0 {
		t.Fatalf("MigrationTokens stayed at 0 after %dns of elapsed time accumulated across zero-add refills; LastRefillNs must not reset on every call", now)
	}
}

func TestCooldownBarsFurtherMigration(t *testing.T) {
	l := NewLimiter()
	tc := newTask()
	tc.MigrationTokens = 3
	tc.LastRefillNs = 0
	if !l.Allow(tc, 0, false) {
		t.Fatalf("first migration should be allowed")
	}
	if l.Allow(tc, CooldownNs-1, false) {
		t.Fatalf("migration within the 32ms cooldown must be refused")
	}
	if !l.Allow(tc, CooldownNs+1, false) {
		t.Fatalf("migration after the cooldown elapses should be allowed again")
	}
}
