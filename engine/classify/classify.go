package classify

import "github.com/gamesched/core/engine/taskstate"

// rateMonotonicPeriodHz is the frequency threshold spec.md §4.2 describes as
// "a period under 10ms" (1 / 10ms == 100Hz).
const rateMonotonicPeriodHz = 100.0

// Classify runs the four detection layers against sig in priority order
// (TGID/hook evidence, name pattern, sticky carry-over, behavioral), applies
// the foreground constraint, and writes the result onto tc: Role,
// IsForeground, ClassificationGeneration, and -- via RecomputeBoostShift,
// the single authority for the field -- BoostShift.
//
// currentGen is the scheduler-wide classification generation
// (taskstate.Globals.Generation()); a foreground-process change bumps it,
// which invalidates every task's cached classification and forces a full
// re-run of all four layers instead of trusting the sticky carry-over.
//
// inputWindowActive is only consulted for its effect on RoleGamingNetwork's
// boost tier; the rest of classification doesn't depend on it.
func Classify(tc *taskstate.TaskContext, sig Signal, currentGen uint64, inputWindowActive bool) {
	stale := tc.ClassificationGeneration != currentGen
	if stale {
		tc.Role = taskstate.RoleUnclassified
		tc.ClassificationGeneration = currentGen
	}
	tc.IsForeground = sig.IsForeground

	role, matched := hookEvidenceChain.classify(sig)
	if !matched {
		role, matched = classifyByName(sig)
	}
	if !matched {
		if tc.Role != taskstate.RoleUnclassified {
			// Roles never regress except via generation bump (spec.md §4.2):
			// an inconclusive re-check on a task that is already classified
			// keeps its existing role rather than falling through to a
			// weaker layer's guess.
			role, matched = tc.Role, true
		} else {
			role = Behavioral(sig)
			matched = role != taskstate.RoleUnclassified
		}
	}

	// Foreground constraint (spec.md §4.2, P8): a foreground-only role
	// refused to a background task collapses to unclassified rather than
	// cascading into a different layer's guess -- simple to reason about and
	// to test.
	if role.ForegroundOnly() && !sig.IsForeground {
		role = taskstate.RoleUnclassified
	}

	tc.Role = role

	augment := sig.WakeupFreqHz > rateMonotonicPeriodHz
	tc.BoostShift = taskstate.RecomputeBoostShift(role, inputWindowActive, augment)
}
