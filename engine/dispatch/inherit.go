package dispatch

import "github.com/gamesched/core/engine/taskstate"

// inheritanceSlices is spec.md §4.5's "an expiry of ~2 slices into the
// future."
const inheritanceSlices = 2

// ApplyPriorityInheritance implements spec.md §4.5: on a synchronous wake
// where the wakee has a strictly higher boost than the waker, the waker
// temporarily inherits the wakee's boost so the futex unlock -> wake-up
// chain (the waker finishing its own critical section) runs at the wakee's
// priority rather than its own. sliceNs is the waker's current baseline
// slice, used to size the inheritance expiry.
func ApplyPriorityInheritance(waker, wakee *taskstate.TaskContext, nowNs, sliceNs int64) {
	if wakee.BoostShift <= waker.BoostShift {
		return
	}
	inherited := wakee.BoostShift
	if inherited > taskstate.MaxBoostShift {
		inherited = taskstate.MaxBoostShift
	}
	waker.InheritedBoost = inherited
	waker.InheritanceUntil = nowNs + inheritanceSlices*sliceNs
}
