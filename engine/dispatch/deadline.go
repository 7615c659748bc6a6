// Package dispatch implements C5: deadline computation, frame-aware
// tightening, priority inheritance, and the shared/local dispatch queues
// (spec.md §4.5).
package dispatch

import "github.com/gamesched/core/engine/taskstate"

// DefaultSliceNs is spec.md §4.5's baseline time slice ("configurable;
// default ~10 ms").
const DefaultSliceNs int64 = 10_000_000

// ComputeDeadline implements spec.md §4.5's deadline formula exactly:
// deadline = now + slice_ns >> boost_shift, using the task's effective
// boost (base, or inherited if higher and still active — spec.md §4.5
// priority inheritance).
func ComputeDeadline(tc *taskstate.TaskContext, sliceNs, nowNs int64) int64 {
	shift := tc.EffectiveBoostShift(nowNs)
	return nowNs + (sliceNs >> uint(shift))
}

// FrameTighten implements spec.md §4.5's frame-aware adjustment: for
// gpu-submit tasks it shrinks the deadline by 25%, for compositor tasks by
// 50%, whenever a live (non-stale) frame-timing source is attached. It
// never lengthens a deadline and is a no-op for every other role.
//
// DESIGN.md open-question note: spec.md phrases the trigger as "if the
// standard deadline overshoots [time_to_next_frame]," but its own S2 worked
// example shrinks a deadline that is already far inside time_to_next_frame
// (156us raw vs. 6.667ms to the next frame) — an unconditional shrink
// whenever the source is live reproduces S2's stated ~117us result exactly,
// so that is the rule implemented here; the "overshoot" language is read as
// describing the common case, not a strict precondition.
func FrameTighten(frameIntervalNs, lastPageFlipNs, nowNs, deadline int64, role taskstate.Role) int64 {
	if frameIntervalNs <= 0 {
		return deadline // no presentation source attached (spec.md §9)
	}
	timeToNextFrame := lastPageFlipNs + frameIntervalNs - nowNs
	if timeToNextFrame <= 0 {
		return deadline // stale: the predicted next flip is already in the past
	}
	var num, den int64
	switch role {
	case taskstate.RoleGPUSubmit:
		num, den = 3, 4 // 25% tighter
	case taskstate.RoleCompositor:
		num, den = 1, 2 // 50% tighter
	default:
		return deadline
	}
	delta := deadline - nowNs
	tightened := nowNs + (delta*num)/den
	if tightened < deadline {
		return tightened
	}
	return deadline
}
