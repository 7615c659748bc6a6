package dispatch

import "github.com/gamesched/core/engine/taskstate"

// deadlineMissThreshold and criticalRoleBoost are spec.md §4.5's
// deadline-miss auto-recovery constants ("deadline_misses hits 3 and the
// task is in a critical role (boost >= 3)").
const (
	deadlineMissThreshold = 3
	criticalRoleBoost     = 3
)

// Engine owns the shared EDF queue and drives per-task enqueue/stopping
// transitions; LocalQueues are owned per-CPU by the caller (one per
// taskstate.CPUContext), matching the single-owner-per-CPU model.
type Engine struct {
	Shared   *SharedQueue
	SliceNs  int64
	Globals  *taskstate.Globals
}

// NewEngine returns an Engine using spec.md's default baseline slice.
func NewEngine(globals *taskstate.Globals) *Engine {
	return &Engine{Shared: NewSharedQueue(), SliceNs: DefaultSliceNs, Globals: globals}
}

// Enqueue computes tc's deadline (with frame-aware tightening where
// applicable), records it on tc, and returns the QueuedTask ready for
// whichever queue the caller's select_cpu Decision targets.
func (e *Engine) Enqueue(tc *taskstate.TaskContext, nowNs int64) QueuedTask {
	deadline := ComputeDeadline(tc, e.SliceNs, nowNs)
	deadline = FrameTighten(e.Globals.FrameIntervalNs(), e.Globals.LastPageFlipNs(), nowNs, deadline, tc.Role)
	tc.ExpectedDeadlineNs = deadline
	tc.DeadlineSet = true
	return QueuedTask{TID: tc.TID, Deadline: deadline}
}

// OnStopping implements spec.md §4.5's deadline-miss detection: when a task
// stops running, compare now to its expected_deadline. A miss increments
// deadline_misses; on-time completion resets it to 0. Three consecutive
// misses on a critical-role task (boost_shift >= 3) auto-promote its boost
// by one step, capped at MaxBoostShift, and reset the counter (S5).
func OnStopping(tc *taskstate.TaskContext, cpu *taskstate.CPUContext, nowNs int64) {
	if !tc.DeadlineSet {
		return
	}
	tc.DeadlineSet = false

	if nowNs <= tc.ExpectedDeadlineNs {
		tc.DeadlineMisses = 0
		return
	}

	tc.DeadlineMisses++
	cpu.DeadlineMisses++
	if tc.DeadlineMisses >= deadlineMissThreshold && tc.BoostShift >= criticalRoleBoost {
		if tc.BoostShift < taskstate.MaxBoostShift {
			tc.BoostShift++
		}
		cpu.AutoBoosts++
		tc.DeadlineMisses = 0
	}
}
