package dispatch

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gamesched/core/engine/taskstate"
)

// S2 — Frame-aware deadline tightening.
func TestFrameTightenMatchesScenarioS2(t *testing.T) {
	tc := taskstate.NewTaskContext(1, 1)
	tc.BoostShift = 6
	tc.Role = taskstate.RoleGPUSubmit
	const lastPageFlip = 1_000_000_000
	const frameInterval = 16_666_667
	const now = 1_010_000_000

	raw := ComputeDeadline(tc, DefaultSliceNs, now)
	tightened := FrameTighten(frameInterval, lastPageFlip, now, raw, tc.Role)

	wantDelta := int64(117187) // (10_000_000 >> 6) * 3/4
	if got := tightened - now; got != wantDelta {
		t.Fatalf("tightened delta = %d, want %d", got, wantDelta)
	}
	if tightened >= raw {
		t.Fatalf("tightened deadline must be strictly shorter than raw: tightened=%d raw=%d", tightened, raw)
	}
}

func TestFrameTightenNeverLengthensDeadline(t *testing.T) {
	raw := int64(500)
	got := FrameTighten(16_666_667, 1_000_000_000, 1_010_000_000, raw, taskstate.RoleGPUSubmit)
	if got > raw {
		t.Fatalf("FrameTighten lengthened the deadline: got=%d raw=%d", got, raw)
	}
}

func TestFrameTightenNoopWithoutFrameSource(t *testing.T) {
	raw := int64(1000)
	got := FrameTighten(0, 0, 500, raw, taskstate.RoleGPUSubmit)
	if got != raw {
		t.Fatalf("FrameTighten() = %d, want unchanged %d when no source is attached", got, raw)
	}
}

func TestFrameTightenNoopForUninvolvedRole(t *testing.T) {
	raw := int64(1000)
	got := FrameTighten(16_666_667, 1_000_000_000, 1_010_000_000, raw, taskstate.RoleNetwork)
	if got != raw {
		t.Fatalf("FrameTighten() = %d, want unchanged %d for a role frame-tightening doesn't apply to", got, raw)
	}
}

func TestFrameTightenSkipsStaleSource(t *testing.T) {
	raw := int64(1000)
	// last_page_flip + interval is already in the past relative to now.
	got := FrameTighten(16_666_667, 1_000_000_000, 2_000_000_000, raw, taskstate.RoleGPUSubmit)
	if got != raw {
		t.Fatalf("FrameTighten() = %d, want unchanged %d for a stale source", got, raw)
	}
}

func TestApplyPriorityInheritanceRaisesWakerEffectiveBoost(t *testing.T) {
	waker := taskstate.NewTaskContext(1, 1)
	waker.BoostShift = 2
	wakee := taskstate.NewTaskContext(2, 1)
	wakee.BoostShift = 6

	ApplyPriorityInheritance(waker, wakee, 1000, DefaultSliceNs)

	if waker.InheritedBoost != 6 {
		t.Fatalf("InheritedBoost = %d, want 6", waker.InheritedBoost)
	}
	if got := waker.EffectiveBoostShift(1000); got != 6 {
		t.Fatalf("EffectiveBoostShift() = %d, want 6 while inheritance is active", got)
	}
	if waker.EffectiveBoostShift(1000+3*DefaultSliceNs) != 2 {
		t.Fatalf("inheritance should have expired by 3 slices later")
	}
}

func TestApplyPriorityInheritanceNoopWhenWakerAlreadyHigher(t *testing.T) {
	waker := taskstate.NewTaskContext(1, 1)
	waker.BoostShift = 7
	wakee := taskstate.NewTaskContext(2, 1)
	wakee.BoostShift = 3
	ApplyPriorityInheritance(waker, wakee, 0, DefaultSliceNs)
	if waker.InheritedBoost != 0 {
		t.Fatalf("InheritedBoost = %d, want 0 (waker already has the higher boost)", waker.InheritedBoost)
	}
}

// S5 — Deadline-miss auto-recovery.
func TestOnStoppingAutoPromotesAfterThreeMisses(t *testing.T) {
	cpu := &taskstate.CPUContext{}
	tc := taskstate.NewTaskContext(1, 1)
	tc.Role = taskstate.RoleGPUSubmit
	tc.BoostShift = 6

	for i := 0; i < 3; i++ {
		tc.DeadlineSet = true
		tc.ExpectedDeadlineNs = 100
		OnStopping(tc, cpu, 200) // now > deadline: a miss
	}
	if tc.BoostShift != 7 {
		t.Fatalf("BoostShift = %d, want 7 after three consecutive misses", tc.BoostShift)
	}
	if tc.DeadlineMisses != 0 {
		t.Fatalf("DeadlineMisses = %d, want reset to 0", tc.DeadlineMisses)
	}
	if cpu.AutoBoosts != 1 {
		t.Fatalf("AutoBoosts = %d, want 1", cpu.AutoBoosts)
	}

	// Fourth consecutive miss: boost stays at the ceiling.
	tc.DeadlineSet = true
	tc.ExpectedDeadlineNs = 100
	OnStopping(tc, cpu, 200)
	if tc.BoostShift != 7 {
		t.Fatalf("BoostShift = %d, want to stay at the ceiling of 7", tc.BoostShift)
	}
}

// P3: deadline_misses resets to 0 after any on-time completion.
func TestOnStoppingResetsMissesOnTimeCompletion(t *testing.T) {
	cpu := &taskstate.CPUContext{}
	tc := taskstate.NewTaskContext(1, 1)
	tc.DeadlineMisses = 2
	tc.DeadlineSet = true
	tc.ExpectedDeadlineNs = 1000
	OnStopping(tc, cpu, 500) // on time: now <= deadline
	if tc.DeadlineMisses != 0 {
		t.Fatalf("DeadlineMisses = %d, want 0 after an on-time completion", tc.DeadlineMisses)
	}
}

func TestOnStoppingIgnoresTaskWithNoDeadlineSet(t *testing.T) {
	cpu := &taskstate.CPUContext{}
	tc := taskstate.NewTaskContext(1, 1)
	tc.DeadlineSet = false
	tc.DeadlineMisses = 2
	OnStopping(tc, cpu, 999999)
	if tc.DeadlineMisses != 2 {
		t.Fatalf("OnStopping must be a no-op when no deadline was set")
	}
}

func TestOnStoppingDoesNotPromoteNonCriticalRole(t *testing.T) {
	cpu := &taskstate.CPUContext{}
	tc := taskstate.NewTaskContext(1, 1)
	tc.BoostShift = 1 // below the criticalRoleBoost threshold of 3
	for i := 0; i < 3; i++ {
		tc.DeadlineSet = true
		tc.ExpectedDeadlineNs = 100
		OnStopping(tc, cpu, 200)
	}
	if tc.BoostShift != 1 {
		t.Fatalf("BoostShift = %d, want unchanged at 1 for a non-critical role", tc.BoostShift)
	}
}

func TestSharedQueueEarliestDeadlineFirst(t *testing.T) {
	q := NewSharedQueue()
	q.Push(QueuedTask{TID: 1, Deadline: 300})
	q.Push(QueuedTask{TID: 2, Deadline: 100})
	q.Push(QueuedTask{TID: 3, Deadline: 200})

	var popped []QueuedTask
	for {
		got, ok := q.Pop()
		if !ok {
			break
		}
		popped = append(popped, got)
	}
	want := []QueuedTask{
		{TID: 2, Deadline: 100},
		{TID: 3, Deadline: 200},
		{TID: 1, Deadline: 300},
	}
	if diff := cmp.Diff(want, popped); diff != "" {
		t.Fatalf("Pop() order mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalQueueFIFO(t *testing.T) {
	q := NewLocalQueue()
	q.PushBack(QueuedTask{TID: 1})
	q.PushBack(QueuedTask{TID: 2})
	first, _ := q.PopFront()
	second, _ := q.PopFront()
	if first.TID != 1 || second.TID != 2 {
		t.Fatalf("LocalQueue did not preserve FIFO order: %+v, %+v", first, second)
	}
	if _, ok := q.PopFront(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestEngineEnqueueSetsDeadlineOnTask(t *testing.T) {
	e := NewEngine(taskstate.NewGlobals())
	tc := taskstate.NewTaskContext(1, 1)
	tc.BoostShift = 7
	qt := e.Enqueue(tc, 1000)
	if !tc.DeadlineSet {
		t.Fatalf("Enqueue should mark DeadlineSet")
	}
	if qt.Deadline != tc.ExpectedDeadlineNs {
		t.Fatalf("QueuedTask.Deadline = %d, want %d", qt.Deadline, tc.ExpectedDeadlineNs)
	}
	if tc.ExpectedDeadlineNs <= 1000 {
		t.Fatalf("ExpectedDeadlineNs = %d, want > now", tc.ExpectedDeadlineNs)
	}
}
