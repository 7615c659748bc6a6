package cpuselect

import (
	"testing"

	"github.com/gamesched/core/engine/taskstate"
)

func newSelector(numCPUs int) (*Selector, *taskstate.Store) {
	store := taskstate.NewStore(taskstate.Limits{MaxTasks: 64, NumCPUs: numCPUs})
	// NewStore starts every CPU idle; each test marks idle only the CPUs it
	// wants the waterfall to find.
	for i := 0; i < numCPUs; i++ {
		store.CPU(taskstate.CPUID(i)).IdleBit = false
	}
	topo := NewUniformTopology(numCPUs)
	return NewSelector(topo, store), store
}

// P4: a migration-disabled task always gets its current CPU back.
func TestSelectMigrationDisabledReturnsPrevCPU(t *testing.T) {
	s, _ := newSelector(4)
	tc := taskstate.NewTaskContext(1, 1)
	tc.MigrationDisabled = true
	d := s.Select(Input{Task: tc, PrevCPU: 2, NowNs: 1})
	if d.CPU != 2 || d.Target != TargetLocal {
		t.Fatalf("Select() = %+v, want {CPU:2 Target:Local}", d)
	}
}

// S1: an input-handler task inside an active input window always stays on
// prev_cpu with no idle scan.
func TestSelectInputHandlerUltraFastPath(t *testing.T) {
	s, store := newSelector(4)
	store.Globals().ExtendInputUntil(1_000_000)
	tc := taskstate.NewTaskContext(1, 1)
	tc.Role = taskstate.RoleInputHandler
	d := s.Select(Input{Task: tc, PrevCPU: 3, NowNs: 1000})
	if d.CPU != 3 || d.Target != TargetLocal {
		t.Fatalf("Select() = %+v, want {CPU:3 Target:Local}", d)
	}
}

func TestSelectSyncWakeFastPath(t *testing.T) {
	s, _ := newSelector(4)
	tc := taskstate.NewTaskContext(1, 1)
	tc.IsForeground = true
	tc.Role = taskstate.RoleNetwork
	tc.MigrationTokens = 3
	d := s.Select(Input{Task: tc, PrevCPU: 1, WakerCPU: 2, Flags: WakeFlags{Sync: true}, NowNs: 1})
	if d.CPU != 2 || !d.ChainBoost {
		t.Fatalf("Select() = %+v, want waker CPU with ChainBoost", d)
	}
}

func TestSelectSyncWakeSkippedForGPUSubmit(t *testing.T) {
	s, _ := newSelector(4)
	tc := taskstate.NewTaskContext(1, 1)
	tc.IsForeground = true
	tc.Role = taskstate.RoleGPUSubmit
	d := s.Select(Input{Task: tc, PrevCPU: 1, WakerCPU: 2, Flags: WakeFlags{Sync: true}, NowNs: 1})
	if d.CPU == 2 {
		t.Fatalf("gpu-submit must not take the sync-wake fast path, got %+v", d)
	}
}

func TestSelectSpeculativePrevCPUIdle(t *testing.T) {
	s, store := newSelector(4)
	store.CPU(1).SetIdle()
	tc := taskstate.NewTaskContext(1, 1)
	d := s.Select(Input{Task: tc, PrevCPU: 1, NowNs: 1})
	if d.CPU != 1 || d.Target != TargetLocal {
		t.Fatalf("Select() = %+v, want {CPU:1 Target:Local} via speculative idle check", d)
	}
	if store.CPU(1).IdleBit {
		t.Fatalf("idle bit should have been cleared")
	}
}

func TestSelectGeneralIdleScanFindsIdleCPU(t *testing.T) {
	s, store := newSelector(4)
	store.CPU(2).SetIdle()
	tc := taskstate.NewTaskContext(1, 1)
	tc.MigrationTokens = 3
	tc.LastMigrationNs = taskstate.NeverMigrated
	d := s.Select(Input{Task: tc, PrevCPU: 0, NowNs: 1})
	if d.CPU != 2 || d.Target != TargetLocal {
		t.Fatalf("Select() = %+v, want {CPU:2 Target:Local}", d)
	}
}

func TestSelectFallbackToSharedQueueWhenNothingIdle(t *testing.T) {
	s, _ := newSelector(4)
	tc := taskstate.NewTaskContext(1, 1)
	d := s.Select(Input{Task: tc, PrevCPU: 0, NowNs: 1})
	if d.CPU != 0 || d.Target != TargetShared {
		t.Fatalf("Select() = %+v, want {CPU:0 Target:Shared}", d)
	}
}

// S3: a blocked migration falls back to prev_cpu and leaves tokens intact.
func TestSelectBlockedMigrationFallsBackToPrevCPU(t *testing.T) {
	s, store := newSelector(4)
	store.CPU(2).SetIdle()
	tc := taskstate.NewTaskContext(1, 1)
	tc.MigrationTokens = 0
	tc.LastRefillNs = 0
	d := s.Select(Input{Task: tc, PrevCPU: 0, NowNs: 1_000_000}) // 1ms elapsed, far short of a full token
	if d.CPU != 0 || d.Target != TargetLocal {
		t.Fatalf("Select() = %+v, want {CPU:0 Target:Local} (migration blocked)", d)
	}
	if !store.CPU(2).IdleBit {
		t.Fatalf("idle bit on the refused candidate should be restored")
	}
	if store.CPU(0).MigrationsBlocked != 1 {
		t.Fatalf("MigrationsBlocked = %d, want 1", store.CPU(0).MigrationsBlocked)
	}
}

func TestSelectGPUSubmitPrefersPhysicalCore(t *testing.T) {
	s, store := newSelector(4)
	store.CPU(3).SetIdle()
	tc := taskstate.NewTaskContext(1, 1)
	tc.Role = taskstate.RoleGPUSubmit
	tc.PreferredPhysicalCore = 3
	tc.MigrationTokens = 3
	d := s.Select(Input{Task: tc, PrevCPU: 0, NowNs: 1})
	if d.CPU != 3 {
		t.Fatalf("Select() = %+v, want preferred physical core 3", d)
	}
}

func TestSelectMMHintPreferredOverPlainIdle(t *testing.T) {
	s, store := newSelector(4)
	store.CPU(1).SetIdle()
	store.CPU(2).SetIdle()
	store.CPU(2).LastMMHint = 77
	tc := taskstate.NewTaskContext(1, 77)
	tc.MigrationTokens = 3
	d := s.Select(Input{Task: tc, PrevCPU: 0, NowNs: 1})
	if d.CPU != 2 {
		t.Fatalf("Select() = %+v, want the mm-hint match (CPU 2)", d)
	}
	if store.CPU(2).HintHits != 1 {
		t.Fatalf("HintHits = %d, want 1", store.CPU(2).HintHits)
	}
}
