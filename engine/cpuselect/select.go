package cpuselect

import (
	"github.com/gamesched/core/engine/migration"
	"github.com/gamesched/core/engine/taskstate"
)

// idleScanPrefix bounds step 5's general idle scan to a small fixed prefix
// of the preferred-CPU order (spec.md §4.4 step 5: "Iterate up to a small
// fixed prefix... first slot unrolled for common core counts").
const idleScanPrefix = 4

// Target names which queue a Decision dispatches to.
type Target int8

const (
	TargetLocal Target = iota
	TargetShared
)

// WakeFlags carries the wake_flags argument of spec.md §4.4's contract.
type WakeFlags struct {
	// Sync marks a synchronous wake: the waker is about to block and is
	// handing the CPU directly to the wakee (step 2, "producer wakes
	// consumer").
	Sync bool
}

// Decision is select_cpu's result: which CPU, which queue, and whether a
// synchronous-wake chain boost should be applied by the dispatch engine.
type Decision struct {
	CPU        taskstate.CPUID
	Target     Target
	ChainBoost bool
}

// Input bundles everything Select needs for one select_cpu call.
type Input struct {
	Task    *taskstate.TaskContext
	PrevCPU taskstate.CPUID
	// WakerCPU is the CPU the currently-running waker task is on; only
	// meaningful when Flags.Sync is set.
	WakerCPU taskstate.CPUID
	Flags    WakeFlags
	NowNs    int64
}

// Selector holds the dependencies select_cpu needs across calls: the
// system's fixed topology, the shared per-CPU/global state, and the
// migration limiter.
type Selector struct {
	Topo    *Topology
	Store   *taskstate.Store
	Limiter migration.Limiter
}

// NewSelector returns a Selector with spec.md's default migration limiter
// parameters.
func NewSelector(topo *Topology, store *taskstate.Store) *Selector {
	return &Selector{Topo: topo, Store: store, Limiter: migration.NewLimiter()}
}

// Select implements spec.md §4.4's select_cpu: the six-step waterfall,
// evaluated top to bottom as an explicit sequence of early returns -- the
// order is load-bearing (spec.md §9 "Detection-layer priority"-style
// ordering note applies equally here) and must read as a waterfall, not a
// generic pluggable strategy list.
func (s *Selector) Select(in Input) Decision {
	tc := in.Task
	globals := s.Store.Globals()

	// Migration-disabled tasks are never moved (spec.md §4.6): the selector
	// returns the task's current CPU immediately, before any of the six
	// steps run (P4).
	if tc.MigrationDisabled {
		return Decision{CPU: in.PrevCPU, Target: TargetLocal}
	}

	// Step 1: input-handler ultra-fast path. No idle scan, no cache-hint
	// lookup: this is the single hottest path in the scheduler.
	if tc.Role == taskstate.RoleInputHandler && globals.InputWindowActive(in.NowNs) {
		return Decision{CPU: in.PrevCPU, Target: TargetLocal}
	}

	// Step 2: SYNC wake fast path.
	if in.Flags.Sync && tc.IsForeground && tc.Role != taskstate.RoleGPUSubmit {
		if ok := s.tryMigrate(tc, in.PrevCPU, in.WakerCPU, in.NowNs, globals); ok {
			return Decision{CPU: in.WakerCPU, Target: TargetLocal, ChainBoost: true}
		}
		return Decision{CPU: in.PrevCPU, Target: TargetLocal}
	}

	// Step 3: speculative prev_cpu check.
	if cpu := s.Store.CPU(in.PrevCPU); cpu != nil && cpu.TestAndClearIdle() {
		cpu.IdlePicks++
		return Decision{CPU: in.PrevCPU, Target: TargetLocal}
	}

	// Step 4: GPU/compositor physical-core path.
	if tc.Role == taskstate.RoleGPUSubmit || tc.Role == taskstate.RoleCompositor {
		if d, ok := s.gpuCompositorPath(tc, in, globals); ok {
			return d
		}
	}

	// Step 5: general idle scan.
	if d, ok := s.generalIdleScan(tc, in, globals); ok {
		return d
	}

	// Step 6: fallback. Nothing idle was found; let the framework place the
	// task on the shared dispatch queue.
	return Decision{CPU: in.PrevCPU, Target: TargetShared}
}

func (s *Selector) gpuCompositorPath(tc *taskstate.TaskContext, in Input, globals *taskstate.Globals) (Decision, bool) {
	if tc.PreferredPhysicalCore != taskstate.UnsetCPU {
		if cpu := s.Store.CPU(tc.PreferredPhysicalCore); cpu != nil && cpu.TestAndClearIdle() {
			if !s.tryMigrate(tc, in.PrevCPU, tc.PreferredPhysicalCore, in.NowNs, globals) {
				cpu.SetIdle()
				return Decision{CPU: in.PrevCPU, Target: TargetLocal}, true
			}
			cpu.IdlePicks++
			return Decision{CPU: tc.PreferredPhysicalCore, Target: TargetLocal}, true
		}
	}
	for _, c := range s.Topo.PreferredOrder(in.PrevCPU) {
		if s.Topo.PhysicalCoreOf(c) == s.Topo.PhysicalCoreOf(in.PrevCPU) {
			continue // SMT sibling of the current core, not a distinct physical core
		}
		cpu := s.Store.CPU(c)
		if cpu == nil || !cpu.TestAndClearIdle() {
			continue
		}
		if !s.tryMigrate(tc, in.PrevCPU, c, in.NowNs, globals) {
			cpu.SetIdle()
			return Decision{CPU: in.PrevCPU, Target: TargetLocal}, true
		}
		cpu.IdlePicks++
		tc.PreferredPhysicalCore = c
		return Decision{CPU: c, Target: TargetLocal}, true
	}
	return Decision{}, false
}

func (s *Selector) generalIdleScan(tc *taskstate.TaskContext, in Input, globals *taskstate.Globals) (Decision, bool) {
	order := s.Topo.PreferredOrder(in.PrevCPU)
	prefix := order
	if len(prefix) > idleScanPrefix {
		prefix = prefix[:idleScanPrefix]
	}

	// A cache-affinity mm-last-cpu hint is a weak preference between
	// otherwise-equivalent idle candidates (spec.md §4.4): scan once for an
	// idle candidate that also matches the task's address-space hint
	// before falling back to first-idle-wins.
	for _, c := range prefix {
		cpu := s.Store.CPU(c)
		if cpu == nil || cpu.LastMMHint != tc.TGID {
			continue
		}
		if !cpu.TestAndClearIdle() {
			continue
		}
		if !s.tryMigrate(tc, in.PrevCPU, c, in.NowNs, globals) {
			cpu.SetIdle()
			return Decision{CPU: in.PrevCPU, Target: TargetLocal}, true
		}
		cpu.IdlePicks++
		cpu.HintHits++
		return Decision{CPU: c, Target: TargetLocal}, true
	}

	for _, c := range prefix {
		cpu := s.Store.CPU(c)
		if cpu == nil || !cpu.TestAndClearIdle() {
			continue
		}
		if !s.tryMigrate(tc, in.PrevCPU, c, in.NowNs, globals) {
			cpu.SetIdle()
			return Decision{CPU: in.PrevCPU, Target: TargetLocal}, true
		}
		cpu.IdlePicks++
		return Decision{CPU: c, Target: TargetLocal}, true
	}
	return Decision{}, false
}

// tryMigrate reports whether tc may move from prevCPU to candidate. Staying
// on the same CPU never consumes a migration token. A refused migration
// still counts against the owning CPU's MigrationsBlocked counter; callers
// that get false back must fall back to prevCPU rather than try another
// candidate this callback, since the token budget is per-task, not
// per-candidate (DESIGN.md).
func (s *Selector) tryMigrate(tc *taskstate.TaskContext, prevCPU, candidate taskstate.CPUID, nowNs int64, globals *taskstate.Globals) bool {
	if candidate == prevCPU {
		return true
	}
	allowed := s.Limiter.Allow(tc, nowNs, globals.FrameWindowActive(nowNs))
	if cpu := s.Store.CPU(prevCPU); cpu != nil {
		if allowed {
			cpu.MigrationsOK++
		} else {
			cpu.MigrationsBlocked++
		}
	}
	return allowed
}
