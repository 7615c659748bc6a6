package taskstate

// CPUContext is the per-CPU scheduling context (spec.md §3). Its counters
// are local (non-atomic): only the owning CPU's callback ever touches them,
// and they are folded into Globals' atomics by the ~5ms aggregation timer
// (spec.md §5).
//
// Counter fields are named and enumerated explicitly, per spec.md §9's
// request that "a reimplementation should name and enumerate them
// explicitly rather than let them accumulate by historical accident."
type CPUContext struct {
	CPU CPUID

	// IdleBit is tested-and-cleared by the CPU selector's speculative
	// prev_cpu check and set again when the CPU goes idle (spec.md §4.4
	// step 3).
	IdleBit bool

	// LastPhysicalCore is this CPU's non-SMT-sibling identity, used for
	// SMT sibling avoidance in the GPU/compositor physical-core path.
	LastPhysicalCore CPUID
	// LastMMHint caches the address space last run on this CPU, a weak
	// cache-affinity tie-break (spec.md §4.4).
	LastMMHint TGID

	// TimerTicks paces the ~500us aggregation timer local to this CPU.
	TimerTicks uint64

	// Event counters, folded into Globals every ~5ms.
	IdlePicks         uint64
	DirectDispatches  uint64
	SharedDispatches  uint64
	MigrationsBlocked uint64
	MigrationsOK      uint64
	HintHits          uint64
	RingOverflows     uint64
	DeadlineMisses    uint64
	AutoBoosts        uint64
	WatchdogStalls    uint64
}

// Drain returns a copy of cc's counters and resets them to zero, for folding
// into Globals. Only the owning CPU may call Drain.
func (cc *CPUContext) Drain() CPUContext {
	snap := *cc
	cc.IdlePicks = 0
	cc.DirectDispatches = 0
	cc.SharedDispatches = 0
	cc.MigrationsBlocked = 0
	cc.MigrationsOK = 0
	cc.HintHits = 0
	cc.RingOverflows = 0
	cc.DeadlineMisses = 0
	cc.AutoBoosts = 0
	cc.WatchdogStalls = 0
	return snap
}

// TestAndClearIdle atomically (from the perspective of this single-owner
// CPU) reports and clears the idle bit; used by the CPU selector's
// speculative prev_cpu check and general idle scan (spec.md §4.4 steps 3,5).
func (cc *CPUContext) TestAndClearIdle() bool {
	was := cc.IdleBit
	cc.IdleBit = false
	return was
}

// SetIdle marks the CPU idle, called when its run queue empties.
func (cc *CPUContext) SetIdle() {
	cc.IdleBit = true
}
