package taskstate

import "sync/atomic"

// Lane identifies one of the input-device classes with its own boost
// deadline (spec.md §3, §4.3).
type Lane int8

const (
	LaneMouse Lane = iota
	LaneKeyboard
	LaneController
	LaneOther
	numLanes
)

func (l Lane) String() string {
	switch l {
	case LaneMouse:
		return "mouse"
	case LaneKeyboard:
		return "keyboard"
	case LaneController:
		return "controller"
	case LaneOther:
		return "other"
	default:
		return "invalid-lane"
	}
}

// Globals holds the scheduler's shared, rarely-written, constantly-read
// state (spec.md §3 "Shared volatile globals"). Every field is read on
// scheduling decisions made from any CPU, so all access goes through
// sync/atomic rather than a mutex: Go gives no "relaxed atomics" weaker than
// sequential consistency, but an atomic load/store with no surrounding lock
// is the correct translation of the BPF WRITE_ONCE/relaxed-atomic semantics
// spec.md calls for (spec.md §5).
type Globals struct {
	inputUntilNs atomic.Int64
	frameUntilNs atomic.Int64

	laneDeadlinesNs [numLanes]atomic.Int64

	foregroundTGID atomic.Int64
	generation     atomic.Uint64

	frameIntervalNs  atomic.Int64
	lastPageFlipNs   atomic.Int64

	// aggregate counters, folded from CPUContext.Drain() every ~5ms
	// (spec.md §4.7).
	idlePicks         atomic.Uint64
	directDispatches  atomic.Uint64
	sharedDispatches  atomic.Uint64
	migrationsBlocked atomic.Uint64
	migrationsOK      atomic.Uint64
	hintHits          atomic.Uint64
	ringOverflows     atomic.Uint64
	deadlineMisses    atomic.Uint64
	autoBoosts        atomic.Uint64
	watchdogStalls    atomic.Uint64
	totalDispatches   atomic.Uint64
}

// NewGlobals returns a zeroed Globals: no input/frame window active, no
// foreground process known (the neutral mode of spec.md §7.5).
func NewGlobals() *Globals {
	g := &Globals{}
	for i := range g.laneDeadlinesNs {
		g.laneDeadlinesNs[i] = atomic.Int64{}
	}
	return g
}

// InputUntilNs returns the current global input-boost deadline.
func (g *Globals) InputUntilNs() int64 { return g.inputUntilNs.Load() }

// ExtendInputUntil raises the global input-boost deadline to the max of its
// current value and newDeadline (spec.md §4.3 fast path; idempotence law:
// "Applying a boost-window extension with a deadline <= the current global
// is a no-op").
func (g *Globals) ExtendInputUntil(newDeadlineNs int64) {
	for {
		cur := g.inputUntilNs.Load()
		if newDeadlineNs <= cur {
			return
		}
		if g.inputUntilNs.CompareAndSwap(cur, newDeadlineNs) {
			return
		}
	}
}

// InputWindowActive reports whether the global input-boost window is open
// at nowNs.
func (g *Globals) InputWindowActive(nowNs int64) bool {
	return g.inputUntilNs.Load() > nowNs
}

// LaneDeadlineNs returns the current per-lane deadline.
func (g *Globals) LaneDeadlineNs(l Lane) int64 {
	if l < 0 || l >= numLanes {
		return 0
	}
	return g.laneDeadlinesNs[l].Load()
}

// ExtendLaneDeadline raises a lane's deadline to the max of its current
// value and newDeadlineNs.
func (g *Globals) ExtendLaneDeadline(l Lane, newDeadlineNs int64) {
	if l < 0 || l >= numLanes {
		return
	}
	a := &g.laneDeadlinesNs[l]
	for {
		cur := a.Load()
		if newDeadlineNs <= cur {
			return
		}
		if a.CompareAndSwap(cur, newDeadlineNs) {
			return
		}
	}
}

// FrameUntilNs returns the current global frame-boost deadline.
func (g *Globals) FrameUntilNs() int64 { return g.frameUntilNs.Load() }

// ExtendFrameUntil raises the global frame-boost deadline to the max of its
// current value and newDeadlineNs.
func (g *Globals) ExtendFrameUntil(newDeadlineNs int64) {
	for {
		cur := g.frameUntilNs.Load()
		if newDeadlineNs <= cur {
			return
		}
		if g.frameUntilNs.CompareAndSwap(cur, newDeadlineNs) {
			return
		}
	}
}

// FrameWindowActive reports whether a frame-presentation boost window is
// open at nowNs (used to block gpu-submit/compositor migrations, spec.md
// §4.6).
func (g *Globals) FrameWindowActive(nowNs int64) bool {
	return g.frameUntilNs.Load() > nowNs
}

// ForegroundTGID returns the runtime-detected foreground TGID, or 0 if none
// has been detected (spec.md §7.5 "neutral mode").
func (g *Globals) ForegroundTGID() TGID { return TGID(g.foregroundTGID.Load()) }

// SetForegroundTGID updates the foreground TGID and strictly increases the
// scheduler generation (spec.md §3 "Lifecycle", P9). Called by the
// control plane on a decided foreground change; it is not atomic with the
// generation bump as one operation, but any reader tolerates the jump
// (spec.md §5).
func (g *Globals) SetForegroundTGID(tgid TGID) {
	g.foregroundTGID.Store(int64(tgid))
	g.generation.Add(1)
}

// Generation returns the current scheduler generation.
func (g *Globals) Generation() uint64 { return g.generation.Load() }

// FrameIntervalNs and LastPageFlipNs returns the current frame-timing
// source state, both zero if no presentation source is attached (spec.md
// §4.3 "Frame windows", tolerated per §9).
func (g *Globals) FrameIntervalNs() int64 { return g.frameIntervalNs.Load() }
func (g *Globals) LastPageFlipNs() int64  { return g.lastPageFlipNs.Load() }

// SetFrameTiming records the latest presentation timing sample.
func (g *Globals) SetFrameTiming(frameIntervalNs, lastPageFlipNs int64) {
	g.frameIntervalNs.Store(frameIntervalNs)
	g.lastPageFlipNs.Store(lastPageFlipNs)
}

// Aggregate folds one CPU's drained counters into the shared totals
// (spec.md §4.7, "Aggregate counters... every ~5ms").
func (g *Globals) Aggregate(snap CPUContext) {
	g.idlePicks.Add(snap.IdlePicks)
	g.directDispatches.Add(snap.DirectDispatches)
	g.sharedDispatches.Add(snap.SharedDispatches)
	g.migrationsBlocked.Add(snap.MigrationsBlocked)
	g.migrationsOK.Add(snap.MigrationsOK)
	g.hintHits.Add(snap.HintHits)
	g.ringOverflows.Add(snap.RingOverflows)
	g.deadlineMisses.Add(snap.DeadlineMisses)
	g.autoBoosts.Add(snap.AutoBoosts)
	g.watchdogStalls.Add(snap.WatchdogStalls)
	g.totalDispatches.Add(snap.DirectDispatches + snap.SharedDispatches)
}

// TotalDispatches returns the running total of dispatches across all CPUs,
// the counter the watchdog polls for stalls (spec.md §4.6).
func (g *Globals) TotalDispatches() uint64 { return g.totalDispatches.Load() }

// Counters is a point-in-time snapshot of the aggregated globals, for
// metrics export.
type Counters struct {
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
	TotalDispatches   uint64
}

// Snapshot returns the current aggregated counters.
func (g *Globals) Snapshot() Counters {
	return Counters{
		IdlePicks:         g.idlePicks.Load(),
		DirectDispatches:  g.directDispatches.Load(),
		SharedDispatches:  g.sharedDispatches.Load(),
		MigrationsBlocked: g.migrationsBlocked.Load(),
		MigrationsOK:      g.migrationsOK.Load(),
		HintHits:          g.hintHits.Load(),
		RingOverflows:     g.ringOverflows.Load(),
		DeadlineMisses:    g.deadlineMisses.Load(),
		AutoBoosts:        g.autoBoosts.Load(),
		WatchdogStalls:    g.watchdogStalls.Load(),
		TotalDispatches:   g.totalDispatches.Load(),
	}
}
