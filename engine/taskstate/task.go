package taskstate

import "math"

// NeverMigrated is the LastMigrationNs sentinel for a task that has never
// migrated, chosen far enough below any real nanosecond timestamp that
// "elapsed since last migration" never looks artificially small the way a
// zero value would for an early nowNs.
const NeverMigrated = math.MinInt64 / 2

// TaskContext is the per-task scheduling context (spec.md §3). Fields are
// ordered hot-first: everything above the "cold fields" marker is read on
// every scheduling decision and fits in a single 64-byte cache line on a
// 64-bit build; everything below is updated far less often and may live on
// a second line without invalidating another CPU's hot-field read.
type TaskContext struct {
	// --- hot fields (first cache line) ---

	Role         Role
	IsForeground bool
	// ClassificationGeneration is the taskstate.Globals generation this
	// task's Role was computed against; a mismatch means the role is stale
	// and must be recomputed on the task's next wakeup (spec.md §3,
	// "a generation counter invalidates stale per-task role flags").
	ClassificationGeneration uint64
	BoostShift               BoostShift
	PreferredPhysicalCore    CPUID
	WakeupFreqHz             float64
	RecentExecNs             int64
	ExecRuntimeNs            int64

	// --- cold fields ---

	ExpectedDeadlineNs int64
	DeadlineSet        bool
	DeadlineMisses     int32

	InheritedBoost   BoostShift
	InheritanceUntil int64

	MigrationTokens   int32
	LastRefillNs      int64
	MigrationDisabled bool
	LastMigrationNs   int64

	LastCPU   CPUID
	LastRunAt int64

	TGID TGID
	TID  TID
}

// NewTaskContext returns a freshly materialized context for tid/tgid, as
// created on a task's first wakeup (spec.md §3 "Lifecycle").
func NewTaskContext(tid TID, tgid TGID) *TaskContext {
	return &TaskContext{
		TID:                   tid,
		TGID:                  tgid,
		Role:                  RoleUnclassified,
		BoostShift:            0,
		PreferredPhysicalCore: UnsetCPU,
		LastCPU:               UnsetCPU,
		MigrationTokens:       0,
		LastMigrationNs:       NeverMigrated,
	}
}

// EffectiveBoostShift returns the boost_shift that should drive scheduling
// decisions right now: the task's own boost_shift, or its inherited boost if
// priority inheritance is active and higher (spec.md §4.5).
func (tc *TaskContext) EffectiveBoostShift(nowNs int64) BoostShift {
	if tc.InheritanceUntil > nowNs && tc.InheritedBoost > tc.BoostShift {
		return tc.InheritedBoost
	}
	return tc.BoostShift
}
