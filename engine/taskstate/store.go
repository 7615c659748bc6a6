package taskstate

import "sync"

// Limits bounds the capacity of a Store, documented explicitly per spec.md
// §9's request that capacity choices and the drop-on-full policy be spelled
// out rather than left implicit.
type Limits struct {
	// MaxTasks bounds the TID -> TaskContext map. Once reached, Lookup
	// stops materializing new contexts; the caller's task stays
	// unclassified and is still scheduled via the generic path (spec.md
	// §4.1, §7.2).
	MaxTasks int
	// NumCPUs sizes the CPU-context slice.
	NumCPUs int
}

// DefaultLimits is sized for a large interactive desktop: tens of thousands
// of threads across a modern game, its engine worker pool, compositor,
// audio server, and background services.
var DefaultLimits = Limits{MaxTasks: 16384, NumCPUs: 64}

// Store is C1: the per-task and per-CPU state store. A lookup that creates
// a task context never fails unless the map is at capacity, per spec.md
// §4.1.
type Store struct {
	mu      sync.Mutex
	limits  Limits
	tasks   map[TID]*TaskContext
	cpus    []CPUContext
	globals *Globals
}

// NewStore allocates a Store with the given limits and a fresh Globals.
func NewStore(limits Limits) *Store {
	s := &Store{
		limits:  limits,
		tasks:   make(map[TID]*TaskContext, limits.MaxTasks),
		cpus:    make([]CPUContext, limits.NumCPUs),
		globals: NewGlobals(),
	}
	for i := range s.cpus {
		s.cpus[i].CPU = CPUID(i)
		s.cpus[i].LastPhysicalCore = UnsetCPU
		s.cpus[i].IdleBit = true
	}
	return s
}

// Globals returns the store's shared volatile globals.
func (s *Store) Globals() *Globals { return s.globals }

// NumCPUs returns the number of CPU contexts this store manages.
func (s *Store) NumCPUs() int { return len(s.cpus) }

// CPU returns the context for cpu, or nil if cpu is out of range. The
// caller is expected to be the owning CPU's callback; no locking is done
// here (spec.md §5 "per-CPU locals... touched only by the owning CPU").
func (s *Store) CPU(cpu CPUID) *CPUContext {
	if cpu < 0 || int(cpu) >= len(s.cpus) {
		return nil
	}
	return &s.cpus[cpu]
}

// Lookup returns the task context for tid, materializing one on first
// access (spec.md §3 "Lifecycle": "materialized on the first wakeup...").
// ok is false only when the store is at capacity and tid was not already
// present; the caller must then treat the task as unclassified.
func (s *Store) Lookup(tid TID, tgid TGID) (tc *TaskContext, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tc, found := s.tasks[tid]; found {
		return tc, true
	}
	if len(s.tasks) >= s.limits.MaxTasks {
		return nil, false
	}
	tc = NewTaskContext(tid, tgid)
	s.tasks[tid] = tc
	return tc, true
}

// Peek returns the task context for tid without materializing one, or
// (nil, false) if it doesn't exist.
func (s *Store) Peek(tid TID) (*TaskContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tc, ok := s.tasks[tid]
	return tc, ok
}

// Remove destroys a task's context, called on task exit (spec.md §3
// "Lifecycle").
func (s *Store) Remove(tid TID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, tid)
}

// Len reports how many task contexts are currently live.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
