// Package taskstate implements C1: the per-task and per-CPU state store.
//
// Lookups are O(1): tasks are keyed by TID in a fixed-capacity map, CPUs are
// indexed directly into a slice. TaskContext is laid out hot fields first so
// that a scheduling decision never needs to touch more than the first cache
// line; cold fields (deadline bookkeeping, migration tokens, last-run
// timestamps) follow after.
package taskstate

import "fmt"

// TID identifies a kernel thread. Valid TIDs are positive.
type TID int32

// Valid reports whether t is a real, assigned TID.
func (t TID) Valid() bool { return t > 0 }

// TGID identifies a thread group (process). Valid TGIDs are positive.
type TGID int32

// Valid reports whether g is a real, assigned TGID.
func (g TGID) Valid() bool { return g > 0 }

// CPUID identifies a logical CPU.
type CPUID int32

// UnsetCPU marks a preferred-core or last-cpu field that has never been
// populated.
const UnsetCPU CPUID = -1

func (c CPUID) String() string {
	if c == UnsetCPU {
		return "cpu:unset"
	}
	return fmt.Sprintf("cpu:%d", int32(c))
}
