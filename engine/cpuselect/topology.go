// Package cpuselect implements C4: the select_cpu waterfall (spec.md §4.4).
package cpuselect

import "github.com/gamesched/core/engine/taskstate"

// Topology is the static CPU layout established once at scheduler load
// (spec.md §4.4 "Ordering and tie-breaks... established once at scheduler
// load"). It never changes over the life of a Topology value.
type Topology struct {
	// physicalCore maps a CPU to the id of the physical core it belongs to;
	// two CPUs sharing a value are SMT siblings.
	physicalCore []taskstate.CPUID
	// numaNode maps a CPU to its NUMA node.
	numaNode []int
	// preferred is the per-CPU candidate scan order for step 5's general
	// idle scan: physical cores first, then SMT siblings, NUMA-local CPUs
	// ahead of remote ones.
	preferred [][]taskstate.CPUID
}

// NewUniformTopology builds a Topology for a system with no SMT and a
// single NUMA node -- the common case for engine-level tests and for a
// system the real loader could not introspect.
func NewUniformTopology(numCPUs int) *Topology {
	t := &Topology{
		physicalCore: make([]taskstate.CPUID, numCPUs),
		numaNode:     make([]int, numCPUs),
		preferred:    make([][]taskstate.CPUID, numCPUs),
	}
	order := make([]taskstate.CPUID, numCPUs)
	for i := 0; i < numCPUs; i++ {
		t.physicalCore[i] = taskstate.CPUID(i)
		order[i] = taskstate.CPUID(i)
	}
	for i := 0; i < numCPUs; i++ {
		// Self first, then the rest in CPU-id order -- a reasonable default
		// scan order absent real topology data.
		row := make([]taskstate.CPUID, 0, numCPUs)
		row = append(row, taskstate.CPUID(i))
		for j := 0; j < numCPUs; j++ {
			if j != i {
				row = append(row, taskstate.CPUID(j))
			}
		}
		t.preferred[i] = row
	}
	return t
}

// NewSMTTopology builds a Topology where every group of smtWidth
// consecutive CPUs shares one physical core, biasing each CPU's preferred
// scan order toward other physical cores before SMT siblings (spec.md §4.4
// "physical cores first, then SMT siblings").
func NewSMTTopology(numCPUs, smtWidth int) *Topology {
	if smtWidth < 1 {
		smtWidth = 1
	}
	t := &Topology{
		physicalCore: make([]taskstate.CPUID, numCPUs),
		numaNode:     make([]int, numCPUs),
		preferred:    make([][]taskstate.CPUID, numCPUs),
	}
	for i := 0; i < numCPUs; i++ {
		t.physicalCore[i] = taskstate.CPUID(i / smtWidth)
	}
	for i := 0; i < numCPUs; i++ {
		var physical, siblings []taskstate.CPUID
		for j := 0; j < numCPUs; j++ {
			if j == i {
				continue
			}
			if t.physicalCore[j] == t.physicalCore[i] {
				siblings = append(siblings, taskstate.CPUID(j))
			} else {
				physical = append(physical, taskstate.CPUID(j))
			}
		}
		row := make([]taskstate.CPUID, 0, numCPUs)
		row = append(row, taskstate.CPUID(i))
		row = append(row, physical...)
		row = append(row, siblings...)
		t.preferred[i] = row
	}
	return t
}

func (t *Topology) NumCPUs() int { return len(t.physicalCore) }

// PhysicalCoreOf returns the physical-core identity of cpu, or UnsetCPU if
// out of range.
func (t *Topology) PhysicalCoreOf(cpu taskstate.CPUID) taskstate.CPUID {
	if int(cpu) < 0 || int(cpu) >= len(t.physicalCore) {
		return taskstate.UnsetCPU
	}
	return t.physicalCore[cpu]
}

// SameNUMANode reports whether a and b are on the same NUMA node.
func (t *Topology) SameNUMANode(a, b taskstate.CPUID) bool {
	if int(a) < 0 || int(a) >= len(t.numaNode) || int(b) < 0 || int(b) >= len(t.numaNode) {
		return false
	}
	return t.numaNode[a] == t.numaNode[b]
}

// PreferredOrder returns the scan order step 5 walks starting from cpu.
func (t *Topology) PreferredOrder(cpu taskstate.CPUID) []taskstate.CPUID {
	if int(cpu) < 0 || int(cpu) >= len(t.preferred) {
		return nil
	}
	return t.preferred[cpu]
}
