package control

import (
	"time"

	"github.com/gamesched/core/engine/taskstate"
)

// Aggregator folds every CPU's local counters into Globals on a fixed tick
// (spec.md §4.7: "aggregated into global counters roughly every 5ms").
type Aggregator struct {
	store    *taskstate.Store
	interval time.Duration
}

// NewAggregator builds an Aggregator over store, ticking at interval.
func NewAggregator(store *taskstate.Store, interval time.Duration) *Aggregator {
	return &Aggregator{store: store, interval: interval}
}

// Run ticks until stop is closed, folding every CPU's counters into
// Globals each time.
func (a *Aggregator) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *Aggregator) tick() {
	for i := 0; i < a.store.NumCPUs(); i++ {
		cpu := a.store.CPU(taskstate.CPUID(i))
		if cpu == nil {
			continue
		}
		a.store.Globals().Aggregate(cpu.Drain())
	}
}
