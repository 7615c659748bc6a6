// Package watchdog implements spec.md §4.6's forward-progress monitor: if
// TotalDispatches hasn't advanced in StallAfter, something in the dispatch
// path is stuck. The watchdog only reports; per spec.md it "never
// self-aborts" -- recovery is an operator/external-tooling decision.
package watchdog

import (
	"time"

	"github.com/golang/glog"

	"github.com/gamesched/core/engine/taskstate"
)

// Watchdog polls Globals.TotalDispatches() and reports stalls.
type Watchdog struct {
	globals    *taskstate.Globals
	interval   time.Duration
	stallAfter time.Duration

	onStall func()

	lastTotal uint64
	lastAdvance time.Time
}

// New builds a Watchdog. onStall is called (in addition to a glog.Warning)
// every time a stall is detected, letting callers wire it to a metric
// counter without watchdog depending on control.Metrics directly.
func New(globals *taskstate.Globals, interval, stallAfter time.Duration, onStall func()) *Watchdog {
	return &Watchdog{globals: globals, interval: interval, stallAfter: stallAfter, onStall: onStall, lastAdvance: time.Now()}
}

// Run polls until stop is closed.
func (w *Watchdog) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			w.tick(now)
		}
	}
}

func (w *Watchdog) tick(now time.Time) {
	total := w.globals.TotalDispatches()
	if total != w.lastTotal {
		w.lastTotal = total
		w.lastAdvance = now
		return
	}
	if now.Sub(w.lastAdvance) < w.stallAfter {
		return
	}
	glog.Warningf("gamesched: watchdog: no dispatch progress for %s (total=%d)", now.Sub(w.lastAdvance), total)
	if w.onStall != nil {
		w.onStall()
	}
	// Reset the clock so a sustained stall doesn't re-fire every tick.
	w.lastAdvance = now
}
