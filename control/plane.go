package control

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gamesched/core/engine/cpuselect"
	"github.com/gamesched/core/engine/dispatch"
	"github.com/gamesched/core/engine/inputpipe"
	"github.com/gamesched/core/engine/taskstate"

	"github.com/gamesched/core/control/ringdrain"
	"github.com/gamesched/core/control/watchdog"
)

// Plane is C7: the userspace control plane wiring every engine/
// subpackage to the running process's lifecycle (spec.md §7). It owns no
// scheduling logic itself -- that's entirely engine/ -- only the
// background loops that keep engine/'s shared state current: foreground
// detection, device whitelist updates, counter aggregation, and watchdog
// monitoring.
//
// Modeled on server/api_service.go's errgroup-based fan-out for
// concurrent, independently-failing background work, generalized from a
// per-request fan-out to a process-lifetime one.
type Plane struct {
	cfg   Config
	Store *taskstate.Store

	Pipeline *inputpipe.Pipeline
	Topology *cpuselect.Topology
	Selector *cpuselect.Selector
	Engine   *dispatch.Engine

	Foreground *ForegroundWatcher
	Audio      *AudioWatcher
	Devices    *DeviceWatch
	Drainer    *ringdrain.Drainer
	Aggregator *Aggregator
	Watchdog   *watchdog.Watchdog

	hookAvailability map[string]bool
	stop             chan struct{}
}

// New assembles a Plane from cfg. numCPUs and topo describe the machine
// gamesched is running on; hookAvailability comes from bpf.Loader.Available
// once the kernel side is attached (a zero-value map is fine for tests that
// never touch package bpf).
func New(cfg Config, numCPUs int, topo *cpuselect.Topology, hookAvailability map[string]bool) *Plane {
	store := taskstate.NewStore(taskstate.Limits{MaxTasks: taskstate.DefaultLimits.MaxTasks, NumCPUs: numCPUs})
	pipeline := inputpipe.NewPipeline(store.Globals(), cfg.LaneDurations, cfg.RingCapacityBytes)
	devices := NewDeviceWatch("/sys/class/input")

	p := &Plane{
		cfg:              cfg,
		Store:            store,
		Pipeline:         pipeline,
		Topology:         topo,
		Selector:         cpuselect.NewSelector(topo, store),
		Engine:           dispatch.NewEngine(store.Globals()),
		Foreground:       NewForegroundWatcher(store.Globals(), pipeline, cfg),
		Audio:            NewAudioWatcher(cfg, time.Second),
		Devices:          devices,
		Aggregator:       NewAggregator(store, cfg.AggregateInterval),
		hookAvailability: hookAvailability,
		stop:             make(chan struct{}),
	}
	p.Watchdog = watchdog.New(store.Globals(), cfg.WatchdogInterval, cfg.WatchdogStallAfter, func() {
		cpu := store.CPU(0)
		if cpu != nil {
			cpu.WatchdogStalls++
		}
	})
	p.Drainer = ringdrain.New(pipeline, func(taskstate.CPUID, inputpipe.Event) {
		// Drained events are freed capacity; any external analytics sink
		// (control.DebugEndpoint et al.) would hang a handler here instead.
	}, func(ctx context.Context) error {
		t := time.NewTimer(cfg.RingDrainPollInterval)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	})
	return p
}

// Run starts every background loop and blocks until ctx is cancelled or
// one of them returns an error. The kernel-attachment lifecycle
// (bpf.Loader) is the caller's responsibility, started before Run and
// Closed after it returns, since it isn't itself cancellation-aware.
func (p *Plane) Run(ctx context.Context) error {
	p.Devices.Start()
	defer p.Devices.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { p.Foreground.Run(p.stop); return nil })
	g.Go(func() error { p.Audio.Run(p.stop); return nil })
	g.Go(func() error { p.Aggregator.Run(p.stop); return nil })
	g.Go(func() error { p.Watchdog.Run(p.stop); return nil })
	g.Go(func() error { return p.Drainer.Run(ctx) })
	g.Go(func() error {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				p.Devices.PollEvents()
			}
		}
	})

	<-ctx.Done()
	close(p.stop)
	return g.Wait()
}

// Metrics returns a point-in-time snapshot of the plane's counters.
func (p *Plane) Metrics() Metrics {
	return Snapshot(p.Store.Globals(), p.hookAvailability)
}
