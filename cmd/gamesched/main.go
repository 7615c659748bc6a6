// Command gamesched runs the gaming-optimized CPU scheduler's userspace
// control plane: it loads and attaches gamesched.bpf.c, then drives
// foreground detection, device whitelisting, counter aggregation, and
// watchdog monitoring until interrupted. Modeled on server/server.go's
// flag-driven main.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/golang/glog"

	"github.com/gamesched/core/bpf"
	"github.com/gamesched/core/control"
	"github.com/gamesched/core/engine/cpuselect"
	"github.com/gamesched/core/engine/inputpipe"
)

var (
	ringCapacityBytes = flag.Int("ring_capacity_bytes", 64*1024, "Per-ring byte capacity for the input-event rings.")
	smtWidth          = flag.Int("smt_width", 1, "SMT threads per physical core; used only when -numa_uniform=false.")
	watchdogStallAfter = flag.Duration("watchdog_stall_after", 30*time.Second, "How long without dispatch progress counts as a stall.")
	numaUniform        = flag.Bool("numa_uniform", true, "Treat every CPU as its own physical core; when false, group CPUs into physical cores of -smt_width threads each.")

	mouseMs      = flag.Int64("mouse_ms", inputpipe.DefaultLaneDurations.Mouse.Milliseconds(), "Boost-window length for the mouse input lane, in milliseconds.")
	keyboardMs   = flag.Int64("keyboard_ms", inputpipe.DefaultLaneDurations.Keyboard.Milliseconds(), "Boost-window length for the keyboard input lane, in milliseconds.")
	controllerMs = flag.Int64("controller_ms", inputpipe.DefaultLaneDurations.Controller.Milliseconds(), "Boost-window length for the controller input lane, in milliseconds.")
	otherMs      = flag.Int64("other_ms", inputpipe.DefaultLaneDurations.Other.Milliseconds(), "Boost-window length for unclassified input lanes, in milliseconds.")
)

func main() {
	flag.Parse()

	cfg := control.DefaultConfig()
	cfg.RingCapacityBytes = *ringCapacityBytes
	cfg.WatchdogStallAfter = *watchdogStallAfter
	cfg.LaneDurations = inputpipe.LaneDurations{
		Mouse:      time.Duration(*mouseMs) * time.Millisecond,
		Keyboard:   time.Duration(*keyboardMs) * time.Millisecond,
		Controller: time.Duration(*controllerMs) * time.Millisecond,
		Other:      time.Duration(*otherMs) * time.Millisecond,
	}

	loader, err := bpf.NewLoader()
	if err != nil {
		log.Exitf("gamesched: failed to load and attach gamesched.bpf.c: %v", err)
	}
	defer loader.Close()

	numCPUs := runtime.NumCPU()
	var topo *cpuselect.Topology
	if *numaUniform {
		topo = cpuselect.NewUniformTopology(numCPUs)
	} else {
		topo = cpuselect.NewSMTTopology(numCPUs, *smtWidth)
	}

	plane := control.New(cfg, numCPUs, topo, loader.Available)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Infof("gamesched: starting control plane (%d CPUs, %d input rings)", numCPUs, inputpipe.NumRings)
	if err := plane.Run(ctx); err != nil {
		log.Exitf("gamesched: control plane exited with error: %v", err)
	}
	log.Info("gamesched: shut down cleanly")
}
