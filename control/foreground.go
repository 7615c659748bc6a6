package control

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/gamesched/core/engine/inputpipe"
	"github.com/gamesched/core/engine/taskstate"
)

// ForegroundWatcher decides which TGID is the foreground game (spec.md
// §4.2 layer 1's "foreground" bit, §7.5's detection pipeline) and pushes
// the decision into Globals via SetForegroundTGID, which bumps the
// scheduler generation engine/classify keys its sticky-role reset on.
//
// Its primary signal is the game-detection ring (kernel LSM exec/exit
// hooks); a poll of ProcRoot is the fallback spec.md §7.5 calls for when
// those hooks are unavailable (bpf.Loader.Available["bprm_check_security"] == false).
type ForegroundWatcher struct {
	globals  *taskstate.Globals
	ring     *inputpipe.Ring
	procRoot string

	pollInterval time.Duration
	current      taskstate.TGID
}

// NewForegroundWatcher builds a watcher over pipeline's game-detection
// ring.
func NewForegroundWatcher(globals *taskstate.Globals, pipeline *inputpipe.Pipeline, cfg Config) *ForegroundWatcher {
	return &ForegroundWatcher{
		globals:      globals,
		ring:         pipeline.GameRing(),
		procRoot:     cfg.ProcRoot,
		pollInterval: cfg.RingDrainPollInterval,
	}
}

// Run drains the game-detection ring until ctx is cancelled, updating
// Globals on every decided foreground change. It never returns an error:
// a dry ring is an expected steady state, not a failure.
func (w *ForegroundWatcher) Run(ctx <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx:
			return
		case <-ticker.C:
			w.drainOnce(time.Now().UnixNano())
		}
	}
}

func (w *ForegroundWatcher) drainOnce(nowNs int64) {
	for {
		ev, ok := w.ring.Pop()
		if !ok {
			return
		}
		if ev.Type != inputpipe.EventGameDetect || len(ev.Payload) < 5 {
			continue
		}
		kind := inputpipe.GameDetectEventKind(ev.Payload[0])
		tgid := taskstate.TGID(int32(ev.Payload[1]) | int32(ev.Payload[2])<<8 | int32(ev.Payload[3])<<16 | int32(ev.Payload[4])<<24)
		w.decide(kind, tgid)
	}
}

// decide applies the simplest rule consistent with spec.md §7.5's "one game
// in the foreground at a time" model: a start makes that TGID foreground
// immediately; an exit of the current foreground TGID clears it back to
// neutral (0) rather than guessing a replacement.
func (w *ForegroundWatcher) decide(kind inputpipe.GameDetectEventKind, tgid taskstate.TGID) {
	switch kind {
	case inputpipe.GameDetectStart:
		if tgid == w.current {
			return
		}
		w.current = tgid
		w.globals.SetForegroundTGID(tgid)
	case inputpipe.GameDetectExit:
		if tgid != w.current {
			return
		}
		w.current = 0
		w.globals.SetForegroundTGID(0)
	}
}

// PollProcFallback is the degraded-mode path (spec.md §7.5) used when the
// LSM exec/exit hooks never attached: it walks ProcRoot once, looking for
// a process whose comm matches a known game-launcher name, and reports it
// as foreground. Real distributions vary wildly in how a "game" process
// announces itself; this intentionally stays a narrow, explicit heuristic
// rather than a guess-everything scan.
func (w *ForegroundWatcher) PollProcFallback(launcherNames []string) {
	entries, err := os.ReadDir(w.procRoot)
	if err != nil {
		glog.Warningf("control: foreground fallback: read %s: %v", w.procRoot, err)
		return
	}
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join(w.procRoot, e.Name(), "comm"))
		if err != nil {
			continue
		}
		name := strings.TrimSpace(string(comm))
		for _, ln := range launcherNames {
			if name == ln {
				tgid := taskstate.TGID(pid)
				if tgid != w.current {
					w.current = tgid
					w.globals.SetForegroundTGID(tgid)
				}
				return
			}
		}
	}
}
