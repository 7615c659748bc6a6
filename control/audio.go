package control

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/gamesched/core/engine/taskstate"
)

// knownAudioServerNames are the system audio daemons spec.md §4.2's layer-1
// "audio-server TGID" check keys off of, the same prefixes classify's
// namePatternTable uses for the system-audio role.
var knownAudioServerNames = []string{"pipewire", "pipewire-pulse", "pulseaudio"}

// AudioWatcher tracks the set of TGIDs currently running a known system
// audio daemon, so classify.Signal.IsKnownAudioServerTGID can be populated
// without every caller re-walking /proc. Grounded on the same ProcRoot-poll
// mechanism as ForegroundWatcher; system audio servers restart far less
// often than game processes start and exit, so a coarser poll interval is
// appropriate.
//
// pipewire and pipewire-pulse (its PulseAudio compatibility shim) commonly
// run as separate processes at once, so this tracks a set (spec.md §3),
// not a single TGID, and rebuilds the set on every poll -- a TGID that
// pollOnce no longer observes running a known server name (because the
// process exited, or outlived its PID and was reused by something else)
// drops out of the set on the very next pass.
type AudioWatcher struct {
	procRoot string
	interval time.Duration

	mu    sync.Mutex
	tgids map[taskstate.TGID]bool
}

// NewAudioWatcher builds a watcher that polls cfg.ProcRoot every interval.
func NewAudioWatcher(cfg Config, interval time.Duration) *AudioWatcher {
	return &AudioWatcher{procRoot: cfg.ProcRoot, interval: interval, tgids: make(map[taskstate.TGID]bool)}
}

// Run polls until stop is closed.
func (w *AudioWatcher) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.pollOnce()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.pollOnce()
		}
	}
}

func (w *AudioWatcher) pollOnce() {
	entries, err := os.ReadDir(w.procRoot)
	if err != nil {
		glog.Warningf("control: audio watcher: read %s: %v", w.procRoot, err)
		return
	}
	observed := make(map[taskstate.TGID]bool)
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
		for _, known := range knownAudioServerNames {
			if name == known {
				observed[taskstate.TGID(pid)] = true
				break
			}
		}
	}
	w.mu.Lock()
	w.tgids = observed
	w.mu.Unlock()
}

// IsKnownAudioServerTGID reports whether tgid is currently running a known
// system audio daemon.
func (w *AudioWatcher) IsKnownAudioServerTGID(tgid taskstate.TGID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tgids[tgid]
}
