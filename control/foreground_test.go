package control

import (
	"testing"

	"github.com/gamesched/core/engine/inputpipe"
	"github.com/gamesched/core/engine/taskstate"
)

func TestForegroundWatcherStartSetsGlobals(t *testing.T) {
	globals := taskstate.NewGlobals()
	pipeline := inputpipe.NewPipeline(globals, inputpipe.DefaultLaneDurations, 4096)
	w := NewForegroundWatcher(globals, pipeline, DefaultConfig())

	if err := pipeline.PushGameDetectEvent(inputpipe.GameDetectStart, 777, 1000); err != nil {
		t.Fatal(err)
	}
	w.drainOnce(1000)

	if got := globals.ForegroundTGID(); got != 777 {
		t.Fatalf("ForegroundTGID() = %d, want 777", got)
	}
	gen := globals.Generation()
	if gen == 0 {
		t.Fatalf("expected generation to have been bumped past 0")
	}
}

func TestForegroundWatcherExitClearsGlobals(t *testing.T) {
	globals := taskstate.NewGlobals()
	pipeline := inputpipe.NewPipeline(globals, inputpipe.DefaultLaneDurations, 4096)
	w := NewForegroundWatcher(globals, pipeline, DefaultConfig())

	_ = pipeline.PushGameDetectEvent(inputpipe.GameDetectStart, 777, 1000)
	w.drainOnce(1000)
	_ = pipeline.PushGameDetectEvent(inputpipe.GameDetectExit, 777, 2000)
	w.drainOnce(2000)

	if got := globals.ForegroundTGID(); got != 0 {
		t.Fatalf("ForegroundTGID() = %d, want 0 after the foreground process exits", got)
	}
}

func TestForegroundWatcherIgnoresUnrelatedExit(t *testing.T) {
	globals := taskstate.NewGlobals()
	pipeline := inputpipe.NewPipeline(globals, inputpipe.DefaultLaneDurations, 4096)
	w := NewForegroundWatcher(globals, pipeline, DefaultConfig())

	_ = pipeline.PushGameDetectEvent(inputpipe.GameDetectStart, 777, 1000)
	w.drainOnce(1000)
	_ = pipeline.PushGameDetectEvent(inputpipe.GameDetectExit, 999, 2000)
	w.drainOnce(2000)

	if got := globals.ForegroundTGID(); got != 777 {
		t.Fatalf("ForegroundTGID() = %d, want unchanged 777 (exit was for an unrelated TGID)", got)
	}
}
