package inputpipe

import (
	"testing"

	"github.com/gamesched/core/engine/taskstate"
)

func alwaysWhitelisted(DeviceID) bool { return true }
func neverWhitelisted(DeviceID) bool  { return false }

func TestHandleInputEventSlowPathWritesRingAndExtendsLane(t *testing.T) {
	g := taskstate.NewGlobals()
	p := NewPipeline(g, DefaultLaneDurations, 4096)

	p.HandleInputEvent(0, taskstate.LaneMouse, DeviceID(1), 10, 1000, alwaysWhitelisted)

	if p.RingForCPU(0).Len() == 0 {
		t.Fatalf("expected slow path to write a ring record")
	}
	want := int64(1000) + DefaultLaneDurations.Mouse.Nanoseconds()
	if got := g.LaneDeadlineNs(taskstate.LaneMouse); got != want {
		t.Fatalf("LaneDeadlineNs(mouse) = %d, want %d", got, want)
	}
	if got := g.InputUntilNs(); got != want {
		t.Fatalf("InputUntilNs() = %d, want %d", got, want)
	}
}

func TestHandleInputEventFastPathSkipsRing(t *testing.T) {
	g := taskstate.NewGlobals()
	p := NewPipeline(g, DefaultLaneDurations, 4096)
	// Prime the cache so the device is already known+whitelisted.
	p.HandleInputEvent(0, taskstate.LaneKeyboard, DeviceID(7), 10, 0, alwaysWhitelisted)
	before := p.RingForCPU(0).Len()

	p.HandleInputEvent(0, taskstate.LaneKeyboard, DeviceID(7), fastPathRateThresholdHz+1, 5000, alwaysWhitelisted)

	if after := p.RingForCPU(0).Len(); after != before {
		t.Fatalf("fast path must not touch the ring: before=%d after=%d", before, after)
	}
	want := int64(5000) + DefaultLaneDurations.Keyboard.Nanoseconds()
	if got := g.LaneDeadlineNs(taskstate.LaneKeyboard); got != want {
		t.Fatalf("LaneDeadlineNs(keyboard) = %d, want %d", got, want)
	}
}

func TestHandleInputEventNonWhitelistedDeviceNeverWritesRing(t *testing.T) {
	g := taskstate.NewGlobals()
	p := NewPipeline(g, DefaultLaneDurations, 4096)
	p.HandleInputEvent(0, taskstate.LaneOther, DeviceID(99), 10, 0, neverWhitelisted)
	if p.RingForCPU(0).Len() != 0 {
		t.Fatalf("non-whitelisted device should never produce a ring record")
	}
}

func TestLaneOtherNeverExtendsBoostWindow(t *testing.T) {
	g := taskstate.NewGlobals()
	p := NewPipeline(g, DefaultLaneDurations, 4096)
	p.HandleInputEvent(0, taskstate.LaneOther, DeviceID(1), 10, 1000, alwaysWhitelisted)
	if g.InputUntilNs() != 0 {
		t.Fatalf("InputUntilNs() = %d, want 0 (lane \"other\" has zero duration)", g.InputUntilNs())
	}
}

func TestRingForCPUDistributesByModulo(t *testing.T) {
	p := NewPipeline(taskstate.NewGlobals(), DefaultLaneDurations, 4096)
	if p.RingForCPU(0) != p.RingForCPU(NumRings) {
		t.Fatalf("ring selection must be cpu mod NumRings")
	}
	if p.RingForCPU(1) == p.RingForCPU(2) {
		t.Fatalf("distinct cpus within one modulus period should get distinct rings")
	}
}

func TestPushGameDetectEventWritesGameRing(t *testing.T) {
	p := NewPipeline(taskstate.NewGlobals(), DefaultLaneDurations, 4096)
	if err := p.PushGameDetectEvent(GameDetectStart, 4242, 1); err != nil {
		t.Fatalf("PushGameDetectEvent failed: %v", err)
	}
	if p.GameRing().Len() == 0 {
		t.Fatalf("expected a record on the game-detection ring")
	}
}

func TestHandleFramePresentationEventTogglesFrameWindow(t *testing.T) {
	g := taskstate.NewGlobals()
	HandleFramePresentationEvent(g, 16_666_667, 1_000_000_000, 1_005_000_000)
	if !g.FrameWindowActive(1_005_000_000) {
		t.Fatalf("expected an open frame window right after the presentation event")
	}
	if g.FrameIntervalNs() != 16_666_667 {
		t.Fatalf("FrameIntervalNs() = %d, want 16666667", g.FrameIntervalNs())
	}
}

// spec.md §9 "tolerate both being 0": absent source must not panic or open
// a spurious window.
func TestHandleFramePresentationEventToleratesZero(t *testing.T) {
	g := taskstate.NewGlobals()
	HandleFramePresentationEvent(g, 0, 0, 1000)
	if g.FrameWindowActive(1000) {
		t.Fatalf("a zero frame interval must never open a frame window")
	}
}

func TestContinuousModeThreshold(t *testing.T) {
	if ContinuousMode(fastPathRateThresholdHz) {
		t.Fatalf("threshold itself should not count as continuous mode")
	}
	if !ContinuousMode(fastPathRateThresholdHz + 0.1) {
		t.Fatalf("rate above threshold should count as continuous mode")
	}
}
