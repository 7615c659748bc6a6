package inputpipe

import (
	"time"

	"github.com/gamesched/core/engine/taskstate"
)

// LaneDurations holds the boost-window length applied to each input lane on
// a qualifying event (spec.md §4.3 "Lane durations"). A struct rather than
// constants so control.Config can override them per DESIGN.md's Open
// Question decision, while DefaultLaneDurations matches spec.md's stated
// values exactly.
type LaneDurations struct {
	Mouse      time.Duration
	Keyboard   time.Duration
	Controller time.Duration
	Other      time.Duration
}

// DefaultLaneDurations are the values spec.md §4.3 calls out as "chosen to
// match human input dynamics."
var DefaultLaneDurations = LaneDurations{
	Mouse:      8 * time.Millisecond,
	Keyboard:   1000 * time.Millisecond,
	Controller: 500 * time.Millisecond,
	Other:      0,
}

func (d LaneDurations) forLane(l taskstate.Lane) time.Duration {
	switch l {
	case taskstate.LaneMouse:
		return d.Mouse
	case taskstate.LaneKeyboard:
		return d.Keyboard
	case taskstate.LaneController:
		return d.Controller
	default:
		return d.Other
	}
}
