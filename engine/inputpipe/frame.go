package inputpipe

import "github.com/gamesched/core/engine/taskstate"

// HandleFramePresentationEvent records one display-presentation sample
// (spec.md §4.3 "Frame windows": "a separate connection to the display
// compositor writes frame_interval_ns and last_page_flip_ns"). It updates
// the frame-timing globals the deadline engine reads (§4.5 frame-aware
// adjustment) and extends the frame-until-global used to block gpu-submit/
// compositor migrations during a frame window (§4.6).
//
// Absence of this source is tolerated by construction: nothing in the rest
// of the engine requires it to ever be called, and every reader of
// frame_interval_ns / last_page_flip_ns treats 0 as "no source attached"
// (spec.md §9).
func HandleFramePresentationEvent(globals *taskstate.Globals, frameIntervalNs, lastPageFlipNs, nowNs int64) {
	if frameIntervalNs <= 0 {
		return
	}
	globals.SetFrameTiming(frameIntervalNs, lastPageFlipNs)
	globals.ExtendFrameUntil(lastPageFlipNs + frameIntervalNs)
}
