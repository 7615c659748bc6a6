package classify

import "github.com/gamesched/core/engine/taskstate"

// thresholds for the behavioral/runtime-pattern fallback layer, named so
// the magic numbers driving it have one place to live.
const (
	highFreqHz       = 400.0
	shortExecNs      = 100_000 // 100us
	gpuFreqLowHz     = 60.0
	gpuFreqHighHz    = 240.0
	audioFreqHz      = 300.0
	audioExecNs      = 500_000 // 500us
	backgroundFreqHz = 32.0
	backgroundExecNs = 5_000_000 // 5ms
	backgroundSamples = 20
)

// Behavioral implements spec.md §4.2 layer 4: the slow, sample-based layer,
// consulted only when TGID/hook evidence and name matching (layers 1-3)
// produced nothing. It never fails: an incomplete sample set yields
// RoleUnclassified (spec.md §7.4).
func Behavioral(sig Signal) taskstate.Role {
	if !sig.ConsecutiveSamplesPresent {
		return taskstate.RoleUnclassified
	}
	switch {
	case sig.WakeupFreqHz > highFreqHz && sig.RecentExecNs < shortExecNs:
		if sig.HasHitGPUSubmitHook {
			return taskstate.RoleGPUSubmit
		}
		return taskstate.RoleInputHandler
	case sig.WakeupFreqHz >= gpuFreqLowHz && sig.WakeupFreqHz <= gpuFreqHighHz && sig.IdenticalAcrossSamples:
		return taskstate.RoleGPUSubmit
	case sig.WakeupFreqHz > audioFreqHz && sig.RecentExecNs < audioExecNs:
		return taskstate.RoleSystemAudio
	case sig.WakeupFreqHz < backgroundFreqHz && sig.RecentExecNs > backgroundExecNs && sig.ConsecutiveSlowSamples >= backgroundSamples:
		return taskstate.RoleBackground
	default:
		return taskstate.RoleUnclassified
	}
}
