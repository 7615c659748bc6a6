package taskstate

// Role is a task's classification, drawn from the closed set the scheduler
// understands. Exactly one Role is ever assigned to a task; IsForeground is
// tracked independently since it is the one axis spec.md calls orthogonal to
// role (a task can be e.g. both foreground and game-audio).
//
// This is the tagged-variant representation discussed as an Open Question
// in spec.md §9, chosen over a role-flags bitfield: see DESIGN.md.
type Role int8

const (
	// RoleUnclassified is the zero value: no detection layer has matched yet.
	RoleUnclassified Role = iota
	RoleInputHandler
	RoleGPUSubmit
	RoleCompositor
	RoleGPUInterrupt
	RoleUSBAudio
	RoleSystemAudio
	RoleGameAudio
	RoleNetwork
	RoleGamingNetwork
	RoleMemoryIntensive
	RoleAssetLoading
	RoleInterrupt
	RoleInputInterrupt
	RoleUSBInterrupt
	RoleFilesystem
	RoleSaveFile
	RoleConfigFile
	RoleBackground
)

func (r Role) String() string {
	switch r {
	case RoleUnclassified:
		return "unclassified"
	case RoleInputHandler:
		return "input-handler"
	case RoleGPUSubmit:
		return "gpu-submit"
	case RoleCompositor:
		return "compositor"
	case RoleGPUInterrupt:
		return "gpu-interrupt"
	case RoleUSBAudio:
		return "usb-audio"
	case RoleSystemAudio:
		return "system-audio"
	case RoleGameAudio:
		return "game-audio"
	case RoleNetwork:
		return "network"
	case RoleGamingNetwork:
		return "gaming-network"
	case RoleMemoryIntensive:
		return "memory-intensive"
	case RoleAssetLoading:
		return "asset-loading"
	case RoleInterrupt:
		return "interrupt"
	case RoleInputInterrupt:
		return "input-interrupt"
	case RoleUSBInterrupt:
		return "usb-interrupt"
	case RoleFilesystem:
		return "filesystem"
	case RoleSaveFile:
		return "save-file"
	case RoleConfigFile:
		return "config-file"
	case RoleBackground:
		return "background"
	default:
		return "invalid-role"
	}
}

// ForegroundOnly reports whether a role may only ever be assigned to a task
// belonging to the foreground process (spec.md §4.2 "Foreground constraint").
func (r Role) ForegroundOnly() bool {
	switch r {
	case RoleInputHandler, RoleGPUSubmit, RoleGameAudio:
		return true
	default:
		return false
	}
}

// BoostShift is the precomputed right-shift amount (0..=7) applied to the
// baseline time slice. Higher means shorter slice, more aggressive
// scheduling.
type BoostShift int8

// MaxBoostShift is the ceiling every auto-promotion and augmentation clamps
// to (spec.md §3 invariant: boost_shift ∈ 0..=7 at all times).
const MaxBoostShift BoostShift = 7

// boostByRole is the single source of truth for the role -> boost_shift
// mapping in spec.md §4.2. RecomputeBoostShift is the only function allowed
// to read it, satisfying P1 by construction.
//
// RoleGamingNetwork is intentionally absent: spec.md §4.2 makes its boost
// context-sensitive ("network/gaming-net=4 (inside input window) / 3"), so
// it is handled explicitly in RecomputeBoostShift rather than folded into
// this table.
var boostByRole = map[Role]BoostShift{
	RoleUnclassified:    0,
	RoleInputHandler:    7,
	RoleGPUSubmit:       6,
	RoleUSBAudio:        6,
	RoleCompositor:      5,
	RoleSystemAudio:     5,
	RoleGPUInterrupt:    4,
	RoleInputInterrupt:  4,
	RoleUSBInterrupt:    4,
	RoleGameAudio:       3,
	RoleNetwork:         3,
	RoleMemoryIntensive: 3,
	RoleAssetLoading:    3,
	RoleInterrupt:       3,
	RoleFilesystem:      3,
	RoleSaveFile:        3,
	RoleConfigFile:      3,
	RoleBackground:      1,
}

// RecomputeBoostShift maps a (Role, input-window-active, rate-monotonic
// augmentation) triple to its boost_shift, per spec.md §4.2. It is a pure,
// total function of its arguments alone, so recompute(recompute(flags)) ==
// recompute(flags) trivially (P1, idempotence law) -- recomputing never
// consults or mutates any other state. engine/classify.Classify sets
// BoostShift from it after each classification. engine/dispatch does not
// call it: OnStopping's deadline-miss auto-promotion increments BoostShift
// directly (capped at MaxBoostShift), and ApplyPriorityInheritance writes
// InheritedBoost rather than BoostShift.
//
// inputWindowActive is the one piece of role-independent context spec.md
// makes load-bearing for boost level (the gaming-network sub-tier is higher
// while an input boost window is open); every other role's boost_shift
// ignores it. rateMonotonicAugment is spec.md's "wakeup_freq implies a
// period under 10ms" condition, applied only when the base boost is below 2
// (promotes a high-frequency unclassified or background thread by one step,
// never past MaxBoostShift).
func RecomputeBoostShift(r Role, inputWindowActive, rateMonotonicAugment bool) BoostShift {
	var base BoostShift
	if r == RoleGamingNetwork {
		if inputWindowActive {
			base = 4
		} else {
			base = 3
		}
	} else if bs, ok := boostByRole[r]; ok {
		base = bs
	}
	if rateMonotonicAugment && base < 2 {
		base++
		if base > MaxBoostShift {
			base = MaxBoostShift
		}
	}
	return base
}
