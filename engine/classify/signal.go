// Package classify implements the closed-set thread-role classifier.
//
// Detection runs in four ordered layers: TGID/kernel-hook evidence,
// name-pattern matching, and -- only if nothing else matched -- a
// behavioral/runtime-pattern layer. The TGID/kernel-hook layers are
// expressed as an ordered Chain of Rules (hookEvidenceChain), shaped after
// ltl.TracepointMatcher (a terminal, single-purpose matcher over one
// attribute of an event) but stripped of any regex, reflection, or
// general-query machinery so the chain stays branch-by-branch compare,
// allocation-free, and safe to run on every wakeup. The name-pattern layer
// is a separate ordered table of exact and prefix matches (namePatternTable).
package classify

import "github.com/gamesched/core/engine/taskstate"

// Hook identifies which kernel attachment point (if any) fired for this
// classification attempt (spec.md §4.2 layer 2, §6).
type Hook int8

const (
	HookNone Hook = iota
	HookInputEvent
	HookDRMIoctl
	HookDRMModeSetCRTC
	HookDRMModeSetPlane
	HookBlockSubmit
	HookNVMeSubmit
	HookVFSRead
	HookSocketSend
	HookSocketRecv
	HookGamingSocket
	HookALSAPCM
	HookIRQGPU
	HookIRQInput
	HookIRQUSB
	HookIRQGeneric
	HookMemSyscall
)

// WineHint is the value (if any) that the Wine/Proton thread-priority
// uprobe most recently observed for this task (spec.md §4.2, §6 "uprobe on
// a Windows-compatibility-layer thread-priority function").
type WineHint int8

const (
	WineHintNone WineHint = iota
	WineHintRealtimeAudio
	WineHintOther
)

// Signal bundles every piece of evidence available for one classification
// attempt: which layer-1/2 facts are true of this task right now, its
// command name for layer 3, and its behavioral sample for layer 4.
//
// A Signal is built fresh by the caller (the scheduler callback, in
// production; a test harness, in engine/) from whatever hooks have fired
// and whatever TGID-membership maps say about this task; Classify itself
// never reaches into global state beyond the boost-shift/foreground
// globals it's explicitly given.
type Signal struct {
	TID  taskstate.TID
	TGID taskstate.TGID

	Command string

	IsForeground         bool
	IsKnownAudioServerTGID bool
	HasHitGPUSubmitHook  bool // sticky: has this task ever issued a GPU submit ioctl
	WineHint             WineHint

	Hook Hook

	WakeupFreqHz             float64
	RecentExecNs             int64
	IdenticalAcrossSamples   bool // wakeup interval identical across consecutive samples
	ConsecutiveSlowSamples   int  // consecutive low-freq/high-exec samples observed
	ConsecutiveSamplesPresent bool // false if the sample set is incomplete (spec.md §7.4)
}
