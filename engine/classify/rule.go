package classify

import "github.com/gamesched/core/engine/taskstate"

// Rule is one terminal matcher in a Chain: it inspects a Signal and,
// if it fires, names the Role it assigns. Shaped after TracepointMatcher
// (ltl/tracepoint_matcher.go) -- a single attribute test wrapped as a
// value -- but with a direct closure instead of an ltl.Operator, since the
// chain here is evaluated inline on every wakeup rather than compiled once
// from a query string.
type Rule struct {
	Role  taskstate.Role
	Match func(Signal) bool
}

// Chain is an ordered sequence of Rules; the first Rule whose Match fires
// wins (spec.md §4.2: "evaluated in this order; first match wins").
type Chain []Rule

// classify returns the Role assigned by the first matching Rule, or
// (RoleUnclassified, false) if none match.
func (c Chain) classify(sig Signal) (taskstate.Role, bool) {
	for _, r := range c {
		if r.Match(sig) {
			return r.Role, true
		}
	}
	return taskstate.RoleUnclassified, false
}

// hookEvidenceChain is detection layers 1 and 2 of spec.md §4.2: TGID
// membership and kernel-side hook signal capture, in the priority order
// spec.md lays out (audio-server TGID, then GPU-hook history, then the
// Wine priority hint, then the remaining per-hook mappings).
var hookEvidenceChain = Chain{
	{Role: taskstate.RoleSystemAudio, Match: func(s Signal) bool { return s.IsKnownAudioServerTGID }},
	{Role: taskstate.RoleGPUSubmit, Match: func(s Signal) bool { return s.HasHitGPUSubmitHook }},
	{Role: taskstate.RoleGameAudio, Match: func(s Signal) bool { return s.WineHint == WineHintRealtimeAudio }},
	{Role: taskstate.RoleInputHandler, Match: func(s Signal) bool { return s.Hook == HookInputEvent }},
	{Role: taskstate.RoleGPUSubmit, Match: func(s Signal) bool { return s.Hook == HookDRMIoctl }},
	{Role: taskstate.RoleCompositor, Match: func(s Signal) bool {
		return s.Hook == HookDRMModeSetCRTC || s.Hook == HookDRMModeSetPlane
	}},
	{Role: taskstate.RoleAssetLoading, Match: func(s Signal) bool {
		return s.Hook == HookBlockSubmit || s.Hook == HookNVMeSubmit || s.Hook == HookVFSRead
	}},
	{Role: taskstate.RoleGamingNetwork, Match: func(s Signal) bool { return s.Hook == HookGamingSocket }},
	{Role: taskstate.RoleNetwork, Match: func(s Signal) bool {
		return s.Hook == HookSocketSend || s.Hook == HookSocketRecv
	}},
	// ALSA/PCM hooks report "audio" without saying which tier; a foreground
	// task's own sound is its game-audio, anyone else's is system-audio.
	{Role: taskstate.RoleGameAudio, Match: func(s Signal) bool { return s.Hook == HookALSAPCM && s.IsForeground }},
	{Role: taskstate.RoleSystemAudio, Match: func(s Signal) bool { return s.Hook == HookALSAPCM && !s.IsForeground }},
	{Role: taskstate.RoleGPUInterrupt, Match: func(s Signal) bool { return s.Hook == HookIRQGPU }},
	{Role: taskstate.RoleInputInterrupt, Match: func(s Signal) bool { return s.Hook == HookIRQInput }},
	{Role: taskstate.RoleUSBInterrupt, Match: func(s Signal) bool { return s.Hook == HookIRQUSB }},
	{Role: taskstate.RoleInterrupt, Match: func(s Signal) bool { return s.Hook == HookIRQGeneric }},
	{Role: taskstate.RoleMemoryIntensive, Match: func(s Signal) bool { return s.Hook == HookMemSyscall }},
}

// NamePattern is one entry of the layer-3 static name table (spec.md §4.2
// layer 3: "case-sensitive prefix / exact match; no regex;
// BPF-verifier-compatible branch-by-branch byte compare").
type NamePattern struct {
	Role   taskstate.Role
	Prefix string
	Exact  bool
}

// namePatternTable is deliberately small and static -- a handful of
// well-known process/thread name prefixes for roles that hook coverage
// alone won't always catch (e.g. a compositor or audio server started
// before hooks attached).
var namePatternTable = []NamePattern{
	{Role: taskstate.RoleCompositor, Prefix: "Xorg", Exact: true},
	{Role: taskstate.RoleCompositor, Prefix: "kwin", Exact: false},
	{Role: taskstate.RoleCompositor, Prefix: "gnome-shell", Exact: true},
	{Role: taskstate.RoleCompositor, Prefix: "sway", Exact: true},
	{Role: taskstate.RoleSystemAudio, Prefix: "pipewire", Exact: false},
	{Role: taskstate.RoleSystemAudio, Prefix: "pulseaudio", Exact: true},
	{Role: taskstate.RoleGPUSubmit, Prefix: "wine", Exact: false},
	{Role: taskstate.RoleGPUSubmit, Prefix: "proton", Exact: false},
	{Role: taskstate.RoleBackground, Prefix: "systemd", Exact: false},
	{Role: taskstate.RoleBackground, Prefix: "cron", Exact: false},
}

// classifyByName implements layer 3: the first table entry whose prefix (or
// exact string, when Exact) matches sig.Command wins. A plain byte-prefix
// compare, not regexp, per spec.md's verifier-compatibility requirement.
func classifyByName(sig Signal) (taskstate.Role, bool) {
	for _, np := range namePatternTable {
		if np.Exact {
			if sig.Command == np.Prefix {
				return np.Role, true
			}
			continue
		}
		if hasPrefix(sig.Command, np.Prefix) {
			return np.Role, true
		}
	}
	return taskstate.RoleUnclassified, false
}

// hasPrefix is a branch-by-branch byte compare, avoiding strings.HasPrefix's
// (harmless, but here deliberately explicit) reliance on the stdlib's more
// general comparison path -- kept trivial enough that the BPF C translation
// of this rule table is a mechanical, line-by-line port.
func hasPrefix(s, prefix string) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}
