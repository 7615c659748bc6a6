package control

import "context"

// The collaborators below are explicitly out of scope (spec.md Non-goals):
// no TUI, no installer, no ML-driven autotuning, no profile marketplace.
// They're named here as interfaces so Plane's construction doesn't need to
// change shape the day one of them grows a real implementation --
// ProfileStore in particular is the seam a future "save per-game tuning"
// feature would hang off.

// ConfigSource loads a Config from wherever a real deployment keeps one
// (flags, a file, a remote config service); cmd/gamesched/main.go is the
// only implementation this repo ships.
type ConfigSource interface {
	Load(ctx context.Context) (Config, error)
}

// DebugEndpoint exposes Plane's Metrics snapshot over some transport (HTTP,
// gRPC, a Unix socket) for external dashboards. Not implemented here.
type DebugEndpoint interface {
	Serve(ctx context.Context, snapshot func() Metrics) error
}

// ProfileStore persists and recalls per-game tuning overrides (custom
// slice lengths, role overrides) keyed by TGID name/hash. Not implemented
// here; a real one would likely be a JSON file per profile, mirroring the
// teacher's fs_storage.go on-disk layout.
type ProfileStore interface {
	Load(ctx context.Context, gameKey string) (map[string]any, error)
	Save(ctx context.Context, gameKey string, profile map[string]any) error
}

// Autotuner is the seam for an out-of-scope ML-driven tuning pipeline that
// would observe Metrics over time and propose Config/profile adjustments.
// Not implemented here.
type Autotuner interface {
	Suggest(ctx context.Context, history []Metrics) (map[string]any, error)
}
