package inputpipe

import (
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"

	"github.com/gamesched/core/engine/taskstate"
)

// NumRings is the count of disjoint single-writer ring buffers a writer
// picks among by `current_cpu mod NumRings` (spec.md §4.3 "Distributed
// ring-buffer layout").
const NumRings = 16

// fastPathRateThresholdHz is the recent input rate above which a known,
// whitelisted device skips the ring buffer entirely (spec.md §4.3 "Fast
// path (when recent input rate exceeds 500 events/s)").
const fastPathRateThresholdHz = 500.0

// DeviceID identifies one input device (vendor/product pair packed into a
// single comparable key), the whitelist cache's key type.
type DeviceID uint64

// deviceCacheSize bounds the device whitelist cache; grounded on the
// teacher's storageBase LRU-cache pattern (server/storage_service.go), sized
// generously for a machine's realistic input-device count.
const deviceCacheSize = 256

// Pipeline is C3: the input/frame event pipeline. It owns the distributed
// ring buffers, the game-detection ring, and the device whitelist cache,
// and applies lane-deadline extensions to Globals on every qualifying
// event.
//
// The device whitelist cache mirrors storageBase's shape
// (server/storage_service.go: a simplelru.LRU guarded by a plain
// sync.Mutex, rather than RWMutex, since whitelist lookups always touch the
// LRU's internal recency list and so always write) adapted from caching
// trace collections to caching per-device gaming-input eligibility.
type Pipeline struct {
	rings    [NumRings]*Ring
	gameRing *Ring

	globals   *taskstate.Globals
	durations LaneDurations

	mu          sync.Mutex
	deviceCache *simplelru.LRU
}

// DeviceLookup resolves a DeviceID to whether it is whitelisted for gaming
// input (spec.md §4.3 slow path "resolve the device (vendor / product
// lookup)"). Production wires this to the real vendor/product table;
// engine-level tests supply a stub.
type DeviceLookup func(DeviceID) (whitelisted bool)

// NewPipeline allocates a Pipeline with ringCapacityBytes of backing
// storage per ring.
func NewPipeline(globals *taskstate.Globals, durations LaneDurations, ringCapacityBytes int) *Pipeline {
	cache, _ := simplelru.NewLRU(deviceCacheSize, nil)
	p := &Pipeline{
		globals:     globals,
		durations:   durations,
		gameRing:    NewRing(ringCapacityBytes),
		deviceCache: cache,
	}
	for i := range p.rings {
		p.rings[i] = NewRing(ringCapacityBytes)
	}
	return p
}

// RingForCPU returns the single-writer ring a writer on cpu must use.
func (p *Pipeline) RingForCPU(cpu taskstate.CPUID) *Ring {
	return p.rings[int(cpu)%NumRings]
}

// GameRing returns the game-detection ring.
func (p *Pipeline) GameRing() *Ring { return p.gameRing }

// HandleInputEvent implements spec.md §4.3's fast/slow path split for one
// input_event hook firing on cpu. recentRateHz is the caller's recent
// events/s measurement for the fast-path heuristic; lookup resolves a
// device the cache hasn't seen yet.
//
// It never blocks and never returns an error the caller must act on: a
// dropped event (cache miss -> ring full) still gets its lane extended, per
// spec.md's "write a compact event record... then apply the same
// lane-extension as the fast path."
func (p *Pipeline) HandleInputEvent(cpu taskstate.CPUID, lane taskstate.Lane, device DeviceID, recentRateHz float64, nowNs int64, lookup DeviceLookup) {
	whitelisted, known := p.probeDevice(device)

	if recentRateHz > fastPathRateThresholdHz && known && whitelisted {
		// Fast path: ~200-500ns/event, no ring write (spec.md §4.3).
		p.extendLane(lane, nowNs)
		return
	}

	// Slow path: resolve (if not cached), update the cache, write a ring
	// record, then extend exactly as the fast path does.
	if !known {
		whitelisted = lookup(device)
		p.storeDevice(device, whitelisted)
	}
	if whitelisted {
		_ = p.RingForCPU(cpu).Push(Event{
			Type:        EventInput,
			TimestampNs: nowNs,
			Payload:     encodeDeviceEvent(device, lane),
		})
	}
	p.extendLane(lane, nowNs)
}

func (p *Pipeline) probeDevice(d DeviceID) (whitelisted, known bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.deviceCache.Get(d)
	if !ok {
		return false, false
	}
	return v.(bool), true
}

func (p *Pipeline) storeDevice(d DeviceID, whitelisted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deviceCache.Add(d, whitelisted)
}

func (p *Pipeline) extendLane(lane taskstate.Lane, nowNs int64) {
	dur := p.durations.forLane(lane)
	if dur <= 0 {
		return
	}
	deadline := nowNs + dur.Nanoseconds()
	p.globals.ExtendLaneDeadline(lane, deadline)
	p.globals.ExtendInputUntil(deadline)
}

func encodeDeviceEvent(d DeviceID, lane taskstate.Lane) []byte {
	return []byte{
		byte(d), byte(d >> 8), byte(d >> 16), byte(d >> 24),
		byte(d >> 32), byte(d >> 40), byte(d >> 48), byte(d >> 56),
		byte(lane),
	}
}

// GameDetectEventKind distinguishes a process start from an exit on the
// game-detection ring (spec.md §4.3 "Every detected start/exit is a single
// event").
type GameDetectEventKind uint8

const (
	GameDetectStart GameDetectEventKind = iota
	GameDetectExit
)

// PushGameDetectEvent records a process start/exit observed by the kernel
// LSM hook (or the userspace process-tree fallback watch, see
// control/foreground.go) for the userspace game-detector to classify.
func (p *Pipeline) PushGameDetectEvent(kind GameDetectEventKind, tgid taskstate.TGID, nowNs int64) error {
	payload := []byte{byte(tgid), byte(tgid >> 8), byte(tgid >> 16), byte(tgid >> 24)}
	return p.gameRing.Push(Event{Type: EventGameDetect, TimestampNs: nowNs, Payload: append([]byte{byte(kind)}, payload...)})
}

// ContinuousMode reports whether recentRateHz exceeds
// fastPathRateThresholdHz (500 Hz). The rate is supplied by the caller; this
// package keeps no rolling window of event rates itself. The result is a
// read-only signal that no scheduling decision in the engine consults.
func ContinuousMode(recentRateHz float64) bool {
	return recentRateHz > fastPathRateThresholdHz
}
