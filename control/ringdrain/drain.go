// Package ringdrain consumes engine/inputpipe's distributed ring buffers so
// none of them overflow, fanning the drained events out to an arbitrary
// number of handlers. Grounded on the epoll-multiplexed multi-ring drain
// loop in the vendored cilium/ebpf perf reader
// (other_examples/...cilium...perf-reader.go.go): one goroutine per ring,
// each calling the handler directly for the events it pops, rather than a
// single thread round-robin polling every ring in turn.
package ringdrain

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/gamesched/core/engine/inputpipe"
	"github.com/gamesched/core/engine/taskstate"
)

// batchSize bounds how many events one drain pass pulls off a single ring
// before yielding, keeping one noisy ring from starving the others.
const batchSize = 64

// Handler receives one drained event plus the CPUID of the ring it came
// from (the NUM_RINGS layout is a sharding detail; consumers care about the
// event, not which shard produced it).
type Handler func(ring taskstate.CPUID, ev inputpipe.Event)

// Drainer owns one polling goroutine per inputpipe ring.
type Drainer struct {
	pipeline *inputpipe.Pipeline
	handler  Handler
	idle     func(ctx context.Context) error
}

// New builds a Drainer over pipeline's NumRings input rings. idle is called
// whenever a ring comes up empty; production wires it to a short sleep
// (cfg.RingDrainPollInterval), tests can wire it to return ctx.Err()
// immediately to make draining deterministic.
func New(pipeline *inputpipe.Pipeline, handler Handler, idle func(ctx context.Context) error) *Drainer {
	return &Drainer{pipeline: pipeline, handler: handler, idle: idle}
}

// Run drains every ring concurrently until ctx is cancelled or any one
// ring's goroutine returns an error.
func (d *Drainer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < inputpipe.NumRings; i++ {
		cpu := taskstate.CPUID(i)
		ring := d.pipeline.RingForCPU(cpu)
		g.Go(func() error {
			return d.drainRing(ctx, cpu, ring)
		})
	}
	return g.Wait()
}

func (d *Drainer) drainRing(ctx context.Context, cpu taskstate.CPUID, ring *inputpipe.Ring) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		drained := 0
		for drained < batchSize {
			ev, ok := ring.Pop()
			if !ok {
				break
			}
			d.handler(cpu, ev)
			drained++
		}
		if drained == 0 {
			if err := d.idle(ctx); err != nil {
				return nil
			}
		}
	}
}
