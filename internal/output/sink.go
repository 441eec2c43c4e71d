// Package output implements the sink collecting the final layer's spikes.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nvandessel/spikenet/internal/barrier"
	"github.com/nvandessel/spikenet/internal/snnerr"
	"github.com/nvandessel/spikenet/internal/spike"
)

// ErrTickLimit is returned by Run when the sink stopped at MaxTicks before
// the pipeline closed. The counts returned alongside it are valid.
var ErrTickLimit = errors.New("tick limit reached")

// Observer is called with every batch the sink accepts, in tick order
// starting at 1. It runs on the sink goroutine.
type Observer func(tick int, b spike.Batch)

type batchReceiver interface {
	Receive(ctx context.Context) (spike.Batch, error)
	Width() int
}

// Sink accumulates per-neuron spike counts of the final layer.
type Sink struct {
	in       batchReceiver
	barrier  *barrier.Barrier
	counts   []int
	ticks    int
	maxTicks int
	observer Observer
	logger   *slog.Logger
}

// NewSink returns a sink for a final layer of the given width.
func NewSink(width int) *Sink {
	return &Sink{counts: make([]int, width)}
}

// Attach wires the inbound endpoint and the barrier shared with the last
// layer.
func (s *Sink) Attach(in batchReceiver, b *barrier.Barrier) error {
	if in != nil && in.Width() != len(s.counts) {
		return fmt.Errorf("%w: sink of width %d attached to endpoint of width %d", snnerr.ErrIndexOutOfRange, len(s.counts), in.Width())
	}
	s.in = in
	s.barrier = b
	return nil
}

// SetMaxTicks stops the sink after n ticks. Zero means unlimited.
func (s *Sink) SetMaxTicks(n int) { s.maxTicks = n }

// SetObserver registers a per-tick callback.
func (s *Sink) SetObserver(o Observer) { s.observer = o }

// SetLogger sets the structured logger.
func (s *Sink) SetLogger(logger *slog.Logger) { s.logger = logger }

// Width returns the accumulator size.
func (s *Sink) Width() int { return len(s.counts) }

// Ticks returns the number of batches received.
func (s *Sink) Ticks() int { return s.ticks }

// Check reports snnerr.ErrUnwired when the inbound endpoint or barrier is
// missing.
func (s *Sink) Check() error {
	if s.in == nil {
		return fmt.Errorf("%w: sink has no inbound endpoint", snnerr.ErrUnwired)
	}
	if s.barrier == nil {
		return fmt.Errorf("%w: sink has no barrier", snnerr.ErrUnwired)
	}
	return nil
}

// Run consumes batches until the upstream closes and returns the counts.
func (s *Sink) Run(ctx context.Context) ([]int, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}

	for {
		if s.maxTicks > 0 && s.ticks >= s.maxTicks {
			if s.logger != nil {
				s.logger.Info("tick limit reached", "ticks", s.ticks)
			}
			return s.snapshot(), ErrTickLimit
		}

		b, err := s.in.Receive(ctx)
		if err != nil {
			if snnerr.IsClosed(err) {
				if s.logger != nil {
					s.logger.Debug("sink drained", "ticks", s.ticks)
				}
				return s.snapshot(), nil
			}
			return nil, fmt.Errorf("sink receive: %w", err)
		}

		if err := s.accumulate(b); err != nil {
			return nil, err
		}
		s.ticks++
		if s.observer != nil {
			s.observer(s.ticks, b)
		}

		if err := s.barrier.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: sink barrier: %v", snnerr.ErrChannelFault, err)
		}
	}
}

// accumulate adds each spike's value at its source index. Untagged or
// out-of-range spikes mean the final layer is miswired.
func (s *Sink) accumulate(b spike.Batch) error {
	for i, sp := range b {
		idx, ok := sp.Source()
		if !ok {
			return fmt.Errorf("%w: sink tick %d: untagged spike at slot %d", snnerr.ErrChannelFault, s.ticks+1, i)
		}
		if idx < 0 || idx >= len(s.counts) {
			return fmt.Errorf("%w: sink tick %d: spike from neuron %d, width %d", snnerr.ErrIndexOutOfRange, s.ticks+1, idx, len(s.counts))
		}
		s.counts[idx] += int(sp.Value())
	}
	return nil
}

func (s *Sink) snapshot() []int {
	out := make([]int, len(s.counts))
	copy(out, s.counts)
	return out
}
