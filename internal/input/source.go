// Package input implements the spike generators feeding the first layer and
// the reader for input spike files.
package input

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nvandessel/spikenet/internal/barrier"
	"github.com/nvandessel/spikenet/internal/snnerr"
	"github.com/nvandessel/spikenet/internal/spike"
)

// lineSender is the outbound endpoint of a source, satisfied by *wire.Line.
type lineSender interface {
	Send(ctx context.Context, s spike.Spike) error
	Close()
}

// Source emits a finite sequence of spikes for one input line, one per tick.
type Source struct {
	index   int
	spikes  []int8
	out     lineSender
	barrier *barrier.Barrier
	logger  *slog.Logger
}

// NewSource returns a source for input line index. Values outside {0,1} fail
// with snnerr.ErrMalformedInput.
func NewSource(index int, spikes []int8) (*Source, error) {
	for t, v := range spikes {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("%w: input %d tick %d has value %d", snnerr.ErrMalformedInput, index, t, v)
		}
	}
	return &Source{index: index, spikes: spikes}, nil
}

// Attach wires the outbound line and the barrier shared with layer 0.
func (s *Source) Attach(out lineSender, b *barrier.Barrier) {
	s.out = out
	s.barrier = b
}

// SetLogger sets the structured logger.
func (s *Source) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Index returns the input line index carried by every emitted spike.
func (s *Source) Index() int { return s.index }

// Len returns the number of ticks in the sequence.
func (s *Source) Len() int { return len(s.spikes) }

// Spikes returns the sequence.
func (s *Source) Spikes() []int8 { return s.spikes }

// Check reports snnerr.ErrUnwired when the source has no outbound line or
// barrier.
func (s *Source) Check() error {
	if s.out == nil {
		return fmt.Errorf("%w: input %d has no outbound endpoint", snnerr.ErrUnwired, s.index)
	}
	if s.barrier == nil {
		return fmt.Errorf("%w: input %d has no barrier", snnerr.ErrUnwired, s.index)
	}
	return nil
}

// Run emits every spike in order, waiting on the barrier after each send.
// When the sequence is exhausted the line is closed, which is how layer 0
// learns the input has ended.
func (s *Source) Run(ctx context.Context) error {
	if err := s.Check(); err != nil {
		return err
	}
	defer s.out.Close()

	for t, v := range s.spikes {
		if err := s.out.Send(ctx, spike.New(v, s.index)); err != nil {
			return fmt.Errorf("input %d tick %d: %w", s.index, t+1, err)
		}
		if err := s.barrier.Wait(ctx); err != nil {
			return fmt.Errorf("%w: input %d barrier: %v", snnerr.ErrChannelFault, s.index, err)
		}
	}

	if s.logger != nil {
		s.logger.Debug("input exhausted", "input", s.index, "ticks", len(s.spikes))
	}
	return nil
}
