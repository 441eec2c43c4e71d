// Package wire provides the channel endpoints connecting pipeline stages.
//
// All channels are unbuffered (rendezvous): a send completes only when the
// downstream stage receives. Endpoints translate channel closure into
// snnerr.ErrChannelClosed and every other failure into
// snnerr.ErrChannelFault, so a stage can tell end-of-stream from an abort.
package wire

import (
	"context"
	"fmt"
	"sync"

	"github.com/nvandessel/spikenet/internal/snnerr"
	"github.com/nvandessel/spikenet/internal/spike"
)

// Receiver is the inbound endpoint of a layer or sink.
type Receiver interface {
	// Receive blocks until a batch is available. It returns
	// snnerr.ErrChannelClosed when the upstream has finished.
	Receive(ctx context.Context) (spike.Batch, error)
	// Width is the number of spikes in every batch.
	Width() int
}

// Sender is the outbound endpoint of a layer.
type Sender interface {
	Send(ctx context.Context, b spike.Batch) error
	// Close signals end-of-stream to the downstream stage. It is idempotent.
	Close()
}

// Pipe is a rendezvous channel of fixed-width batches.
type Pipe struct {
	ch    chan spike.Batch
	width int
	once  sync.Once
}

// NewPipe returns a pipe carrying batches of the given width.
func NewPipe(width int) *Pipe {
	return &Pipe{ch: make(chan spike.Batch), width: width}
}

// Width returns the batch width.
func (p *Pipe) Width() int { return p.width }

// Send publishes b. It fails with ErrChannelFault when the batch has the
// wrong width or ctx is done before the receiver takes it.
func (p *Pipe) Send(ctx context.Context, b spike.Batch) error {
	if len(b) != p.width {
		return fmt.Errorf("%w: send batch of %d on pipe of width %d", snnerr.ErrChannelFault, len(b), p.width)
	}
	select {
	case p.ch <- b:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: send aborted: %v", snnerr.ErrChannelFault, ctx.Err())
	}
}

// Receive takes the next batch.
func (p *Pipe) Receive(ctx context.Context) (spike.Batch, error) {
	select {
	case b, ok := <-p.ch:
		if !ok {
			return nil, snnerr.ErrChannelClosed
		}
		if len(b) != p.width {
			return nil, fmt.Errorf("%w: received batch of %d on pipe of width %d", snnerr.ErrChannelFault, len(b), p.width)
		}
		return b, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: receive aborted: %v", snnerr.ErrChannelFault, ctx.Err())
	}
}

// Close closes the pipe.
func (p *Pipe) Close() {
	p.once.Do(func() { close(p.ch) })
}

// Line is a rendezvous channel carrying one spike per tick from an input
// source.
type Line struct {
	ch   chan spike.Spike
	once sync.Once
}

// NewLine returns an open line.
func NewLine() *Line {
	return &Line{ch: make(chan spike.Spike)}
}

// Send publishes one spike.
func (l *Line) Send(ctx context.Context, s spike.Spike) error {
	select {
	case l.ch <- s:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: send aborted: %v", snnerr.ErrChannelFault, ctx.Err())
	}
}

// Receive takes the next spike.
func (l *Line) Receive(ctx context.Context) (spike.Spike, error) {
	select {
	case s, ok := <-l.ch:
		if !ok {
			return spike.Spike{}, snnerr.ErrChannelClosed
		}
		return s, nil
	case <-ctx.Done():
		return spike.Spike{}, fmt.Errorf("%w: receive aborted: %v", snnerr.ErrChannelFault, ctx.Err())
	}
}

// Close closes the line.
func (l *Line) Close() {
	l.once.Do(func() { close(l.ch) })
}

// FanIn gathers one spike from each input line into a batch. Spikes are
// placed at their source index, so the batch order never depends on which
// source happened to send first.
type FanIn struct {
	lines []*Line
}

// NewFanIn returns a receiver over the given lines.
func NewFanIn(lines []*Line) *FanIn {
	return &FanIn{lines: lines}
}

// Width returns the number of lines.
func (f *FanIn) Width() int { return len(f.lines) }

// Receive reads one spike from every line. A closed line ends the stream.
func (f *FanIn) Receive(ctx context.Context) (spike.Batch, error) {
	b := make(spike.Batch, len(f.lines))
	seen := make([]bool, len(f.lines))
	for i, l := range f.lines {
		s, err := l.Receive(ctx)
		if err != nil {
			if snnerr.IsClosed(err) && i > 0 {
				return nil, fmt.Errorf("%w: line %d closed mid-tick", snnerr.ErrChannelFault, i)
			}
			return nil, err
		}
		idx, ok := s.Source()
		if !ok {
			return nil, fmt.Errorf("%w: untagged spike on line %d", snnerr.ErrChannelFault, i)
		}
		if idx < 0 || idx >= len(b) || seen[idx] {
			return nil, fmt.Errorf("%w: line %d delivered spike for source %d", snnerr.ErrChannelFault, i, idx)
		}
		b[idx] = s
		seen[idx] = true
	}
	return b, nil
}
