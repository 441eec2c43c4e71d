package output

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nvandessel/spikenet/internal/barrier"
	"github.com/nvandessel/spikenet/internal/snnerr"
	"github.com/nvandessel/spikenet/internal/spike"
	"github.com/nvandessel/spikenet/internal/wire"
)

// feed publishes batches on p, pairing each send with a barrier wait, then
// closes the pipe.
func feed(ctx context.Context, p *wire.Pipe, b *barrier.Barrier, batches []spike.Batch) {
	defer p.Close()
	for _, batch := range batches {
		if err := p.Send(ctx, batch); err != nil {
			return
		}
		if err := b.Wait(ctx); err != nil {
			return
		}
	}
}

func batchOf(values ...int8) spike.Batch {
	b := make(spike.Batch, len(values))
	for i, v := range values {
		b[i] = spike.New(v, i)
	}
	return b
}

func TestSinkRun_Unwired(t *testing.T) {
	s := NewSink(2)
	if _, err := s.Run(context.Background()); !errors.Is(err, snnerr.ErrUnwired) {
		t.Fatalf("expected ErrUnwired, got %v", err)
	}
}

func TestSinkAttach_WidthMismatch(t *testing.T) {
	s := NewSink(2)
	b, _ := barrier.New(2)
	if err := s.Attach(wire.NewPipe(3), b); !errors.Is(err, snnerr.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestSinkRun_CountsUntilClosed(t *testing.T) {
	p := wire.NewPipe(3)
	b, _ := barrier.New(2)
	s := NewSink(3)
	if err := s.Attach(p, b); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	var observed []string
	s.SetObserver(func(tick int, batch spike.Batch) {
		if tick != len(observed)+1 {
			t.Errorf("observer tick = %d, want %d", tick, len(observed)+1)
		}
		observed = append(observed, batch.String())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go feed(ctx, p, b, []spike.Batch{
		batchOf(1, 0, 1),
		batchOf(1, 1, 0),
		batchOf(0, 0, 1),
		batchOf(1, 0, 0),
	})

	counts, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int{3, 1, 2}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %d, want %d", i, counts[i], want[i])
		}
	}
	if s.Ticks() != 4 || len(observed) != 4 {
		t.Errorf("ticks = %d, observed = %d, want 4", s.Ticks(), len(observed))
	}
}

func TestSinkRun_OrdersBySourceIndex(t *testing.T) {
	p := wire.NewPipe(2)
	b, _ := barrier.New(2)
	s := NewSink(2)
	_ = s.Attach(p, b)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Spikes arrive in reverse slot order; counts follow the tag.
	go feed(ctx, p, b, []spike.Batch{{spike.New(1, 1), spike.New(0, 0)}})

	counts, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if counts[0] != 0 || counts[1] != 1 {
		t.Errorf("counts = %v, want [0 1]", counts)
	}
}

func TestSinkRun_UntaggedIsFault(t *testing.T) {
	p := wire.NewPipe(1)
	b, _ := barrier.New(2)
	s := NewSink(1)
	_ = s.Attach(p, b)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go feed(ctx, p, b, []spike.Batch{{spike.Untagged(1)}})

	_, err := s.Run(ctx)
	if !errors.Is(err, snnerr.ErrChannelFault) {
		t.Fatalf("expected ErrChannelFault, got %v", err)
	}
	cancel()
}

func TestSinkRun_MaxTicks(t *testing.T) {
	p := wire.NewPipe(1)
	b, _ := barrier.New(2)
	s := NewSink(1)
	_ = s.Attach(p, b)
	s.SetMaxTicks(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go feed(ctx, p, b, []spike.Batch{batchOf(1), batchOf(1), batchOf(1), batchOf(1)})

	counts, err := s.Run(ctx)
	if !errors.Is(err, ErrTickLimit) {
		t.Fatalf("expected ErrTickLimit, got %v", err)
	}
	if counts[0] != 2 {
		t.Errorf("counts = %v, want [2]", counts)
	}
	cancel()
}

func TestSinkRun_AbortIsFault(t *testing.T) {
	p := wire.NewPipe(1)
	b, _ := barrier.New(2)
	s := NewSink(1)
	_ = s.Attach(p, b)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Run(ctx)
	if !errors.Is(err, snnerr.ErrChannelFault) {
		t.Fatalf("expected ErrChannelFault, got %v", err)
	}
}
