package synapse

import (
	"errors"
	"testing"

	"github.com/nvandessel/spikenet/internal/snnerr"
	"github.com/nvandessel/spikenet/internal/spike"
	"gonum.org/v1/gonum/mat"
)

func TestNew_RejectsZeroWeight(t *testing.T) {
	if _, err := New(0, 0); err == nil {
		t.Fatal("expected error for zero weight")
	}
}

func TestNew_RejectsNegativeSource(t *testing.T) {
	_, err := New(-1, 1.0)
	if !errors.Is(err, snnerr.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestTransmit(t *testing.T) {
	s, err := New(0, 2.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.Transmit(spike.New(1, 0)); got != 2.5 {
		t.Errorf("Transmit(1) = %f, want 2.5", got)
	}
	if got := s.Transmit(spike.New(0, 0)); got != 0 {
		t.Errorf("Transmit(0) = %f, want 0", got)
	}
}

func TestReceive(t *testing.T) {
	s, _ := New(1, -5)
	batch := spike.Batch{spike.New(0, 0), spike.New(1, 1)}

	v, ok, err := s.Receive(batch)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if !ok || v != -5 {
		t.Errorf("Receive = (%f, %v), want (-5, true)", v, ok)
	}

	silent := spike.Zero(2)
	if _, ok, _ := s.Receive(silent); ok {
		t.Error("expected no contribution from a silent source")
	}
}

func TestReceive_OutOfRange(t *testing.T) {
	s, _ := New(3, 1)
	_, _, err := s.Receive(spike.Zero(2))
	if !errors.Is(err, snnerr.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestFromRow(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{
		0, 1.5, 0,
		-2, 0, 3,
	})

	got := FromRow(m, 1, -1)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Source() != 0 || got[0].Weight() != -2 {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Source() != 2 || got[1].Weight() != 3 {
		t.Errorf("got[1] = %+v", got[1])
	}

	skipped := FromRow(m, 1, 2)
	if len(skipped) != 1 || skipped[0].Source() != 0 {
		t.Errorf("FromRow with skip = %+v, want only source 0", skipped)
	}
}
