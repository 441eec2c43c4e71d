// Package synapse implements the directed, weighted edge between a source
// position and the neuron that owns it.
package synapse

import (
	"fmt"

	"github.com/nvandessel/spikenet/internal/snnerr"
	"github.com/nvandessel/spikenet/internal/spike"
	"gonum.org/v1/gonum/mat"
)

// Synapse couples a source position in an inbound batch to a weight.
// A Synapse always carries a nonzero weight: "no connection" is represented
// by the absence of a Synapse.
type Synapse struct {
	source int
	weight float64
}

// New returns a synapse from the given source position. A zero weight is
// rejected since it would mean "no connection".
func New(source int, weight float64) (Synapse, error) {
	if source < 0 {
		return Synapse{}, fmt.Errorf("%w: synapse source %d", snnerr.ErrIndexOutOfRange, source)
	}
	if weight == 0 {
		return Synapse{}, fmt.Errorf("synapse from %d: zero weight is not a connection", source)
	}
	return Synapse{source: source, weight: weight}, nil
}

// Source returns the position the synapse reads in the inbound batch.
func (s Synapse) Source() int { return s.source }

// Weight returns the synaptic weight.
func (s Synapse) Weight() float64 { return s.weight }

// Transmit converts a raw spike into its weighted contribution.
func (s Synapse) Transmit(sp spike.Spike) float64 {
	return float64(sp.Value()) * s.weight
}

// Receive reads the synapse's source spike out of batch and returns the
// weighted contribution. The second result is false when the source did not
// fire, so aggregation only ever sees nonzero contributions.
func (s Synapse) Receive(batch spike.Batch) (float64, bool, error) {
	if s.source >= len(batch) {
		return 0, false, fmt.Errorf("%w: synapse source %d, batch of %d", snnerr.ErrIndexOutOfRange, s.source, len(batch))
	}
	sp := batch[s.source]
	if !sp.Fired() {
		return 0, false, nil
	}
	return s.Transmit(sp), true, nil
}

// FromRow builds the synapse list for one matrix row, eliding zero weights.
// When skip is non-negative that column is left out (self-loops).
func FromRow(m mat.Matrix, row, skip int) []Synapse {
	_, cols := m.Dims()
	out := make([]Synapse, 0, cols)
	for c := 0; c < cols; c++ {
		if c == skip {
			continue
		}
		w := m.At(row, c)
		if w == 0 {
			continue
		}
		out = append(out, Synapse{source: c, weight: w})
	}
	return out
}
