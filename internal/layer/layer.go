// Package layer implements the per-layer worker, the concurrency unit of the
// simulation pipeline.
//
// A Layer owns its neurons exclusively. Each tick it receives one batch from
// upstream, waits on the input-side barrier, steps every neuron against that
// batch and its own previous output, publishes the result downstream and
// waits on the output-side barrier.
package layer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nvandessel/spikenet/internal/barrier"
	"github.com/nvandessel/spikenet/internal/logging"
	"github.com/nvandessel/spikenet/internal/neuron"
	"github.com/nvandessel/spikenet/internal/snnerr"
	"github.com/nvandessel/spikenet/internal/spike"
	"github.com/nvandessel/spikenet/internal/synapse"
	"gonum.org/v1/gonum/mat"
)

// Layer is one stage of the pipeline.
type Layer struct {
	index   int
	neurons []*neuron.Neuron

	// read-only after New; shared with the assembler for inspection
	excitatory *mat.Dense
	inhibitory *mat.Dense

	in         receiver
	out        sender
	inBarrier  *barrier.Barrier
	outBarrier *barrier.Barrier

	last  spike.Batch
	ticks int

	logger *slog.Logger
}

// receiver and sender are the subsets of wire.Receiver/wire.Sender a layer
// uses; declared here so tests can supply their own endpoints.
type receiver interface {
	Receive(ctx context.Context) (spike.Batch, error)
	Width() int
}

type sender interface {
	Send(ctx context.Context, b spike.Batch) error
	Close()
}

// New builds a layer over neurons with the given weight matrices.
//
// excitatory is len(neurons) x upstream width. inhibitory is
// len(neurons) x len(neurons) or nil for no recurrent inhibition. The
// diagonal of inhibitory is only wired when selfInhibition is set.
func New(index int, neurons []*neuron.Neuron, excitatory, inhibitory *mat.Dense, selfInhibition bool) (*Layer, error) {
	if len(neurons) == 0 {
		return nil, fmt.Errorf("%w: layer %d has no neurons", snnerr.ErrConfig, index)
	}
	if excitatory == nil {
		return nil, fmt.Errorf("%w: layer %d has no excitatory weights", snnerr.ErrConfig, index)
	}
	if r, _ := excitatory.Dims(); r != len(neurons) {
		return nil, fmt.Errorf("%w: layer %d excitatory matrix has %d rows for %d neurons", snnerr.ErrConfig, index, r, len(neurons))
	}
	if inhibitory != nil {
		if r, c := inhibitory.Dims(); r != len(neurons) || c != len(neurons) {
			return nil, fmt.Errorf("%w: layer %d inhibitory matrix is %dx%d for %d neurons", snnerr.ErrConfig, index, r, c, len(neurons))
		}
	}

	l := &Layer{
		index:      index,
		neurons:    neurons,
		excitatory: excitatory,
		inhibitory: inhibitory,
		last:       spike.Zero(len(neurons)),
	}

	for p, n := range neurons {
		if n.Position() != p {
			return nil, fmt.Errorf("%w: layer %d neuron at slot %d has position %d", snnerr.ErrIndexOutOfRange, index, p, n.Position())
		}
		exc := synapse.FromRow(excitatory, p, -1)
		var inh []synapse.Synapse
		if inhibitory != nil {
			skip := p
			if selfInhibition {
				skip = -1
			}
			inh = synapse.FromRow(inhibitory, p, skip)
		}
		if err := l.ConnectNeuron(p, exc, inh); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// ConnectNeuron sets the inbound synapses of the neuron at position p.
// Positions beyond the layer, or synapses reading beyond the upstream or
// recurrent batch, fail with snnerr.ErrIndexOutOfRange.
func (l *Layer) ConnectNeuron(p int, excitatory, inhibitory []synapse.Synapse) error {
	if p < 0 || p >= len(l.neurons) {
		return fmt.Errorf("%w: layer %d has %d neurons, got position %d", snnerr.ErrIndexOutOfRange, l.index, len(l.neurons), p)
	}
	upstream := l.UpstreamWidth()
	for _, s := range excitatory {
		if s.Source() >= upstream {
			return fmt.Errorf("%w: layer %d neuron %d excitatory source %d, upstream width %d", snnerr.ErrIndexOutOfRange, l.index, p, s.Source(), upstream)
		}
	}
	for _, s := range inhibitory {
		if s.Source() >= len(l.neurons) {
			return fmt.Errorf("%w: layer %d neuron %d inhibitory source %d, layer width %d", snnerr.ErrIndexOutOfRange, l.index, p, s.Source(), len(l.neurons))
		}
	}
	l.neurons[p].Connect(excitatory, inhibitory)
	return nil
}

// SetLogger sets the structured logger.
func (l *Layer) SetLogger(logger *slog.Logger) {
	l.logger = logger
}

// Attach wires the layer's endpoints and barriers. The inbound width must
// match the excitatory matrix.
func (l *Layer) Attach(in receiver, out sender, inBarrier, outBarrier *barrier.Barrier) error {
	if in != nil && in.Width() != l.UpstreamWidth() {
		return fmt.Errorf("%w: layer %d expects upstream width %d, got %d", snnerr.ErrIndexOutOfRange, l.index, l.UpstreamWidth(), in.Width())
	}
	l.in = in
	l.out = out
	l.inBarrier = inBarrier
	l.outBarrier = outBarrier
	return nil
}

// Check reports snnerr.ErrUnwired when an endpoint or barrier is missing.
func (l *Layer) Check() error {
	switch {
	case l.in == nil:
		return fmt.Errorf("%w: layer %d has no inbound endpoint", snnerr.ErrUnwired, l.index)
	case l.out == nil:
		return fmt.Errorf("%w: layer %d has no outbound endpoint", snnerr.ErrUnwired, l.index)
	case l.inBarrier == nil:
		return fmt.Errorf("%w: layer %d has no input barrier", snnerr.ErrUnwired, l.index)
	case l.outBarrier == nil:
		return fmt.Errorf("%w: layer %d has no output barrier", snnerr.ErrUnwired, l.index)
	}
	return nil
}

// Index returns the layer's position in the network.
func (l *Layer) Index() int { return l.index }

// Width returns the number of neurons.
func (l *Layer) Width() int { return len(l.neurons) }

// UpstreamWidth returns the number of columns of the excitatory matrix.
func (l *Layer) UpstreamWidth() int {
	_, c := l.excitatory.Dims()
	return c
}

// Neurons returns the layer's neurons. Only safe to inspect while the layer
// is not running.
func (l *Layer) Neurons() []*neuron.Neuron { return l.neurons }

// Excitatory returns the feed-forward weight matrix.
func (l *Layer) Excitatory() mat.Matrix { return l.excitatory }

// Inhibitory returns the recurrent weight matrix, nil when absent.
func (l *Layer) Inhibitory() mat.Matrix {
	if l.inhibitory == nil {
		return nil
	}
	return l.inhibitory
}

// Ticks returns the number of batches processed.
func (l *Layer) Ticks() int { return l.ticks }

// LastOutput returns the batch emitted on the most recent tick.
func (l *Layer) LastOutput() spike.Batch { return l.last }

// Tick steps every neuron once against an upstream batch and returns the
// layer's output. The recurrent term reads the output of the previous
// tick, never the one being computed.
func (l *Layer) Tick(in spike.Batch) (spike.Batch, error) {
	out := make(spike.Batch, len(l.neurons))
	for p, n := range l.neurons {
		s, err := n.Integrate(in, l.last)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", l.index, err)
		}
		out[p] = s
	}
	l.last = out
	l.ticks++
	return out, nil
}

// Run drives the layer until the upstream closes or a fault occurs. The
// outbound endpoint is always closed on return so closure reaches the sink.
func (l *Layer) Run(ctx context.Context) error {
	if err := l.Check(); err != nil {
		return err
	}
	defer l.out.Close()

	if l.logger != nil {
		l.logger.Debug("layer started", "layer", l.index, "neurons", len(l.neurons))
	}

	for {
		in, err := l.in.Receive(ctx)
		if err != nil {
			if snnerr.IsClosed(err) {
				if l.logger != nil {
					l.logger.Debug("layer drained", "layer", l.index, "ticks", l.ticks)
				}
				return nil
			}
			return fmt.Errorf("layer %d receive: %w", l.index, err)
		}

		if err := l.inBarrier.Wait(ctx); err != nil {
			return fmt.Errorf("%w: layer %d input barrier: %v", snnerr.ErrChannelFault, l.index, err)
		}

		out, err := l.Tick(in)
		if err != nil {
			return err
		}

		if l.logger != nil {
			l.logger.Log(ctx, logging.LevelTrace, "layer tick", "layer", l.index, "tick", l.ticks, "in", in.String(), "out", out.String())
		}

		if err := l.out.Send(ctx, out); err != nil {
			return fmt.Errorf("layer %d send: %w", l.index, err)
		}

		if err := l.outBarrier.Wait(ctx); err != nil {
			return fmt.Errorf("%w: layer %d output barrier: %v", snnerr.ErrChannelFault, l.index, err)
		}
	}
}
