// Package network assembles a topology into a runnable pipeline of input
// sources, layers and a sink, and runs it.
//
// Assembly allocates every channel and barrier and validates the graph, so
// a Network that Assemble returns can always be run. Run starts one
// goroutine per stage and blocks until the sink has drained the pipeline.
package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nvandessel/spikenet/internal/barrier"
	"github.com/nvandessel/spikenet/internal/input"
	"github.com/nvandessel/spikenet/internal/layer"
	"github.com/nvandessel/spikenet/internal/neuron"
	"github.com/nvandessel/spikenet/internal/output"
	"github.com/nvandessel/spikenet/internal/topology"
	"github.com/nvandessel/spikenet/internal/wire"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// ErrAlreadyRun is returned by Run on a network that has been run before.
var ErrAlreadyRun = errors.New("network has already run")

// Option configures assembly.
type Option func(*options)

type options struct {
	model    neuron.Model
	logger   *slog.Logger
	maxTicks int
	observer output.Observer
}

// WithModel substitutes the membrane update function. Default: neuron.LIF.
func WithModel(m neuron.Model) Option {
	return func(o *options) { o.model = m }
}

// WithLogger sets the logger handed to every stage.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxTicks stops the simulation after n ticks. Zero means run until the
// inputs are exhausted.
func WithMaxTicks(n int) Option {
	return func(o *options) { o.maxTicks = n }
}

// WithObserver receives every batch reaching the sink.
func WithObserver(obs output.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Network is an assembled, not yet run, pipeline.
type Network struct {
	sources []*input.Source
	layers  []*layer.Layer
	sink    *output.Sink
	ticks   int
	logger  *slog.Logger
	started atomic.Bool
}

// Result is the outcome of a run.
type Result struct {
	// Counts holds the number of spikes each final-layer neuron emitted.
	Counts []int
	// Ticks is the number of batches the sink received.
	Ticks int
	// Truncated is set when the run stopped at the tick limit.
	Truncated bool

	Duration time.Duration
}

// Total returns the sum of Counts.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

// Assemble validates t and wires a runnable network.
func Assemble(t *topology.Topology, opts ...Option) (*Network, error) {
	o := options{model: neuron.LIF}
	for _, opt := range opts {
		opt(&o)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	lines, err := t.ResolveInputs()
	if err != nil {
		return nil, err
	}
	if err := input.CheckLines(lines); err != nil {
		return nil, err
	}
	if err := t.CheckInputWidth(len(lines)); err != nil {
		return nil, err
	}

	n := &Network{logger: o.logger, ticks: len(lines[0])}

	for i, l := range lines {
		src, err := input.NewSource(i, l)
		if err != nil {
			return nil, err
		}
		src.SetLogger(o.logger)
		n.sources = append(n.sources, src)
	}

	for i := range t.Layers {
		l, err := buildLayer(t, i, o.model)
		if err != nil {
			return nil, err
		}
		l.SetLogger(o.logger)
		n.layers = append(n.layers, l)
	}

	last := n.layers[len(n.layers)-1]
	n.sink = output.NewSink(last.Width())
	n.sink.SetMaxTicks(o.maxTicks)
	n.sink.SetObserver(o.observer)
	n.sink.SetLogger(o.logger)

	if err := n.wire(); err != nil {
		return nil, err
	}
	if err := n.check(); err != nil {
		return nil, err
	}
	return n, nil
}

// buildLayer creates the neurons and weight matrices of layer i.
func buildLayer(t *topology.Topology, i int, model neuron.Model) (*layer.Layer, error) {
	spec := t.Layers[i]
	thresholds := t.Thresholds(i)

	neurons := make([]*neuron.Neuron, spec.Neurons)
	for p := range neurons {
		params := neuron.Params{
			Threshold: thresholds[p],
			VRest:     t.VRest,
			VReset:    t.VReset,
			Tau:       t.Tau,
		}
		if err := params.Validate(); err != nil {
			return nil, fmt.Errorf("layer %d neuron %d: %w", i, p, err)
		}
		neurons[p] = neuron.New(p, params, model)
	}

	exc := dense(t.Excitatory(i))
	var inh *mat.Dense
	if len(spec.Inhibitory) > 0 {
		inh = dense(spec.Inhibitory)
	}
	return layer.New(i, neurons, exc, inh, t.AllowSelfInhibition)
}

// dense copies a validated, rectangular row-major matrix into a mat.Dense.
func dense(rows [][]float64) *mat.Dense {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for r, row := range rows {
		m.SetRow(r, row)
	}
	return m
}

// wire allocates channels and barriers. The barrier in front of layer 0 is
// shared by every source and layer 0; each later barrier pairs one stage
// with the next, the last one pairing the final layer with the sink.
func (n *Network) wire() error {
	lines := make([]*wire.Line, len(n.sources))
	front, err := barrier.New(len(n.sources) + 1)
	if err != nil {
		return err
	}
	for i, src := range n.sources {
		lines[i] = wire.NewLine()
		src.Attach(lines[i], front)
	}

	var in wire.Receiver = wire.NewFanIn(lines)
	inBarrier := front
	for _, l := range n.layers {
		out := wire.NewPipe(l.Width())
		outBarrier, err := barrier.New(2)
		if err != nil {
			return err
		}
		if err := l.Attach(in, out, inBarrier, outBarrier); err != nil {
			return err
		}
		in, inBarrier = out, outBarrier
	}
	return n.sink.Attach(in, inBarrier)
}

// check verifies that every stage is fully wired.
func (n *Network) check() error {
	for _, s := range n.sources {
		if err := s.Check(); err != nil {
			return err
		}
	}
	for _, l := range n.layers {
		if err := l.Check(); err != nil {
			return err
		}
	}
	return n.sink.Check()
}

// Layers returns the network's layers. Inspect only before or after Run.
func (n *Network) Layers() []*layer.Layer { return n.layers }

// Sources returns the input sources.
func (n *Network) Sources() []*input.Source { return n.sources }

// InputTicks returns the length of every input sequence.
func (n *Network) InputTicks() int { return n.ticks }

// Run executes the simulation and returns the final layer's spike counts.
// A network runs at most once. A channel fault in any stage aborts every
// stage and is returned instead of a result.
func (n *Network) Run(ctx context.Context) (Result, error) {
	if !n.started.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRun
	}

	start := time.Now()
	if n.logger != nil {
		n.logger.Info("simulation started",
			"inputs", len(n.sources),
			"layers", len(n.layers),
			"ticks", n.ticks)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range n.sources {
		g.Go(func() error { return s.Run(gctx) })
	}
	for _, l := range n.layers {
		g.Go(func() error { return l.Run(gctx) })
	}

	var counts []int
	g.Go(func() error {
		c, err := n.sink.Run(gctx)
		counts = c
		return err
	})

	err := g.Wait()
	res := Result{Counts: counts, Ticks: n.sink.Ticks(), Duration: time.Since(start)}

	switch {
	case errors.Is(err, output.ErrTickLimit):
		res.Truncated = true
	case err != nil:
		if n.logger != nil {
			n.logger.Error("simulation aborted", "error", err, "ticks", res.Ticks)
		}
		return Result{}, err
	}

	if n.logger != nil {
		n.logger.Info("simulation finished",
			"ticks", res.Ticks,
			"spikes", res.Total(),
			"truncated", res.Truncated,
			"duration", res.Duration)
	}
	return res, nil
}
