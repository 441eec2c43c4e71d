// Package neuron implements the leaky integrate-and-fire state machine run
// by each layer worker.
//
// A Neuron is owned by exactly one layer goroutine; none of its methods are
// safe for concurrent use and none need to be.
package neuron

import (
	"fmt"
	"math"

	"github.com/nvandessel/spikenet/internal/snnerr"
	"github.com/nvandessel/spikenet/internal/spike"
	"github.com/nvandessel/spikenet/internal/synapse"
)

// Params holds the membrane constants of a neuron.
type Params struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	VRest     float64 `json:"v_rest" yaml:"v_rest"`
	VReset    float64 `json:"v_reset" yaml:"v_reset"`
	Tau       float64 `json:"tau" yaml:"tau"`
}

// Validate checks that the constants describe a usable membrane.
func (p Params) Validate() error {
	for name, v := range map[string]float64{
		"threshold": p.Threshold,
		"v_rest":    p.VRest,
		"v_reset":   p.VReset,
		"tau":       p.Tau,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", snnerr.ErrConfig, name, v)
		}
	}
	if p.Tau <= 0 {
		return fmt.Errorf("%w: tau must be positive, got %v", snnerr.ErrConfig, p.Tau)
	}
	return nil
}

// State names the phase of the membrane after the most recent tick.
type State int

const (
	Resting     State = iota // v_mem == v_rest, never stimulated
	Integrating              // accumulating below threshold
	Fired                    // crossed threshold and reset on the last tick
)

func (s State) String() string {
	switch s {
	case Resting:
		return "resting"
	case Integrating:
		return "integrating"
	case Fired:
		return "fired"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Neuron is a single LIF unit at a stable position within its layer.
type Neuron struct {
	params   Params
	model    Model
	position int

	excitatory []synapse.Synapse
	inhibitory []synapse.Synapse

	vMem     float64
	lastFire int
	tick     int
	state    State

	// reused across ticks to avoid a per-tick allocation
	contributions []float64
}

// New returns a resting neuron. A nil model selects LIF.
func New(position int, params Params, model Model) *Neuron {
	if model == nil {
		model = LIF
	}
	return &Neuron{
		params:   params,
		model:    model,
		position: position,
		vMem:     params.VRest,
		state:    Resting,
	}
}

// Connect sets the inbound synapses: excitatory ones read the upstream batch,
// inhibitory ones read the layer's own previous-tick output.
func (n *Neuron) Connect(excitatory, inhibitory []synapse.Synapse) {
	n.excitatory = excitatory
	n.inhibitory = inhibitory
	n.contributions = make([]float64, 0, len(excitatory)+len(inhibitory))
}

// Position returns the neuron's index within its layer.
func (n *Neuron) Position() int { return n.position }

// Params returns the neuron's membrane constants.
func (n *Neuron) Params() Params { return n.params }

// VMem returns the current membrane potential.
func (n *Neuron) VMem() float64 { return n.vMem }

// LastFire returns the local tick of the most recent firing, 0 if never.
func (n *Neuron) LastFire() int { return n.lastFire }

// Tick returns the number of ticks processed.
func (n *Neuron) Tick() int { return n.tick }

// State returns the phase after the most recent tick.
func (n *Neuron) State() State { return n.state }

// Excitatory returns the feed-forward synapses.
func (n *Neuron) Excitatory() []synapse.Synapse { return n.excitatory }

// Inhibitory returns the recurrent synapses.
func (n *Neuron) Inhibitory() []synapse.Synapse { return n.inhibitory }

// Reset restores the resting state and clears the tick counters.
func (n *Neuron) Reset() {
	n.vMem = n.params.VRest
	n.lastFire = 0
	n.tick = 0
	n.state = Resting
}

// Step advances the neuron one tick with the given nonzero contributions.
//
// A tick with no contributions is a no-op on the membrane: the model is not
// evaluated and the neuron emits 0. This holds for every neuron; decay is
// applied lazily the next time input arrives, measured from the last firing.
func (n *Neuron) Step(contributions []float64) spike.Spike {
	n.tick++

	if len(contributions) == 0 {
		if n.state == Fired {
			n.state = Integrating
		}
		return spike.New(0, n.position)
	}

	v := n.model(n.tick, n.lastFire, n.params.VRest, n.vMem, n.params.Tau, contributions)
	if v > n.params.Threshold {
		n.vMem = n.params.VReset
		n.lastFire = n.tick
		n.state = Fired
		return spike.New(1, n.position)
	}

	n.vMem = v
	n.state = Integrating
	return spike.New(0, n.position)
}

// Integrate gathers this tick's contributions from the upstream batch and the
// layer's previous output, then steps the neuron.
func (n *Neuron) Integrate(in, previous spike.Batch) (spike.Spike, error) {
	n.contributions = n.contributions[:0]
	for _, s := range n.excitatory {
		v, ok, err := s.Receive(in)
		if err != nil {
			return spike.Spike{}, fmt.Errorf("neuron %d excitatory: %w", n.position, err)
		}
		if ok {
			n.contributions = append(n.contributions, v)
		}
	}
	for _, s := range n.inhibitory {
		v, ok, err := s.Receive(previous)
		if err != nil {
			return spike.Spike{}, fmt.Errorf("neuron %d inhibitory: %w", n.position, err)
		}
		if ok {
			n.contributions = append(n.contributions, v)
		}
	}
	return n.Step(n.contributions), nil
}
