package simulation

import (
	"github.com/nvandessel/spikenet/internal/layer"
	"github.com/nvandessel/spikenet/internal/network"
	"github.com/nvandessel/spikenet/internal/neuron"
	"github.com/nvandessel/spikenet/internal/topology"
)

// Scenario defines a complete simulation experiment. Layers form a chain:
// layer 0 reads Inputs, layer i reads layer i-1.
type Scenario struct {
	Name   string
	Inputs []string
	Layers []LayerSpec

	VRest  float64
	VReset float64
	Tau    float64 // 0 = 1.0

	AllowSelfInhibition bool
	MaxTicks            int          // 0 = unlimited
	Model               neuron.Model // nil = neuron.LIF
}

// LayerSpec is a flat builder for one layer. Excitatory is the
// neurons x upstream matrix feeding the layer; Inhibitory is optional.
type LayerSpec struct {
	Threshold  float64
	Thresholds []float64
	Excitatory [][]float64
	Inhibitory [][]float64
}

// ToTopology converts the scenario into the topology the CLI would load.
func (s Scenario) ToTopology() *topology.Topology {
	t := topology.Default()
	t.VRest = s.VRest
	t.VReset = s.VReset
	if s.Tau != 0 {
		t.Tau = s.Tau
	}
	t.AllowSelfInhibition = s.AllowSelfInhibition
	t.Inputs.Lines = append([]string(nil), s.Inputs...)

	for i, ls := range s.Layers {
		spec := topology.LayerSpec{
			Neurons:    len(ls.Excitatory),
			Inhibitory: ls.Inhibitory,
		}
		if len(ls.Thresholds) > 0 {
			spec.Thresholds = ls.Thresholds
		} else {
			thr := ls.Threshold
			spec.Threshold = &thr
		}
		t.Layers = append(t.Layers, spec)
		t.Connections = append(t.Connections, topology.Connection{To: i, Weights: ls.Excitatory})
	}
	return t
}

// options returns the network options the scenario asks for.
func (s Scenario) options() []network.Option {
	var opts []network.Option
	if s.Model != nil {
		opts = append(opts, network.WithModel(s.Model))
	}
	if s.MaxTicks > 0 {
		opts = append(opts, network.WithMaxTicks(s.MaxTicks))
	}
	return opts
}

// SimulationResult captures one run.
type SimulationResult struct {
	Name   string
	RunID  string
	Result network.Result

	// Raster holds the sink's batch for each tick, e.g. "01".
	Raster []string

	// Layers are the layers after the run, for inspecting neuron state.
	Layers []*layer.Layer
}
