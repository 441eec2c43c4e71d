// Package simulation provides a scenario test harness for spiking networks.
//
// The harness exercises the real topology validation, network assembly,
// layer workers and the SQLite run store. Scenarios are Go builders that
// describe inline inputs and a chain of layers; results capture the sink's
// spike counts, its per-tick raster and the assembled layers for
// property-based assertions.
//
// Each test gets an isolated SQLite database via t.TempDir() and a sandboxed
// HOME to prevent touching user data.
//
// Usage:
//
//	func TestSingleNeuronFollowsInput(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:   "single-neuron",
//	        Inputs: []string{"101"},
//	        Layers: []simulation.LayerSpec{{Threshold: 1, Excitatory: [][]float64{{2}}}},
//	    })
//	    simulation.AssertRaster(t, result, "1", "0", "1")
//	}
package simulation
