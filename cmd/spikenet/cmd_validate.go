package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/spikenet/internal/network"
	"github.com/nvandessel/spikenet/internal/topology"
	"github.com/spf13/cobra"
)

// layerSummary describes one assembled layer.
type layerSummary struct {
	Index      int `json:"index"`
	Neurons    int `json:"neurons"`
	Upstream   int `json:"upstream"`
	Excitatory int `json:"excitatory_synapses"`
	Inhibitory int `json:"inhibitory_synapses"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <topology>",
		Short: "Check that a topology assembles into a runnable network",
		Long: `Validate a topology file without running it.

This command checks for:
  - Weight matrices that disagree with layer sizes
  - Connections that reference missing layers
  - Missing, empty, ragged or malformed input lines

Examples:
  spikenet validate net.yaml
  spikenet validate net.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			topo, err := topology.Load(args[0])
			if err != nil {
				return err
			}
			n, err := network.Assemble(topo)
			if err != nil {
				return err
			}

			layers := make([]layerSummary, 0, len(n.Layers()))
			for _, l := range n.Layers() {
				s := layerSummary{Index: l.Index(), Neurons: l.Width(), Upstream: l.UpstreamWidth()}
				for _, nr := range l.Neurons() {
					s.Excitatory += len(nr.Excitatory())
					s.Inhibitory += len(nr.Inhibitory())
				}
				layers = append(layers, s)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"valid":  true,
					"inputs": len(n.Sources()),
					"ticks":  n.InputTicks(),
					"layers": layers,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Topology is valid: %d inputs, %d ticks, %d layers\n", len(n.Sources()), n.InputTicks(), len(layers))
			for _, s := range layers {
				fmt.Fprintf(out, "  layer %d: %d neurons <- %d upstream (%d excitatory, %d inhibitory synapses)\n",
					s.Index, s.Neurons, s.Upstream, s.Excitatory, s.Inhibitory)
			}
			return nil
		},
	}
}
