package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/spikenet/internal/network"
	"github.com/nvandessel/spikenet/internal/topology"
	"github.com/nvandessel/spikenet/internal/visualization"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <topology>",
		Short: "Render the assembled network",
		Long: `Render the synapses of an assembled network.

Examples:
  spikenet graph net.yaml | dot -Tsvg > net.svg
  spikenet graph net.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			formatStr, _ := cmd.Flags().GetString("format")
			if jsonOut {
				formatStr = string(visualization.FormatJSON)
			}
			format, err := visualization.ParseFormat(formatStr)
			if err != nil {
				return err
			}

			topo, err := topology.Load(args[0])
			if err != nil {
				return err
			}
			n, err := network.Assemble(topo)
			if err != nil {
				return err
			}
			g := visualization.Build(n)

			if format == visualization.FormatJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(g)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), visualization.RenderDOT(g))
			return err
		},
	}

	cmd.Flags().String("format", "dot", "Output format: dot or json")

	return cmd
}
