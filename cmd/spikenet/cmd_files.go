package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvandessel/spikenet/internal/report"
	"github.com/spf13/cobra"
)

func newArrangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "arrange <raster> <inputs>",
		Short: "Transpose a tick-major spike raster into per-input lines",
		Long: `Read a raster with one row per tick and one column per input and write
one line per input, the layout topology input files use.

Examples:
  spikenet arrange data/inputSpikes.txt data/inputs.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			root, _ := cmd.Flags().GetString("root")
			if err := checkOutputPaths(root, args[1]); err != nil {
				return err
			}

			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening raster: %w", err)
			}
			defer in.Close()

			var lines int
			err = writeFile(args[1], func(f *os.File) error {
				var werr error
				lines, werr = report.Arrange(in, f)
				return werr
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"output": args[1],
					"lines":  lines,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d input lines to %s\n", lines, args[1])
			return nil
		},
	}
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <counts-file>",
		Short: "Total the spikes recorded in a counts file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			total, err := report.CountFile(args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"file":  args[0],
					"total": total,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d spikes emitted\n", args[0], total)
			return nil
		},
	}
}
