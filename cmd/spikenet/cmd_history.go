package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/nvandessel/spikenet/internal/pathutil"
	"github.com/nvandessel/spikenet/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded simulation runs",
		Long: `List runs recorded in the history database (~/.spikenet/history.db
unless history.dir is configured), newest first.

Examples:
  spikenet history
  spikenet history --limit 5
  spikenet history show 3f2a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			s, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(context.Background(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"runs":  runs,
					"count": len(runs),
				})
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tTICKS\tSPIKES\tTOPOLOGY")
			for _, r := range runs {
				ticks := fmt.Sprint(r.Ticks)
				if r.Truncated {
					ticks += "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					shortID(r.ID), r.StartedAt.Local().Format("2006-01-02 15:04:05"), ticks, r.Total(), pathutil.RedactPath(r.TopologyPath))
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 = all)")
	cmd.AddCommand(newHistoryShowCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run (ID or unique prefix)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			r, err := s.GetRun(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n", r.ID)
			fmt.Fprintf(out, "  started:   %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "  topology:  %s\n", r.TopologyPath)
			fmt.Fprintf(out, "  hash:      %s\n", r.TopologyHash)
			fmt.Fprintf(out, "  ticks:     %d (truncated: %v)\n", r.Ticks, r.Truncated)
			fmt.Fprintf(out, "  duration:  %s\n", r.Duration)
			fmt.Fprintf(out, "  spikes:    %d\n", r.Total())
			for i, c := range r.Counts {
				fmt.Fprintf(out, "  neuron %-3d %d\n", i, c)
			}
			return nil
		},
	}
}

func openHistory(cmd *cobra.Command) (*store.SQLiteRunStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dir, err := cfg.HistoryDir()
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteRunStore(dir)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
