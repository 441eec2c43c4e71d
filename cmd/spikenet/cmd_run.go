package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/spikenet/internal/logging"
	"github.com/nvandessel/spikenet/internal/network"
	"github.com/nvandessel/spikenet/internal/pathutil"
	"github.com/nvandessel/spikenet/internal/report"
	"github.com/nvandessel/spikenet/internal/spike"
	"github.com/nvandessel/spikenet/internal/store"
	"github.com/nvandessel/spikenet/internal/topology"
	"github.com/spf13/cobra"
)

// runSummary is the JSON shape of a finished run.
type runSummary struct {
	RunID     string `json:"run_id"`
	Topology  string `json:"topology"`
	Ticks     int    `json:"ticks"`
	Counts    []int  `json:"counts"`
	Total     int    `json:"total"`
	Truncated bool   `json:"truncated"`
	Duration  string `json:"duration"`
	Output    string `json:"output,omitempty"`
	Raster    string `json:"raster,omitempty"`
	Recorded  bool   `json:"recorded"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <topology>",
		Short: "Assemble a network and run it to completion",
		Long: `Assemble the network described by a topology file and feed it every
input tick. The final layer's per-neuron spike counts are printed and,
with --output, written one count per line.

Examples:
  spikenet run net.yaml
  spikenet run net.yaml --output counts.txt --raster raster.txt
  spikenet run net.yaml --max-ticks 100 --no-history`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			root, _ := cmd.Flags().GetString("root")
			outputPath, _ := cmd.Flags().GetString("output")
			rasterPath, _ := cmd.Flags().GetString("raster")
			noHistory, _ := cmd.Flags().GetBool("no-history")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			maxTicks := cfg.Simulation.MaxTicks
			if cmd.Flags().Changed("max-ticks") {
				maxTicks, _ = cmd.Flags().GetInt("max-ticks")
				if maxTicks < 0 {
					return fmt.Errorf("--max-ticks must be non-negative, got %d", maxTicks)
				}
			}

			if err := checkOutputPaths(root, outputPath, rasterPath); err != nil {
				return err
			}

			topoPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolving topology path: %w", err)
			}
			topo, err := topology.Load(topoPath)
			if err != nil {
				return err
			}

			historyDir, err := cfg.HistoryDir()
			if err != nil {
				return err
			}
			runID := uuid.NewString()
			logger := newLogger(cmd, cfg).With("run_id", runID)
			events := logging.NewEventLogger(historyDir, cfg.Logging.Level, runID)
			defer events.Close()

			var rec report.Recorder
			observer := func(tick int, b spike.Batch) {
				events.LogTick(tick, b)
				if rasterPath != "" {
					rec.Observe(tick, b)
				}
			}

			n, err := network.Assemble(topo,
				network.WithLogger(logger),
				network.WithMaxTicks(maxTicks),
				network.WithObserver(observer))
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			started := time.Now()
			events.Log(map[string]any{"event": "start", "topology": topoPath, "ticks": n.InputTicks()})
			res, err := n.Run(ctx)
			if err != nil {
				events.Log(map[string]any{"event": "abort", "error": err.Error()})
				return fmt.Errorf("simulation failed: %w", err)
			}
			events.Log(map[string]any{"event": "finish", "ticks": res.Ticks, "spikes": res.Total()})

			if outputPath != "" {
				if err := writeFile(outputPath, func(f *os.File) error { return report.WriteCounts(f, res.Counts) }); err != nil {
					return fmt.Errorf("writing counts: %w", err)
				}
			}
			if rasterPath != "" {
				if err := writeFile(rasterPath, func(f *os.File) error { return rec.WriteRaster(f) }); err != nil {
					return fmt.Errorf("writing raster: %w", err)
				}
			}

			recorded := false
			if cfg.History.Enabled && !noHistory {
				hash, err := topo.Hash()
				if err != nil {
					return err
				}
				if err := recordRun(ctx, historyDir, &store.Run{
					ID:           runID,
					StartedAt:    started,
					TopologyPath: topoPath,
					TopologyHash: hash,
					Ticks:        res.Ticks,
					Counts:       res.Counts,
					Truncated:    res.Truncated,
					Duration:     res.Duration,
				}); err != nil {
					return err
				}
				recorded = true
			}

			summary := runSummary{
				RunID:     runID,
				Topology:  topoPath,
				Ticks:     res.Ticks,
				Counts:    res.Counts,
				Total:     res.Total(),
				Truncated: res.Truncated,
				Duration:  res.Duration.String(),
				Output:    outputPath,
				Raster:    rasterPath,
				Recorded:  recorded,
			}
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			printRunSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().String("output", "", "Write per-neuron spike counts to this file")
	cmd.Flags().String("raster", "", "Write the final layer's per-tick output to this file")
	cmd.Flags().Int("max-ticks", 0, "Stop after this many ticks (0 = unlimited; default from config)")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")

	return cmd
}

// checkOutputPaths rejects output files outside the project root and
// ~/.spikenet.
func checkOutputPaths(root string, paths ...string) error {
	allowed, err := pathutil.AllowedOutputDirs(root)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := pathutil.ValidateOutputPath(p, allowed); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func recordRun(ctx context.Context, dir string, run *store.Run) error {
	s, err := store.NewSQLiteRunStore(dir)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer s.Close()

	if err := s.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// signalContext cancels the returned context on SIGINT/SIGTERM so every
// stage of a running network unwinds.
func signalContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

func printRunSummary(cmd *cobra.Command, s runSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", s.RunID)
	fmt.Fprintf(out, "  topology:  %s\n", pathutil.RedactPath(s.Topology))
	fmt.Fprintf(out, "  ticks:     %d", s.Ticks)
	if s.Truncated {
		fmt.Fprint(out, " (stopped at tick limit)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  spikes:    %d\n", s.Total)
	fmt.Fprintf(out, "  duration:  %s\n", s.Duration)
	for i, c := range s.Counts {
		fmt.Fprintf(out, "  neuron %-3d %d\n", i, c)
	}
	if s.Output != "" {
		fmt.Fprintf(out, "Counts written to %s\n", s.Output)
	}
	if s.Raster != "" {
		fmt.Fprintf(out, "Raster written to %s\n", s.Raster)
	}
}
