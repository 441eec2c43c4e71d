package simulation

import (
	"context"
	"testing"

	"github.com/nvandessel/spikenet/internal/network"
	"github.com/nvandessel/spikenet/internal/report"
	"github.com/nvandessel/spikenet/internal/store"
)

// Runner runs scenarios against real networks and records each successful
// run in an isolated history store.
type Runner struct {
	t     *testing.T
	store *store.SQLiteRunStore
}

// NewRunner creates a simulation runner with an isolated SQLite store
// and sandboxed HOME directory.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	s, err := store.NewSQLiteRunStore(tmpDir)
	if err != nil {
		t.Fatalf("NewRunner: failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return &Runner{t: t, store: s}
}

// Store returns the runner's history store.
func (r *Runner) Store() *store.SQLiteRunStore {
	return r.store
}

// Run executes the scenario and fails the test on any error.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()
	res, err := r.Try(context.Background(), scenario)
	if err != nil {
		r.t.Fatalf("Run(%s): %v", scenario.Name, err)
	}
	return res
}

// Try executes the scenario and returns assembly or run errors to the
// caller.
func (r *Runner) Try(ctx context.Context, scenario Scenario) (SimulationResult, error) {
	r.t.Helper()

	topo := scenario.ToTopology()
	var rec report.Recorder
	opts := append(scenario.options(), network.WithObserver(rec.Observe))

	n, err := network.Assemble(topo, opts...)
	if err != nil {
		return SimulationResult{}, err
	}

	res, err := n.Run(ctx)
	if err != nil {
		return SimulationResult{Layers: n.Layers()}, err
	}

	hash, err := topo.Hash()
	if err != nil {
		r.t.Fatalf("Try(%s): hashing topology: %v", scenario.Name, err)
	}
	run := &store.Run{
		TopologyPath: scenario.Name,
		TopologyHash: hash,
		Ticks:        res.Ticks,
		Counts:       res.Counts,
		Truncated:    res.Truncated,
		Duration:     res.Duration,
	}
	if err := r.store.SaveRun(ctx, run); err != nil {
		r.t.Fatalf("Try(%s): SaveRun: %v", scenario.Name, err)
	}

	return SimulationResult{
		Name:   scenario.Name,
		RunID:  run.ID,
		Result: res,
		Raster: rec.Lines(),
		Layers: n.Layers(),
	}, nil
}
