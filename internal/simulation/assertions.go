package simulation

import (
	"slices"
	"testing"
)

// AssertCounts asserts the final layer's per-neuron spike counts.
func AssertCounts(t *testing.T, result SimulationResult, want ...int) {
	t.Helper()
	if !slices.Equal(result.Result.Counts, want) {
		t.Errorf("AssertCounts: %s: counts = %v, want %v", result.Name, result.Result.Counts, want)
	}
}

// AssertRaster asserts the sink's batch on every tick.
func AssertRaster(t *testing.T, result SimulationResult, want ...string) {
	t.Helper()
	if !slices.Equal(result.Raster, want) {
		t.Errorf("AssertRaster: %s: raster = %v, want %v", result.Name, result.Raster, want)
	}
}

// AssertSinkTicks asserts the sink consumed exactly k batches.
func AssertSinkTicks(t *testing.T, result SimulationResult, k int) {
	t.Helper()
	if result.Result.Ticks != k {
		t.Errorf("AssertSinkTicks: %s: sink ticks = %d, want %d", result.Name, result.Result.Ticks, k)
	}
	if len(result.Raster) != k {
		t.Errorf("AssertSinkTicks: %s: raster has %d rows, want %d", result.Name, len(result.Raster), k)
	}
}

// AssertLockStep asserts that every neuron of every layer advanced exactly
// ticks times.
func AssertLockStep(t *testing.T, result SimulationResult, ticks int) {
	t.Helper()
	for _, l := range result.Layers {
		if l.Ticks() != ticks {
			t.Errorf("AssertLockStep: %s: layer %d ticked %d times, want %d", result.Name, l.Index(), l.Ticks(), ticks)
		}
		for _, n := range l.Neurons() {
			if n.Tick() != ticks {
				t.Errorf("AssertLockStep: %s: layer %d neuron %d at tick %d, want %d", result.Name, l.Index(), n.Position(), n.Tick(), ticks)
			}
		}
	}
}

// AssertNeverCoFire asserts output neurons a and b never both fire on a
// tick at or after fromTick (1-based).
func AssertNeverCoFire(t *testing.T, result SimulationResult, a, b, fromTick int) {
	t.Helper()
	for i, row := range result.Raster {
		tick := i + 1
		if tick < fromTick || a >= len(row) || b >= len(row) {
			continue
		}
		if row[a] == '1' && row[b] == '1' {
			t.Errorf("AssertNeverCoFire: %s: neurons %d and %d both fired on tick %d (%s)", result.Name, a, b, tick, row)
		}
	}
}

// AssertSilent asserts no output neuron ever fired.
func AssertSilent(t *testing.T, result SimulationResult) {
	t.Helper()
	if total := result.Result.Total(); total != 0 {
		t.Errorf("AssertSilent: %s: %d spikes emitted, want none (raster %v)", result.Name, total, result.Raster)
	}
}
