package topology

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvandessel/spikenet/internal/snnerr"
)

const twoLayerYAML = `
v_rest: 0.0
v_reset: -0.1
tau: 2.0
inputs:
  files: [inputs.txt]
  lines: ["0101"]
layers:
  - neurons: 2
    threshold: 1.0
    inhibitory: [[0, -5], [-5, 0]]
  - neurons: 1
    thresholds: [0.5]
connections:
  - to: 0
    weights: [[2, 0, 1], [0, 2, 1]]
  - to: 1
    weights: [[1, 1]]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func ptr(f float64) *float64 { return &f }

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inputs.txt", "1100\n0011\n")
	path := writeFile(t, dir, "net.yaml", twoLayerYAML)

	topo, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if topo.Tau != 2.0 || topo.VReset != -0.1 {
		t.Errorf("membrane constants = %+v", topo)
	}
	if err := topo.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	lines, err := topo.ResolveInputs()
	if err != nil {
		t.Fatalf("ResolveInputs: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d input lines, want 3", len(lines))
	}
	if lines[2][1] != 1 {
		t.Errorf("inline line not appended after files: %v", lines[2])
	}
	if err := topo.CheckInputWidth(len(lines)); err != nil {
		t.Errorf("CheckInputWidth: %v", err)
	}
}

func TestParse_JSON(t *testing.T) {
	doc := `{"tau": 1.5, "inputs": {"lines": ["1"]}, "layers": [{"neurons": 1, "threshold": 1}], "connections": [{"to": 0, "weights": [[2]]}]}`
	topo, err := Parse([]byte(doc), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if topo.Tau != 1.5 {
		t.Errorf("Tau = %v, want 1.5", topo.Tau)
	}
	if err := topo.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParse_Defaults(t *testing.T) {
	topo, err := Parse([]byte("layers: []\n"), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if topo.Tau != 1.0 {
		t.Errorf("default Tau = %v, want 1.0", topo.Tau)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, snnerr.ErrConfig) {
		t.Errorf("missing file: expected ErrConfig, got %v", err)
	}

	bad := writeFile(t, dir, "bad.yaml", "layers: [neurons: {")
	if _, err := Load(bad); !errors.Is(err, snnerr.ErrConfig) {
		t.Errorf("unparsable file: expected ErrConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Topology {
		return &Topology{
			Tau: 1,
			Layers: []LayerSpec{
				{Neurons: 2, Threshold: ptr(1)},
				{Neurons: 1, Thresholds: []float64{1}},
			},
			Connections: []Connection{
				{To: 0, Weights: [][]float64{{1}, {1}}},
				{To: 1, Weights: [][]float64{{1, 1}}},
			},
		}
	}

	tests := []struct {
		name       string
		mutate     func(*Topology)
		wantErr    error
		wantSubErr error
	}{
		{"valid", func(*Topology) {}, nil, nil},
		{"no layers", func(t *Topology) { t.Layers = nil }, snnerr.ErrConfig, nil},
		{"zero tau", func(t *Topology) { t.Tau = 0 }, snnerr.ErrConfig, nil},
		{"zero neurons", func(t *Topology) { t.Layers[1].Neurons = 0 }, snnerr.ErrConfig, nil},
		{"missing threshold", func(t *Topology) { t.Layers[0].Threshold = nil }, snnerr.ErrConfig, nil},
		{"threshold count", func(t *Topology) { t.Layers[1].Thresholds = []float64{1, 2} }, snnerr.ErrConfig, nil},
		{"inhibitory shape", func(t *Topology) { t.Layers[0].Inhibitory = [][]float64{{0, 1}} }, snnerr.ErrConfig, nil},
		{"excitatory shape", func(t *Topology) { t.Connections[1].Weights = [][]float64{{1}} }, snnerr.ErrConfig, nil},
		{"layer out of range", func(t *Topology) { t.Connections[1].To = 5 }, snnerr.ErrConfig, snnerr.ErrIndexOutOfRange},
		{"duplicate connection", func(t *Topology) { t.Connections[1].To = 0 }, snnerr.ErrConfig, nil},
		{"unconnected layer", func(t *Topology) { t.Connections = t.Connections[:1] }, snnerr.ErrConfig, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo := valid()
			tt.mutate(topo)
			err := topo.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantSubErr != nil && !errors.Is(err, tt.wantSubErr) {
				t.Fatalf("expected %v in chain, got %v", tt.wantSubErr, err)
			}
		})
	}
}

func TestThresholds(t *testing.T) {
	topo := &Topology{Layers: []LayerSpec{
		{Neurons: 3, Threshold: ptr(0.7)},
		{Neurons: 2, Threshold: ptr(9), Thresholds: []float64{1, 2}},
	}}

	got := topo.Thresholds(0)
	if len(got) != 3 || got[2] != 0.7 {
		t.Errorf("scalar threshold expansion = %v", got)
	}
	got = topo.Thresholds(1)
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("per-neuron thresholds should win, got %v", got)
	}
}

func TestHash_Stable(t *testing.T) {
	a, _ := Parse([]byte(twoLayerYAML), "")
	b, _ := Parse([]byte(twoLayerYAML), "/elsewhere")

	ha, err := a.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	hb, _ := b.Hash()
	if ha != hb {
		t.Errorf("hash depends on directory: %s vs %s", ha, hb)
	}

	b.Tau = 3
	hc, _ := b.Hash()
	if hc == ha {
		t.Error("hash did not change with content")
	}
}
