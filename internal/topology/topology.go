// Package topology loads and validates the network description consumed by
// the assembler. Files are YAML; JSON documents parse unchanged.
package topology

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/spikenet/internal/input"
	"github.com/nvandessel/spikenet/internal/pathutil"
	"github.com/nvandessel/spikenet/internal/snnerr"
	"gopkg.in/yaml.v3"
)

// Topology is a fully-resolved network description.
type Topology struct {
	// VRest, VReset and Tau are shared by every neuron.
	VRest  float64 `json:"v_rest" yaml:"v_rest"`
	VReset float64 `json:"v_reset" yaml:"v_reset"`
	Tau    float64 `json:"tau" yaml:"tau"`

	// AllowSelfInhibition wires the diagonal of each inhibitory matrix.
	// When false, inhibitory[p][p] is ignored.
	AllowSelfInhibition bool `json:"allow_self_inhibition" yaml:"allow_self_inhibition"`

	Inputs      Inputs       `json:"inputs" yaml:"inputs"`
	Layers      []LayerSpec  `json:"layers" yaml:"layers"`
	Connections []Connection `json:"connections" yaml:"connections"`

	// dir resolves relative input file paths.
	dir string
}

// Inputs lists the spike sequences fed into layer 0.
type Inputs struct {
	// Files are read with input.ReadFile; each may hold several lines.
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`

	// Delimiter separates input lines in Files. Default: newline.
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`

	// Lines are inline input lines such as "10110", appended after Files.
	Lines []string `json:"lines,omitempty" yaml:"lines,omitempty"`
}

// LayerSpec describes one layer.
type LayerSpec struct {
	Neurons int `json:"neurons" yaml:"neurons"`

	// Threshold applies to every neuron unless Thresholds is set.
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	// Thresholds gives one threshold per neuron.
	Thresholds []float64 `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`

	// Inhibitory is the neurons x neurons recurrent matrix. Empty means no
	// recurrent inhibition.
	Inhibitory [][]float64 `json:"inhibitory,omitempty" yaml:"inhibitory,omitempty"`
}

// Connection is the excitatory matrix feeding layer To from its upstream
// stage (the inputs for layer 0, layer To-1 otherwise).
type Connection struct {
	To      int         `json:"to" yaml:"to"`
	Weights [][]float64 `json:"weights" yaml:"weights"`
}

// Default returns an empty topology with the default membrane constants.
func Default() *Topology {
	return &Topology{
		VRest:  0,
		VReset: 0,
		Tau:    1.0,
	}
}

// Load reads a topology file. Relative input paths resolve against the
// file's directory.
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading topology %s: %v", snnerr.ErrConfig, pathutil.RedactPath(path), err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a topology document. dir resolves relative input paths.
func Parse(data []byte, dir string) (*Topology, error) {
	t := Default()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("%w: parsing topology: %v", snnerr.ErrConfig, err)
	}
	t.dir = dir
	return t, nil
}

// SetDir sets the directory relative input paths resolve against.
func (t *Topology) SetDir(dir string) { t.dir = dir }

// Validate checks the topology's internal consistency. Input widths are
// checked once the inputs are resolved.
func (t *Topology) Validate() error {
	if len(t.Layers) == 0 {
		return fmt.Errorf("%w: topology has no layers", snnerr.ErrConfig)
	}
	if t.Tau <= 0 {
		return fmt.Errorf("%w: tau must be positive, got %v", snnerr.ErrConfig, t.Tau)
	}

	seen := make(map[int]bool, len(t.Connections))
	for i, c := range t.Connections {
		if c.To < 0 || c.To >= len(t.Layers) {
			return fmt.Errorf("%w: %w: connection %d targets layer %d, have %d layers", snnerr.ErrConfig, snnerr.ErrIndexOutOfRange, i, c.To, len(t.Layers))
		}
		if seen[c.To] {
			return fmt.Errorf("%w: layer %d has more than one incoming connection", snnerr.ErrConfig, c.To)
		}
		seen[c.To] = true
	}

	for i, l := range t.Layers {
		if l.Neurons <= 0 {
			return fmt.Errorf("%w: layer %d must have at least one neuron, got %d", snnerr.ErrConfig, i, l.Neurons)
		}
		if !seen[i] {
			return fmt.Errorf("%w: layer %d has no incoming connection", snnerr.ErrConfig, i)
		}
		if l.Threshold == nil && len(l.Thresholds) == 0 {
			return fmt.Errorf("%w: layer %d has no threshold", snnerr.ErrConfig, i)
		}
		if len(l.Thresholds) > 0 && len(l.Thresholds) != l.Neurons {
			return fmt.Errorf("%w: layer %d has %d thresholds for %d neurons", snnerr.ErrConfig, i, len(l.Thresholds), l.Neurons)
		}
		if len(l.Inhibitory) > 0 {
			if err := checkShape(l.Inhibitory, l.Neurons, l.Neurons); err != nil {
				return fmt.Errorf("%w: layer %d inhibitory: %v", snnerr.ErrConfig, i, err)
			}
		}
		if i > 0 {
			exc := t.Excitatory(i)
			if err := checkShape(exc, l.Neurons, t.Layers[i-1].Neurons); err != nil {
				return fmt.Errorf("%w: connection into layer %d: %v", snnerr.ErrConfig, i, err)
			}
		}
	}
	return nil
}

// CheckInputWidth verifies that the layer 0 connection matches the number
// of resolved input lines.
func (t *Topology) CheckInputWidth(inputs int) error {
	if len(t.Layers) == 0 {
		return fmt.Errorf("%w: topology has no layers", snnerr.ErrConfig)
	}
	if err := checkShape(t.Excitatory(0), t.Layers[0].Neurons, inputs); err != nil {
		return fmt.Errorf("%w: connection into layer 0: %v", snnerr.ErrConfig, err)
	}
	return nil
}

// Thresholds returns the per-neuron thresholds of layer i.
func (t *Topology) Thresholds(i int) []float64 {
	l := t.Layers[i]
	if len(l.Thresholds) > 0 {
		return l.Thresholds
	}
	out := make([]float64, l.Neurons)
	for n := range out {
		out[n] = *l.Threshold
	}
	return out
}

// Excitatory returns the weights of the connection into layer i, or nil.
func (t *Topology) Excitatory(i int) [][]float64 {
	for _, c := range t.Connections {
		if c.To == i {
			return c.Weights
		}
	}
	return nil
}

// ResolveInputs reads Files in order then appends the inline Lines.
func (t *Topology) ResolveInputs() ([][]int8, error) {
	var lines [][]int8
	for _, f := range t.Inputs.Files {
		path := f
		if !filepath.IsAbs(path) && t.dir != "" {
			path = filepath.Join(t.dir, path)
		}
		ls, err := input.ReadFile(path, t.Inputs.Delimiter)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ls...)
	}
	for i, s := range t.Inputs.Lines {
		l, err := input.ParseLine(s)
		if err != nil {
			return nil, fmt.Errorf("inline input %d: %w", i, err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// Hash returns a stable digest of the topology's content.
func (t *Topology) Hash() (string, error) {
	data, err := yaml.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("hashing topology: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// checkShape verifies m is rows x cols.
func checkShape(m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("matrix has %d rows, want %d", len(m), rows)
	}
	for r, row := range m {
		if len(row) != cols {
			return fmt.Errorf("row %d has %d columns, want %d", r, len(row), cols)
		}
	}
	return nil
}
