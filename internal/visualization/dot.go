// Package visualization renders assembled networks in various output formats.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/spikenet/internal/network"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatDOT, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: dot, json)", s)
	}
}

// Node is an input source or a neuron.
type Node struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"` // "input" or "neuron"
	Layer     int      `json:"layer"`
	Position  int      `json:"position"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// Edge is one synapse.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Kind   string  `json:"kind"` // "excitatory" or "inhibitory"
	Weight float64 `json:"weight"`
}

// Graph is the node/edge view of a network.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

func inputID(i int) string     { return fmt.Sprintf("in%d", i) }
func neuronID(l, p int) string { return fmt.Sprintf("L%dN%d", l, p) }

// Build walks the assembled network. Layer 0's excitatory synapses start at
// input nodes, later layers' at the previous layer's neurons.
func Build(n *network.Network) Graph {
	var g Graph
	for i := range n.Sources() {
		g.Nodes = append(g.Nodes, Node{ID: inputID(i), Kind: "input", Layer: -1, Position: i})
	}

	for _, l := range n.Layers() {
		li := l.Index()
		for _, nr := range l.Neurons() {
			thr := nr.Params().Threshold
			id := neuronID(li, nr.Position())
			g.Nodes = append(g.Nodes, Node{ID: id, Kind: "neuron", Layer: li, Position: nr.Position(), Threshold: &thr})

			for _, s := range nr.Excitatory() {
				src := inputID(s.Source())
				if li > 0 {
					src = neuronID(li-1, s.Source())
				}
				g.Edges = append(g.Edges, Edge{Source: src, Target: id, Kind: "excitatory", Weight: s.Weight()})
			}
			for _, s := range nr.Inhibitory() {
				g.Edges = append(g.Edges, Edge{Source: neuronID(li, s.Source()), Target: id, Kind: "inhibitory", Weight: s.Weight()})
			}
		}
	}
	return g
}

// RenderDOT produces a Graphviz DOT representation of g, one cluster per
// layer.
func RenderDOT(g Graph) string {
	var b strings.Builder
	b.WriteString("digraph spikenet {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	layer := -2
	for _, n := range g.Nodes {
		if n.Layer != layer {
			if layer != -2 {
				b.WriteString("  }\n")
			}
			layer = n.Layer
			if layer < 0 {
				b.WriteString("  subgraph cluster_inputs {\n    label=\"inputs\";\n")
			} else {
				fmt.Fprintf(&b, "  subgraph cluster_layer%d {\n    label=\"layer %d\";\n", layer, layer)
			}
		}
		if n.Kind == "input" {
			fmt.Fprintf(&b, "    %q [shape=box, fillcolor=\"lightgray\"];\n", n.ID)
			continue
		}
		fmt.Fprintf(&b, "    %q [fillcolor=\"steelblue\", tooltip=\"threshold=%.2f\"];\n", n.ID, *n.Threshold)
	}
	if layer != -2 {
		b.WriteString("  }\n")
	}
	b.WriteString("\n")

	for _, e := range g.Edges {
		style, color := "solid", "black"
		if e.Kind == "inhibitory" {
			style, color = "dashed", "tomato"
		}
		fmt.Fprintf(&b, "  %q -> %q [label=\"%.2f\", style=%s, color=%q];\n", e.Source, e.Target, e.Weight, style, color)
	}

	b.WriteString("}\n")
	return b.String()
}
