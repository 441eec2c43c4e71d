// Package spike defines the binary event passed between pipeline stages.
package spike

import (
	"fmt"
	"strings"
)

// Spike is a binary output tagged with the position of the neuron (or input
// line) that emitted it. Spikes are immutable and passed by value.
type Spike struct {
	value  int8
	source int
	tagged bool
}

// New returns a spike emitted by the given source position.
func New(value int8, source int) Spike {
	return Spike{value: value, source: source, tagged: true}
}

// Untagged returns a spike with no addressable origin.
func Untagged(value int8) Spike {
	return Spike{value: value}
}

// Value returns 0 or 1.
func (s Spike) Value() int8 { return s.value }

// Fired reports whether the spike carries a 1.
func (s Spike) Fired() bool { return s.value == 1 }

// Source returns the emitting position and whether the spike is tagged.
func (s Spike) Source() (int, bool) { return s.source, s.tagged }

func (s Spike) String() string {
	if !s.tagged {
		return fmt.Sprintf("spike(%d)", s.value)
	}
	return fmt.Sprintf("spike(%d@%d)", s.value, s.source)
}

// Batch holds one tick of spikes from a stage, indexed by source position.
type Batch []Spike

// Zero returns a batch of n non-firing spikes tagged 0..n-1. It is the
// recurrent input a layer sees before it has produced any output.
func Zero(n int) Batch {
	b := make(Batch, n)
	for i := range b {
		b[i] = New(0, i)
	}
	return b
}

// FromValues builds a batch from raw values, tagging each spike with its
// index.
func FromValues(values []int8) Batch {
	b := make(Batch, len(values))
	for i, v := range values {
		b[i] = New(v, i)
	}
	return b
}

// Values returns the batch's spike values in order.
func (b Batch) Values() []int8 {
	out := make([]int8, len(b))
	for i, s := range b {
		out[i] = s.value
	}
	return out
}

// Count returns how many spikes in the batch fired.
func (b Batch) Count() int {
	n := 0
	for _, s := range b {
		if s.Fired() {
			n++
		}
	}
	return n
}

// String renders the batch as a string of 0/1 characters.
func (b Batch) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, s := range b {
		if s.Fired() {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
