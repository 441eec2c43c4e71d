// Package snnerr defines the error taxonomy shared by every simulation stage.
//
// Callers match with errors.Is; stages wrap a sentinel with context using
// fmt.Errorf("%w: ...").
package snnerr

import "errors"

var (
	// ErrEmptyInputSet is returned when a network has no input sources, or
	// when every input line is empty.
	ErrEmptyInputSet = errors.New("empty input set")

	// ErrUnwired is returned when a stage is run before its channel
	// endpoints and barriers are attached.
	ErrUnwired = errors.New("stage not wired")

	// ErrIndexOutOfRange is returned when a synapse or sender references a
	// neuron position beyond the layer.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrChannelClosed signals expected end-of-stream. Stages handle it
	// locally and never surface it to the user.
	ErrChannelClosed = errors.New("channel closed")

	// ErrChannelFault is an unexpected send/receive failure. It aborts the
	// whole simulation.
	ErrChannelFault = errors.New("channel fault")

	// ErrMalformedInput is returned when an input sequence contains a value
	// outside {0,1}.
	ErrMalformedInput = errors.New("malformed input")

	// ErrConfig is returned for a missing, unparsable or inconsistent
	// topology.
	ErrConfig = errors.New("config error")
)

// IsClosed reports whether err is the end-of-stream signal.
func IsClosed(err error) bool {
	return errors.Is(err, ErrChannelClosed)
}
