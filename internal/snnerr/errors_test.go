package snnerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"closed", ErrChannelClosed, true},
		{"wrapped closed", fmt.Errorf("layer 1 receive: %w", ErrChannelClosed), true},
		{"fault", ErrChannelFault, false},
		{"wrapped fault", fmt.Errorf("%w: send aborted", ErrChannelFault), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClosed(tt.err); got != tt.want {
				t.Errorf("IsClosed(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	all := []error{ErrEmptyInputSet, ErrUnwired, ErrIndexOutOfRange, ErrChannelClosed, ErrChannelFault, ErrMalformedInput, ErrConfig}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v matches %v", a, b)
			}
		}
	}
}
