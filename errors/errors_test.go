package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRejection(t *testing.T) {
	tests := []struct {
		description string
		err         error
		want        bool
	}{
		{"Should flag a missing game", fmt.Errorf("%w: 1:42", ErrSessionNotFound), true},
		{"Should flag a vote after reveal", ErrAlreadyRevealed, true},
		{"Should flag a non initiator", fmt.Errorf("%w: reveal by 2", ErrNotAuthorized), true},
		{"Should flag a malformed callback", fmt.Errorf("%w: %q", ErrMalformedCallback, "garbage"), true},
		{"Should flag an unknown command", ErrUnknownCommand, true},
		{"Should not flag a transport failure", fmt.Errorf("%w: timeout", ErrTransport), false},
		{"Should not flag a panic", ErrWorkerPanic, false},
		{"Should not flag nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require.Equal(t, tt.want, IsRejection(tt.err))
		})
	}
}
