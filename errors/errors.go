package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrSessionNotFound     = fmt.Errorf("game not found")
	ErrAlreadyRevealed     = fmt.Errorf("game already revealed")
	ErrNotAuthorized       = fmt.Errorf("operation is available only for initiator")
	ErrMalformedCallback   = fmt.Errorf("malformed callback data")
	ErrNotModified         = fmt.Errorf("message is not modified")
	ErrTransport           = fmt.Errorf("transport failure")
	ErrUnknownCommand      = fmt.Errorf("unknown command")
	ErrInvalidConfig       = fmt.Errorf("invalid configuration")
	ErrOrchestratorStopped = fmt.Errorf("orchestrator stopped")
)

// IsRejection reports whether err is an expected refusal of a user action,
// as opposed to an infrastructure failure.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrSessionNotFound, ErrAlreadyRevealed, ErrNotAuthorized,
		ErrMalformedCallback, ErrUnknownCommand,
	} {
		if stderrors.Is(err, target) {
			return true
		}
	}
	return false
}
