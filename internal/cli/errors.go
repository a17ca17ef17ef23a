package cli

import (
	"errors"

	"github.com/dtroode/signvault/internal/model"
	"github.com/dtroode/signvault/internal/service"
)

// ErrVerificationFailed is returned by file verify for any verdict other than intact.
var ErrVerificationFailed = errors.New("verification failed")

// Process exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitRejected     = 2
	ExitUnauthorized = 3
	ExitNotFound     = 4
	ExitUnverified   = 5
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return ExitRejected
	case errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, ErrPasswordChangeRequired),
		errors.Is(err, errInvalidCredentials):
		return ExitUnauthorized
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrFileNotFound):
		return ExitNotFound
	case errors.Is(err, ErrVerificationFailed):
		return ExitUnverified
	default:
		return ExitFailure
	}
}
