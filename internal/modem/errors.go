package modem

import (
	"errors"
	"fmt"
)

// Raw radio status codes as reported in request completions.
const (
	CodeNone = iota
	CodeGenericFailure
	CodeRequestNotSupported
	CodeOperationNotAllowed
	CodeInvalidArguments
	CodeModemError
	CodeInternalError
	CodeCancelled
	CodeRadioNotAvailable
)

// Normalized errors. Everything the transport can report collapses to one of
// these; callers branch on ErrNotSupported for the scan fallback and treat
// the rest as a generic failure scoped to the pending operation.
var (
	ErrFailure      = errors.New("FAILURE")
	ErrNotSupported = errors.New("NOT_SUPPORTED")
)

// codeMappings is the deterministic raw-code to normalized-error table.
// Unknown codes map to ErrFailure.
var codeMappings = map[int]error{
	CodeGenericFailure:      ErrFailure,
	CodeRequestNotSupported: ErrNotSupported,
	CodeOperationNotAllowed: ErrNotSupported,
	CodeInvalidArguments:    ErrFailure,
	CodeModemError:          ErrFailure,
	CodeInternalError:       ErrFailure,
	CodeCancelled:           ErrFailure,
	CodeRadioNotAvailable:   ErrFailure,
}

// RadioError wraps a raw radio status code with its normalized class.
type RadioError struct {
	Code int   // raw radio status code
	Norm error // normalized class
}

func (e *RadioError) Error() string {
	return fmt.Sprintf("%v (radio code %d)", e.Norm, e.Code)
}

func (e *RadioError) Unwrap() error {
	return e.Norm
}

// ErrorFromCode maps a raw radio status code to a wrapped normalized error.
// Returns nil for CodeNone.
func ErrorFromCode(code int) error {
	if code == CodeNone {
		return nil
	}
	norm, ok := codeMappings[code]
	if !ok {
		norm = ErrFailure
	}
	return &RadioError{Code: code, Norm: norm}
}
