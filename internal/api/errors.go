package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/modem-control/mnr/internal/modem"
	"github.com/modem-control/mnr/internal/scan"
)

// WriteOperationError maps a registration-operation error onto the envelope.
func WriteOperationError(w http.ResponseWriter, err error) {
	var radioErr *modem.RadioError
	details := interface{}(nil)
	if errors.As(err, &radioErr) {
		details = map[string]interface{}{"radioCode": radioErr.Code}
	}

	switch {
	case errors.Is(err, modem.ErrNotSupported):
		WriteError(w, http.StatusNotImplemented, "NOT_SUPPORTED",
			"The modem does not support this operation", details)
	case errors.Is(err, scan.ErrSuperseded):
		WriteError(w, http.StatusConflict, "SUPERSEDED",
			"A newer request replaced this one", details)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		WriteError(w, http.StatusGatewayTimeout, "TIMEOUT",
			"The operation did not complete in time", details)
	case errors.Is(err, modem.ErrFailure):
		WriteError(w, http.StatusBadGateway, "FAILURE",
			"The modem reported a failure", details)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL",
			"Internal server error", details)
	}
}
