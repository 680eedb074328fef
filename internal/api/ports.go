// Ports (interfaces) for API server dependencies.
package api

import (
	"context"
	"net/http"

	"github.com/modem-control/mnr/internal/audit"
	"github.com/modem-control/mnr/internal/netreg"
	"github.com/modem-control/mnr/internal/telemetry"
)

// ModemManagerPort defines the minimal interface the API needs from the
// modem manager.
type ModemManagerPort interface {
	List() *netreg.ModemList
	Get(id string) (*netreg.Service, error)
	Active() (string, *netreg.Service, error)
	SetActive(id string) error
}

// TelemetryPort defines the minimal interface the API needs from the
// telemetry hub.
type TelemetryPort interface {
	Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	PublishModem(modemID string, event telemetry.Event)
}

// AuditPort records control actions.
type AuditPort interface {
	LogAction(ctx context.Context, action, modemID string, params map[string]interface{}, err error)
}

// Compile-time assertions for port conformance
var _ ModemManagerPort = (*netreg.Manager)(nil)
var _ TelemetryPort = (*telemetry.Hub)(nil)
var _ AuditPort = (*audit.Logger)(nil)
