package modem

import (
	"time"

	"github.com/google/uuid"
)

// Negotiated protocol versions. The channel reports the highest revision both
// ends support; request families are gated on it.
const (
	// VersionBase supports registration, the legacy operator query and
	// signal-strength polling.
	VersionBase = 1

	// VersionNetworkScan adds the incremental network scan.
	VersionNetworkScan = 2

	// VersionScanType adds per-mode access-network tags on scan specifiers
	// and the preferred-access-network hint on manual registration.
	VersionScanType = 5
)

// RequestKind identifies a request family.
type RequestKind int

const (
	ReqRegisterAuto RequestKind = iota
	ReqRegisterManual
	ReqCurrentOperator
	ReqAvailableOperators
	ReqStartNetworkScan
	ReqStopNetworkScan
	ReqSignalStrength
)

var requestKindNames = map[RequestKind]string{
	ReqRegisterAuto:       "registerAuto",
	ReqRegisterManual:     "registerManual",
	ReqCurrentOperator:    "currentOperator",
	ReqAvailableOperators: "availableOperators",
	ReqStartNetworkScan:   "startNetworkScan",
	ReqStopNetworkScan:    "stopNetworkScan",
	ReqSignalStrength:     "signalStrength",
}

func (k RequestKind) String() string {
	if s, ok := requestKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Request is a single outbound operation. Params carries the request-family
// payload (RegisterManualParams, ScanRequest, ...). Timeout is advisory for
// the transport; callers that need a hard deadline arm their own timer.
type Request struct {
	Kind    RequestKind
	Params  interface{}
	Timeout time.Duration
}

// Result is the completion of an accepted request. Code is the raw radio
// status code; Payload carries the decoded response record when Code is
// CodeNone.
type Result struct {
	Code    int
	Payload interface{}
}

// OK reports whether the request completed successfully.
func (r Result) OK() bool {
	return r.Code == CodeNone
}

// Err returns the normalized error for the result, nil on success.
func (r Result) Err() error {
	if r.Code == CodeNone {
		return nil
	}
	return ErrorFromCode(r.Code)
}

// Completion receives the result of an accepted request. Channels invoke it
// on the subsystem event loop, never synchronously from Submit.
type Completion func(Result)

// Handle identifies an accepted in-flight request.
type Handle struct {
	ID uuid.UUID
}

// NoHandle is the zero handle.
var NoHandle = Handle{}

// Valid reports whether the handle refers to an accepted request.
func (h Handle) Valid() bool {
	return h.ID != uuid.Nil
}

// NewHandle mints a fresh handle. Intended for channel implementations.
func NewHandle() Handle {
	return Handle{ID: uuid.New()}
}

// IndicationKind identifies an unsolicited indication.
type IndicationKind int

const (
	IndVoiceRegState IndicationKind = iota
	IndDataRegState
	IndSignalStrength
	IndNetworkScanResult
	IndNetworkTime
	IndModemReset
)

var indicationKindNames = map[IndicationKind]string{
	IndVoiceRegState:     "voiceRegState",
	IndDataRegState:      "dataRegState",
	IndSignalStrength:    "signalStrength",
	IndNetworkScanResult: "networkScanResult",
	IndNetworkTime:       "networkTime",
	IndModemReset:        "modemReset",
}

func (k IndicationKind) String() string {
	if s, ok := indicationKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Indication is an unsolicited event from the modem. Payload depends on Kind:
// RegState for the registration kinds, SignalReport, ScanResult, the raw NITZ
// string, or nil for a reset.
type Indication struct {
	Kind    IndicationKind
	Payload interface{}
}

// Channel is the asynchronous request/indication transport to the modem.
//
// Contract: Submit either rejects synchronously (error return) or accepts and
// later invokes done exactly once on the subsystem event loop, unless the
// request is cancelled first. Cancel is a best-effort abandon: after it
// returns, the completion for that handle is never invoked. Indications are
// delivered to every registered listener on the event loop, ordered among
// indications of the same kind.
type Channel interface {
	// Version returns the negotiated protocol version.
	Version() int

	// Submit sends a request. The returned handle is valid until the
	// completion fires or the request is cancelled.
	Submit(req Request, done Completion) (Handle, error)

	// Cancel abandons an in-flight request without invoking its completion.
	Cancel(h Handle)

	// Listen registers an indication listener; the returned func removes it.
	Listen(fn func(Indication)) func()
}
