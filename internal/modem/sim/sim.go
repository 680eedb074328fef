// Package sim provides a simulated modem for development and end-to-end
// testing without hardware.
//
// The simulator implements the radio channel contract over the event loop:
// requests complete after a short artificial latency, a canned operator list
// answers discovery, and signal strength drifts around a baseline with
// periodic unsolicited reports. It also exposes the home-network identity of
// its built-in SIM.
package sim

import (
	"math/rand"
	"time"

	"github.com/modem-control/mnr/internal/eventloop"
	"github.com/modem-control/mnr/internal/modem"
)

// Options configure the simulated modem.
type Options struct {
	// Version is the negotiated protocol version the simulator reports.
	Version int

	// Latency delays every request completion.
	Latency time.Duration

	// StrengthInterval spaces unsolicited signal reports. Zero disables
	// them.
	StrengthInterval time.Duration

	// LegacyQueryUnsupported makes the legacy operator query fail with
	// "not supported", forcing the incremental-scan path.
	LegacyQueryUnsupported bool
}

// DefaultOptions returns a simulator profile resembling a recent LTE modem.
func DefaultOptions() Options {
	return Options{
		Version:          modem.VersionScanType,
		Latency:          20 * time.Millisecond,
		StrengthInterval: 5 * time.Second,
	}
}

// Modem is a simulated modem. It must be used from its event loop, matching
// the channel contract.
type Modem struct {
	loop *eventloop.Loop
	opts Options

	pending   map[modem.Handle]struct{}
	listeners map[int]func(modem.Indication)
	nextLis   int

	registered bool
	operator   modem.Operator
	baseRSSI   int
	scanning   bool

	strengthTimer *eventloop.Timer
}

// New creates a simulated modem on the given loop and starts its unsolicited
// reports.
func New(loop *eventloop.Loop, opts Options) *Modem {
	m := &Modem{
		loop:      loop,
		opts:      opts,
		pending:   make(map[modem.Handle]struct{}),
		listeners: make(map[int]func(modem.Indication)),
		operator:  modem.Operator{Name: "SimNet", MCC: "001", MNC: "01", Status: modem.OperatorCurrent, Tech: modem.TechLTE},
		baseRSSI:  22,
	}
	if opts.StrengthInterval > 0 {
		m.scheduleStrength()
	}
	return m
}

// Home-network identity of the built-in SIM.

func (m *Modem) ServiceProviderName() string { return "SimNet" }
func (m *Modem) HomeMCC() string             { return "001" }
func (m *Modem) HomeMNC() string             { return "01" }

// IsHomePLMN treats the test PLMN 001/02 as equivalent home.
func (m *Modem) IsHomePLMN(mcc, mnc string) bool {
	if mcc != "001" {
		return false
	}
	return mnc == "01" || mnc == "02"
}

// Version returns the simulated protocol version.
func (m *Modem) Version() int {
	return m.opts.Version
}

// Submit accepts the request and completes it after the configured latency.
func (m *Modem) Submit(req modem.Request, done modem.Completion) (modem.Handle, error) {
	h := modem.NewHandle()
	m.pending[h] = struct{}{}

	m.loop.After(m.opts.Latency, func() {
		if _, ok := m.pending[h]; !ok {
			return
		}
		delete(m.pending, h)
		done(m.respond(req))
	})
	return h, nil
}

// Cancel abandons a pending request.
func (m *Modem) Cancel(h modem.Handle) {
	delete(m.pending, h)
}

// Listen registers an indication listener.
func (m *Modem) Listen(fn func(modem.Indication)) func() {
	id := m.nextLis
	m.nextLis++
	m.listeners[id] = fn
	return func() { delete(m.listeners, id) }
}

func (m *Modem) respond(req modem.Request) modem.Result {
	switch req.Kind {
	case modem.ReqRegisterAuto, modem.ReqRegisterManual:
		m.registered = true
		m.indicateRegistered()
		return modem.Result{Code: modem.CodeNone}

	case modem.ReqCurrentOperator:
		if !m.registered {
			return modem.Result{Code: modem.CodeGenericFailure}
		}
		return modem.Result{Code: modem.CodeNone, Payload: m.operator}

	case modem.ReqAvailableOperators:
		if m.opts.LegacyQueryUnsupported {
			return modem.Result{Code: modem.CodeRequestNotSupported}
		}
		return modem.Result{Code: modem.CodeNone, Payload: m.operatorList()}

	case modem.ReqStartNetworkScan:
		m.scanning = true
		m.scheduleScanResults()
		return modem.Result{Code: modem.CodeNone}

	case modem.ReqStopNetworkScan:
		m.scanning = false
		return modem.Result{Code: modem.CodeNone}

	case modem.ReqSignalStrength:
		return modem.Result{Code: modem.CodeNone, Payload: m.signalReport()}

	default:
		return modem.Result{Code: modem.CodeRequestNotSupported}
	}
}

func (m *Modem) operatorList() []modem.Operator {
	return []modem.Operator{
		m.operator,
		{Name: "SimRoam", MCC: "001", MNC: "02", Status: modem.OperatorAvailable, Tech: modem.TechUMTS},
		{Name: "001 03", MCC: "001", MNC: "03", Status: modem.OperatorForbidden, Tech: modem.TechGSM},
	}
}

// signalReport drifts the RSSI a little around the baseline.
func (m *Modem) signalReport() modem.SignalReport {
	rssi := m.baseRSSI + rand.Intn(5) - 2
	if rssi < 0 {
		rssi = 0
	}
	if rssi > 31 {
		rssi = 31
	}
	return modem.SignalReport{
		LTE: &modem.LTESignal{RSSI: rssi, RSRP: 85 + rand.Intn(10)},
	}
}

func (m *Modem) indicateRegistered() {
	st := modem.RegState{
		Status: modem.RegRegistered,
		LAC:    0x2A,
		CellID: 0x1B3F,
		Tech:   modem.TechLTE,
	}
	m.indicate(modem.Indication{Kind: modem.IndVoiceRegState, Payload: st})
	m.indicate(modem.Indication{Kind: modem.IndDataRegState, Payload: st})
	m.indicate(modem.Indication{
		Kind:    modem.IndNetworkTime,
		Payload: time.Now().UTC().Format("06/01/02,15:04:05+00"),
	})
}

// scheduleScanResults delivers the canned list incrementally, one cell per
// tick, then a completion marker.
func (m *Modem) scheduleScanResults() {
	ops := m.operatorList()
	var deliver func(i int)
	deliver = func(i int) {
		if !m.scanning {
			return
		}
		if i >= len(ops) {
			m.scanning = false
			m.indicate(modem.Indication{
				Kind:    modem.IndNetworkScanResult,
				Payload: modem.ScanResult{Status: modem.ScanComplete},
			})
			return
		}
		op := ops[i]
		m.indicate(modem.Indication{
			Kind: modem.IndNetworkScanResult,
			Payload: modem.ScanResult{
				Status: modem.ScanPartial,
				Cells: []modem.CellInfo{{
					Registered: op.Status == modem.OperatorCurrent,
					LTE:        &modem.LTECell{Name: op.Name, MCC: op.MCC, MNC: op.MNC},
				}},
			},
		})
		m.loop.After(m.opts.Latency, func() { deliver(i + 1) })
	}
	m.loop.After(m.opts.Latency, func() { deliver(0) })
}

func (m *Modem) scheduleStrength() {
	m.strengthTimer = m.loop.After(m.opts.StrengthInterval, func() {
		m.indicate(modem.Indication{Kind: modem.IndSignalStrength, Payload: m.signalReport()})
		m.scheduleStrength()
	})
}

// Stop halts unsolicited reports.
func (m *Modem) Stop() {
	if m.strengthTimer != nil {
		m.strengthTimer.Cancel()
		m.strengthTimer = nil
	}
}

func (m *Modem) indicate(ind modem.Indication) {
	for _, fn := range m.listeners {
		fn(ind)
	}
}

var _ modem.Channel = (*Modem)(nil)
