package scan

import (
	"errors"

	"github.com/google/uuid"

	"github.com/modem-control/mnr/internal/config"
	"github.com/modem-control/mnr/internal/eventloop"
	"github.com/modem-control/mnr/internal/metrics"
	"github.com/modem-control/mnr/internal/modem"
	"github.com/modem-control/mnr/internal/normalize"
)

// Callback receives the outcome of an operator-list request. On success ops
// holds the normalized records in discovery order; on failure ops is nil.
type Callback func(ops []modem.Operator, err error)

// ErrSuperseded reports that a newer operator-list request replaced this one.
var ErrSuperseded = errors.New("operator list request superseded")

// Manager owns the single scan session of a subsystem instance. It is event
// loop confined.
type Manager struct {
	loop *eventloop.Loop
	ch   modem.Channel
	cfg  *config.Config
	sim  normalize.SIMInfo
	db   normalize.Lookup

	session *session
}

// capability maps a negotiated protocol version to the scan machinery it
// unlocks, selected once per operation.
type capability struct {
	incremental bool // incremental scan available
	tagged      bool // specifiers carry access-network tags
}

func capabilityFor(version int, cfg *config.Config) capability {
	return capability{
		incremental: cfg.Scan.Enabled && version >= modem.VersionNetworkScan,
		tagged:      version >= modem.VersionScanType,
	}
}

// NewManager creates a scan manager. sim and db may be nil; name
// normalization is skipped without them.
func NewManager(loop *eventloop.Loop, ch modem.Channel, cfg *config.Config, sim normalize.SIMInfo, db normalize.Lookup) *Manager {
	return &Manager{
		loop: loop,
		ch:   ch,
		cfg:  cfg,
		sim:  sim,
		db:   db,
	}
}

// Active reports whether a scan session is in progress.
func (m *Manager) Active() bool {
	return m.session != nil
}

// List starts a scan session, superseding any active one: the previous
// session's callback is invoked with failure, synchronously, before the new
// session submits anything.
func (m *Manager) List(cb Callback) {
	if old := m.session; old != nil {
		old.finish(nil, ErrSuperseded)
	}

	s := &session{
		m:   m,
		id:  uuid.New(),
		cb:  cb,
		cap: capabilityFor(m.ch.Version(), m.cfg),
	}
	m.session = s
	metrics.ScanActive.Set(1)

	s.submitLegacy()
}

// HandleScanResult feeds an incremental scan-result indication into the
// active session, if any.
func (m *Manager) HandleScanResult(r modem.ScanResult) {
	s := m.session
	if s == nil || !s.scanning {
		return
	}

	s.records = append(s.records, decodeCells(r.Cells)...)
	if r.Status == modem.ScanComplete {
		s.finish(s.records, nil)
	}
}

// HandleModemReset aborts the active session on a modem reset: partial
// results already collected are delivered as success, an empty session is
// failed.
func (m *Manager) HandleModemReset() {
	s := m.session
	if s == nil {
		return
	}
	if len(s.records) > 0 {
		s.finish(s.records, nil)
	} else {
		s.finish(nil, modem.ErrFailure)
	}
}

// Abort fails the active session, if any. Used on teardown.
func (m *Manager) Abort() {
	if s := m.session; s != nil {
		s.finish(nil, modem.ErrFailure)
	}
}

// session is one operator-discovery attempt. Records grow append-only while
// the session lives; the completion callback fires exactly once.
type session struct {
	m   *Manager
	id  uuid.UUID
	cb  Callback
	cap capability

	records  []modem.Operator
	handle   modem.Handle
	timer    *eventloop.Timer
	scanning bool // incremental scan in progress
	mustStop bool // scan started on the modem; a stop must follow
	done     bool
}

func (s *session) submitLegacy() {
	req := modem.Request{
		Kind:    modem.ReqAvailableOperators,
		Timeout: s.m.cfg.Scan.LegacyQueryTimeout,
	}

	h, err := s.m.ch.Submit(req, s.legacyDone)
	if err != nil {
		s.finish(nil, modem.ErrFailure)
		return
	}
	s.handle = h
	s.timer = s.m.loop.After(s.m.cfg.Scan.LegacyQueryTimeout, func() {
		s.handle = modem.NoHandle
		s.m.ch.Cancel(h)
		s.finish(nil, modem.ErrFailure)
	})
}

func (s *session) legacyDone(res modem.Result) {
	s.handle = modem.NoHandle
	s.cancelTimer()

	if res.OK() {
		ops, ok := res.Payload.([]modem.Operator)
		if !ok {
			// Response parse failure counts as transport failure.
			s.finish(nil, modem.ErrFailure)
			return
		}
		metrics.ScansTotal.WithLabelValues("legacy", "ok").Inc()
		s.finish(ops, nil)
		return
	}

	if errors.Is(res.Err(), modem.ErrNotSupported) && s.cap.incremental {
		metrics.ScanFallbacksTotal.Inc()
		s.startScan()
		return
	}

	metrics.ScansTotal.WithLabelValues("legacy", "error").Inc()
	s.finish(nil, modem.ErrFailure)
}

func (s *session) startScan() {
	req := modem.Request{
		Kind:    modem.ReqStartNetworkScan,
		Timeout: s.m.cfg.Scan.Timeout,
		Params: modem.ScanRequest{
			OneShot:                true,
			IntervalSec:            s.m.cfg.Scan.IntervalSec,
			IncrementalResults:     true,
			IncrementalPeriodicity: s.m.cfg.Scan.Periodicity,
			MaxSearchTimeSec:       int(s.m.cfg.Scan.Timeout.Seconds()),
			Specifiers:             s.specifiers(),
		},
	}

	h, err := s.m.ch.Submit(req, s.scanStarted)
	if err != nil {
		s.finish(nil, modem.ErrFailure)
		return
	}
	s.handle = h
	s.scanning = true
	s.timer = s.m.loop.After(s.m.cfg.Scan.Timeout, func() {
		// Deadline reached: whatever accumulated is the answer.
		s.finish(s.records, nil)
	})
}

func (s *session) scanStarted(res modem.Result) {
	s.handle = modem.NoHandle
	if !res.OK() {
		s.finish(nil, modem.ErrFailure)
		return
	}
	// The modem accepted the scan; from here on it must be stopped
	// explicitly whichever way the session ends.
	s.mustStop = true
}

// specifiers maps every enabled radio-access mode to its network-type code,
// tagging each with an access network on protocol revisions that carry it.
func (s *session) specifiers() []modem.ScanSpecifier {
	modes := s.m.cfg.Modes
	var specs []modem.ScanSpecifier

	add := func(net modem.NetworkType, access modem.AccessNetwork) {
		sp := modem.ScanSpecifier{Network: net}
		if s.cap.tagged {
			sp.Access = access
		}
		specs = append(specs, sp)
	}

	if modes.GSM {
		add(modem.NetworkGERAN, modem.AccessGERAN)
	}
	if modes.UMTS {
		add(modem.NetworkUTRAN, modem.AccessUTRAN)
	}
	if modes.LTE {
		add(modem.NetworkEUTRAN, modem.AccessEUTRAN)
	}
	if modes.NR {
		add(modem.NetworkNGRAN, modem.AccessNGRAN)
	}
	return specs
}

// finish completes the session exactly once: it releases the timer and any
// in-flight request, emits the stop request when one is owed, detaches from
// the manager and invokes the callback.
func (s *session) finish(ops []modem.Operator, err error) {
	if s.done {
		return
	}
	s.done = true

	s.cancelTimer()
	if s.handle.Valid() {
		s.m.ch.Cancel(s.handle)
		s.handle = modem.NoHandle
	}

	if s.mustStop {
		// Fire and forget; the outcome is not observed.
		s.m.ch.Submit(modem.Request{Kind: modem.ReqStopNetworkScan}, func(modem.Result) {})
	}

	if s.m.session == s {
		s.m.session = nil
		metrics.ScanActive.Set(0)
	}

	if err != nil {
		if s.scanning {
			metrics.ScansTotal.WithLabelValues("incremental", "error").Inc()
		}
		s.cb(nil, err)
		return
	}

	if s.scanning {
		metrics.ScansTotal.WithLabelValues("incremental", "ok").Inc()
	}
	normalize.Apply(ops, s.m.sim, s.m.db)
	s.cb(ops, nil)
}

func (s *session) cancelTimer() {
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
}

// decodeCells converts reported cells to operator records, keeping only the
// technologies this subsystem understands. The reporting cell's registered
// flag selects the "current" status.
func decodeCells(cells []modem.CellInfo) []modem.Operator {
	var ops []modem.Operator
	for _, c := range cells {
		var (
			name, mcc, mnc string
			tech           modem.AccessTech
		)
		switch {
		case c.GSM != nil:
			name, mcc, mnc, tech = c.GSM.Name, c.GSM.MCC, c.GSM.MNC, modem.TechGSM
		case c.WCDMA != nil:
			name, mcc, mnc, tech = c.WCDMA.Name, c.WCDMA.MCC, c.WCDMA.MNC, modem.TechUMTS
		case c.LTE != nil:
			name, mcc, mnc, tech = c.LTE.Name, c.LTE.MCC, c.LTE.MNC, modem.TechLTE
		case c.NR != nil:
			name, mcc, mnc, tech = c.NR.Name, c.NR.MCC, c.NR.MNC, modem.TechNR
		default:
			// Legacy or unrecognized identity: skip silently.
			continue
		}
		if mcc == "" {
			continue
		}

		status := modem.OperatorAvailable
		if c.Registered {
			status = modem.OperatorCurrent
		}
		ops = append(ops, modem.Operator{
			Name:   name,
			MCC:    mcc,
			MNC:    mnc,
			Status: status,
			Tech:   tech,
		})
	}
	return ops
}
