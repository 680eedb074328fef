package netreg

import (
	"context"
	"errors"

	"github.com/modem-control/mnr/internal/config"
	"github.com/modem-control/mnr/internal/eventloop"
	"github.com/modem-control/mnr/internal/metrics"
	"github.com/modem-control/mnr/internal/modem"
	"github.com/modem-control/mnr/internal/normalize"
	"github.com/modem-control/mnr/internal/scan"
	"github.com/modem-control/mnr/internal/sigstr"
	"github.com/modem-control/mnr/internal/slot"
)

// StrengthResult is one decoded signal-strength reading.
type StrengthResult struct {
	DBm     int `json:"dbm"`
	Percent int `json:"percent"`
}

// Service drives the registration operations of one modem. All methods
// without a Ctx suffix must run on the event loop; the Ctx wrappers bridge
// callers from other goroutines.
type Service struct {
	loop *eventloop.Loop
	ch   modem.Channel
	cfg  *config.Config
	home HomeNetwork

	slots    *slot.Table
	scans    *scan.Manager
	tracker  *Tracker
	notifier Notifier

	unlisten      func()
	strengthCB    func(StrengthResult, error)
	strengthTimer *eventloop.Timer
}

// NewService wires a registration service over the given channel. home and db
// may be nil; name normalization and the roaming override degrade gracefully.
func NewService(loop *eventloop.Loop, ch modem.Channel, cfg *config.Config, home HomeNetwork, db normalize.Lookup, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	s := &Service{
		loop:     loop,
		ch:       ch,
		cfg:      cfg,
		home:     home,
		slots:    slot.NewTable(ch),
		notifier: notifier,
	}

	var sim normalize.SIMInfo
	if home != nil {
		sim = home
	}
	s.scans = scan.NewManager(loop, ch, cfg, sim, db)
	s.tracker = NewTracker(loop, home, notifier.RegistrationChanged)
	return s
}

// Start subscribes to modem indications.
func (s *Service) Start() {
	s.unlisten = s.ch.Listen(s.onIndication)
}

// Stop tears the service down: in-flight requests are abandoned without
// completing, the scan session is failed, and indications stop flowing.
func (s *Service) Stop() {
	if s.unlisten != nil {
		s.unlisten()
		s.unlisten = nil
	}
	s.slots.DropAll()
	s.scans.Abort()
	s.cancelStrengthRetry()
	s.strengthCB = nil
}

// Tracker exposes the registration state tracker.
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// RegisterAuto requests automatic network selection. A previous pending
// registration request is dropped silently; only cb can fire.
func (s *Service) RegisterAuto(cb func(error)) {
	s.register(modem.Request{Kind: modem.ReqRegisterAuto}, s.cfg.Registry.RegisterRetries, cb)
}

// RegisterManual requests registration on a specific PLMN. The preferred
// access technology rides along only on protocol revisions that carry it.
func (s *Service) RegisterManual(p modem.RegisterManualParams, cb func(error)) {
	if s.ch.Version() < modem.VersionScanType {
		p.PreferredTech = modem.TechUnknown
	}
	s.register(modem.Request{Kind: modem.ReqRegisterManual, Params: p}, s.cfg.Registry.RegisterRetries, cb)
}

func (s *Service) register(req modem.Request, retries int, cb func(error)) {
	err := s.slots.Submit(slot.Register, req, func(res modem.Result) {
		if res.OK() {
			cb(nil)
			s.refreshOperator()
			return
		}
		err := res.Err()
		if retries > 0 && errors.Is(err, modem.ErrFailure) {
			metrics.RegisterRetriesTotal.Inc()
			s.register(req, retries-1, cb)
			return
		}
		cb(err)
	})
	if err != nil {
		cb(modem.ErrFailure)
	}
}

// refreshOperator reads the serving operator. At most one read is in flight;
// a newer one replaces it silently. Failures leave the last value in place.
func (s *Service) refreshOperator() {
	_ = s.slots.Submit(slot.Operator, modem.Request{Kind: modem.ReqCurrentOperator}, func(res modem.Result) {
		if !res.OK() {
			return
		}
		if op, ok := res.Payload.(modem.Operator); ok {
			s.tracker.SetOperator(op)
		}
	})
}

// ListOperators starts operator discovery, superseding any active session.
func (s *Service) ListOperators(cb scan.Callback) {
	s.scans.List(cb)
}

// Strength queries the current signal strength. A reading of zero means the
// modem produced no usable measurement; the query is retried on a fixed
// interval until one arrives. A newer query replaces a pending one; the
// replaced callback never fires.
func (s *Service) Strength(cb func(StrengthResult, error)) {
	s.cancelStrengthRetry()
	s.strengthCB = cb
	s.submitStrength()
}

func (s *Service) submitStrength() {
	err := s.slots.Submit(slot.Strength, modem.Request{Kind: modem.ReqSignalStrength}, s.strengthDone)
	if err != nil {
		if cb := s.strengthCB; cb != nil {
			s.strengthCB = nil
			cb(StrengthResult{}, modem.ErrFailure)
		}
	}
}

func (s *Service) strengthDone(res modem.Result) {
	if s.strengthCB == nil {
		return
	}
	if !res.OK() {
		s.scheduleStrengthRetry()
		return
	}

	dbm := 0
	if rep, ok := res.Payload.(modem.SignalReport); ok {
		dbm = sigstr.Decode(rep)
	}
	if dbm == 0 {
		// No usable measurement in the response; ask again later.
		s.scheduleStrengthRetry()
		return
	}

	cb := s.strengthCB
	s.strengthCB = nil
	cb(StrengthResult{
		DBm:     dbm,
		Percent: sigstr.Percent(dbm, s.cfg.Signal.WeakDBm, s.cfg.Signal.StrongDBm),
	}, nil)
}

func (s *Service) scheduleStrengthRetry() {
	metrics.StrengthRetriesTotal.Inc()
	s.strengthTimer = s.loop.After(s.cfg.Registry.StrengthRetryInterval, func() {
		s.strengthTimer = nil
		if s.strengthCB != nil {
			s.submitStrength()
		}
	})
}

func (s *Service) cancelStrengthRetry() {
	if s.strengthTimer != nil {
		s.strengthTimer.Cancel()
		s.strengthTimer = nil
	}
}

func (s *Service) onIndication(ind modem.Indication) {
	metrics.IndicationsTotal.WithLabelValues(ind.Kind.String()).Inc()

	switch ind.Kind {
	case modem.IndVoiceRegState:
		if st, ok := ind.Payload.(modem.RegState); ok {
			s.tracker.UpdateVoice(st)
			s.onRegStateChange(st)
		}

	case modem.IndDataRegState:
		if st, ok := ind.Payload.(modem.RegState); ok {
			s.tracker.UpdateData(st)
			s.onRegStateChange(st)
		}

	case modem.IndSignalStrength:
		rep, ok := ind.Payload.(modem.SignalReport)
		if !ok {
			return
		}
		dbm := sigstr.Decode(rep)
		if dbm == 0 {
			// No usable measurement; suppress the notification.
			return
		}
		s.notifier.SignalStrengthChanged(dbm, sigstr.Percent(dbm, s.cfg.Signal.WeakDBm, s.cfg.Signal.StrongDBm))

	case modem.IndNetworkScanResult:
		if r, ok := ind.Payload.(modem.ScanResult); ok {
			s.scans.HandleScanResult(r)
		}

	case modem.IndNetworkTime:
		raw, ok := ind.Payload.(string)
		if !ok {
			return
		}
		nt, err := ParseNetworkTime(raw)
		if err != nil {
			// Malformed reports are dropped without notifying.
			return
		}
		s.notifier.NetworkTime(nt)

	case modem.IndModemReset:
		s.onModemReset()
	}
}

func (s *Service) onRegStateChange(st modem.RegState) {
	if attached(st.Status) {
		s.refreshOperator()
	} else {
		s.tracker.ClearOperator()
	}
}

// onModemReset abandons every outstanding request silently. Pending caller
// callbacks never fire; the scan session resolves from what it collected.
func (s *Service) onModemReset() {
	s.slots.DropAll()
	s.cancelStrengthRetry()
	s.strengthCB = nil
	s.scans.HandleModemReset()
	s.tracker.ClearOperator()
}

// RegisterAutoCtx bridges RegisterAuto for callers off the event loop.
func (s *Service) RegisterAutoCtx(ctx context.Context) error {
	errc := make(chan error, 1)
	s.loop.Post(func() {
		s.RegisterAuto(func(err error) { errc <- err })
	})
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterManualCtx bridges RegisterManual for callers off the event loop.
func (s *Service) RegisterManualCtx(ctx context.Context, p modem.RegisterManualParams) error {
	errc := make(chan error, 1)
	s.loop.Post(func() {
		s.RegisterManual(p, func(err error) { errc <- err })
	})
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListOperatorsCtx bridges ListOperators for callers off the event loop.
func (s *Service) ListOperatorsCtx(ctx context.Context) ([]modem.Operator, error) {
	type outcome struct {
		ops []modem.Operator
		err error
	}
	ch := make(chan outcome, 1)
	s.loop.Post(func() {
		s.ListOperators(func(ops []modem.Operator, err error) {
			ch <- outcome{ops: ops, err: err}
		})
	})
	select {
	case out := <-ch:
		return out.ops, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// StrengthCtx bridges Strength for callers off the event loop.
func (s *Service) StrengthCtx(ctx context.Context) (StrengthResult, error) {
	type outcome struct {
		res StrengthResult
		err error
	}
	ch := make(chan outcome, 1)
	s.loop.Post(func() {
		s.Strength(func(res StrengthResult, err error) {
			ch <- outcome{res: res, err: err}
		})
	})
	select {
	case out := <-ch:
		return out.res, out.err
	case <-ctx.Done():
		return StrengthResult{}, ctx.Err()
	}
}

// SnapshotCtx reads the effective registration state from off the loop.
func (s *Service) SnapshotCtx(ctx context.Context) (Snapshot, error) {
	ch := make(chan Snapshot, 1)
	s.loop.Post(func() { ch <- s.tracker.Snapshot() })
	select {
	case snap := <-ch:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}
