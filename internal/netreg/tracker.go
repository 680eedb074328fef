package netreg

import (
	"github.com/modem-control/mnr/internal/eventloop"
	"github.com/modem-control/mnr/internal/metrics"
	"github.com/modem-control/mnr/internal/modem"
)

// Snapshot is the effective registration state reported to the host. Operator
// is the zero value until a current-operator read succeeds.
type Snapshot struct {
	Status   modem.RegStatus  `json:"status"`
	LAC      int              `json:"lac"`
	CellID   int              `json:"cellId"`
	Tech     modem.AccessTech `json:"tech"`
	Operator modem.Operator   `json:"operator"`
}

// Tracker folds voice and data registration state into one effective
// snapshot. Updates are coalesced: any burst of changes within one loop
// iteration produces at most one notification, and a notification only fires
// when the effective snapshot actually changed. Event-loop confined.
type Tracker struct {
	loop   *eventloop.Loop
	home   HomeNetwork
	notify func(Snapshot)

	voice    modem.RegState
	data     modem.RegState
	operator modem.Operator

	pending  bool
	last     Snapshot
	haveLast bool
}

// NewTracker creates a tracker. home may be nil, which disables the roaming
// override. notify runs on the event loop.
func NewTracker(loop *eventloop.Loop, home HomeNetwork, notify func(Snapshot)) *Tracker {
	return &Tracker{
		loop:   loop,
		home:   home,
		notify: notify,
	}
}

// UpdateVoice records a voice-domain registration state change.
func (t *Tracker) UpdateVoice(st modem.RegState) {
	t.voice = st
	t.schedule()
}

// UpdateData records a data-domain registration state change.
func (t *Tracker) UpdateData(st modem.RegState) {
	t.data = st
	t.schedule()
}

// SetOperator records the serving operator.
func (t *Tracker) SetOperator(op modem.Operator) {
	t.operator = op
	t.schedule()
}

// ClearOperator forgets the serving operator, typically on loss of service.
func (t *Tracker) ClearOperator() {
	t.operator = modem.Operator{}
	t.schedule()
}

// Snapshot returns the current effective state without notifying.
func (t *Tracker) Snapshot() Snapshot {
	return t.effective()
}

// Attached reports whether the effective state has service.
func (t *Tracker) Attached() bool {
	return attached(t.effective().Status)
}

func (t *Tracker) schedule() {
	if t.pending {
		return
	}
	t.pending = true
	t.loop.Post(t.flush)
}

func (t *Tracker) flush() {
	t.pending = false

	snap := t.effective()
	if t.haveLast && snap == t.last {
		return
	}
	t.last = snap
	t.haveLast = true

	metrics.RegistrationNotifiesTotal.Inc()
	t.notify(snap)
}

// effective prefers the data domain whenever it has service, then rewrites
// roaming to registered when the serving PLMN counts as home.
func (t *Tracker) effective() Snapshot {
	st := t.voice
	if attached(t.data.Status) {
		st = t.data
	}

	status := st.Status
	if status == modem.RegRoaming && t.home != nil && t.operator.MCC != "" &&
		t.home.IsHomePLMN(t.operator.MCC, t.operator.MNC) {
		status = modem.RegRegistered
	}

	return Snapshot{
		Status:   status,
		LAC:      st.LAC,
		CellID:   st.CellID,
		Tech:     st.Tech,
		Operator: t.operator,
	}
}

func attached(s modem.RegStatus) bool {
	return s == modem.RegRegistered || s == modem.RegRoaming
}
