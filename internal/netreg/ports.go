package netreg

// HomeNetwork exposes the home-network identity of the current SIM. It is a
// superset of the normalizer's SIM view, so one implementation serves both.
type HomeNetwork interface {
	ServiceProviderName() string
	HomeMCC() string
	HomeMNC() string

	// IsHomePLMN reports whether the PLMN counts as home, including
	// equivalent-home entries beyond the literal MCC+MNC pair.
	IsHomePLMN(mcc, mnc string) bool
}

// Notifier receives subsystem state changes. All methods are invoked on the
// event loop; implementations must not block.
type Notifier interface {
	RegistrationChanged(snap Snapshot)
	SignalStrengthChanged(dbm, percent int)
	NetworkTime(nt NetworkTime)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) RegistrationChanged(Snapshot)   {}
func (NopNotifier) SignalStrengthChanged(int, int) {}
func (NopNotifier) NetworkTime(NetworkTime)        {}

var _ Notifier = NopNotifier{}
