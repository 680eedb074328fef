package modem

// RegStatus is the registration status of one domain.
type RegStatus int

const (
	RegNone RegStatus = iota // not registered, not searching
	RegRegistered
	RegSearching
	RegDenied
	RegUnknown
	RegRoaming
)

var regStatusNames = map[RegStatus]string{
	RegNone:       "unregistered",
	RegRegistered: "registered",
	RegSearching:  "searching",
	RegDenied:     "denied",
	RegUnknown:    "unknown",
	RegRoaming:    "roaming",
}

func (s RegStatus) String() string {
	if n, ok := regStatusNames[s]; ok {
		return n
	}
	return "unknown"
}

// AccessTech is the radio access technology generation.
type AccessTech int

const (
	TechUnknown AccessTech = iota
	TechGSM
	TechUMTS
	TechLTE
	TechNR
)

var accessTechNames = map[AccessTech]string{
	TechUnknown: "unknown",
	TechGSM:     "gsm",
	TechUMTS:    "umts",
	TechLTE:     "lte",
	TechNR:      "nr",
}

func (t AccessTech) String() string {
	if n, ok := accessTechNames[t]; ok {
		return n
	}
	return "unknown"
}

// RegState is the registration state of one domain (voice or data), as held
// by the upstream network model.
type RegState struct {
	Status RegStatus
	LAC    int
	CellID int
	Tech   AccessTech
}

// OperatorStatus classifies an operator entry in a network list.
type OperatorStatus int

const (
	OperatorUnknown OperatorStatus = iota
	OperatorAvailable
	OperatorCurrent
	OperatorForbidden
)

var operatorStatusNames = map[OperatorStatus]string{
	OperatorUnknown:   "unknown",
	OperatorAvailable: "available",
	OperatorCurrent:   "current",
	OperatorForbidden: "forbidden",
}

func (s OperatorStatus) String() string {
	if n, ok := operatorStatusNames[s]; ok {
		return n
	}
	return "unknown"
}

// Operator is a single network operator record. MCC is 3 digits, MNC 2 or 3.
type Operator struct {
	Name   string         `json:"name"`
	MCC    string         `json:"mcc"`
	MNC    string         `json:"mnc"`
	Status OperatorStatus `json:"-"`
	Tech   AccessTech     `json:"-"`
}

// RegisterManualParams selects a network by PLMN. PreferredTech is honored by
// channels at VersionScanType and above; older revisions ignore it.
type RegisterManualParams struct {
	MCC           string
	MNC           string
	PreferredTech AccessTech
}

// Per-technology signal measurement records. Fields hold the raw unit values
// defined by the governing specification; out-of-range values mean the
// measurement is unavailable.
type (
	// GSMSignal carries the base RSSI (0-31).
	GSMSignal struct {
		RSSI int
	}

	// WCDMASignal carries RSSI (0-31) and, on newer generations, RSCP (0-96).
	WCDMASignal struct {
		RSSI int
		RSCP int
	}

	// LTESignal carries RSSI (0-31) and RSRP (44-140).
	LTESignal struct {
		RSSI int
		RSRP int
	}

	// TDSCDMASignal carries RSSI (0-31) and RSCP (0-96).
	TDSCDMASignal struct {
		RSSI int
		RSCP int
	}

	// NRSignal carries RSRP (44-140).
	NRSignal struct {
		RSRP int
	}
)

// SignalReport is one heterogeneous signal-strength measurement. Only the
// technologies the modem reported are set.
type SignalReport struct {
	GSM     *GSMSignal
	WCDMA   *WCDMASignal
	LTE     *LTESignal
	TDSCDMA *TDSCDMASignal
	NR      *NRSignal
}

// NetworkType is the network-type code carried in a scan specifier.
type NetworkType int

const (
	NetworkGERAN NetworkType = iota
	NetworkUTRAN
	NetworkEUTRAN
	NetworkNGRAN
)

// AccessNetwork is the access-network tag attached to scan specifiers at
// VersionScanType and above.
type AccessNetwork int

const (
	AccessUnknown AccessNetwork = iota
	AccessGERAN
	AccessUTRAN
	AccessEUTRAN
	AccessNGRAN
)

// ScanSpecifier selects one radio-access mode for a network scan. Access is
// zero below VersionScanType.
type ScanSpecifier struct {
	Network NetworkType
	Access  AccessNetwork
}

// ScanRequest is the ReqStartNetworkScan payload.
type ScanRequest struct {
	OneShot                bool
	IntervalSec            int
	IncrementalResults     bool
	IncrementalPeriodicity int
	MaxSearchTimeSec       int
	Specifiers             []ScanSpecifier
}

// ScanStatus marks an incremental scan-result indication as partial or final.
type ScanStatus int

const (
	ScanPartial ScanStatus = iota
	ScanComplete
)

// Per-technology cell identity records. Only the operator-identifying fields
// cross this boundary.
type (
	GSMCell struct {
		Name string
		MCC  string
		MNC  string
	}

	WCDMACell struct {
		Name string
		MCC  string
		MNC  string
	}

	LTECell struct {
		Name string
		MCC  string
		MNC  string
	}

	NRCell struct {
		Name string
		MCC  string
		MNC  string
	}
)

// CellInfo is one reported cell in a scan result. Exactly one identity
// variant is set for recognized technologies; legacy variants arrive with all
// identities nil and are skipped.
type CellInfo struct {
	Registered bool
	GSM        *GSMCell
	WCDMA      *WCDMACell
	LTE        *LTECell
	NR         *NRCell
}

// ScanResult is the IndNetworkScanResult payload.
type ScanResult struct {
	Status ScanStatus
	Cells  []CellInfo
}
