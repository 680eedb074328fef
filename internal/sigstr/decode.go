package sigstr

import (
	"github.com/modem-control/mnr/internal/modem"
)

// none marks an absent effective value in a Sample.
const none = -1

// Extract reduces a heterogeneous signal report to one effective value per
// measurement kind:
//
//   - RSSI: maximum of all in-range RSSI values across technologies.
//   - RSCP: the larger in-range of the WCDMA and TD-SCDMA candidates.
//   - RSRP: LTE when in range, else NR.
func Extract(rep modem.SignalReport) Sample {
	s := Sample{RSSI: none, RSCP: none, RSRP: none}

	takeRSSI := func(v int) {
		if v >= rssiMin && v <= rssiMax && v > s.RSSI {
			s.RSSI = v
		}
	}
	if rep.GSM != nil {
		takeRSSI(rep.GSM.RSSI)
	}
	if rep.WCDMA != nil {
		takeRSSI(rep.WCDMA.RSSI)
	}
	if rep.LTE != nil {
		takeRSSI(rep.LTE.RSSI)
	}
	if rep.TDSCDMA != nil {
		takeRSSI(rep.TDSCDMA.RSSI)
	}

	takeRSCP := func(v int) {
		if v >= rscpMin && v <= rscpMax && v > s.RSCP {
			s.RSCP = v
		}
	}
	if rep.WCDMA != nil {
		takeRSCP(rep.WCDMA.RSCP)
	}
	if rep.TDSCDMA != nil {
		takeRSCP(rep.TDSCDMA.RSCP)
	}

	if rep.LTE != nil && rep.LTE.RSRP >= rsrpMin && rep.LTE.RSRP <= rsrpMax {
		s.RSRP = rep.LTE.RSRP
	} else if rep.NR != nil && rep.NR.RSRP >= rsrpMin && rep.NR.RSRP <= rsrpMax {
		s.RSRP = rep.NR.RSRP
	}

	return s
}

// Decode resolves a signal report straight to dBm.
func Decode(rep modem.SignalReport) int {
	return Extract(rep).DBm()
}
