// Package sigstr converts raw signal-strength measurements to a dBm value
// and a bounded percentage.
//
// The modem reports per-technology records in the raw units of the governing
// specification: RSSI 0-31, RSCP 0-96, RSRP 44-140. Values outside those
// ranges mean the measurement is unavailable. Everything here is pure.
package sigstr

// UnknownDBm is the sentinel for "no usable measurement".
const UnknownDBm = -140

// Raw-unit validity ranges.
const (
	rssiMin, rssiMax = 0, 31
	rscpMin, rscpMax = 0, 96
	rsrpMin, rsrpMax = 44, 140
)

// DBmFromRSSI maps a raw RSSI to dBm: -113 + 2*rssi. Out-of-range input
// yields UnknownDBm.
func DBmFromRSSI(rssi int) int {
	if rssi < rssiMin || rssi > rssiMax {
		return UnknownDBm
	}
	return -113 + 2*rssi
}

// DBmFromRSCP maps a raw RSCP to dBm: -120 + rscp. Out-of-range input yields
// UnknownDBm.
func DBmFromRSCP(rscp int) int {
	if rscp < rscpMin || rscp > rscpMax {
		return UnknownDBm
	}
	return -120 + rscp
}

// DBmFromRSRP maps a raw RSRP to dBm: -rsrp. Out-of-range input yields
// UnknownDBm.
func DBmFromRSRP(rsrp int) int {
	if rsrp < rsrpMin || rsrp > rsrpMax {
		return UnknownDBm
	}
	return -rsrp
}

// Sample is the effective per-kind raw values extracted from one report.
// A value of -1 means no in-range measurement of that kind was present.
type Sample struct {
	RSSI int
	RSCP int
	RSRP int
}

// DBm resolves a sample to dBm: RSSI first, then RSCP, then RSRP, else
// UnknownDBm.
func (s Sample) DBm() int {
	switch {
	case s.RSSI >= rssiMin && s.RSSI <= rssiMax:
		return -113 + 2*s.RSSI
	case s.RSCP >= rscpMin && s.RSCP <= rscpMax:
		return -120 + s.RSCP
	case s.RSRP >= rsrpMin && s.RSRP <= rsrpMax:
		return -s.RSRP
	default:
		return UnknownDBm
	}
}

// Percent maps dBm to a 1-100 percentage against the configured thresholds:
// 1 at or below weak, 100 at or above strong, linear in between with the
// fraction truncated toward zero.
func Percent(dbm, weakDBm, strongDBm int) int {
	if dbm <= weakDBm {
		return 1
	}
	if dbm >= strongDBm {
		return 100
	}
	p := 100 * (dbm - weakDBm) / (strongDBm - weakDBm)
	if p < 1 {
		p = 1
	}
	if p > 100 {
		p = 100
	}
	return p
}
