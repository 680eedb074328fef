package netreg

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NetworkTime is a decoded network time-and-zone report.
type NetworkTime struct {
	Time      time.Time `json:"time"`
	UTCOffset int       `json:"utcOffset"` // seconds east of UTC
	DST       int       `json:"dst"`       // daylight-saving adjustment in hours, -1 unknown
}

// ParseNetworkTime decodes the wire form "yy/MM/dd,hh:mm:ss±zz" with an
// optional ",dst" suffix. The zone is expressed in quarter hours.
func ParseNetworkTime(s string) (NetworkTime, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return NetworkTime{}, fmt.Errorf("malformed network time %q", s)
	}

	date := parts[0]
	clock := parts[1]
	if len(clock) < 2 {
		return NetworkTime{}, fmt.Errorf("malformed network time %q", s)
	}

	// The zone sign splits the time field; the hour may itself start a
	// digit, so search from position 1.
	signIdx := strings.IndexAny(clock[1:], "+-")
	if signIdx < 0 {
		return NetworkTime{}, fmt.Errorf("network time %q has no zone", s)
	}
	signIdx++
	zone := clock[signIdx:]
	clock = clock[:signIdx]

	t, err := time.Parse("06/01/02 15:04:05", date+" "+clock)
	if err != nil {
		return NetworkTime{}, fmt.Errorf("malformed network time %q: %w", s, err)
	}

	quarters, err := strconv.Atoi(zone)
	if err != nil {
		return NetworkTime{}, fmt.Errorf("malformed zone in network time %q: %w", s, err)
	}
	offset := quarters * 15 * 60

	dst := -1
	if len(parts) > 2 {
		if v, err := strconv.Atoi(parts[2]); err == nil {
			dst = v
		}
	}

	loc := time.FixedZone("", offset)
	return NetworkTime{
		Time:      time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc),
		UTCOffset: offset,
		DST:       dst,
	}, nil
}
