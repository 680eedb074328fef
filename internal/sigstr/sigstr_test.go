package sigstr

import (
	"testing"

	"github.com/modem-control/mnr/internal/modem"
)

func TestDBmFromRSSIFullRange(t *testing.T) {
	for rssi := 0; rssi <= 31; rssi++ {
		want := -113 + 2*rssi
		if got := DBmFromRSSI(rssi); got != want {
			t.Errorf("DBmFromRSSI(%d) = %d, want %d", rssi, got, want)
		}
	}
	for _, rssi := range []int{-1, 32, 99, 255} {
		if got := DBmFromRSSI(rssi); got != UnknownDBm {
			t.Errorf("DBmFromRSSI(%d) = %d, want %d", rssi, got, UnknownDBm)
		}
	}
}

func TestDBmFromRSCPFullRange(t *testing.T) {
	for rscp := 0; rscp <= 96; rscp++ {
		want := -120 + rscp
		if got := DBmFromRSCP(rscp); got != want {
			t.Errorf("DBmFromRSCP(%d) = %d, want %d", rscp, got, want)
		}
	}
	for _, rscp := range []int{-1, 97, 255} {
		if got := DBmFromRSCP(rscp); got != UnknownDBm {
			t.Errorf("DBmFromRSCP(%d) = %d, want %d", rscp, got, UnknownDBm)
		}
	}
}

func TestDBmFromRSRPFullRange(t *testing.T) {
	for rsrp := 44; rsrp <= 140; rsrp++ {
		want := -rsrp
		if got := DBmFromRSRP(rsrp); got != want {
			t.Errorf("DBmFromRSRP(%d) = %d, want %d", rsrp, got, want)
		}
	}
	for _, rsrp := range []int{-1, 0, 43, 141, 255} {
		if got := DBmFromRSRP(rsrp); got != UnknownDBm {
			t.Errorf("DBmFromRSRP(%d) = %d, want %d", rsrp, got, UnknownDBm)
		}
	}
}

func TestPercentBoundsAndMonotonicity(t *testing.T) {
	const weak, strong = -100, -60

	if got := Percent(weak, weak, strong); got != 1 {
		t.Errorf("Percent at weak threshold = %d, want 1", got)
	}
	if got := Percent(strong, weak, strong); got != 100 {
		t.Errorf("Percent at strong threshold = %d, want 100", got)
	}
	if got := Percent(-140, weak, strong); got != 1 {
		t.Errorf("Percent below weak = %d, want 1", got)
	}
	if got := Percent(-20, weak, strong); got != 100 {
		t.Errorf("Percent above strong = %d, want 100", got)
	}

	prev := 0
	for dbm := -140; dbm <= -20; dbm++ {
		p := Percent(dbm, weak, strong)
		if p < 1 || p > 100 {
			t.Fatalf("Percent(%d) = %d out of [1,100]", dbm, p)
		}
		if p < prev {
			t.Fatalf("Percent not monotonic at %d dBm: %d < %d", dbm, p, prev)
		}
		prev = p
	}
}

func TestPercentTruncatesTowardZero(t *testing.T) {
	// 100*(dbm-weak)/(strong-weak) with weak=-100 strong=-60: at -99 dBm the
	// exact fraction is 2.5, truncated to 2.
	if got := Percent(-99, -100, -60); got != 2 {
		t.Errorf("Percent(-99) = %d, want 2", got)
	}
}

func TestDecodePriority(t *testing.T) {
	tests := []struct {
		name string
		rep  modem.SignalReport
		want int
	}{
		{
			name: "rssi wins over rscp and rsrp",
			rep: modem.SignalReport{
				WCDMA: &modem.WCDMASignal{RSSI: 20, RSCP: 50},
				LTE:   &modem.LTESignal{RSSI: 99, RSRP: 80},
			},
			want: -113 + 2*20,
		},
		{
			name: "max rssi across technologies",
			rep: modem.SignalReport{
				GSM: &modem.GSMSignal{RSSI: 10},
				LTE: &modem.LTESignal{RSSI: 25, RSRP: 255},
			},
			want: -113 + 2*25,
		},
		{
			name: "rscp when no rssi, larger candidate wins",
			rep: modem.SignalReport{
				WCDMA:   &modem.WCDMASignal{RSSI: 99, RSCP: 40},
				TDSCDMA: &modem.TDSCDMASignal{RSSI: 99, RSCP: 60},
			},
			want: -120 + 60,
		},
		{
			name: "rsrp prefers lte",
			rep: modem.SignalReport{
				LTE: &modem.LTESignal{RSSI: 99, RSRP: 80},
				NR:  &modem.NRSignal{RSRP: 100},
			},
			want: -80,
		},
		{
			name: "rsrp falls back to nr",
			rep: modem.SignalReport{
				LTE: &modem.LTESignal{RSSI: 99, RSRP: 255},
				NR:  &modem.NRSignal{RSRP: 100},
			},
			want: -100,
		},
		{
			name: "nothing usable",
			rep: modem.SignalReport{
				GSM: &modem.GSMSignal{RSSI: 99},
			},
			want: UnknownDBm,
		},
		{
			name: "empty report",
			rep:  modem.SignalReport{},
			want: UnknownDBm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.rep); got != tt.want {
				t.Errorf("Decode() = %d, want %d", got, tt.want)
			}
		})
	}
}
