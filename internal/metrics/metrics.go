// Package metrics holds the Prometheus instrumentation for the registration
// subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mnr_scans_total",
		Help: "Completed operator scans by mode and result",
	}, []string{"mode", "result"})

	ScanFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnr_scan_fallbacks_total",
		Help: "Legacy queries that fell back to the incremental scan",
	})

	ScanActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mnr_scan_active",
		Help: "Whether a scan session is currently active",
	})

	RegistrationNotifiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnr_registration_notifies_total",
		Help: "Registration-state notifications delivered to the host",
	})

	RegisterRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnr_register_retries_total",
		Help: "Registration-mode requests retried after transport failure",
	})

	StrengthRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnr_strength_retries_total",
		Help: "Strength queries retried while a caller query was pending",
	})

	IndicationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mnr_indications_total",
		Help: "Unsolicited indications received by kind",
	}, []string{"kind"})
)
