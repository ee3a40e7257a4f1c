package metrics

import (
	"go-passport-scanner/document/mrz"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the scanner service
type Metrics struct {
	ScanSessionsStarted prometheus.Counter
	ScanFrames          prometheus.Counter
	Verdicts            *prometheus.CounterVec
	PassportsIssued     prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScanSessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "passport_scanner_sessions_started_total",
			Help: "Total number of scan sessions started",
		}),
		ScanFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "passport_scanner_frames_total",
			Help: "Total number of recognized text frames received",
		}),
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_scanner_verdicts_total",
			Help: "Verdicts produced by the MRZ pipeline by outcome, reject reason and expiry status",
		}, []string{"outcome", "reason", "expiry"}),
		PassportsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "passport_scanner_passports_issued_total",
			Help: "Total number of passport issuance requests signed",
		}),
	}
}

func (m *Metrics) IncrementSessionsStarted() {
	m.ScanSessionsStarted.Inc()
}

func (m *Metrics) IncrementFrames() {
	m.ScanFrames.Inc()
}

// ObserveVerdict counts a verdict freshly produced by the pipeline. Verdicts
// returned from a latch are not counted again.
func (m *Metrics) ObserveVerdict(v mrz.Verdict) {
	m.Verdicts.WithLabelValues(string(v.Outcome), labelValue(string(v.Reason)), labelValue(string(v.Expiry))).Inc()
}

func labelValue(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func (m *Metrics) IncrementPassportsIssued() {
	m.PassportsIssued.Inc()
}
