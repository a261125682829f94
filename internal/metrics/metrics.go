package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the registry service.
type Metrics struct {
	Reconstructions     *prometheus.CounterVec
	ReconstructDuration prometheus.Histogram
	Submissions         *prometheus.CounterVec
	NotifierClients     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Reconstructions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "profile_registry_history_reconstructions_total",
			Help: "History reconstructions by outcome (built, empty, failed).",
		}, []string{"status"}),
		ReconstructDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "profile_registry_history_reconstruction_seconds",
			Help:    "Time spent fetching and rebuilding a profile timeline.",
			Buckets: prometheus.DefBuckets,
		}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "profile_registry_submissions_total",
			Help: "Profile form submissions by outcome.",
		}, []string{"outcome"}),
		NotifierClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "profile_registry_notifier_clients",
			Help: "Connected notification clients.",
		}),
	}
}

// ObserveReconstruction is safe to call on a nil receiver.
func (m *Metrics) ObserveReconstruction(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Reconstructions.WithLabelValues(status).Inc()
	m.ReconstructDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetNotifierClients(n int) {
	if m == nil {
		return
	}
	m.NotifierClients.Set(float64(n))
}
