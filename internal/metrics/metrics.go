package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registration counters. Each instance owns its registry
// so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	Submissions  *prometheus.CounterVec
	NameChecks   *prometheus.CounterVec
	FeeCollected prometheus.Counter
	StoreLatency *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devthon_submissions_total",
			Help: "Registration submission attempts by outcome",
		}, []string{"outcome"}),
		NameChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devthon_team_name_checks_total",
			Help: "Team name uniqueness checks by result",
		}, []string{"result"}),
		FeeCollected: f.NewCounter(prometheus.CounterOpts{
			Name: "devthon_pending_fee_rupees_total",
			Help: "Sum of fees of registrations recorded as pending",
		}),
		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devthon_store_call_seconds",
			Help:    "Latency of store gateway calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

// IncSubmission records the final state of one submission attempt.
func (m *Metrics) IncSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncNameCheck(result string) {
	if m == nil {
		return
	}
	m.NameChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) AddFee(amount int) {
	if m == nil {
		return
	}
	m.FeeCollected.Add(float64(amount))
}

func (m *Metrics) ObserveStore(op string, seconds float64) {
	if m == nil {
		return
	}
	m.StoreLatency.WithLabelValues(op).Observe(seconds)
}
