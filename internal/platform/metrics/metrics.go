package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics shared by the ledger, the registries and the event worker.
type Metrics struct {
	Transactions        *prometheus.CounterVec
	Reverts             *prometheus.CounterVec
	TransactionDuration prometheus.Histogram
	Registrations       *prometheus.CounterVec
	Revocations         prometheus.Counter
	EventsPublished     prometheus.Counter
	EventSinkFailures   *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics on reg. Tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_transactions_total",
			Help: "Top-level ledger calls by outcome",
		}, []string{"outcome"}),
		Reverts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_reverts_total",
			Help: "Reverted calls by error code",
		}, []string{"code"}),
		TransactionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "provenance_transaction_duration_seconds",
			Help:    "Duration of top-level ledger calls including lock wait",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_registrations_total",
			Help: "Committed registrations by kind (identity, claim, schema, attestation)",
		}, []string{"kind"}),
		Revocations: f.NewCounter(prometheus.CounterOpts{
			Name: "provenance_attestation_revocations_total",
			Help: "Committed attestation revocations",
		}),
		EventsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "provenance_events_published_total",
			Help: "Events appended to the event log",
		}),
		EventSinkFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_event_sink_failures_total",
			Help: "Failed deliveries to downstream event sinks",
		}, []string{"sink"}),
	}
}

// ObserveTransaction records one top-level call.
func (m *Metrics) ObserveTransaction(start time.Time, outcome string) {
	m.Transactions.WithLabelValues(outcome).Inc()
	m.TransactionDuration.Observe(time.Since(start).Seconds())
}

// IncrementRevert counts a reverted call by its error code.
func (m *Metrics) IncrementRevert(code string) {
	m.Reverts.WithLabelValues(code).Inc()
}

// IncrementRegistration counts a committed registration of the given kind.
func (m *Metrics) IncrementRegistration(kind string) {
	m.Registrations.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementRevocation() {
	m.Revocations.Inc()
}

func (m *Metrics) AddEventsPublished(n int) {
	m.EventsPublished.Add(float64(n))
}

func (m *Metrics) IncrementSinkFailure(sink string) {
	m.EventSinkFailures.WithLabelValues(sink).Inc()
}
