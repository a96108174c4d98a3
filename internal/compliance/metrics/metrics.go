package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance module.
type Metrics struct {
	Verdicts      *prometheus.CounterVec
	Confirmations prometheus.Counter
	OutOfOrder    prometheus.Counter
}

// New creates a Metrics instance with all compliance metrics registered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_compliance_verdicts_total",
			Help: "Total compliance verdicts by status",
		}, []string{"status"}),

		Confirmations: factory.NewCounter(prometheus.CounterOpts{
			Name: "vigil_compliance_confirmations_total",
			Help: "Total violations confirmed past the debounce threshold",
		}),

		OutOfOrder: factory.NewCounter(prometheus.CounterOpts{
			Name: "vigil_compliance_out_of_order_total",
			Help: "Total observations rejected for arriving behind an identity's clock",
		}),
	}
}

// IncVerdict records a verdict outcome.
func (m *Metrics) IncVerdict(status string) {
	if m != nil {
		m.Verdicts.WithLabelValues(status).Inc()
	}
}

// IncConfirmation records a debounce threshold crossing.
func (m *Metrics) IncConfirmation() {
	if m != nil {
		m.Confirmations.Inc()
	}
}

// IncOutOfOrder records a rejected out-of-order observation.
func (m *Metrics) IncOutOfOrder() {
	if m != nil {
		m.OutOfOrder.Inc()
	}
}
