package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the alert module.
type Metrics struct {
	Produced    *prometheus.CounterVec
	Suppressed  *prometheus.CounterVec
	Escalations prometheus.Counter
	RouteErrors prometheus.Counter
}

// New creates a Metrics instance with all alert metrics registered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Produced: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_alerts_produced_total",
			Help: "Total alerts produced by rule and severity",
		}, []string{"rule", "severity"}),

		Suppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_alerts_suppressed_total",
			Help: "Total alert candidates suppressed as duplicates",
		}, []string{"rule"}),

		Escalations: factory.NewCounter(prometheus.CounterOpts{
			Name: "vigil_alert_escalations_total",
			Help: "Total warnings escalated to critical",
		}),

		RouteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "vigil_alert_route_errors_total",
			Help: "Total recipient resolutions that fell open to the highest authority",
		}),
	}
}

// IncProduced records a produced alert.
func (m *Metrics) IncProduced(rule, severity string) {
	if m != nil {
		m.Produced.WithLabelValues(rule, severity).Inc()
	}
}

// IncSuppressed records a suppressed duplicate.
func (m *Metrics) IncSuppressed(rule string) {
	if m != nil {
		m.Suppressed.WithLabelValues(rule).Inc()
	}
}

// IncEscalation records a warning escalated to critical.
func (m *Metrics) IncEscalation() {
	if m != nil {
		m.Escalations.Inc()
	}
}

// IncRouteError records a recipient resolution that fell open.
func (m *Metrics) IncRouteError() {
	if m != nil {
		m.RouteErrors.Inc()
	}
}
