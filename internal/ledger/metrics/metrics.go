// Package metrics exposes Prometheus instrumentation for the audit ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Appended     *prometheus.CounterVec
	BatchesSeal  prometheus.Counter
	CommitErrors prometheus.Counter
	Redactions   prometheus.Counter
	OpenEntries  prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Appended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_ledger_entries_appended_total",
			Help: "Entries appended to the audit ledger, by kind.",
		}, []string{"kind"}),
		BatchesSeal: factory.NewCounter(prometheus.CounterOpts{
			Name: "vigil_ledger_batches_sealed_total",
			Help: "Batches sealed with a Merkle commitment.",
		}),
		CommitErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "vigil_ledger_commit_errors_total",
			Help: "Failures persisting a sealed batch commitment.",
		}),
		Redactions: factory.NewCounter(prometheus.CounterOpts{
			Name: "vigil_ledger_redactions_total",
			Help: "Identities crypto-shredded from the ledger.",
		}),
		OpenEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vigil_ledger_open_batch_entries",
			Help: "Entries accumulated in the currently open batch.",
		}),
	}
}

func (m *Metrics) IncAppended(kind string) {
	if m == nil {
		return
	}
	m.Appended.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncSealed() {
	if m == nil {
		return
	}
	m.BatchesSeal.Inc()
}

func (m *Metrics) IncCommitError() {
	if m == nil {
		return
	}
	m.CommitErrors.Inc()
}

func (m *Metrics) IncRedaction() {
	if m == nil {
		return
	}
	m.Redactions.Inc()
}

func (m *Metrics) SetOpenEntries(n int) {
	if m == nil {
		return
	}
	m.OpenEntries.Set(float64(n))
}
