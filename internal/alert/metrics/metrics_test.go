package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := New(reg)

	m.IncProduced("audio_ceiling", "critical")
	m.IncSuppressed("audio_ceiling")
	m.IncEscalation()
	m.IncRouteError()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["vigil_alerts_produced_total"])
	assert.True(t, names["vigil_alerts_suppressed_total"])
	assert.True(t, names["vigil_alert_escalations_total"])
	assert.True(t, names["vigil_alert_route_errors_total"])
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncProduced("truancy", "warning")
		m.IncSuppressed("truancy")
		m.IncEscalation()
		m.IncRouteError()
	})
}
