package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRegistersInstruments(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterSetsLogged.Inc()
	m.CounterSessionsAllocated.WithLabelValues("skipped").Add(2)
	m.CounterUnitConversions.WithLabelValues("ok").Inc()
	m.HistRequestDuration.WithLabelValues("GET", "/api/v1/exercises", "200").Observe(0.02)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterSetsLogged))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterSessionsAllocated.WithLabelValues("skipped")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "liftlog_test_sets_logged_total")
	assert.Contains(t, names, "liftlog_test_http_request_duration_seconds")
}

func TestManagersDoNotShareRegistries(t *testing.T) {
	a := NewTestManager()
	b := NewTestManager()
	a.CounterStatsRecomputed.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CounterStatsRecomputed))
}

func TestRegistryCombinesRuntimeAndTracker(t *testing.T) {
	reg := NewRegistry()
	m := NewManager("liftlog", "", reg)
	m.CounterSetsDeleted.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["liftlog_sets_deleted_total"])
	assert.True(t, names["go_goroutines"])
}
