// Package metrics holds the Prometheus instruments of the tracker and its HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterSetsLogged        prometheus.Counter
	CounterSetsDeleted       prometheus.Counter
	CounterSessionsAllocated *prometheus.CounterVec
	CounterIndexConflicts    prometheus.Counter
	CounterStatsRecomputed   prometheus.Counter
	CounterUnitConversions   *prometheus.CounterVec

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("liftlog", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("liftlog", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterSetsLogged := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets_logged_total",
		Help:      "The total number of sets added to the ledger",
	})
	counterSetsDeleted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets_deleted_total",
		Help:      "The total number of sets removed from the ledger",
	})
	counterSessionsAllocated := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions_allocated_total",
		Help:      "The total number of session indexes allocated, by initial status",
	}, []string{"status"})
	counterIndexConflicts := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "session_index_conflicts_total",
		Help:      "Session index allocations that lost a race and were retried",
	})
	counterStatsRecomputed := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "stats_recomputed_total",
		Help:      "The total number of exercise stats rebuilds",
	})
	counterUnitConversions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "unit_conversions_total",
		Help:      "Exercise unit conversions by result",
	}, []string{"result"})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})

	histReqDuration := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
		},
		[]string{"method", "route", "status"},
	)

	return &Manager{
		CounterSetsLogged:        counterSetsLogged,
		CounterSetsDeleted:       counterSetsDeleted,
		CounterSessionsAllocated: counterSessionsAllocated,
		CounterIndexConflicts:    counterIndexConflicts,
		CounterStatsRecomputed:   counterStatsRecomputed,
		CounterUnitConversions:   counterUnitConversions,
		GaugeRequests:            gaugeRequests,
		HistRequestDuration:      histReqDuration,
	}
}
