package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	creates   *prometheus.CounterVec
	writes    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	events    *prometheus.CounterVec
}

// NewMetrics builds the sync counters and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		creates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shoez",
			Subsystem: "sync",
			Name:      "creates_total",
			Help:      "Optimistic creates by table and outcome.",
		}, []string{"table", "outcome"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shoez",
			Subsystem: "sync",
			Name:      "writes_total",
			Help:      "Background updates and deletes by operation and outcome.",
		}, []string{"op", "outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shoez",
			Subsystem: "sync",
			Name:      "refreshes_total",
			Help:      "Full reloads by outcome.",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shoez",
			Subsystem: "sync",
			Name:      "change_events_total",
			Help:      "Remote change events by table and type.",
		}, []string{"table", "type"}),
	}
	if reg != nil {
		reg.MustRegister(m.creates, m.writes, m.refreshes, m.events)
	}
	return m
}
