package gorelay

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors updated by loaders and connections. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	fetches     *prometheus.CounterVec
	fetchedIDs  *prometheus.CounterVec
	fetchErrors *prometheus.CounterVec
	pages       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gorelay",
			Subsystem: "loader",
			Name:      "fetches_total",
			Help:      "Number of batched entity store fetches.",
		}, []string{"kind"}),
		fetchedIDs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gorelay",
			Subsystem: "loader",
			Name:      "fetched_ids_total",
			Help:      "Number of ids requested from the entity store.",
		}, []string{"kind"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gorelay",
			Subsystem: "loader",
			Name:      "fetch_errors_total",
			Help:      "Number of failed entity store fetches.",
		}, []string{"kind"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gorelay",
			Subsystem: "connection",
			Name:      "pages_total",
			Help:      "Number of executed connection pages.",
		}, []string{"kind", "direction"}),
	}

	if reg != nil {
		reg.MustRegister(m.fetches, m.fetchedIDs, m.fetchErrors, m.pages)
	}

	return m
}

func (m *Metrics) observeFetch(kind string, ids int, err error) {
	if m == nil {
		return
	}

	m.fetches.WithLabelValues(kind).Inc()
	m.fetchedIDs.WithLabelValues(kind).Add(float64(ids))
	if err != nil {
		m.fetchErrors.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) observePage(kind string, direction string) {
	if m == nil {
		return
	}

	m.pages.WithLabelValues(kind, direction).Inc()
}
