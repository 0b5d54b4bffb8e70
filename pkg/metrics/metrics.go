// Package metrics holds the Prometheus collectors shared across the module.
// Collectors register with the default registry, which the HTTP API serves on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "appprefs"

const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// EventsPublished counts preference events by type and publish result.
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Preference events handed to the message queue.",
		},
		[]string{"type", "result"},
	)

	// SideEffects counts hooks fired by preference setters.
	SideEffects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preference_side_effects_total",
			Help:      "Sync and storage-service hooks fired by preference writes.",
		},
		[]string{"preference", "hook"},
	)

	// SchemaAnomalies counts refused downgrades and unknown stored schema versions.
	SchemaAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_anomalies_total",
			Help:      "Schema version anomalies reported by the guard.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(EventsPublished, SideEffects, SchemaAnomalies)
}
