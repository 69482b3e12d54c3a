// Package metrics defines the Prometheus collectors mffchron exposes for
// write, replay, and purge activity. The database never starts its own HTTP
// listener; an embedder registers Collectors() against its own registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the collectors the database exposes. EventsReplayed and
// ObjectsFrozen are created and registered but not updated anywhere in this
// module. The zero value is not usable; construct with New.
type Metrics struct {
	EventsWritten    prometheus.Counter
	BytesWritten     prometheus.Counter
	EventsReplayed   prometheus.Counter
	ClusterRotations prometheus.Counter
	ObjectsPurged    prometheus.Counter
	ObjectsFrozen    prometheus.Counter
	ActiveCluster    prometheus.Gauge
	ChainTipHeight   prometheus.Gauge
	WriteErrors      prometheus.Counter
	FlushDuration    prometheus.Histogram
}

// New constructs a Metrics bundle. Collectors are created but not
// registered; call Collectors and pass them to the embedder's registry.
func New() *Metrics {
	return &Metrics{
		EventsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mffchron_events_written_total",
			Help: "Total number of chronology events appended to the active cluster.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mffchron_bytes_written_total",
			Help: "Total number of serialized bytes appended to cluster files.",
		}),
		EventsReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mffchron_events_replayed_total",
			Help: "Total number of chronology events delivered to a delegate during replay.",
		}),
		ClusterRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mffchron_cluster_rotations_total",
			Help: "Total number of times the registry rotated to a new cluster file.",
		}),
		ObjectsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mffchron_objects_purged_total",
			Help: "Total number of objects dropped from the freeze and chill queues.",
		}),
		ObjectsFrozen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mffchron_objects_frozen_total",
			Help: "Total number of objects dropped from the freeze queue.",
		}),
		ActiveCluster: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mffchron_active_cluster_id",
			Help: "Id of the cluster file currently open for writes.",
		}),
		ChainTipHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mffchron_chain_tip_height",
			Help: "Height of the current chain-mirror tip.",
		}),
		WriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mffchron_write_errors_total",
			Help: "Total number of failed append operations.",
		}),
		FlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mffchron_flush_duration_seconds",
			Help:    "Duration of cluster/registry flush operations.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Collectors returns every collector in the bundle for bulk registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.EventsWritten,
		m.BytesWritten,
		m.EventsReplayed,
		m.ClusterRotations,
		m.ObjectsPurged,
		m.ObjectsFrozen,
		m.ActiveCluster,
		m.ChainTipHeight,
		m.WriteErrors,
		m.FlushDuration,
	}
}

// MustRegister registers every collector in the bundle against reg, panicking
// on a duplicate registration the way prometheus.MustRegister does.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.Collectors()...)
}
