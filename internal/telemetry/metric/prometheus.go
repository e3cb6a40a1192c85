// Package metric provides Prometheus metrics for vectordb-go.
//
// It exposes metrics in Prometheus format for monitoring upsert/search
// throughput, WAL and snapshot activity, and ANN index state.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vectordb"

// Registry holds every metric this process exposes, backed by a private
// prometheus.Registry rather than the global default so a process can run
// more than one engine instance without collector name collisions.
type Registry struct {
	reg *prometheus.Registry

	UpsertsTotal   prometheus.Counter
	UpsertDuration prometheus.Histogram

	SearchesTotal  *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	SearchResultsK prometheus.Histogram

	SnapshotsTotal    prometheus.Counter
	SnapshotDuration  prometheus.Histogram
	LastSnapshotLogID prometheus.Gauge

	WALAppendsTotal prometheus.Counter
	WALBytesTotal   prometheus.Counter
}

// NewRegistry builds and registers every metric under namespace "vectordb".
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		UpsertsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "upserts_total",
			Help:      "Total number of Upsert calls that completed without error.",
		}),
		UpsertDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "upsert_duration_seconds",
			Help:      "Upsert call latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		SearchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "searches_total",
			Help:      "Total number of Search calls, labeled by index kind.",
		}, []string{"index_kind"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "search_duration_seconds",
			Help:      "Search call latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		SearchResultsK: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "search_results_k",
			Help:      "Requested k per Search call.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "snapshots_total",
			Help:      "Total number of completed SaveSnapshot calls.",
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "snapshot_duration_seconds",
			Help:      "SaveSnapshot call latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		LastSnapshotLogID: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "last_snapshot_log_id",
			Help:      "log_id covered by the most recently saved snapshot.",
		}),
		WALAppendsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wal",
			Name:      "appends_total",
			Help:      "Total number of WAL frames appended.",
		}),
		WALBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wal",
			Name:      "bytes_written_total",
			Help:      "Total payload bytes appended to the WAL, excluding frame headers.",
		}),
	}

	reg.MustRegister(
		r.UpsertsTotal,
		r.UpsertDuration,
		r.SearchesTotal,
		r.SearchDuration,
		r.SearchResultsK,
		r.SnapshotsTotal,
		r.SnapshotDuration,
		r.LastSnapshotLogID,
		r.WALAppendsTotal,
		r.WALBytesTotal,
	)

	return r
}

// Registerer exposes the underlying registry so other packages (kvstore's
// BadgerStore, in particular) can register their own collectors onto the
// same registry instead of the global default.
func (r *Registry) Registerer() *prometheus.Registry {
	return r.reg
}

// Handler returns the HTTP handler serving this registry at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
