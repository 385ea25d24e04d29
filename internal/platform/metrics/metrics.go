package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the admin core.
type Metrics struct {
	SnapshotsDelivered prometheus.Counter
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheShared        prometheus.Counter
	LoginsDenied       *prometheus.CounterVec
	RecordsDeleted     prometheus.Counter
	CleanupWarnings    prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers metrics on the given registerer so test suites can use
// isolated registries.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SnapshotsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartkyc_directory_snapshots_delivered_total",
			Help: "Total number of directory snapshots delivered to consumers",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartkyc_evidence_cache_hits_total",
			Help: "Evidence cache lookups served without a blob store round trip",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartkyc_evidence_cache_misses_total",
			Help: "Evidence cache lookups that required a blob store listing",
		}),
		CacheShared: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartkyc_evidence_cache_shared_total",
			Help: "Evidence cache lookups that piggybacked on an in-flight fetch",
		}),
		LoginsDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartkyc_logins_denied_total",
			Help: "Login attempts rejected, by reason",
		}, []string{"reason"}),
		RecordsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartkyc_records_deleted_total",
			Help: "Verification records deleted by administrators",
		}),
		CleanupWarnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartkyc_cleanup_warnings_total",
			Help: "Evidence blobs that survived a best-effort cascade deletion",
		}),
	}
}
