package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifelog",
		Subsystem: "ledger",
		Name:      "record_writes_total",
		Help:      "Records written, by record kind and uniqueness class.",
	}, []string{"kind", "class"})
	domainFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifelog",
		Subsystem: "analytics",
		Name:      "domain_failures_total",
		Help:      "Analytics domain reads that failed or timed out and fell back to the zero default.",
	}, []string{"domain"})
	summarizeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lifelog",
		Subsystem: "analytics",
		Name:      "summarize_duration_seconds",
		Help:      "Wall time of a full analytics summary.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(recordWrites, domainFailures, summarizeDuration)
}

// RecordWrite counts one successful ledger write.
func RecordWrite(kind, class string) {
	recordWrites.WithLabelValues(kind, class).Inc()
}

// RecordDomainFailure counts one analytics domain that fell back to its zero default.
func RecordDomainFailure(domain string) {
	domainFailures.WithLabelValues(domain).Inc()
}

// ObserveSummarize records how long a summary took, measured from start.
func ObserveSummarize(start time.Time) {
	if start.IsZero() {
		return
	}
	summarizeDuration.Observe(time.Since(start).Seconds())
}
