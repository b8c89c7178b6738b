package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/tosarchive/internal/domain/termindex"
)

// Scan and dependency metrics.
var (
	ScanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "scan_duration_seconds",
			Help:      "Full corpus term scan duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"mode"},
	)

	ScanFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "scan_files_total",
			Help:      "Snapshots matched by term scans",
		},
		[]string{"mode"},
	)

	ScanCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "scan_cache_total",
			Help:      "Scan cache lookups",
		},
		[]string{"result"}, // "hit" / "miss" / "bypass"
	)

	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests to the document type taxonomy URL",
		},
		[]string{"status"},
	)

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
	)
)

var registerOnce sync.Once

// RegisterScanMetrics registers scan and dependency metrics. Safe to call more than once.
func RegisterScanMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ScanDuration)
		prometheus.MustRegister(ScanFilesTotal)
		prometheus.MustRegister(ScanCacheTotal)
		prometheus.MustRegister(UpstreamRequestsTotal)
		prometheus.MustRegister(RateLimitedTotal)
	})
}

// ScanRecorder feeds scan observations into the package collectors.
type ScanRecorder struct{}

// ObserveScan records one finished scan.
func (ScanRecorder) ObserveScan(mode termindex.Mode, files int, d time.Duration) {
	ScanDuration.WithLabelValues(string(mode)).Observe(d.Seconds())
	ScanFilesTotal.WithLabelValues(string(mode)).Add(float64(files))
}
