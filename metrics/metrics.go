package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Install result label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// AssetsCached tracks the number of assets in the active cache
	AssetsCached = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_precached_assets",
		Help: "Number of assets stored by the last successful install",
	})

	// InstallsTotal tracks install runs by result
	InstallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_installs_total",
		Help: "Total number of install runs",
	}, []string{"result"})

	// InstallDuration tracks how long install runs take
	InstallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_install_duration_seconds",
		Help:    "Duration of install runs in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// CacheHits tracks requests answered from the cache
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_cache_hits_total",
		Help: "Total number of requests served from the cache",
	})

	// CacheMisses tracks requests forwarded to the upstream
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_cache_misses_total",
		Help: "Total number of requests forwarded to the upstream",
	})

	// UpstreamErrors tracks failed upstream requests on the fall-through path
	UpstreamErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_upstream_errors_total",
		Help: "Total number of failed upstream requests",
	})
)

// RecordInstall records the outcome and duration of an install run
func RecordInstall(result string, elapsed time.Duration) {
	InstallsTotal.WithLabelValues(result).Inc()
	InstallDuration.Observe(elapsed.Seconds())
}

// SetAssetsCached updates the cached asset count gauge
func SetAssetsCached(count int) {
	AssetsCached.Set(float64(count))
}

// RecordCacheHit increments the cache hit counter
func RecordCacheHit() {
	CacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter
func RecordCacheMiss() {
	CacheMisses.Inc()
}

// RecordUpstreamError increments the upstream error counter
func RecordUpstreamError() {
	UpstreamErrors.Inc()
}
