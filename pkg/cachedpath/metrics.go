package cachedpath

import "github.com/prometheus/client_golang/prometheus"

// MetricsRecorder observes cache activity. It is an optional, additive
// concern: the zero value of Cache never records metrics.
type MetricsRecorder interface {
	CacheHit()
	CacheMiss()
	Download(bytes int64)
	Extraction()
}

type noopMetrics struct{}

func (noopMetrics) CacheHit()          {}
func (noopMetrics) CacheMiss()         {}
func (noopMetrics) Download(int64)     {}
func (noopMetrics) Extraction()        {}

// PrometheusMetrics is a MetricsRecorder backed by
// github.com/prometheus/client_golang counters, registered against reg.
type PrometheusMetrics struct {
	hits         prometheus.Counter
	misses       prometheus.Counter
	downloads    prometheus.Counter
	downloadedB  prometheus.Counter
	extractions  prometheus.Counter
}

// NewPrometheusMetrics creates and registers the counters cachedpath
// exposes against reg. reg may be prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cachedpath_cache_hits_total",
			Help: "Number of cached_path resolutions served without a download.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cachedpath_cache_misses_total",
			Help: "Number of cached_path resolutions that required a download.",
		}),
		downloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cachedpath_downloads_total",
			Help: "Number of completed downloads.",
		}),
		downloadedB: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cachedpath_downloaded_bytes_total",
			Help: "Total bytes downloaded across all entries.",
		}),
		extractions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cachedpath_extractions_total",
			Help: "Number of archive extractions performed.",
		}),
	}

	for _, c := range []prometheus.Collector{m.hits, m.misses, m.downloads, m.downloadedB, m.extractions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *PrometheusMetrics) CacheHit()  { m.hits.Inc() }
func (m *PrometheusMetrics) CacheMiss() { m.misses.Inc() }
func (m *PrometheusMetrics) Download(bytes int64) {
	m.downloads.Inc()
	m.downloadedB.Add(float64(bytes))
}
func (m *PrometheusMetrics) Extraction() { m.extractions.Inc() }
