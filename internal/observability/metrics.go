package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_hotspots"

// Metrics holds the Prometheus counters, histograms, and gauges for the hotspot service.
type Metrics struct {
	ReportsLoaded  prometheus.Gauge
	ReportsSkipped prometheus.Gauge
	HotspotCount   prometheus.Gauge
	PipelineReady  prometheus.Gauge

	// Selection path metrics.
	HotspotRequestDuration prometheus.Histogram
	ContextExtractions     *prometheus.CounterVec // labels: source={tweet_geo,profile,entity,unknown}

	// Visual enrichment metrics.
	ImageSearches       *prometheus.CounterVec // labels: outcome={results,empty,error}
	ImageSearchDuration prometheus.Histogram
	VisualDownloads     *prometheus.CounterVec // labels: outcome={saved,download_error,invalid_image,store_error}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge

	// Story metrics.
	SessionsCreated prometheus.Counter
	SessionsEvicted prometheus.Counter
	ChapterAdvances prometheus.Counter

	// Messaging metrics.
	SummariesPublished prometheus.Counter
	PublishErrors      prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reports_loaded",
			Help:      "Reports held in memory after the last load.",
		}),
		ReportsSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reports_skipped",
			Help:      "Rows dropped from the report table because of unusable coordinates.",
		}),
		HotspotCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hotspots",
			Help:      "Non-empty H3 cells in the current aggregate.",
		}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_ready",
			Help:      "1 when reports are loaded and aggregated, 0 otherwise.",
		}),
		HotspotRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hotspot_request_duration_seconds",
			Help:      "Duration of a full hotspot selection: context extraction, geocoding and visuals.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ContextExtractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_extractions_total",
			Help:      "Context extractions by winning location source.",
		}, []string{"source"}),
		ImageSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_searches_total",
			Help:      "Image searches by outcome.",
		}, []string{"outcome"}),
		ImageSearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_search_duration_seconds",
			Help:      "Image search request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		VisualDownloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visual_downloads_total",
			Help:      "Candidate image downloads by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "story_sessions_created_total",
			Help:      "Story sessions started.",
		}),
		SessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "story_sessions_evicted_total",
			Help:      "Story sessions dropped after idling past the TTL or to make room.",
		}),
		ChapterAdvances: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "story_chapter_advances_total",
			Help:      "Successful chapter advances across all sessions.",
		}),
		SummariesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_published_total",
			Help:      "Hotspot summaries written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed hotspot summary publishes.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsLoaded,
		m.ReportsSkipped,
		m.HotspotCount,
		m.PipelineReady,
		m.HotspotRequestDuration,
		m.ContextExtractions,
		m.ImageSearches,
		m.ImageSearchDuration,
		m.VisualDownloads,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.SessionsCreated,
		m.SessionsEvicted,
		m.ChapterAdvances,
		m.SummariesPublished,
		m.PublishErrors,
	}
}
