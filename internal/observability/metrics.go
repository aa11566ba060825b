package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the refresh
// pipeline and the dashboard server.
type Metrics struct {
	FeedsFetched   *prometheus.CounterVec // labels: outcome={success,error,empty}
	StoriesMerged  prometheus.Counter
	RefreshRunning prometheus.Gauge

	RefreshDuration prometheus.Histogram
	FetchDuration   prometheus.Histogram

	FramesRendered  prometheus.Counter
	SelectionClicks *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FeedsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statewatch",
			Name:      "feeds_fetched_total",
			Help:      "Feed fetch attempts by outcome.",
		}, []string{"outcome"}),
		StoriesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "statewatch",
			Name:      "stories_merged_total",
			Help:      "New stories accepted into the merged list.",
		}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "statewatch",
			Name:      "refresh_running",
			Help:      "1 while a refresh cycle is in flight, 0 otherwise.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "statewatch",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-merge-score refresh cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "statewatch",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single proxied feed fetch.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}),
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "statewatch",
			Name:      "frames_rendered_total",
			Help:      "Map frames rendered to PNG.",
		}),
		SelectionClicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statewatch",
			Name:      "selection_clicks_total",
			Help:      "Map click hit tests by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.FeedsFetched,
		m.StoriesMerged,
		m.RefreshRunning,
		m.RefreshDuration,
		m.FetchDuration,
		m.FramesRendered,
		m.SelectionClicks,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FeedsFetched:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "statewatch", Name: "feeds_fetched_total"}, []string{"outcome"}),
		StoriesMerged:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "statewatch", Name: "stories_merged_total"}),
		RefreshRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "statewatch", Name: "refresh_running"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "statewatch", Name: "refresh_duration_seconds"}),
		FetchDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "statewatch", Name: "fetch_duration_seconds"}),
		FramesRendered:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "statewatch", Name: "frames_rendered_total"}),
		SelectionClicks: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "statewatch", Name: "selection_clicks_total"}, []string{"result"}),
	}
}
