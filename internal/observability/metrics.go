package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the lookup service.
type Metrics struct {
	Searches *prometheus.CounterVec // labels: outcome={empty,resolved,disambiguating,error,superseded}

	// Open data fetch metrics.
	FetchRequests  *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration  prometheus.Histogram
	RecordsFetched prometheus.Histogram

	// Session metrics.
	SessionCache   *prometheus.CounterVec // labels: result={hit,miss,corrupt}
	SessionsActive prometheus.Gauge

	// Search event feed metrics.
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
	EventsEnabled   prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Searches,
		m.FetchRequests,
		m.FetchDuration,
		m.RecordsFetched,
		m.SessionCache,
		m.SessionsActive,
		m.EventsPublished,
		m.EventsEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plate_lookup",
			Name:      "searches_total",
			Help:      "Plate searches by terminal outcome.",
		}, []string{"outcome"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plate_lookup",
			Name:      "fetch_requests_total",
			Help:      "Open data requests by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plate_lookup",
			Name:      "fetch_duration_seconds",
			Help:      "Open data request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RecordsFetched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plate_lookup",
			Name:      "records_fetched",
			Help:      "Number of violation records returned per search.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		SessionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plate_lookup",
			Name:      "session_cache_total",
			Help:      "Session result cache reads by result.",
		}, []string{"result"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plate_lookup",
			Name:      "sessions_active",
			Help:      "Number of live sessions in the session store.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plate_lookup",
			Name:      "events_published_total",
			Help:      "Search events published to Kafka by outcome.",
		}, []string{"outcome"}),
		EventsEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plate_lookup",
			Name:      "events_enabled",
			Help:      "1 when the search event feed is enabled, 0 otherwise.",
		}),
	}
}
