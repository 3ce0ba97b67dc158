package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rockfall"

// Metrics holds the Prometheus counters, histograms, and gauges for the risk pipeline.
type Metrics struct {
	Submissions    *prometheus.CounterVec // labels: outcome={accepted,rejected,superseded}
	AssessmentsBy  *prometheus.CounterVec // labels: level={unknown,low,medium,high}
	CompositeScore prometheus.Gauge

	// Source fetch metrics.
	SourceFailures      *prometheus.CounterVec   // labels: source={sensor,weather,predict,site}
	SourceFetchDuration *prometheus.HistogramVec // labels: source

	// Polling metrics.
	PollTicks     prometheus.Counter
	StaleResults  prometheus.Counter
	PollingActive prometheus.Gauge

	Alerts *prometheus.CounterVec // labels: kind={low,moderate,high,warning,info}

	// Site labelling metrics.
	GeocodeCache   *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeEnabled prometheus.Gauge

	EventsPublished *prometheus.CounterVec // labels: outcome={ok,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Location submissions by outcome.",
		}, []string{"outcome"}),
		AssessmentsBy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Risk assessments produced, by resolved level.",
		}, []string{"level"}),
		CompositeScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "composite_score",
			Help:      "Composite score of the most recent assessment.",
		}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Source fetches that failed and fell back to defaults.",
		}, []string{"source"}),
		SourceFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Backend fetch duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		PollTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Sensor poll cycles executed.",
		}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Fetch results discarded because a newer session superseded them.",
		}),
		PollingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "polling_active",
			Help:      "1 while a polling session is active, 0 when idle.",
		}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts dispatched by kind.",
		}, []string{"kind"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Site label cache lookups by result.",
		}, []string{"result"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when site labelling is enabled, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Assessment events handed to the publisher, by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Submissions,
		m.AssessmentsBy,
		m.CompositeScore,
		m.SourceFailures,
		m.SourceFetchDuration,
		m.PollTicks,
		m.StaleResults,
		m.PollingActive,
		m.Alerts,
		m.GeocodeCache,
		m.GeocodeEnabled,
		m.EventsPublished,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
