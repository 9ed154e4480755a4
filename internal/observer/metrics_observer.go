package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "lesion_inspector"

// MetricsObserver exports analysis events as Prometheus metrics
type MetricsObserver struct {
	analyses      *prometheus.CounterVec
	duration      prometheus.Histogram
	scores        prometheus.Histogram
	fetchFailures prometheus.Counter
	historyWrites prometheus.Counter
}

// NewMetricsObserver registers its collectors on reg
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	factory := promauto.With(reg)

	return &MetricsObserver{
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analyses_total",
			Help:      "Completed lesion analyses by outcome and risk level.",
		}, []string{"outcome", "risk_level"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent analysing one image.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		scores: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "risk_score",
			Help:      "Distribution of risk scores of successful analyses.",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		}),
		fetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "image_fetch_failures_total",
			Help:      "Remote images that could not be downloaded.",
		}),
		historyWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "history_writes_total",
			Help:      "Analyses stored in user history.",
		}),
	}
}

// OnEvent handles analysis events by updating the collectors
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	switch event.EventType {
	case AnalysisCompleted:
		o.analyses.WithLabelValues("success", string(event.RiskLevel)).Inc()
		o.duration.Observe(event.ProcessingTime.Seconds())
		o.scores.Observe(float64(event.Score))
	case AnalysisFailed:
		o.analyses.WithLabelValues("failure", "").Inc()
		o.duration.Observe(event.ProcessingTime.Seconds())
	case ImageFetchFailed:
		o.fetchFailures.Inc()
	case HistorySaved:
		o.historyWrites.Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}
