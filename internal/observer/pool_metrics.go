package observer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/anime-shed/lesion-inspector-go/internal/analyzer"
)

// PoolStatsSource is satisfied by *analyzer.WorkerPool
type PoolStatsSource interface {
	Size() int
	GetStats() analyzer.PoolStats
}

// RegisterPoolMetrics exposes the batch worker pool counters on reg. The
// values are read at scrape time.
func RegisterPoolMetrics(reg prometheus.Registerer, pool PoolStatsSource) {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "worker_pool",
		Name:      "size",
		Help:      "Number of batch analysis workers.",
	}, func() float64 { return float64(pool.Size()) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "worker_pool",
		Name:      "active_workers",
		Help:      "Workers currently running an analysis.",
	}, func() float64 { return float64(pool.GetStats().ActiveWorkers) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "worker_pool",
		Name:      "jobs_submitted_total",
		Help:      "Analyses accepted by the worker pool.",
	}, func() float64 { return float64(pool.GetStats().TotalJobs) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "worker_pool",
		Name:      "jobs_completed_total",
		Help:      "Analyses finished by the worker pool.",
	}, func() float64 { return float64(pool.GetStats().CompletedJobs) })
}
