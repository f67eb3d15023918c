package mesh

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Build-pipeline metrics, grounded on the same prometheus.NewHistogramVec/
// NewGauge + MustRegister pattern internal/middleware/prometheus_middleware.go
// uses for HTTP request metrics — here instrumenting the Scheduler's
// worker pool instead of a Gin router.
var (
	buildDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "voxelcore",
		Subsystem: "mesh",
		Name:      "build_duration_seconds",
		Help:      "Time to rebuild one chunk's light field, visibility mask and mesh buffers.",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	}, []string{"empty"})

	buildsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxelcore",
		Subsystem: "mesh",
		Name:      "builds_in_flight",
		Help:      "Chunk rebuilds currently running on the Scheduler's worker pool.",
	})

	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxelcore",
		Subsystem: "mesh",
		Name:      "queue_depth",
		Help:      "Rebuild jobs waiting in the Scheduler's priority queue.",
	})
)

func init() {
	prometheus.MustRegister(buildDuration, buildsInFlight, queueDepth)
}

// observeBuild records one build's duration and in-flight bookkeeping;
// call start and defer the returned func at the top of Scheduler.build.
func observeBuild(empty bool) func() {
	buildsInFlight.Inc()
	start := time.Now()
	label := "false"
	if empty {
		label = "true"
	}
	return func() {
		buildDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		buildsInFlight.Dec()
	}
}
