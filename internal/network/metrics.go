package network

import "github.com/prometheus/client_golang/prometheus"

// channelSendQueueDepth samples, on every enqueued packet, how many
// packets were already waiting in that channel's send buffer — a
// distribution of KCP send-side backpressure across every live
// reliable/unreliable/chunk channel, since there's no single channel to
// hold one live gauge for. Grounded on the same prometheus.NewHistogramVec
// + MustRegister pattern internal/middleware/prometheus_middleware.go
// uses for HTTP metrics.
var channelSendQueueDepth = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "voxelcore",
	Subsystem: "network",
	Name:      "channel_send_queue_depth",
	Help:      "Packets already queued in a KCP channel's send buffer when a new packet was enqueued.",
	Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256, 512},
}, []string{"kind"})

func init() {
	prometheus.MustRegister(channelSendQueueDepth)
}
