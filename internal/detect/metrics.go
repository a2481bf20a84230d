package detect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // prometheus collectors are process-wide singletons
var (
	OpportunitiesDetectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "detect_opportunities_total",
		Help: "Opportunities emitted, labeled by detector type.",
	}, []string{"type"})

	NetEdgeBPS = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "detect_net_edge_bps",
		Help:    "Net edge of emitted opportunities, in basis points.",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2000, 5000},
	}, []string{"type"})

	DetectionDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "detect_duration_seconds",
		Help:    "Wall time spent inside a single detector invocation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	DetectorPanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "detect_panics_total",
		Help: "Detector invocations that recovered from a panic.",
	}, []string{"type"})
)
