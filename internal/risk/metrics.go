package risk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // prometheus collectors are process-wide singletons
var rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "risk_rejections_total",
	Help: "Opportunities rejected by the risk gate, by opportunity type and reason.",
}, []string{"type", "reason"})
