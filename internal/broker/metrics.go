package broker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // prometheus collectors are process-wide singletons
var tradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "broker_trades_total",
	Help: "Paper trades filled, labeled by side.",
}, []string{"side"})
