package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	replenishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listenup_replenish_total",
		Help: "Replenishment attempts by kind and mode (background or sync).",
	}, []string{"kind", "mode"})

	replenishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listenup_replenish_failures_total",
		Help: "Replenishment attempts that ended in an error.",
	}, []string{"kind", "mode"})

	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listenup_deliveries_total",
		Help: "Content items delivered to users.",
	}, []string{"kind"})

	winsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listenup_wins_total",
		Help: "Claimed game wins.",
	})
)
