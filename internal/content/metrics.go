package content

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	poolSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "listenup_pool_size",
		Help: "Number of unique items in the content pool.",
	}, []string{"kind"})

	insertedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listenup_pool_inserted_total",
		Help: "Unique items inserted into the pool.",
	}, []string{"kind"})

	duplicatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listenup_pool_duplicates_total",
		Help: "Upstream records discarded as duplicates of existing pool entries.",
	}, []string{"kind"})

	invalidTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listenup_pool_invalid_total",
		Help: "Malformed upstream records skipped during fetch.",
	}, []string{"kind"})

	fetchRoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listenup_pool_fetch_rounds_total",
		Help: "Rounds of upstream fetch calls issued by FetchMoreUnique.",
	}, []string{"kind"})

	exhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listenup_pool_exhausted_total",
		Help: "FetchMoreUnique calls that hit the retry bound short of target.",
	}, []string{"kind"})
)
