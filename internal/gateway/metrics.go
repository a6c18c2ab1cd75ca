package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storyarc_gateway",
			Name:      "requests_total",
			Help:      "Backend calls executed, by mode.",
		},
		[]string{"mode"},
	)

	cacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storyarc_gateway",
			Name:      "cache_hits_total",
			Help:      "Completions served from the content-addressed cache.",
		},
	)

	tokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storyarc_gateway",
			Name:      "tokens_total",
			Help:      "Token usage accrued on live calls.",
		},
		[]string{"kind"},
	)

	costTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storyarc_gateway",
			Name:      "cost_usd_total",
			Help:      "Cumulative dollar cost of live backend calls.",
		},
	)
)
