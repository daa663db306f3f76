// Package metrics 定义议价服务的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Negotiation metrics
var (
	// DecisionsTotal 按规则和情感档位统计回复次数
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "negotiation_decisions_total",
			Help: "Total negotiation decisions by rule and tier",
		},
		[]string{"rule", "tier"},
	)

	// DecisionDuration 一次 分类+决策 的耗时
	DecisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "negotiation_decision_duration_seconds",
			Help:    "Time spent classifying and deciding one message",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1},
		},
	)

	// NegotiationFailures 决策阶段的意外失败
	NegotiationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "negotiation_failures_total",
			Help: "Unexpected failures while deciding a response",
		},
	)

	// DealsTotal 按成交价统计成交次数
	DealsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "negotiation_deals_total",
			Help: "Accepted offers by agreed price",
		},
		[]string{"price"},
	)
)

// Sentiment metrics
var (
	SentimentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentiment_failures_total",
			Help: "Polarity estimator failures downgraded to a neutral score",
		},
	)

	// CircuitBreakerState 远程情感服务断路器状态 (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Session and event metrics
var (
	SessionStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_store_errors_total",
			Help: "Session store failures by operation",
		},
		[]string{"operation"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "negotiation_events_published_total",
			Help: "Negotiation events handed to the publisher by status",
		},
		[]string{"status"},
	)

	WebSocketConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_current",
			Help: "Open negotiation WebSocket connections",
		},
	)
)
