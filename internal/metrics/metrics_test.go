package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		DecisionsTotal,
		DecisionDuration,
		NegotiationFailures,
		DealsTotal,
		SentimentFailures,
		CircuitBreakerState,
		SessionStoreErrors,
		EventsPublished,
		WebSocketConnectionsCurrent,
	}
	for _, c := range collectors {
		assert.NotNil(t, c)
	}
}

func TestDecisionsTotalLabels(t *testing.T) {
	before := testutil.ToFloat64(DecisionsTotal.WithLabelValues("fallback", "neutral"))
	DecisionsTotal.WithLabelValues("fallback", "neutral").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DecisionsTotal.WithLabelValues("fallback", "neutral")))
}
