package sentiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"speaker-negotiator/internal/metrics"
)

func fixed(v float64) EstimatorFunc {
	return func(ctx context.Context, text string) (float64, error) { return v, nil }
}

func TestClassify_PassesThroughScore(t *testing.T) {
	c := NewClassifier(fixed(0.35))
	assert.Equal(t, 0.35, c.Classify(context.Background(), "anything"))
}

func TestClassify_FailsToNeutral(t *testing.T) {
	cases := map[string]Estimator{
		"error": EstimatorFunc(func(ctx context.Context, text string) (float64, error) {
			return 0.9, errors.New("model unavailable")
		}),
		"panic": EstimatorFunc(func(ctx context.Context, text string) (float64, error) {
			panic("corrupt model")
		}),
		"nan": fixed(math.NaN()),
	}
	for name, est := range cases {
		t.Run(name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.SentimentFailures)
			c := NewClassifier(est)
			assert.Equal(t, Neutral, c.Classify(context.Background(), "\xff\xfe broken"))
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.SentimentFailures))
		})
	}
}

func TestClassify_ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, 1.0, NewClassifier(fixed(3.2)).Classify(context.Background(), "x"))
	assert.Equal(t, -1.0, NewClassifier(fixed(-7)).Classify(context.Background(), "x"))
	assert.Equal(t, 1.0, NewClassifier(fixed(math.Inf(1))).Classify(context.Background(), "x"))
}

func TestClassify_AlwaysInRangeWithLexicon(t *testing.T) {
	c := NewClassifier(NewLexiconEstimator(nil))
	inputs := []string{"", "   ", "\x00\x01", "!!!!!!!!", "very very very very great!!!!", "not not bad", "日本語のテキスト"}
	for _, in := range inputs {
		score := c.Classify(context.Background(), in)
		assert.GreaterOrEqual(t, score, -1.0, in)
		assert.LessOrEqual(t, score, 1.0, in)
	}
}

func TestClassify_CancelledContextIsNeutral(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClassifier(NewLexiconEstimator(nil))
	assert.Equal(t, Neutral, c.Classify(ctx, "this is great"))
}
