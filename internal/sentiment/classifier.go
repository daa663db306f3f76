package sentiment

import (
	"context"
	"fmt"
	"math"

	"speaker-negotiator/internal/metrics"
	"speaker-negotiator/pkg/log"
)

// Neutral 是分析失败时使用的中性分数。
const Neutral = 0.0

// Classifier 包装 Estimator，任何失败都降级为中性分数，调用方永远拿到一个有效分数。
type Classifier struct {
	estimator Estimator
}

// NewClassifier 创建一个新的 Classifier。
func NewClassifier(estimator Estimator) *Classifier {
	return &Classifier{estimator: estimator}
}

// Classify 返回 text 的情感分数。估计器返回错误或 panic 时记录日志并返回 0.0；
// NaN 视为失败，越界值被截断到 [-1, 1]。
func (c *Classifier) Classify(ctx context.Context, text string) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(fmt.Errorf("estimator panic: %v", r))
			score = Neutral
		}
	}()

	polarity, err := c.estimator.Polarity(ctx, text)
	if err != nil {
		c.fail(err)
		return Neutral
	}
	if math.IsNaN(polarity) {
		c.fail(fmt.Errorf("estimator returned NaN"))
		return Neutral
	}
	return clamp(polarity)
}

func (c *Classifier) fail(err error) {
	metrics.SentimentFailures.Inc()
	log.Errorf("Sentiment analysis failed: %v", err)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
