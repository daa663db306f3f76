// Package sentiment 负责把用户消息转成 [-1, 1] 区间内的情感极性分数。
package sentiment

import "context"

// Estimator 是底层的极性估计器，返回值应在 [-1, 1] 内，失败时返回 error。
type Estimator interface {
	Polarity(ctx context.Context, text string) (float64, error)
}

// EstimatorFunc 让普通函数满足 Estimator 接口，测试中用来替换真实模型。
type EstimatorFunc func(ctx context.Context, text string) (float64, error)

// Polarity 调用 f 本身。
func (f EstimatorFunc) Polarity(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}
