// Package sentiment 提供远程情感极性估计服务的客户端。
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"speaker-negotiator/internal/config"
	"speaker-negotiator/internal/metrics"
	"speaker-negotiator/pkg/log"

	"github.com/sony/gobreaker"
)

// Client 调用远程情感服务，满足 internal/sentiment.Estimator 接口。
type Client struct {
	cfg     config.RemoteSentiment
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient 创建远程情感服务客户端，连续失败达到 MaxFailures 次后断路器打开，
// 在 OpenTimeout 内的请求直接失败，不再访问远程服务。
func NewClient(cfg config.RemoteSentiment) *Client {
	settings := gobreaker.Settings{
		Name:        "sentiment",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("[SentimentClient] 断路器 %s 状态变化: %s -> %s", name, from, to)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	}
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

type polarityRequest struct {
	Text string `json:"text"`
}

type polarityResponse struct {
	SentimentScore *float64 `json:"sentiment_score"`
	SentimentLabel string   `json:"sentiment_label"`
	Confidence     float64  `json:"confidence"`
}

// Polarity 返回远程服务给出的极性分数。
func (c *Client) Polarity(ctx context.Context, text string) (float64, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, text)
	})
	if err != nil {
		return 0, err
	}
	return result.(float64), nil
}

func (c *Client) call(ctx context.Context, text string) (float64, error) {
	reqBytes, err := json.Marshal(polarityRequest{Text: text})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal sentiment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/sentiment", bytes.NewReader(reqBytes))
	if err != nil {
		return 0, fmt.Errorf("failed to create sentiment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call sentiment api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sentiment api returned non-200 status: %s", resp.Status)
	}

	var body polarityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode sentiment response: %w", err)
	}
	if body.SentimentScore == nil {
		return 0, fmt.Errorf("sentiment response has no sentiment_score")
	}
	return *body.SentimentScore, nil
}
