// Package events 定义了每轮议价后发布到 Kafka 的事件。
package events

import (
	"context"
	"time"
)

// NegotiationEvent 描述一轮已完成的议价。ID 在发布前生成，消费端据此去重。
type NegotiationEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Rule      string    `json:"rule"`
	Tier      string    `json:"tier,omitempty"`
	Outcome   string    `json:"outcome"`
	Score     float64   `json:"score"`
	Offer     *int      `json:"offer,omitempty"`
	Price     int       `json:"price"`
	At        time.Time `json:"at"`
}

// Publisher 发布议价事件。
type Publisher interface {
	Publish(ctx context.Context, event NegotiationEvent) error
}

// NopPublisher 丢弃所有事件，审计链路关闭时使用。
type NopPublisher struct{}

// Publish 实现 Publisher。
func (NopPublisher) Publish(context.Context, NegotiationEvent) error { return nil }
