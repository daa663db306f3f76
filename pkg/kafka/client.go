// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"speaker-negotiator/internal/config"
	"speaker-negotiator/internal/metrics"
	"speaker-negotiator/pkg/events"
	"speaker-negotiator/pkg/log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// 同一事件处理失败达到该次数后提交 offset，不再重试
const maxAttempts = 3

// 第 n 次失败后等待 n*retryBackoff 再重试
const retryBackoff = 500 * time.Millisecond

// EventProcessor 处理单个议价事件。Kafka 消费者与具体的处理流程通过它解耦。
type EventProcessor interface {
	Process(ctx context.Context, event events.NegotiationEvent) error
}

func brokers(cfg config.KafkaConfig) []string {
	var list []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			list = append(list, b)
		}
	}
	return list
}

// Producer 把议价事件写入 Kafka，实现 events.Publisher。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。写入是异步的，投递结果在 Completion 中记录。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers(cfg)...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   recordDelivery,
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

func recordDelivery(messages []kafka.Message, err error) {
	if err != nil {
		metrics.EventsPublished.WithLabelValues("error").Add(float64(len(messages)))
		log.Errorf("投递 %d 条议价事件到 Kafka 失败: %v", len(messages), err)
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Add(float64(len(messages)))
}

// Publish 以会话 ID 为 key 发送事件，同一会话的事件落在同一分区，保持顺序。
func (p *Producer) Publish(ctx context.Context, event events.NegotiationEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	key := event.SessionID
	if key == "" {
		key = event.ID
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value})
}

// Close 刷新并关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer 从 Kafka 读取议价事件并交给 EventProcessor 处理。
type Consumer struct {
	reader    messageReader
	processor EventProcessor
	rdb       *redis.Client
	backoff   time.Duration
}

// NewConsumer 创建消费者，失败次数记录在 Redis 中。
func NewConsumer(cfg config.KafkaConfig, processor EventProcessor, rdb *redis.Client) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: r, processor: processor, rdb: rdb, backoff: retryBackoff}
}

// Run 持续消费直到 ctx 被取消。
func (c *Consumer) Run(ctx context.Context) {
	log.Infof("Kafka 消费者已启动")
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}
		c.handle(ctx, m)
	}

	if err := c.reader.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

func attemptsKey(eventID string) string {
	return fmt.Sprintf("kafka:attempts:%s", eventID)
}

// handle 处理一条消息。失败时在原地重试，直到成功或失败次数达到上限后提交 offset。
// 失败次数记录在 Redis 中，进程重启后继续累计。ctx 被取消时直接返回，不提交 offset。
func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	var event events.NegotiationEvent
	if err := json.Unmarshal(m.Value, &event); err != nil || event.ID == "" {
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		// 消息格式错误，直接提交，避免阻塞队列
		c.commit(ctx, m)
		return
	}

	var failures int64
	for {
		err := c.processor.Process(ctx, event)
		if err == nil {
			_ = c.rdb.Del(ctx, attemptsKey(event.ID)).Err()
			c.commit(ctx, m)
			return
		}
		failures++
		attempts := c.recordFailure(ctx, event.ID, failures)
		log.Errorf("处理议价事件失败: ID=%s, 第 %d 次, Error: %v", event.ID, attempts, err)
		if attempts >= maxAttempts {
			log.Errorf("议价事件多次失败(>=%d)，提交 offset 终止重试: ID=%s", maxAttempts, event.ID)
			c.commit(ctx, m)
			return
		}

		timer := time.NewTimer(time.Duration(attempts) * c.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// recordFailure 在 Redis 中累加失败次数并返回累计值。Redis 不可用时退回到本次处理内的计数。
func (c *Consumer) recordFailure(ctx context.Context, eventID string, local int64) int64 {
	attempts, err := c.rdb.Incr(ctx, attemptsKey(eventID)).Result()
	if err != nil {
		log.Warnf("记录议价事件失败次数出错: ID=%s, Error: %v", eventID, err)
		return local
	}
	_ = c.rdb.Expire(ctx, attemptsKey(eventID), 24*time.Hour).Err()
	if attempts < local {
		return local
	}
	return attempts
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
