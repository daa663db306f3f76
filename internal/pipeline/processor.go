// Package pipeline 定义了议价事件的审计处理流程。
package pipeline

import (
	"context"
	"fmt"
	"speaker-negotiator/internal/model"
	"speaker-negotiator/internal/repository"
	"speaker-negotiator/pkg/events"
	"speaker-negotiator/pkg/log"
)

// TurnIndexer 把一轮议价写入检索引擎。
type TurnIndexer interface {
	IndexTurn(ctx context.Context, doc model.TurnDocument) error
}

// Processor 封装了事件处理的所有依赖和逻辑。
type Processor struct {
	recordRepo repository.NegotiationRecordRepository
	indexer    TurnIndexer
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(recordRepo repository.NegotiationRecordRepository, indexer TurnIndexer) *Processor {
	return &Processor{recordRepo: recordRepo, indexer: indexer}
}

// Process 先把事件写入 MySQL，再索引到 Elasticsearch。两步都按事件 ID 幂等，
// 任一步失败返回错误，由消费者决定是否重试。
func (p *Processor) Process(ctx context.Context, event events.NegotiationEvent) error {
	log.Infof("[Processor] 开始处理议价事件, ID: %s, Rule: %s", event.ID, event.Rule)

	record := &model.NegotiationRecord{
		EventID:   event.ID,
		SessionID: event.SessionID,
		Message:   event.Message,
		Response:  event.Response,
		Rule:      event.Rule,
		Tier:      event.Tier,
		Outcome:   event.Outcome,
		Score:     event.Score,
		Offer:     event.Offer,
		Price:     event.Price,
		CreatedAt: event.At,
	}
	if err := p.recordRepo.Create(record); err != nil {
		log.Errorf("[Processor] 保存议价记录失败, ID: %s, Error: %v", event.ID, err)
		return fmt.Errorf("保存议价记录失败: %w", err)
	}

	doc := model.TurnDocument{
		EventID:   event.ID,
		SessionID: event.SessionID,
		Message:   event.Message,
		Response:  event.Response,
		Rule:      event.Rule,
		Tier:      event.Tier,
		Outcome:   event.Outcome,
		Score:     event.Score,
		CreatedAt: event.At,
	}
	if err := p.indexer.IndexTurn(ctx, doc); err != nil {
		log.Errorf("[Processor] 索引议价轮次到Elasticsearch失败, ID: %s, Error: %v", event.ID, err)
		return fmt.Errorf("索引议价轮次失败: %w", err)
	}

	log.Infof("[Processor] 议价事件处理成功, ID: %s", event.ID)
	return nil
}
