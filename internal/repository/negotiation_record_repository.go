package repository

import (
	"speaker-negotiator/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NegotiationRecordRepository 接口定义了议价审计记录的持久化操作。
type NegotiationRecordRepository interface {
	Create(record *model.NegotiationRecord) error
	FindWithPagination(offset, limit int, rule string) ([]model.NegotiationRecord, int64, error)
	FindBySession(sessionID string) ([]model.NegotiationRecord, error)
}

// negotiationRecordRepository 是 NegotiationRecordRepository 接口的 GORM 实现。
type negotiationRecordRepository struct {
	db *gorm.DB
}

// NewNegotiationRecordRepository 创建一个新的 NegotiationRecordRepository 实例。
func NewNegotiationRecordRepository(db *gorm.DB) NegotiationRecordRepository {
	return &negotiationRecordRepository{db: db}
}

// Create 写入一条审计记录。同一 EventID 重复投递时静默忽略，保证消费幂等。
func (r *negotiationRecordRepository) Create(record *model.NegotiationRecord) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error
}

// FindWithPagination 按创建时间倒序分页检索记录，rule 非空时只返回该规则的记录。
// 它返回记录列表、总记录数和可能发生的错误。
func (r *negotiationRecordRepository) FindWithPagination(offset, limit int, rule string) ([]model.NegotiationRecord, int64, error) {
	var records []model.NegotiationRecord
	var total int64

	query := func() *gorm.DB {
		db := r.db.Model(&model.NegotiationRecord{})
		if rule != "" {
			db = db.Where("rule = ?", rule)
		}
		return db
	}

	// 首先计算总记录数
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 然后根据偏移量和限制获取当前页的数据
	err := query().Order("id DESC").Offset(offset).Limit(limit).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// FindBySession 返回某个会话的全部记录，按写入顺序排列。
func (r *negotiationRecordRepository) FindBySession(sessionID string) ([]model.NegotiationRecord, error) {
	var records []model.NegotiationRecord
	err := r.db.Where("session_id = ?", sessionID).Order("id ASC").Find(&records).Error
	return records, err
}
