package model

import "time"

// NegotiationRecord 是一轮议价的审计记录，对应 negotiation_records 表。
type NegotiationRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"eventId"`
	SessionID string    `gorm:"type:varchar(36);index" json:"sessionId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Response  string    `gorm:"type:text;not null" json:"response"`
	Rule      string    `gorm:"type:varchar(32);index;not null" json:"rule"`
	Tier      string    `gorm:"type:varchar(16)" json:"tier"`
	Outcome   string    `gorm:"type:varchar(16);not null" json:"outcome"`
	Score     float64   `gorm:"not null;default:0" json:"score"`
	Offer     *int      `json:"offer"`
	Price     int       `gorm:"not null;default:0" json:"price"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (NegotiationRecord) TableName() string {
	return "negotiation_records"
}
