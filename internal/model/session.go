// Package model 包含了应用的数据模型定义。
package model

import "time"

// Speaker 标识一轮对话的发言方。
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// SessionStatus 是议价会话的状态。
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionAgreed SessionStatus = "agreed"
)

// Turn 代表会话中的一条消息。Rule 和 Score 只在机器人回复上填写。
type Turn struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	Rule    string    `json:"rule,omitempty"`
	Score   *float64  `json:"score,omitempty"`
	At      time.Time `json:"at"`
}

// Session 是一次议价会话，存储在 Redis 中，以会话 ID 为键。
// BestOffer 是买家报过的最高有效报价，AgreedPrice 在第一次成交时填写，之后不再变化。
type Session struct {
	ID          string        `json:"id"`
	Status      SessionStatus `json:"status"`
	Turns       []Turn        `json:"turns"`
	BestOffer   int           `json:"bestOffer,omitempty"`
	AgreedPrice int           `json:"agreedPrice,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// AppendTurns 追加消息并把记录裁剪到最多 maxTurns 条，第一条（开场白）始终保留。
func (s *Session) AppendTurns(maxTurns int, turns ...Turn) {
	s.Turns = append(s.Turns, turns...)
	if maxTurns > 1 && len(s.Turns) > maxTurns {
		trimmed := make([]Turn, 0, maxTurns)
		trimmed = append(trimmed, s.Turns[0])
		trimmed = append(trimmed, s.Turns[len(s.Turns)-(maxTurns-1):]...)
		s.Turns = trimmed
	}
}
