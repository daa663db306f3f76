package model

import "time"

// TurnDocument 是索引到 Elasticsearch 中的一轮议价。
type TurnDocument struct {
	EventID   string    `json:"event_id"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Rule      string    `json:"rule"`
	Tier      string    `json:"tier"`
	Outcome   string    `json:"outcome"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// TurnSearchResult 是返回给管理端的搜索结果。
type TurnSearchResult struct {
	TurnDocument
	Hit float64 `json:"hit"`
}
