package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"speaker-negotiator/internal/model"
	"speaker-negotiator/internal/repository"
	"time"
)

// ErrAuditDisabled 表示审计链路未启用，相关的管理接口不可用。
var ErrAuditDisabled = errors.New("audit is disabled")

// RecordListResponse 定义了议价记录列表 API 的响应结构。
type RecordListResponse struct {
	Content       []RecordDetailResponse `json:"content"`
	TotalElements int64                  `json:"totalElements"`
	TotalPages    int                    `json:"totalPages"`
	Size          int                    `json:"size"`
	Number        int                    `json:"number"`
}

// RecordDetailResponse 定义了议价记录列表项的详细结构。
type RecordDetailResponse struct {
	ID        uint            `json:"id"`
	SessionID string          `json:"sessionId"`
	Message   string          `json:"message"`
	Response  string          `json:"response"`
	Rule      string          `json:"rule"`
	Tier      string          `json:"tier"`
	Outcome   string          `json:"outcome"`
	Score     float64         `json:"score"`
	Offer     *int            `json:"offer"`
	Price     int             `json:"price"`
	CreatedAt model.LocalTime `json:"createdAt"`
}

// TranscriptExport 是一次会话导出的结果。
type TranscriptExport struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// TurnSearcher 在已索引的议价轮次中全文检索。
type TurnSearcher interface {
	SearchTurns(ctx context.Context, query string, size int) ([]model.TurnSearchResult, error)
}

// TranscriptUploader 上传会话记录并返回下载链接。
type TranscriptUploader interface {
	PutTranscript(ctx context.Context, sessionID string, data []byte) (string, error)
}

// AdminService 接口定义了所有管理员相关的业务操作。
type AdminService interface {
	ListRecords(page, size int, rule string) (*RecordListResponse, error)
	SearchTurns(ctx context.Context, query string, size int) ([]model.TurnSearchResult, error)
	ExportTranscript(ctx context.Context, sessionID string) (*TranscriptExport, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// adminService 是 AdminService 接口的实现。审计关闭时 recordRepo、searcher、uploader 为 nil。
type adminService struct {
	recordRepo repository.NegotiationRecordRepository
	searcher   TurnSearcher
	uploader   TranscriptUploader
	sessions   repository.SessionRepository
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(
	recordRepo repository.NegotiationRecordRepository,
	searcher TurnSearcher,
	uploader TranscriptUploader,
	sessions repository.SessionRepository,
) AdminService {
	return &adminService{
		recordRepo: recordRepo,
		searcher:   searcher,
		uploader:   uploader,
		sessions:   sessions,
	}
}

// ListRecords 以分页的形式返回议价记录，rule 非空时按规则过滤。
func (s *adminService) ListRecords(page, size int, rule string) (*RecordListResponse, error) {
	if s.recordRepo == nil {
		return nil, ErrAuditDisabled
	}
	offset := (page - 1) * size
	records, total, err := s.recordRepo.FindWithPagination(offset, size, rule)
	if err != nil {
		return nil, err
	}

	content := make([]RecordDetailResponse, 0, len(records)) // 初始化为空数组，而不是 nil
	for _, r := range records {
		content = append(content, RecordDetailResponse{
			ID:        r.ID,
			SessionID: r.SessionID,
			Message:   r.Message,
			Response:  r.Response,
			Rule:      r.Rule,
			Tier:      r.Tier,
			Outcome:   r.Outcome,
			Score:     r.Score,
			Offer:     r.Offer,
			Price:     r.Price,
			CreatedAt: model.LocalTime(r.CreatedAt),
		})
	}

	totalPages := 0
	if total > 0 && size > 0 {
		totalPages = (int(total) + size - 1) / size
	}

	return &RecordListResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Number:        page,
	}, nil
}

// SearchTurns 在买家消息和机器人回复中检索。
func (s *adminService) SearchTurns(ctx context.Context, query string, size int) ([]model.TurnSearchResult, error) {
	if s.searcher == nil {
		return nil, ErrAuditDisabled
	}
	return s.searcher.SearchTurns(ctx, query, size)
}

// ExportTranscript 把会话记录序列化为 JSON 上传到对象存储，返回限时下载链接。
func (s *adminService) ExportTranscript(ctx context.Context, sessionID string) (*TranscriptExport, error) {
	if s.uploader == nil || s.recordRepo == nil {
		return nil, ErrAuditDisabled
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// 审计记录里有每轮的情感档位和报价，随会话一起导出
	records, err := s.recordRepo.FindBySession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("读取议价记录失败: %w", err)
	}
	data, err := json.MarshalIndent(struct {
		*model.Session
		Records    []model.NegotiationRecord `json:"records"`
		ExportedAt time.Time                 `json:"exportedAt"`
	}{session, records, time.Now()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("序列化会话记录失败: %w", err)
	}
	url, err := s.uploader.PutTranscript(ctx, sessionID, data)
	if err != nil {
		return nil, err
	}
	return &TranscriptExport{SessionID: sessionID, URL: url}, nil
}

// DeleteSession 删除一个会话，之后该会话的 token 无法再读取记录。
func (s *adminService) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}
