// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"speaker-negotiator/internal/metrics"
	"speaker-negotiator/internal/model"
	"speaker-negotiator/internal/negotiation"
	"speaker-negotiator/internal/repository"
	"speaker-negotiator/pkg/events"
	"speaker-negotiator/pkg/log"
	"speaker-negotiator/pkg/token"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrNegotiationFailed 表示决策过程中出现了意外错误。
var ErrNegotiationFailed = errors.New("negotiation process failed")

// Decider 是议价决策引擎的抽象，*negotiation.Engine 实现了它。
type Decider interface {
	Enquiry(message string) (negotiation.Decision, bool)
	Decide(message string, score float64) negotiation.Decision
	OpeningPrompt() string
	ListingPrice() int
}

// Scorer 返回一段文本的情感分数，*sentiment.Classifier 实现了它。
type Scorer interface {
	Classify(ctx context.Context, text string) float64
}

// Reply 是一轮议价的结果。Score 为 nil 表示这轮是基础咨询，没有做情感分析。
type Reply struct {
	SessionID string
	Decision  negotiation.Decision
	Score     *float64
}

// Text 返回回复给买家的文本。
func (r Reply) Text() string {
	return r.Decision.Text
}

// NegotiationService 接口定义了议价相关的业务操作。
type NegotiationService interface {
	StartSession(ctx context.Context) (*model.Session, string, error)
	Negotiate(ctx context.Context, sessionID, message string) (Reply, error)
	Transcript(ctx context.Context, sessionID string) (*model.Session, error)
}

type negotiationService struct {
	engine     Decider
	classifier Scorer
	sessions   repository.SessionRepository
	publisher  events.Publisher
	jwtManager *token.JWTManager
	maxTurns   int
}

// NewNegotiationService 创建一个新的 NegotiationService 实例。
func NewNegotiationService(
	engine Decider,
	classifier Scorer,
	sessions repository.SessionRepository,
	publisher events.Publisher,
	jwtManager *token.JWTManager,
	maxTurns int,
) NegotiationService {
	return &negotiationService{
		engine:     engine,
		classifier: classifier,
		sessions:   sessions,
		publisher:  publisher,
		jwtManager: jwtManager,
		maxTurns:   maxTurns,
	}
}

// StartSession 创建一个以开场白为第一条消息的会话，并签发携带会话 ID 的买家 token。
func (s *negotiationService) StartSession(ctx context.Context) (*model.Session, string, error) {
	now := time.Now()
	session := &model.Session{
		ID:     uuid.NewString(),
		Status: model.SessionOpen,
		Turns: []model.Turn{
			{Speaker: model.SpeakerBot, Text: s.engine.OpeningPrompt(), At: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		metrics.SessionStoreErrors.WithLabelValues("create").Inc()
		return nil, "", fmt.Errorf("创建会话失败: %w", err)
	}
	tokenString, err := s.jwtManager.GenerateSessionToken(session.ID)
	if err != nil {
		return nil, "", err
	}
	log.Infow("negotiation session started", "session_id", session.ID)
	return session, tokenString, nil
}

// Negotiate 处理一条买家消息。sessionID 为空时不保存任何状态，
// 否则把本轮对话追加到会话记录中。会话存储和事件发布的失败只记录日志，不影响回复。
func (s *negotiationService) Negotiate(ctx context.Context, sessionID, message string) (Reply, error) {
	start := time.Now()
	decision, score, err := s.decide(ctx, message)
	if err != nil {
		return Reply{}, err
	}
	metrics.DecisionDuration.Observe(time.Since(start).Seconds())
	metrics.DecisionsTotal.WithLabelValues(string(decision.Rule), string(decision.Tier)).Inc()

	offer, hasOffer := negotiation.ParseOffer(message)
	if sessionID != "" {
		s.record(ctx, sessionID, message, decision, score, offer)
	}
	if decision.Outcome == negotiation.OutcomeAccept {
		metrics.DealsTotal.WithLabelValues(strconv.Itoa(decision.Price)).Inc()
	}

	event := events.NegotiationEvent{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Message:   message,
		Response:  decision.Text,
		Rule:      string(decision.Rule),
		Tier:      string(decision.Tier),
		Outcome:   string(decision.Outcome),
		Price:     decision.Price,
		At:        time.Now(),
	}
	if score != nil {
		event.Score = *score
	}
	if hasOffer {
		event.Offer = &offer
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		log.Errorw("failed to publish negotiation event", "event_id", event.ID, "error", err)
	}

	return Reply{SessionID: sessionID, Decision: decision, Score: score}, nil
}

// decide 先做基础咨询检测，命中时不计算情感分数；决策过程中的 panic 转换为 ErrNegotiationFailed。
func (s *negotiationService) decide(ctx context.Context, message string) (decision negotiation.Decision, score *float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.NegotiationFailures.Inc()
			log.Errorf("Error during negotiation: %v", r)
			decision, score, err = negotiation.Decision{}, nil, ErrNegotiationFailed
		}
	}()

	if d, ok := s.engine.Enquiry(message); ok {
		return d, nil, nil
	}
	sc := s.classifier.Classify(ctx, message)
	return s.engine.Decide(message, sc), &sc, nil
}

func (s *negotiationService) record(ctx context.Context, sessionID, message string, decision negotiation.Decision, score *float64, offer int) {
	now := time.Now()
	_, err := s.sessions.Update(ctx, sessionID, func(session *model.Session) error {
		session.AppendTurns(s.maxTurns,
			model.Turn{Speaker: model.SpeakerUser, Text: message, At: now},
			model.Turn{Speaker: model.SpeakerBot, Text: decision.Text, Rule: string(decision.Rule), Score: score, At: now},
		)
		if s.isOffer(decision, offer) && offer > session.BestOffer {
			session.BestOffer = offer
		}
		// 第一次成交后价格固定，之后的对话不再改写成交价
		if decision.Outcome == negotiation.OutcomeAccept && session.Status != model.SessionAgreed {
			session.Status = model.SessionAgreed
			session.AgreedPrice = decision.Price
		}
		return nil
	})
	if err != nil {
		metrics.SessionStoreErrors.WithLabelValues("update").Inc()
		log.Errorw("failed to record negotiation turn", "session_id", sessionID, "error", err)
	}
}

// isOffer 判断本轮消息里的数字是否算作买家报价：必须命中价格规则，且在 [1, 标价] 之间。
func (s *negotiationService) isOffer(decision negotiation.Decision, offer int) bool {
	switch decision.Outcome {
	case negotiation.OutcomeAccept, negotiation.OutcomeCounter, negotiation.OutcomeReject:
		return offer >= 1 && offer <= s.engine.ListingPrice()
	}
	return false
}

// Transcript 返回会话的完整记录。
func (s *negotiationService) Transcript(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			metrics.SessionStoreErrors.WithLabelValues("get").Inc()
		}
		return nil, err
	}
	return session, nil
}
