package handler

import (
	"net/http"
	"speaker-negotiator/internal/metrics"
	"speaker-negotiator/internal/service"
	"speaker-negotiator/pkg/log"
	"speaker-negotiator/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

type wsReply struct {
	Response string `json:"response,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// ChatHandler 负责处理 WebSocket 议价连接。
type ChatHandler struct {
	negotiationService service.NegotiationService
	jwtManager         *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(negotiationService service.NegotiationService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		negotiationService: negotiationService,
		jwtManager:         jwtManager,
	}
}

// Handle 处理一个传入的 WebSocket 连接。路径中的 token 必须是买家会话 token，
// 之后每个文本帧都是一条买家消息，每条消息对应一个 JSON 回复帧。
func (h *ChatHandler) Handle(c *gin.Context) {
	claims, err := h.jwtManager.VerifyToken(c.Param("token"))
	if err != nil || claims.Role != token.RoleBuyer || claims.SessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "无效的 token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()
	metrics.WebSocketConnectionsCurrent.Inc()
	defer metrics.WebSocketConnectionsCurrent.Dec()

	log.Infof("WebSocket 连接已建立，会话: %s", claims.SessionID)

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		reply, err := h.negotiationService.Negotiate(c.Request.Context(), claims.SessionID, string(message))
		out := wsReply{Response: reply.Text()}
		if err != nil {
			out = wsReply{Detail: failureDetail}
		}
		if err := conn.WriteJSON(out); err != nil {
			log.Warnf("写入 WebSocket 回复失败: %v", err)
			break
		}
	}
	log.Infof("WebSocket 连接已关闭，会话: %s", claims.SessionID)
}
