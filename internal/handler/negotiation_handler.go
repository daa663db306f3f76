// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"speaker-negotiator/internal/middleware"
	"speaker-negotiator/internal/negotiation"
	"speaker-negotiator/internal/repository"
	"speaker-negotiator/internal/service"
	"speaker-negotiator/pkg/log"

	"github.com/gin-gonic/gin"
)

// failureDetail 是决策失败时返回给客户端的固定信息。
const failureDetail = "Negotiation process failed."

// NegotiationHandler 负责议价相关的 HTTP 接口。
type NegotiationHandler struct {
	negotiationService service.NegotiationService
}

// NewNegotiationHandler 创建一个新的 NegotiationHandler 实例。
func NewNegotiationHandler(negotiationService service.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{negotiationService: negotiationService}
}

// NegotiateRequest 定义了议价接口的请求体。message 字段必须存在，但可以为空字符串。
type NegotiateRequest struct {
	Message *string `json:"message" binding:"required"`
}

// Root 返回固定的问候语。
func (h *NegotiationHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": negotiation.Greeting})
}

// Negotiate 处理一条买家消息并返回机器人的回复。
func (h *NegotiationHandler) Negotiate(c *gin.Context) {
	var req NegotiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Negotiate: invalid request payload, error: %v", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": validationDetail(err)})
		return
	}

	sessionID := middleware.SessionID(c)
	reply, err := h.negotiationService.Negotiate(c.Request.Context(), sessionID, *req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": failureDetail})
		return
	}

	resp := gin.H{"response": reply.Text()}
	if sessionID != "" {
		resp["sessionId"] = sessionID
	}
	c.JSON(http.StatusOK, resp)
}

// StartSession 创建一个新的议价会话并返回买家 token 和开场白。
func (h *NegotiationHandler) StartSession(c *gin.Context) {
	session, tokenString, err := h.negotiationService.StartSession(c.Request.Context())
	if err != nil {
		log.Error("StartSession: failed to create session", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "创建会话失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"sessionId": session.ID,
			"token":     tokenString,
			"prompt":    session.Turns[0].Text,
		},
	})
}

// Transcript 返回当前买家 token 对应会话的完整记录。
func (h *NegotiationHandler) Transcript(c *gin.Context) {
	session, err := h.negotiationService.Transcript(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "会话不存在或已过期", "data": nil})
			return
		}
		log.Error("Transcript: failed to load session", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "读取会话失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": session})
}
