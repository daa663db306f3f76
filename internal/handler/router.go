package handler

import (
	"speaker-negotiator/internal/middleware"
	"speaker-negotiator/internal/service"
	"speaker-negotiator/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services 汇总路由需要的全部 service。
type Services struct {
	Negotiation service.NegotiationService
	Admin       service.AdminService
	Auth        service.AuthService
}

// NewRouter 创建 Gin 引擎并注册全部路由。
func NewRouter(svc Services, jwtManager *token.JWTManager) *gin.Engine {
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(middleware.LoggerConfig{
		SkipPaths:     []string{"/metrics"},
		OmitBodyPaths: []string{"/api/v1/sessions", "/api/v1/admin/login"},
	}), gin.Recovery())

	negotiationHandler := NewNegotiationHandler(svc.Negotiation)
	optionalSession := middleware.SessionAuth(jwtManager, false)

	r.GET("/", negotiationHandler.Root)
	r.POST("/negotiate", optionalSession, negotiationHandler.Negotiate)
	r.GET("/negotiate/ws/:token", NewChatHandler(svc.Negotiation, jwtManager).Handle)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/negotiate", optionalSession, negotiationHandler.Negotiate)

		sessions := apiV1.Group("/sessions")
		{
			sessions.POST("", negotiationHandler.StartSession)
			sessions.GET("/transcript", middleware.SessionAuth(jwtManager, true), negotiationHandler.Transcript)
		}

		apiV1.POST("/admin/login", NewAuthHandler(svc.Auth).AdminLogin)

		adminHandler := NewAdminHandler(svc.Admin)
		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin := apiV1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtManager), middleware.AdminAuthMiddleware())
		{
			admin.GET("/negotiations", adminHandler.ListRecords)
			admin.GET("/negotiations/search", adminHandler.SearchTurns)
			admin.POST("/sessions/:id/export", adminHandler.ExportTranscript)
			admin.DELETE("/sessions/:id", adminHandler.DeleteSession)
		}
	}
	return r
}
