// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"errors"
	"net/http"
	"speaker-negotiator/pkg/token"
	"strings"

	"github.com/gin-gonic/gin"
)

// 上下文中存放认证信息的键
const (
	ClaimsKey    = "claims"
	SessionIDKey = "sessionID"
)

var (
	errNoAuthHeader  = errors.New("请求未包含授权头")
	errBadAuthHeader = errors.New("无效的授权头格式")
)

// bearerToken 从 Authorization 请求头中提取 "Bearer <token>" 里的 token。
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errNoAuthHeader
	}
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", errBadAuthHeader
	}
	return strings.TrimPrefix(authHeader, bearerPrefix), nil
}

// SessionAuth 创建一个 Gin 中间件，解析买家会话 token 并把会话 ID 存入上下文。
// required 为 false 时没有授权头的请求直接放行，按无状态方式处理；
// 但只要带了授权头，token 就必须有效。
func SessionAuth(jwtManager *token.JWTManager, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if errors.Is(err, errNoAuthHeader) && !required {
			c.Next()
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil || claims.Role != token.RoleBuyer || claims.SessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "无效或已过期的 token"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(SessionIDKey, claims.SessionID)
		c.Next()
	}
}

// AuthMiddleware 创建一个 Gin 中间件，用于管理端的 JWT 认证。
// 验证通过后把 claims 存入上下文，角色检查交给 AdminAuthMiddleware。
func AuthMiddleware(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效或已过期的 token"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// SessionID 返回 SessionAuth 存入上下文的会话 ID，未绑定会话时为空。
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
