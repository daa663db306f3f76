// Package token 提供了用于生成和验证 JSON Web Tokens (JWT) 的功能。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 令牌携带的角色
const (
	RoleBuyer = "BUYER"
	RoleAdmin = "ADMIN"
)

// JWTManager 负责管理 JWT 的生成和验证。
type JWTManager struct {
	secretKey       []byte        // secretKey 用于签名和验证 token 的密钥
	adminTokenDur   time.Duration // adminTokenDur 定义了管理员 token 的有效期
	sessionTokenDur time.Duration // sessionTokenDur 定义了买家会话 token 的有效期
}

// CustomClaims 定义了我们想要在 JWT 中存储的自定义数据。
// 买家 token 携带 SessionID，管理员 token 携带 Username。
type CustomClaims struct {
	SessionID string `json:"sessionId,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
// adminTokenExpireHours: 管理员 token 的过期时间（小时）。
// sessionTokenExpireHours: 买家会话 token 的过期时间（小时）。
func NewJWTManager(secret string, adminTokenExpireHours, sessionTokenExpireHours int) *JWTManager {
	return &JWTManager{
		secretKey:       []byte(secret),
		adminTokenDur:   time.Hour * time.Duration(adminTokenExpireHours),
		sessionTokenDur: time.Hour * time.Duration(sessionTokenExpireHours),
	}
}

func (m *JWTManager) sign(claims CustomClaims, dur time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(dur)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	// 使用 HS256 签名方法创建新的 token 对象
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// GenerateSessionToken 为一个议价会话生成买家 token。
func (m *JWTManager) GenerateSessionToken(sessionID string) (string, error) {
	return m.sign(CustomClaims{SessionID: sessionID, Role: RoleBuyer}, m.sessionTokenDur)
}

// GenerateAdminToken 为管理员生成 token。
func (m *JWTManager) GenerateAdminToken(username string) (string, error) {
	return m.sign(CustomClaims{Username: username, Role: RoleAdmin}, m.adminTokenDur)
}

// VerifyToken 验证给定的 token 字符串。
// 如果 token 无效（例如，签名不匹配或已过期），则返回错误。
func (m *JWTManager) VerifyToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 检查签名方法是否为 HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
