package service

import (
	"crypto/subtle"
	"errors"
	"speaker-negotiator/internal/config"
	"speaker-negotiator/pkg/token"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials 表示用户名或密码错误，或管理员登录未启用。
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService 接口定义了管理员认证操作。
type AuthService interface {
	AdminLogin(username, password string) (string, error)
}

type authService struct {
	admin      config.AdminConfig
	jwtManager *token.JWTManager
}

// NewAuthService 创建一个新的 AuthService 实例。管理员账号来自配置。
func NewAuthService(admin config.AdminConfig, jwtManager *token.JWTManager) AuthService {
	return &authService{admin: admin, jwtManager: jwtManager}
}

// AdminLogin 校验管理员账号并签发管理员 token。未配置密码哈希时一律拒绝。
func (s *authService) AdminLogin(username, password string) (string, error) {
	if s.admin.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	// 1. 校验用户名
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.admin.Username)) != 1 {
		return "", ErrInvalidCredentials
	}
	// 2. 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	// 3. 生成 token
	return s.jwtManager.GenerateAdminToken(username)
}
