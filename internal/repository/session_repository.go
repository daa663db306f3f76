// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"speaker-negotiator/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	// ErrSessionNotFound 表示会话不存在或已过期。
	ErrSessionNotFound = errors.New("negotiation session not found")
	// ErrSessionExists 表示创建会话时 ID 已被占用。
	ErrSessionExists = errors.New("negotiation session already exists")
	// ErrSessionConflict 表示并发更新在重试次数内始终冲突。
	ErrSessionConflict = errors.New("negotiation session update conflict")
)

// 同一会话并发更新时的最大乐观重试次数
const maxUpdateRetries = 5

// SessionRepository 定义了议价会话的存取操作。每个会话以 ID 独立存储，互不影响。
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	// Update 原子地读取、修改并写回会话。fn 返回错误时不写入。
	Update(ctx context.Context, sessionID string, fn func(*model.Session) error) (*model.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisSessionRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewSessionRepository 创建一个基于 Redis 的 SessionRepository。
func NewSessionRepository(redisClient *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{redisClient: redisClient, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("negotiation:session:%s", sessionID)
}

// Create 写入一个新会话，ID 已存在时返回 ErrSessionExists。
func (r *redisSessionRepository) Create(ctx context.Context, session *model.Session) error {
	jsonData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	ok, err := r.redisClient.SetNX(ctx, sessionKey(session.ID), jsonData, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

// Get 从 Redis 读取会话。
func (r *redisSessionRepository) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	jsonData, err := r.redisClient.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return decodeSession(jsonData)
}

// Update 使用 WATCH/MULTI 做乐观并发控制，冲突时重试，写回时刷新 TTL。
func (r *redisSessionRepository) Update(ctx context.Context, sessionID string, fn func(*model.Session) error) (*model.Session, error) {
	key := sessionKey(sessionID)
	var updated *model.Session

	txf := func(tx *redis.Tx) error {
		jsonData, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}
		session, err := decodeSession(jsonData)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}
		session.UpdatedAt = time.Now()
		newData, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newData, r.ttl)
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.redisClient.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrSessionConflict
}

// Delete 删除会话，会话不存在时不报错。
func (r *redisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.redisClient.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func decodeSession(jsonData []byte) (*model.Session, error) {
	var session model.Session
	if err := json.Unmarshal(jsonData, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}
