// Package storage提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"speaker-negotiator/internal/config"
	"speaker-negotiator/pkg/log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// TranscriptStore 把会话记录导出为 MinIO 中的 JSON 对象。
type TranscriptStore struct {
	client     *minio.Client
	bucketName string
	urlExpiry  time.Duration
}

// NewTranscriptStore 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewTranscriptStore(ctx context.Context, cfg config.MinIOConfig) (*TranscriptStore, error) {
	// 1. 初始化 MinIO 客户端
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}
	log.Info("MinIO 客户端初始化成功")

	// 2. 检查存储桶 (Bucket) 是否存在，如果不存在则创建
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
		log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
	}

	return &TranscriptStore{client: client, bucketName: cfg.BucketName, urlExpiry: cfg.URLExpiry}, nil
}

// ObjectName 返回某次导出的对象名，按会话分目录，时间戳区分多次导出。
func ObjectName(sessionID string, at time.Time) string {
	return fmt.Sprintf("transcripts/%s/%s.json", sessionID, at.UTC().Format("20060102T150405Z"))
}

// PutTranscript 上传会话记录并返回一个限时下载链接。
func (s *TranscriptStore) PutTranscript(ctx context.Context, sessionID string, data []byte) (string, error) {
	objectName := ObjectName(sessionID, time.Now())
	_, err := s.client.PutObject(ctx, s.bucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("上传会话记录失败: %w", err)
	}

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucketName, objectName, s.urlExpiry, nil)
	if err != nil {
		log.Errorf("Error generating presigned URL: %s", err)
		return "", err
	}
	return presignedURL.String(), nil
}
