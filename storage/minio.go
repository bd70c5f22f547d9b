package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"PianoInstructor/config"
	"PianoInstructor/logger"
	"PianoInstructor/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// SessionObjectName 会话摘要在存储桶中的对象名
func SessionObjectName(sessionID string) string {
	return fmt.Sprintf("sessions/%s.json", sessionID)
}

// Archive 基于 MinIO 的会话归档
type Archive struct {
	client *minio.Client
	bucket string
}

// NewArchive 创建 MinIO 客户端并确保存储桶存在；未配置 Endpoint 时返回 nil
func NewArchive(ctx context.Context, cfg *config.Config) (*Archive, error) {
	if cfg.MinioEndpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &Archive{client: client, bucket: cfg.MinioBucket}, nil
}

// ArchiveSession 上传会话摘要
func (a *Archive) ArchiveSession(ctx context.Context, summary model.SessionSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("序列化会话摘要失败: %w", err)
	}

	name := SessionObjectName(summary.Session.ID)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("上传会话摘要失败: %w", err)
	}

	logger.Info("session archived",
		logger.String("bucket", a.bucket),
		logger.String("object", name),
		logger.Int("score", summary.FinalScore))
	return nil
}

// LoadSession 读取已归档的会话摘要
func (a *Archive) LoadSession(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, SessionObjectName(sessionID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("读取会话摘要失败: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("读取会话摘要失败: %w", err)
	}

	var summary model.SessionSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("解析会话摘要失败: %w", err)
	}
	return &summary, nil
}
