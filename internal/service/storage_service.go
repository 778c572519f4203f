package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"smart_lms_analytics/internal/config"
	"smart_lms_analytics/internal/util"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 定义通用存储接口
type StorageProvider interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, filename string) error
	GetURL(filename string) string
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filename)
	dir := filepath.Dir(dst)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err = io.Copy(out, reader); err != nil {
		return "", err
	}

	return p.GetURL(filename), nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, filename string) error {
	return os.Remove(filepath.Join(p.Config.LocalPath, filename))
}

func (p *LocalStorageProvider) GetURL(filename string) string {
	return "/uploads/" + filename
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, filename, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(filename), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, filename string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, filename, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) GetURL(filename string) string {
	return "/" + p.Config.MinioBucket + "/" + filename
}

// StorageService 归档批量上传的 CSV 及其预测结果
type StorageService struct {
	Provider StorageProvider
	enabled  bool
	log      *zap.Logger
	now      func() time.Time
}

func NewStorageService(cfg *config.Config, log *zap.Logger) *StorageService {
	var provider StorageProvider
	if cfg.Storage.Type == util.StorageMinio {
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			log.Warn("MinIO storage unavailable, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return &StorageService{
		Provider: provider,
		enabled:  cfg.Storage.ArchiveUploads,
		log:      log,
		now:      time.Now,
	}
}

// ArchiveBatch 保存上传的 CSV 与结果 JSON；任一失败只记日志、不留半个归档并返回空 key
func (s *StorageService) ArchiveBatch(ctx context.Context, csvData, resultJSON []byte) string {
	if s == nil || !s.enabled {
		return ""
	}

	key := fmt.Sprintf("batch/%s/%s", s.now().UTC().Format(util.DateFormat), uuid.New().String())

	if _, err := s.Provider.Upload(ctx, key+".csv", bytes.NewReader(csvData), int64(len(csvData)), util.MimeCSV); err != nil {
		s.log.Warn("Failed to archive batch upload", zap.String("key", key), zap.Error(err))
		return ""
	}
	if _, err := s.Provider.Upload(ctx, key+".json", bytes.NewReader(resultJSON), int64(len(resultJSON)), util.MimeJSON); err != nil {
		s.log.Warn("Failed to archive batch result", zap.String("key", key), zap.Error(err))
		// 结果缺失时不留半个归档
		if err := s.Provider.Delete(ctx, key+".csv"); err != nil {
			s.log.Warn("Failed to remove partial archive", zap.String("key", key), zap.Error(err))
		}
		return ""
	}

	return key
}
