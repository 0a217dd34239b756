// Package file 提供项目图片的存储后端
package file

import (
	"context"
	"fmt"
	"io"

	"github.com/ashwinyue/next-vision/internal/config"
)

// Storage 图片存储接口
// 对象按 {projectID}/images/{imageName} 布局
type Storage interface {
	// SaveImage 保存图片
	SaveImage(ctx context.Context, projectID, imageName string, reader io.Reader, size int64, contentType string) error
	// ReadImage 读取图片完整内容
	ReadImage(ctx context.Context, projectID, imageName string) ([]byte, error)
	// DeleteImage 删除图片
	DeleteImage(ctx context.Context, projectID, imageName string) error
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeMinIO StorageType = "minio"
)

// NewStorageFromConfig 按配置创建存储后端
func NewStorageFromConfig(cfg *config.StorageConfig) (Storage, error) {
	switch StorageType(cfg.Type) {
	case StorageTypeLocal, "":
		basePath := cfg.Local.BasePath
		if basePath == "" {
			basePath = "./data/projects"
		}
		return NewLocalStorage(basePath)

	case StorageTypeMinIO:
		if cfg.MinIO.Endpoint == "" || cfg.MinIO.AccessKey == "" || cfg.MinIO.SecretKey == "" || cfg.MinIO.Bucket == "" {
			return nil, fmt.Errorf("missing required MinIO config")
		}
		return NewMinIOStorage(&MinIOConfig{
			Endpoint:   cfg.MinIO.Endpoint,
			AccessKey:  cfg.MinIO.AccessKey,
			SecretKey:  cfg.MinIO.SecretKey,
			BucketName: cfg.MinIO.Bucket,
			UseSSL:     cfg.MinIO.UseSSL,
		})

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// imageObjectName 存储对象名
func imageObjectName(projectID, imageName string) string {
	return fmt.Sprintf("%s/images/%s", projectID, imageName)
}
