package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage 本地文件存储
type LocalStorage struct {
	basePath string
}

// NewLocalStorage 创建本地存储服务
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// 确保基础路径存在
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// SaveImage 保存图片到本地，同名文件覆盖
func (s *LocalStorage) SaveImage(ctx context.Context, projectID, imageName string, reader io.Reader, size int64, contentType string) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(imageObjectName(projectID, imageName)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// ReadImage 读取图片完整内容
func (s *LocalStorage) ReadImage(ctx context.Context, projectID, imageName string) ([]byte, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(imageObjectName(projectID, imageName)))
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// DeleteImage 删除图片
func (s *LocalStorage) DeleteImage(ctx context.Context, projectID, imageName string) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(imageObjectName(projectID, imageName)))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
