package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	imagestd "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
	"gorm.io/gorm"

	"github.com/ashwinyue/next-vision/internal/model"
	"github.com/ashwinyue/next-vision/internal/repository"
)

// importExtensions 导入时接受的图片扩展名
var importExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".svg": true,
}

// ImportImages 从本地目录批量导入图片
// 逐目录处理，单个目录失败不影响其他目录；同名图片覆盖
func (s *Service) ImportImages(ctx context.Context, projectID string, directories []string) ([]*model.Image, error) {
	if len(directories) == 0 {
		return nil, fmt.Errorf("请选择至少一个目录")
	}

	var imported []*model.Image

	for _, directory := range directories {
		entries, err := os.ReadDir(directory)
		if err != nil {
			log.Printf("处理目录失败: %s: %v", directory, err)
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if !importExtensions[strings.ToLower(filepath.Ext(name))] {
				continue
			}

			data, err := os.ReadFile(filepath.Join(directory, name))
			if err != nil {
				log.Printf("读取图片失败: %s: %v", name, err)
				continue
			}

			if err := s.storage.SaveImage(ctx, projectID, name, bytes.NewReader(data), int64(len(data)), MimeType(name)); err != nil {
				log.Printf("保存图片失败: %s: %v", name, err)
				continue
			}

			width, height := imageDimensions(data, name)

			imported = append(imported, &model.Image{
				ProjectID: projectID,
				ImageName: name,
				Path:      fmt.Sprintf("/%s/images/%s", projectID, name),
				Size:      int64(len(data)),
				Width:     width,
				Height:    height,
			})
		}
	}

	if len(imported) == 0 {
		return []*model.Image{}, nil
	}

	if err := s.images.CreateBatch(imported); err != nil {
		return nil, fmt.Errorf("failed to save images: %w", err)
	}

	log.Printf("项目 %s 导入了 %d 张图片", projectID, len(imported))
	return imported, nil
}

// imageDimensions 解码图片尺寸
// 不认识的格式（如 svg）返回零值
func imageDimensions(data []byte, name string) (width, height int) {
	cfg, _, err := imagestd.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Printf("无法获取图片尺寸: %s: %v", name, err)
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// ListImages 分页列出项目图片
func (s *Service) ListImages(ctx context.Context, projectID string, page, pageSize int, filter *repository.ImageListFilter) ([]*model.Image, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.images.List(projectID, page, pageSize, filter)
}

// DeleteImage 删除图片及其问题和数据集
func (s *Service) DeleteImage(ctx context.Context, projectID, imageID string) error {
	img, err := s.images.GetByID(imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrImageNotFound
		}
		return fmt.Errorf("failed to get image: %w", err)
	}
	if img.ProjectID != projectID {
		return ErrImageForbidden
	}

	if err := s.images.Delete(projectID, imageID); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	// 存储清理失败不影响删除结果
	if err := s.storage.DeleteImage(ctx, projectID, img.ImageName); err != nil {
		log.Printf("删除图片文件失败: %s: %v", img.ImageName, err)
	}

	return nil
}
