package repository

import (
	"github.com/ashwinyue/next-vision/internal/model"
	"gorm.io/gorm"
)

// ImageRepository 图片仓库
type ImageRepository struct {
	db *gorm.DB
}

// NewImageRepository 创建图片仓库
func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create 创建图片
func (r *ImageRepository) Create(image *model.Image) error {
	return r.db.Create(image).Error
}

// CreateBatch 批量创建图片
func (r *ImageRepository) CreateBatch(images []*model.Image) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.Create(&images).Error
}

// GetByID 根据ID获取图片
func (r *ImageRepository) GetByID(id string) (*model.Image, error) {
	var image model.Image
	err := r.db.Where("id = ?", id).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// GetByName 根据项目和文件名获取图片
func (r *ImageRepository) GetByName(projectID, imageName string) (*model.Image, error) {
	var image model.Image
	err := r.db.Where("project_id = ? AND image_name = ?", projectID, imageName).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// ImageListFilter 图片列表筛选条件
type ImageListFilter struct {
	ImageName    string // 文件名模糊匹配
	HasQuestions *bool  // 是否已有问题
	HasDatasets  *bool  // 是否已有数据集
}

// List 分页列出项目图片
func (r *ImageRepository) List(projectID string, page, pageSize int, filter *ImageListFilter) ([]*model.Image, int64, error) {
	var images []*model.Image
	var total int64

	query := r.db.Model(&model.Image{}).Where("project_id = ?", projectID)

	if filter != nil {
		if filter.ImageName != "" {
			query = query.Where("image_name LIKE ?", "%"+filter.ImageName+"%")
		}
		if filter.HasQuestions != nil {
			sub := r.db.Model(&model.Question{}).Select("1").
				Where("questions.image_id = images.id").Limit(1)
			if *filter.HasQuestions {
				query = query.Where("EXISTS (?)", sub)
			} else {
				query = query.Where("NOT EXISTS (?)", sub)
			}
		}
		if filter.HasDatasets != nil {
			sub := r.db.Model(&model.ImageDataset{}).Select("1").
				Where("image_datasets.image_id = images.id").Limit(1)
			if *filter.HasDatasets {
				query = query.Where("EXISTS (?)", sub)
			} else {
				query = query.Where("NOT EXISTS (?)", sub)
			}
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&images).Error
	return images, total, err
}

// Delete 删除图片及其关联的问题和数据集
func (r *ImageRepository) Delete(projectID, imageID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Question{}, "project_id = ? AND image_id = ?", projectID, imageID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.ImageDataset{}, "project_id = ? AND image_id = ?", projectID, imageID).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Image{}, "project_id = ? AND id = ?", projectID, imageID).Error
	})
}
