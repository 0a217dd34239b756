package repository

import (
	"github.com/ashwinyue/next-vision/internal/model"
	"gorm.io/gorm"
)

// DatasetRepository 图片数据集仓库
type DatasetRepository struct {
	db *gorm.DB
}

// NewDatasetRepository 创建数据集仓库
func NewDatasetRepository(db *gorm.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Create 创建数据集记录
func (r *DatasetRepository) Create(dataset *model.ImageDataset) error {
	return r.db.Create(dataset).Error
}

// GetByID 根据ID获取数据集记录
func (r *DatasetRepository) GetByID(id string) (*model.ImageDataset, error) {
	var dataset model.ImageDataset
	err := r.db.Where("id = ?", id).First(&dataset).Error
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

// ListPage 分页列出项目的数据集记录
// 固定按创建时间倒序，同一次扫描内顺序稳定
func (r *DatasetRepository) ListPage(projectID string, page, pageSize int) ([]*model.ImageDataset, int64, error) {
	var datasets []*model.ImageDataset
	var total int64

	query := r.db.Model(&model.ImageDataset{}).Where("project_id = ?", projectID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&datasets).Error
	return datasets, total, err
}

// ListByImage 列出图片的数据集记录，最新在前
func (r *DatasetRepository) ListByImage(projectID, imageID string) ([]*model.ImageDataset, error) {
	var datasets []*model.ImageDataset
	err := r.db.Where("project_id = ? AND image_id = ?", projectID, imageID).
		Order("created_at DESC").Find(&datasets).Error
	return datasets, err
}

// UpdateEvaluation 写入评估结果
func (r *DatasetRepository) UpdateEvaluation(id string, score float64, evaluation string) error {
	return r.db.Model(&model.ImageDataset{}).Where("id = ?", id).Updates(map[string]interface{}{
		"score":         score,
		"ai_evaluation": evaluation,
	}).Error
}

// Delete 删除数据集记录
func (r *DatasetRepository) Delete(id string) error {
	return r.db.Delete(&model.ImageDataset{}, "id = ?", id).Error
}
