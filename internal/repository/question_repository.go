package repository

import (
	"errors"

	"github.com/ashwinyue/next-vision/internal/model"
	"gorm.io/gorm"
)

// QuestionRepository 问题仓库
type QuestionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository 创建问题仓库
func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// SaveBatch 批量保存问题
// 只追加，不去重，重复生成会追加新问题
func (r *QuestionRepository) SaveBatch(questions []*model.Question) ([]*model.Question, error) {
	if len(questions) == 0 {
		return questions, nil
	}
	if err := r.db.Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// UpdateAnsweredStatus 更新问题的 answered 标记
// 问题文本冗余存储在数据集里，按 (项目, 图片, 文本) 定位
func (r *QuestionRepository) UpdateAnsweredStatus(projectID, imageID, questionText string, answered bool) error {
	return r.db.Model(&model.Question{}).
		Where("project_id = ? AND image_id = ? AND question = ?", projectID, imageID, questionText).
		Update("answered", answered).Error
}

// GetByID 根据ID获取问题
func (r *QuestionRepository) GetByID(id string) (*model.Question, error) {
	var question model.Question
	err := r.db.Where("id = ?", id).First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// ListByImage 列出图片的所有问题
func (r *QuestionRepository) ListByImage(projectID, imageID string) ([]*model.Question, error) {
	var questions []*model.Question
	err := r.db.Where("project_id = ? AND image_id = ?", projectID, imageID).
		Order("created_at ASC").Find(&questions).Error
	return questions, err
}

// FirstUnanswered 返回项目中第一个还有未回答图片问题的问题
func (r *QuestionRepository) FirstUnanswered(projectID string) (*model.Question, error) {
	var question model.Question
	err := r.db.Where("project_id = ? AND image_id <> '' AND answered = ?", projectID, false).
		Order("created_at ASC").First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// GetTemplateByID 获取问题模版
// 未找到时返回 (nil, nil)，模版是可选引用
func (r *QuestionRepository) GetTemplateByID(id string) (*model.QuestionTemplate, error) {
	var tmpl model.QuestionTemplate
	err := r.db.Where("id = ?", id).First(&tmpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tmpl, nil
}

// GetOrCreateImageChunk 获取项目的图片虚拟分块，不存在则创建
// 每个项目只有一条，图片生成的问题都挂在它上面
func (r *QuestionRepository) GetOrCreateImageChunk(projectID string) (*model.Chunk, error) {
	var chunk model.Chunk
	err := r.db.Where("project_id = ? AND name = ?", projectID, model.ImageChunkName).First(&chunk).Error
	if err == nil {
		return &chunk, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	chunk = model.Chunk{
		ProjectID: projectID,
		Name:      model.ImageChunkName,
		Content:   "图片问题占位分块",
	}
	if err := r.db.Create(&chunk).Error; err != nil {
		return nil, err
	}
	return &chunk, nil
}
