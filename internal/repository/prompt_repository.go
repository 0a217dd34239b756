package repository

import (
	"errors"

	"github.com/ashwinyue/next-vision/internal/model"
	"gorm.io/gorm"
)

// PromptRepository 自定义提示词仓库
type PromptRepository struct {
	db *gorm.DB
}

// NewPromptRepository 创建提示词仓库
func NewPromptRepository(db *gorm.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

// GetCustomPrompt 获取项目自定义提示词
// 未配置时返回 (nil, nil)
func (r *PromptRepository) GetCustomPrompt(projectID, promptKey, language string) (*model.CustomPrompt, error) {
	var prompt model.CustomPrompt
	err := r.db.Where("project_id = ? AND prompt_key = ? AND language = ?", projectID, promptKey, language).
		First(&prompt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &prompt, nil
}

// SaveCustomPrompt 保存项目自定义提示词，存在则覆盖
func (r *PromptRepository) SaveCustomPrompt(prompt *model.CustomPrompt) error {
	existing, err := r.GetCustomPrompt(prompt.ProjectID, prompt.PromptKey, prompt.Language)
	if err != nil {
		return err
	}
	if existing != nil {
		return r.db.Model(&model.CustomPrompt{}).Where("id = ?", existing.ID).
			Update("content", prompt.Content).Error
	}
	return r.db.Create(prompt).Error
}
