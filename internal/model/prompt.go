package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomPrompt 项目级自定义提示词
// 同一 (project_id, prompt_key, language) 只保留一条
type CustomPrompt struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID string    `json:"project_id" gorm:"type:varchar(36);not null;index:idx_custom_prompts_lookup"`
	PromptKey string    `json:"prompt_key" gorm:"type:varchar(64);not null;index:idx_custom_prompts_lookup"`
	Language  string    `json:"language" gorm:"type:varchar(10);index:idx_custom_prompts_lookup"`
	Content   string    `json:"content" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子
func (p *CustomPrompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (CustomPrompt) TableName() string {
	return "custom_prompts"
}
