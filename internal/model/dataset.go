// Package model 提供数据集相关的数据模型
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImageDataset 图片问答数据集记录
// 只追加，同一 (图片, 问题) 可能存在多条记录，以创建时间最新的为准
type ImageDataset struct {
	ID        string `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID string `json:"project_id" gorm:"type:varchar(36);not null;index"`
	ImageID   string `json:"image_id" gorm:"type:varchar(36);index"`
	ImageName string `json:"image_name" gorm:"type:varchar(255)"`
	Question  string `json:"question" gorm:"type:text;not null"` // 冗余存储，不是外键
	Answer    string `json:"answer" gorm:"type:text"`
	Model     string `json:"model" gorm:"type:varchar(128)"` // 生成答案的模型标识

	// 评估结果，两者都有值才算已评估
	Score        float64 `json:"score" gorm:"default:0"`
	AIEvaluation string  `json:"ai_evaluation" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Evaluated 是否已完成评估
// 分数为零或评语为空都视为未评估，批量扫描会重新发现这些记录
func (d *ImageDataset) Evaluated() bool {
	return d.Score != 0 && d.AIEvaluation != ""
}

// BeforeCreate GORM 钩子
func (d *ImageDataset) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (ImageDataset) TableName() string {
	return "image_datasets"
}
