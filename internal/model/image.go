// Package model 提供图片相关的数据模型
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image 项目图片
// 导入后除删除外不可变
type Image struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID string    `json:"project_id" gorm:"type:varchar(36);not null;index"`
	ImageName string    `json:"image_name" gorm:"type:varchar(255);not null;index"`
	Path      string    `json:"path" gorm:"type:varchar(512)"` // 存储路径
	Size      int64     `json:"size" gorm:"default:0"`
	Width     int       `json:"width" gorm:"default:0"`
	Height    int       `json:"height" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate GORM 钩子，创建前生成 UUID
func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Image) TableName() string {
	return "images"
}
