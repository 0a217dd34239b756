package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImageChunkName 图片虚拟分块的固定名称，每个项目一条
const ImageChunkName = "Image Chunk"

// Chunk 文本分块
// 图片生成的问题挂在每个项目唯一的虚拟分块上，
// 与文本问题共用同一个结构位置
type Chunk struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID string    `json:"project_id" gorm:"type:varchar(36);not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);index"`
	Content   string    `json:"content" gorm:"type:text"`
	Size      int       `json:"size" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate GORM 钩子
func (c *Chunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Chunk) TableName() string {
	return "chunks"
}
