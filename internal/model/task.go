// Package model 提供任务相关的数据模型
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"    // 待执行
	TaskStatusProcessing TaskStatus = "PROCESSING" // 执行中
	TaskStatusCompleted  TaskStatus = "COMPLETED"  // 已完成
	TaskStatusFailed     TaskStatus = "FAILED"     // 失败
)

// TaskType 任务类型
type TaskType string

const (
	// TaskTypeDatasetEvaluation 数据集批量评估
	TaskTypeDatasetEvaluation TaskType = "dataset-evaluation"
)

// Task 异步批量任务的持久化记录
// 外部观察者通过轮询该记录获取任务进度，COMPLETED/FAILED 为终态
type Task struct {
	ID             string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID      string     `json:"project_id" gorm:"type:varchar(36);not null;index"`
	Type           TaskType   `json:"type" gorm:"type:varchar(40);index"`
	Status         TaskStatus `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`
	TotalCount     int        `json:"total_count" gorm:"default:0"`
	CompletedCount int        `json:"completed_count" gorm:"default:0"`
	ModelInfo      string     `json:"model_info" gorm:"type:text"` // 模型配置，JSON 或纯模型名
	Language       string     `json:"language" gorm:"type:varchar(10);default:'zh'"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Note           string     `json:"note" gorm:"type:text"`   // 人类可读的进度/结果说明
	Detail         string     `json:"detail" gorm:"type:text"` // 结构化的结果详情，JSON
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// Terminal 任务是否已进入终态
func (t *Task) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// BeforeCreate GORM 钩子
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Task) TableName() string {
	return "tasks"
}
