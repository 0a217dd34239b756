// Package repository 数据访问层
package repository

import "gorm.io/gorm"

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	DB       *gorm.DB // 直接访问数据库
	Image    *ImageRepository
	Question *QuestionRepository
	Dataset  *DatasetRepository
	Task     *TaskRepository
	Prompt   *PromptRepository
}

// NewRepositories 创建所有仓库
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:       db,
		Image:    NewImageRepository(db),
		Question: NewQuestionRepository(db),
		Dataset:  NewDatasetRepository(db),
		Task:     NewTaskRepository(db),
		Prompt:   NewPromptRepository(db),
	}
}
