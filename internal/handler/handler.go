package handler

import (
	"github.com/ashwinyue/next-vision/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Image   *ImageHandler
	Dataset *DatasetHandler
	Task    *TaskHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Image:   NewImageHandler(svc),
		Dataset: NewDatasetHandler(svc),
		Task:    NewTaskHandler(svc),
	}
}
