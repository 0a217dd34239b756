// Package testutil 提供测试辅助工具
package testutil

import (
	"context"
	"fmt"

	"github.com/ashwinyue/next-vision/internal/model"
)

// CanceledContext 返回已取消的 context
func CanceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// NewImage 构造测试图片记录
func NewImage(projectID, name string) *model.Image {
	return &model.Image{
		ID:        "img-" + name,
		ProjectID: projectID,
		ImageName: name,
		Path:      fmt.Sprintf("/%s/images/%s", projectID, name),
		Size:      1024,
		Width:     640,
		Height:    480,
	}
}

// NewQuestion 构造测试问题记录
func NewQuestion(projectID, imageID, text string) *model.Question {
	return &model.Question{
		ID:        "q-" + text,
		ProjectID: projectID,
		Question:  text,
		Label:     "image",
		ImageID:   imageID,
	}
}

// NewDataset 构造测试数据集记录
func NewDataset(projectID, imageID, question, answer string) *model.ImageDataset {
	return &model.ImageDataset{
		ID:        fmt.Sprintf("ds-%s-%s", imageID, question),
		ProjectID: projectID,
		ImageID:   imageID,
		ImageName: imageID + ".jpg",
		Question:  question,
		Answer:    answer,
	}
}

// NewEvaluationTask 构造测试评估任务
func NewEvaluationTask(projectID, modelInfo string) *model.Task {
	return &model.Task{
		ID:        "task-" + projectID,
		ProjectID: projectID,
		Type:      model.TaskTypeDatasetEvaluation,
		Status:    model.TaskStatusPending,
		ModelInfo: modelInfo,
		Language:  "zh",
	}
}
