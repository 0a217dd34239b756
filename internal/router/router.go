package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-vision/internal/handler"
	"github.com/ashwinyue/next-vision/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		projects := v1.Group("/projects/:project_id")
		{
			// Image 图片
			images := projects.Group("/images")
			{
				images.POST("/import", h.Image.ImportImages)
				images.GET("", h.Image.ListImages)
				images.GET("/next-unanswered", h.Image.NextUnanswered)
				images.DELETE("/:image_id", h.Image.DeleteImage)
				images.POST("/:image_id/questions", h.Image.GenerateQuestions)
				images.POST("/:image_id/datasets", h.Image.GenerateDataset)
			}

			// Dataset 数据集
			datasets := projects.Group("/datasets")
			{
				datasets.GET("", h.Dataset.ListDatasets)
				datasets.GET("/:dataset_id", h.Dataset.GetDataset)
				datasets.DELETE("/:dataset_id", h.Dataset.DeleteDataset)
			}

			// Task 批量任务
			tasks := projects.Group("/tasks")
			{
				tasks.POST("/dataset-evaluation", h.Task.CreateEvaluationTask)
				tasks.GET("", h.Task.ListTasks)
				tasks.GET("/:task_id", h.Task.GetTask)
			}
		}
	}

	return r
}
