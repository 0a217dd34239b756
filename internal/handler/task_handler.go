package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-vision/internal/service"
)

// TaskHandler 批量任务处理器
type TaskHandler struct {
	svc *service.Services
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(svc *service.Services) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// CreateEvaluationTaskRequest 创建评估任务请求
type CreateEvaluationTaskRequest struct {
	Model    interface{} `json:"model" binding:"required"`
	Language string      `json:"language"`
}

// CreateEvaluationTask 创建数据集批量评估任务
// 任务在后台执行，通过 GetTask 轮询进度
func (h *TaskHandler) CreateEvaluationTask(c *gin.Context) {
	projectID := c.Param("project_id")

	var req CreateEvaluationTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	task, err := h.svc.Runner.StartDatasetEvaluation(projectID, req.Model, req.Language)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, task)
}

// GetTask 获取任务详情
func (h *TaskHandler) GetTask(c *gin.Context) {
	projectID := c.Param("project_id")
	id := c.Param("task_id")

	task, err := h.svc.Repo.Task.GetByID(id)
	if err != nil {
		Error(c, err)
		return
	}
	if task.ProjectID != projectID {
		NotFound(c, "任务不存在")
		return
	}

	Success(c, task)
}

// ListTasks 分页列出项目任务
func (h *TaskHandler) ListTasks(c *gin.Context) {
	projectID := c.Param("project_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	tasks, total, err := h.svc.Repo.Task.List(projectID, page, pageSize)
	if err != nil {
		Error(c, err)
		return
	}

	SuccessWithPagination(c, tasks, total, page, pageSize)
}
