package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-vision/internal/service"
)

// DatasetHandler 图片数据集处理器
type DatasetHandler struct {
	svc *service.Services
}

// NewDatasetHandler 创建数据集处理器
func NewDatasetHandler(svc *service.Services) *DatasetHandler {
	return &DatasetHandler{svc: svc}
}

// ListDatasets 分页列出项目的数据集记录
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	projectID := c.Param("project_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	datasets, total, err := h.svc.Repo.Dataset.ListPage(projectID, page, pageSize)
	if err != nil {
		Error(c, err)
		return
	}

	SuccessWithPagination(c, datasets, total, page, pageSize)
}

// GetDataset 获取单条数据集记录
func (h *DatasetHandler) GetDataset(c *gin.Context) {
	projectID := c.Param("project_id")
	id := c.Param("dataset_id")

	dataset, err := h.svc.Repo.Dataset.GetByID(id)
	if err != nil {
		Error(c, err)
		return
	}
	if dataset.ProjectID != projectID {
		NotFound(c, "数据集记录不存在")
		return
	}

	Success(c, dataset)
}

// DeleteDataset 删除单条数据集记录
func (h *DatasetHandler) DeleteDataset(c *gin.Context) {
	projectID := c.Param("project_id")
	id := c.Param("dataset_id")

	dataset, err := h.svc.Repo.Dataset.GetByID(id)
	if err != nil {
		Error(c, err)
		return
	}
	if dataset.ProjectID != projectID {
		NotFound(c, "数据集记录不存在")
		return
	}

	if err := h.svc.Repo.Dataset.Delete(id); err != nil {
		Error(c, err)
		return
	}

	NoContent(c)
}
