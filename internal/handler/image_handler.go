package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-vision/internal/repository"
	"github.com/ashwinyue/next-vision/internal/service"
	"github.com/ashwinyue/next-vision/internal/service/image"
)

// ImageHandler 图片处理器
type ImageHandler struct {
	svc *service.Services
}

// NewImageHandler 创建图片处理器
func NewImageHandler(svc *service.Services) *ImageHandler {
	return &ImageHandler{svc: svc}
}

// ImportImagesRequest 图片导入请求
type ImportImagesRequest struct {
	Directories []string `json:"directories" binding:"required"`
}

// ImportImages 从本地目录导入图片
func (h *ImageHandler) ImportImages(c *gin.Context) {
	projectID := c.Param("project_id")

	var req ImportImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	imported, err := h.svc.Image.ImportImages(c.Request.Context(), projectID, req.Directories)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, gin.H{"imported": len(imported), "images": imported})
}

// ListImages 分页列出项目图片
func (h *ImageHandler) ListImages(c *gin.Context) {
	projectID := c.Param("project_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := &repository.ImageListFilter{
		ImageName: c.Query("image_name"),
	}
	if v := c.Query("has_questions"); v != "" {
		b := v == "true"
		filter.HasQuestions = &b
	}
	if v := c.Query("has_datasets"); v != "" {
		b := v == "true"
		filter.HasDatasets = &b
	}

	images, total, err := h.svc.Image.ListImages(c.Request.Context(), projectID, page, pageSize, filter)
	if err != nil {
		Error(c, err)
		return
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	SuccessWithPagination(c, images, total, page, pageSize)
}

// DeleteImage 删除图片及其关联数据
func (h *ImageHandler) DeleteImage(c *gin.Context) {
	projectID := c.Param("project_id")
	imageID := c.Param("image_id")

	if err := h.svc.Image.DeleteImage(c.Request.Context(), projectID, imageID); err != nil {
		Error(c, err)
		return
	}

	NoContent(c)
}

// GenerateQuestions 为图片生成问题
func (h *ImageHandler) GenerateQuestions(c *gin.Context) {
	projectID := c.Param("project_id")
	imageID := c.Param("image_id")

	var req image.GenerateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Image.GenerateQuestions(c.Request.Context(), projectID, imageID, &req)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, result)
}

// generateDatasetRequest 答案生成请求体
type generateDatasetRequest struct {
	Question    image.QuestionInput `json:"question" binding:"required"`
	Model       interface{}         `json:"model" binding:"required"`
	Language    string              `json:"language"`
	PreviewOnly bool                `json:"preview_only"`
}

// GenerateDataset 为图片的一个问题生成答案
// preview_only 为 true 时只返回答案，不落库
func (h *ImageHandler) GenerateDataset(c *gin.Context) {
	projectID := c.Param("project_id")
	imageID := c.Param("image_id")

	var req generateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Image.GenerateAnswer(c.Request.Context(), projectID, imageID, &req.Question,
		&image.GenerateAnswerRequest{
			Model:       req.Model,
			Language:    req.Language,
			PreviewOnly: req.PreviewOnly,
		})
	if err != nil {
		Error(c, err)
		return
	}

	if req.PreviewOnly {
		Success(c, result)
		return
	}
	Created(c, result)
}

// NextUnanswered 返回下一张有未回答问题的图片
// 全部回答完时 data 为 null
func (h *ImageHandler) NextUnanswered(c *gin.Context) {
	projectID := c.Param("project_id")

	img, err := h.svc.Image.NextUnanswered(c.Request.Context(), projectID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, img)
}
