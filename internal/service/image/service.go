// Package image 提供图片问题与答案生成服务
package image

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/ashwinyue/next-vision/internal/model"
	"github.com/ashwinyue/next-vision/internal/repository"
	"github.com/ashwinyue/next-vision/internal/service/extract"
	"github.com/ashwinyue/next-vision/internal/service/file"
	"github.com/ashwinyue/next-vision/internal/service/llm"
	"github.com/ashwinyue/next-vision/internal/service/prompt"
)

// 生成相关错误
var (
	ErrModelRequired    = errors.New("模型配置不能为空")
	ErrQuestionRequired = errors.New("问题内容不能为空")
	ErrImageNotFound    = errors.New("图片不存在")
	ErrImageForbidden   = errors.New("图片不属于指定项目")
	ErrEmptyGeneration  = errors.New("生成问题失败或问题列表为空")
)

// ========== 协作者接口 ==========

// ImageStore 图片数据访问
type ImageStore interface {
	GetByID(id string) (*model.Image, error)
	CreateBatch(images []*model.Image) error
	List(projectID string, page, pageSize int, filter *repository.ImageListFilter) ([]*model.Image, int64, error)
	Delete(projectID, imageID string) error
}

// QuestionStore 问题数据访问
type QuestionStore interface {
	SaveBatch(questions []*model.Question) ([]*model.Question, error)
	UpdateAnsweredStatus(projectID, imageID, questionText string, answered bool) error
	GetTemplateByID(id string) (*model.QuestionTemplate, error)
	GetOrCreateImageChunk(projectID string) (*model.Chunk, error)
	FirstUnanswered(projectID string) (*model.Question, error)
}

// DatasetStore 数据集数据访问
type DatasetStore interface {
	Create(dataset *model.ImageDataset) error
}

// 确保仓库实现了接口
var (
	_ ImageStore    = (*repository.ImageRepository)(nil)
	_ QuestionStore = (*repository.QuestionRepository)(nil)
	_ DatasetStore  = (*repository.DatasetRepository)(nil)
)

// Service 图片生成服务
type Service struct {
	images    ImageStore
	questions QuestionStore
	datasets  DatasetStore
	storage   file.Storage
	factory   llm.Factory
	composer  *prompt.Composer
}

// NewService 创建图片生成服务
func NewService(images ImageStore, questions QuestionStore, datasets DatasetStore,
	storage file.Storage, factory llm.Factory, composer *prompt.Composer) *Service {
	return &Service{
		images:    images,
		questions: questions,
		datasets:  datasets,
		storage:   storage,
		factory:   factory,
		composer:  composer,
	}
}

// ========== 问题生成 ==========

// GenerateQuestionsRequest 问题生成请求
type GenerateQuestionsRequest struct {
	Model    interface{} `json:"model" binding:"required"` // 模型配置，字符串或对象
	Language string      `json:"language"`
	Count    int         `json:"count"`
}

// GenerateQuestionsResult 问题生成结果
type GenerateQuestionsResult struct {
	ImageID   string            `json:"image_id"`
	ImageName string            `json:"image_name"`
	Questions []*model.Question `json:"questions"`
	Total     int               `json:"total"`
}

// GenerateQuestions 为指定图片生成问题
// 只追加新问题，重复调用会为同一图片追加问题，不去重
func (s *Service) GenerateQuestions(ctx context.Context, projectID, imageID string, req *GenerateQuestionsRequest) (*GenerateQuestionsResult, error) {
	if req == nil || req.Model == nil {
		return nil, ErrModelRequired
	}

	modelCfg, err := llm.ParseModelConfig(req.Model)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = "zh"
	}
	count := req.Count
	if count <= 0 {
		count = 3
	}

	img, imageData, mimeType, err := s.loadImage(ctx, projectID, imageID)
	if err != nil {
		return nil, err
	}

	questionPrompt := s.composer.BuildQuestionPrompt(ctx, language, count, projectID)

	visionModel, err := s.factory.NewVisionModel(ctx, modelCfg)
	if err != nil {
		return nil, err
	}

	answer, err := visionModel.Ask(ctx, questionPrompt, base64.StdEncoding.EncodeToString(imageData), mimeType)
	if err != nil {
		return nil, err
	}

	questionTexts, err := extract.QuestionList(answer)
	if err != nil {
		return nil, err
	}
	if len(questionTexts) == 0 {
		return nil, ErrEmptyGeneration
	}

	// 获取或创建项目共享的图片虚拟分块
	chunk, err := s.questions.GetOrCreateImageChunk(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get image chunk: %w", err)
	}

	questions := make([]*model.Question, 0, len(questionTexts))
	for _, text := range questionTexts {
		questions = append(questions, &model.Question{
			ProjectID: projectID,
			Question:  text,
			Label:     "image",
			ImageID:   img.ID,
			ImageName: img.ImageName,
			ChunkID:   chunk.ID,
		})
	}

	saved, err := s.questions.SaveBatch(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to save questions: %w", err)
	}

	log.Printf("图片 %s 生成了 %d 个问题", img.ImageName, len(saved))

	return &GenerateQuestionsResult{
		ImageID:   img.ID,
		ImageName: img.ImageName,
		Questions: saved,
		Total:     len(saved),
	}, nil
}

// ========== 答案生成 ==========

// QuestionInput 答案生成的问题输入
// ID 可选，用于解析问题模版；Question 必填
type QuestionInput struct {
	ID       string `json:"id"`
	Question string `json:"question" binding:"required"`
}

// GenerateAnswerRequest 答案生成请求
type GenerateAnswerRequest struct {
	Model       interface{} `json:"model" binding:"required"`
	Language    string      `json:"language"`
	PreviewOnly bool        `json:"preview_only"`
}

// GenerateAnswerResult 答案生成结果
// 预览模式下 Dataset 为 nil
type GenerateAnswerResult struct {
	ImageID   string              `json:"image_id"`
	ImageName string              `json:"image_name"`
	Question  string              `json:"question"`
	Answer    string              `json:"answer"`
	Dataset   *model.ImageDataset `json:"dataset"`
}

// GenerateAnswer 为指定图片和问题生成答案
// 预览模式只生成不落库，不改问题的 answered 状态
func (s *Service) GenerateAnswer(ctx context.Context, projectID, imageID string, question *QuestionInput, req *GenerateAnswerRequest) (*GenerateAnswerResult, error) {
	if question == nil || question.Question == "" {
		return nil, ErrQuestionRequired
	}
	if req == nil || req.Model == nil {
		return nil, ErrModelRequired
	}

	modelCfg, err := llm.ParseModelConfig(req.Model)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = "zh"
	}

	img, imageData, mimeType, err := s.loadImage(ctx, projectID, imageID)
	if err != nil {
		return nil, err
	}

	// 解析问题模版，未配置时按普通文本答案处理
	var tmpl *model.QuestionTemplate
	if question.ID != "" {
		tmpl, err = s.questions.GetTemplateByID(question.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get question template: %w", err)
		}
	}

	answerPrompt := s.composer.BuildAnswerPrompt(ctx, language, question.Question, tmpl, projectID)

	visionModel, err := s.factory.NewVisionModel(ctx, modelCfg)
	if err != nil {
		return nil, err
	}

	rawAnswer, err := visionModel.Ask(ctx, answerPrompt, base64.StdEncoding.EncodeToString(imageData), mimeType)
	if err != nil {
		return nil, err
	}

	answer := extract.NormalizeAnswer(rawAnswer)

	// 预览模式不产生任何持久化副作用
	if req.PreviewOnly {
		return &GenerateAnswerResult{
			ImageID:   img.ID,
			ImageName: img.ImageName,
			Question:  question.Question,
			Answer:    answer,
			Dataset:   nil,
		}, nil
	}

	dataset := &model.ImageDataset{
		ProjectID: projectID,
		ImageID:   img.ID,
		ImageName: img.ImageName,
		Question:  question.Question,
		Answer:    answer,
		Model:     modelCfg.Identifier(),
	}
	if err := s.datasets.Create(dataset); err != nil {
		return nil, fmt.Errorf("failed to create image dataset: %w", err)
	}

	if err := s.questions.UpdateAnsweredStatus(projectID, img.ID, question.Question, true); err != nil {
		return nil, fmt.Errorf("failed to update question status: %w", err)
	}

	log.Printf("图片 %s 的问题 %q 已生成数据集", img.ImageName, question.Question)

	return &GenerateAnswerResult{
		ImageID:   img.ID,
		ImageName: img.ImageName,
		Question:  question.Question,
		Answer:    answer,
		Dataset:   dataset,
	}, nil
}

// loadImage 解析图片并读取内容
// 图片不存在和项目不匹配是两类不同的错误
func (s *Service) loadImage(ctx context.Context, projectID, imageID string) (*model.Image, []byte, string, error) {
	img, err := s.images.GetByID(imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, "", ErrImageNotFound
		}
		return nil, nil, "", fmt.Errorf("failed to get image: %w", err)
	}

	if img.ProjectID != projectID {
		return nil, nil, "", ErrImageForbidden
	}

	data, err := s.storage.ReadImage(ctx, projectID, img.ImageName)
	if err != nil {
		return nil, nil, "", fmt.Errorf("读取图片文件失败: %w", err)
	}

	return img, data, MimeType(img.ImageName), nil
}

// NextUnanswered 返回下一张还有未回答问题的图片
// 全部回答完时返回 (nil, nil)
func (s *Service) NextUnanswered(ctx context.Context, projectID string) (*model.Image, error) {
	question, err := s.questions.FirstUnanswered(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find unanswered question: %w", err)
	}

	img, err := s.images.GetByID(question.ImageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}
