// Package evaluation 提供数据集批量评分
package evaluation

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ashwinyue/next-vision/internal/model"
	"github.com/ashwinyue/next-vision/internal/repository"
	"github.com/ashwinyue/next-vision/internal/service/extract"
	"github.com/ashwinyue/next-vision/internal/service/file"
	imagesvc "github.com/ashwinyue/next-vision/internal/service/image"
	"github.com/ashwinyue/next-vision/internal/service/llm"
)

// defaultWorkers 评分的默认并发度
const defaultWorkers = 4

// ========== 协作者接口 ==========

// DatasetStore 数据集数据访问
type DatasetStore interface {
	GetByID(id string) (*model.ImageDataset, error)
	UpdateEvaluation(id string, score float64, evaluation string) error
}

// 确保仓库实现了接口
var _ DatasetStore = (*repository.DatasetRepository)(nil)

// ProgressFunc 进度回调，每完成一条调用一次
type ProgressFunc func(completed, total int)

// ItemResult 单条记录的评分结果
type ItemResult struct {
	DatasetID  string  `json:"datasetId"`
	Score      float64 `json:"score,omitempty"`
	Evaluation string  `json:"evaluation,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// BatchResult 批量评分汇总
type BatchResult struct {
	Success int           `json:"success"`
	Failed  int           `json:"failed"`
	Results []*ItemResult `json:"results"`
}

// Service 评分服务
type Service struct {
	datasets DatasetStore
	storage  file.Storage
	factory  llm.Factory
	workers  int
}

// NewService 创建评分服务
func NewService(datasets DatasetStore, storage file.Storage, factory llm.Factory) *Service {
	return &Service{
		datasets: datasets,
		storage:  storage,
		factory:  factory,
		workers:  defaultWorkers,
	}
}

// EvaluateMany 批量评估数据集记录
// 单条失败只计入失败数，不中断批次；每个条目开始前检查取消，
// 上下文被取消时返回已有的部分结果和取消错误
func (s *Service) EvaluateMany(ctx context.Context, projectID string, datasetIDs []string,
	modelCfg *llm.ModelConfig, language string, onProgress ProgressFunc) (*BatchResult, error) {
	if err := modelCfg.Validate(); err != nil {
		return nil, err
	}

	visionModel, err := s.factory.NewVisionModel(ctx, modelCfg)
	if err != nil {
		return nil, err
	}

	total := len(datasetIDs)
	results := make([]*ItemResult, total)
	var completed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var mu sync.Mutex // 串行化进度回调
	for i, id := range datasetIDs {
		// 逐条协作式取消检查
		if gctx.Err() != nil {
			break
		}

		i, id := i, id
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			result := s.evaluateOne(gctx, visionModel, projectID, id, language)
			results[i] = result

			done := int(atomic.AddInt64(&completed, 1))
			if onProgress != nil {
				mu.Lock()
				onProgress(done, total)
				mu.Unlock()
			}
			return nil
		})
	}

	waitErr := g.Wait()

	batch := &BatchResult{Results: make([]*ItemResult, 0, total)}
	for i, r := range results {
		if r == nil {
			// 取消后未执行的条目
			r = &ItemResult{DatasetID: datasetIDs[i], Error: "已取消"}
		}
		if r.Error == "" {
			batch.Success++
		} else {
			batch.Failed++
		}
		batch.Results = append(batch.Results, r)
	}

	if waitErr != nil {
		return batch, waitErr
	}
	if err := ctx.Err(); err != nil {
		return batch, err
	}
	return batch, nil
}

// evaluateOne 评估单条数据集记录
// 任何失败都折叠成 ItemResult.Error，不向上抛
func (s *Service) evaluateOne(ctx context.Context, visionModel llm.VisionModel, projectID, datasetID, language string) *ItemResult {
	result := &ItemResult{DatasetID: datasetID}

	dataset, err := s.datasets.GetByID(datasetID)
	if err != nil {
		result.Error = fmt.Sprintf("获取数据集失败: %v", err)
		return result
	}

	imageData, err := s.storage.ReadImage(ctx, projectID, dataset.ImageName)
	if err != nil {
		result.Error = fmt.Sprintf("读取图片失败: %v", err)
		return result
	}

	scoringPrompt := buildScoringPrompt(language, dataset.Question, dataset.Answer)
	raw, err := visionModel.Ask(ctx, scoringPrompt,
		base64.StdEncoding.EncodeToString(imageData), imagesvc.MimeType(dataset.ImageName))
	if err != nil {
		result.Error = fmt.Sprintf("模型调用失败: %v", err)
		return result
	}

	score, evaluation, err := parseScore(raw)
	if err != nil {
		result.Error = fmt.Sprintf("解析评分失败: %v", err)
		return result
	}

	if err := s.datasets.UpdateEvaluation(datasetID, score, evaluation); err != nil {
		result.Error = fmt.Sprintf("保存评分失败: %v", err)
		return result
	}

	result.Score = score
	result.Evaluation = evaluation
	return result
}

// buildScoringPrompt 构建评分提示词
func buildScoringPrompt(language, question, answer string) string {
	if language == "en" {
		return fmt.Sprintf(`You are a strict training-data reviewer. Look at the image and rate the following question/answer pair.

Question: %s

Answer: %s

Score the answer from 1 to 5 (5 = fully correct and well grounded in the image, 1 = wrong or ungrounded), and give a one-sentence evaluation.

Output only a JSON object in the following form, nothing else:

{"score": 4, "evaluation": "..."}`, question, answer)
	}

	return fmt.Sprintf(`你是一位严格的训练数据审核专家。请观察这张图片，评估下面的问答对。

问题：%s

答案：%s

请给答案打 1 到 5 分（5 分表示完全正确且有图片依据，1 分表示错误或缺乏依据），并给出一句话评语。

只输出如下形式的 JSON 对象，不要输出任何其他内容：

{"score": 4, "evaluation": "..."}`, question, answer)
}

// parseScore 从模型输出中解析评分结果
// 分数必须大于零且评语非空，否则该条记录仍视为未评估
func parseScore(raw string) (float64, string, error) {
	obj, err := extract.JSONObject(raw)
	if err != nil {
		return 0, "", err
	}

	score, ok := obj["score"].(float64)
	if !ok || score <= 0 {
		return 0, "", fmt.Errorf("评分缺失或无效")
	}

	evaluation, _ := obj["evaluation"].(string)
	if evaluation == "" {
		return 0, "", fmt.Errorf("评语缺失")
	}

	return score, evaluation, nil
}
