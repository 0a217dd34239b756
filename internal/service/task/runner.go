// Package task 提供异步批量任务的执行器
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ashwinyue/next-vision/internal/model"
	"github.com/ashwinyue/next-vision/internal/repository"
	"github.com/ashwinyue/next-vision/internal/service/evaluation"
	"github.com/ashwinyue/next-vision/internal/service/llm"
)

// pageSize 扫描数据集时的分页大小
const pageSize = 100

// detailResultLimit 任务详情中保留的单条结果数量
const detailResultLimit = 10

// ========== 协作者接口 ==========

// TaskStore 任务数据访问
type TaskStore interface {
	Create(task *model.Task) error
	GetByID(id string) (*model.Task, error)
	UpdateFields(id string, fields map[string]interface{}) error
}

// DatasetPager 数据集分页扫描
type DatasetPager interface {
	ListPage(projectID string, page, pageSize int) ([]*model.ImageDataset, int64, error)
}

// Evaluator 批量评分器
type Evaluator interface {
	EvaluateMany(ctx context.Context, projectID string, datasetIDs []string,
		modelCfg *llm.ModelConfig, language string, onProgress evaluation.ProgressFunc) (*evaluation.BatchResult, error)
}

// 确保实现满足接口
var (
	_ TaskStore    = (*repository.TaskRepository)(nil)
	_ DatasetPager = (*repository.DatasetRepository)(nil)
	_ Evaluator    = (*evaluation.Service)(nil)
)

// Runner 批量评估任务执行器
type Runner struct {
	tasks     TaskStore
	datasets  DatasetPager
	evaluator Evaluator
}

// NewRunner 创建任务执行器
func NewRunner(tasks TaskStore, datasets DatasetPager, evaluator Evaluator) *Runner {
	return &Runner{
		tasks:     tasks,
		datasets:  datasets,
		evaluator: evaluator,
	}
}

// StartDatasetEvaluation 创建评估任务并在后台执行
// 返回时任务已落库，执行进度通过轮询任务记录观察
func (r *Runner) StartDatasetEvaluation(projectID string, modelInfo interface{}, language string) (*model.Task, error) {
	if language == "" {
		language = "zh"
	}

	task := &model.Task{
		ProjectID: projectID,
		Type:      model.TaskTypeDatasetEvaluation,
		Status:    model.TaskStatusPending,
		ModelInfo: encodeModelInfo(modelInfo),
		Language:  language,
	}
	if err := r.tasks.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// 后台执行与请求生命周期解耦
	go r.Run(context.Background(), task.ID)

	return task, nil
}

// encodeModelInfo 把模型配置序列化进任务记录
func encodeModelInfo(modelInfo interface{}) string {
	switch v := modelInfo.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// progressEvent 工作协程发出的进度事件
type progressEvent struct {
	completed int
	total     int
}

// Run 执行一个评估任务直至终态，批次级失败写入任务记录后原样返回
// 任务记录的所有写入都发生在本方法及其进度消费协程中
func (r *Runner) Run(ctx context.Context, taskID string) error {
	task, err := r.tasks.GetByID(taskID)
	if err != nil {
		log.Printf("获取任务失败: %s: %v", taskID, err)
		return fmt.Errorf("failed to get task: %w", err)
	}
	if task.Terminal() {
		return nil
	}

	now := time.Now()
	if err := r.tasks.UpdateFields(task.ID, map[string]interface{}{
		"status":     model.TaskStatusProcessing,
		"start_time": &now,
	}); err != nil {
		log.Printf("更新任务状态失败: %s: %v", task.ID, err)
		return fmt.Errorf("failed to update task status: %w", err)
	}

	if err := r.run(ctx, task); err != nil {
		r.fail(task.ID, err)
		return err
	}
	return nil
}

// run 任务主体，出错即失败
func (r *Runner) run(ctx context.Context, task *model.Task) error {
	modelCfg, err := llm.ParseModelConfig(task.ModelInfo)
	if err != nil {
		return err
	}

	datasetIDs, err := r.collectUnevaluated(task.ProjectID)
	if err != nil {
		return fmt.Errorf("扫描数据集失败: %w", err)
	}

	if len(datasetIDs) == 0 {
		return r.complete(task.ID, 0, "没有找到需要评估的数据集", "")
	}

	total := len(datasetIDs)
	if err := r.tasks.UpdateFields(task.ID, map[string]interface{}{
		"total_count": total,
		"note":        fmt.Sprintf("正在评估数据集: 0/%d", total),
	}); err != nil {
		return fmt.Errorf("更新任务总数失败: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 缓冲覆盖全部事件，工作协程发送进度时永不阻塞
	events := make(chan progressEvent, total)
	consumerDone := make(chan struct{})
	go r.consumeProgress(task.ID, events, consumerDone, cancel)

	result, evalErr := r.evaluator.EvaluateMany(runCtx, task.ProjectID, datasetIDs,
		modelCfg, task.Language, func(completed, total int) {
			select {
			case events <- progressEvent{completed: completed, total: total}:
			default:
			}
		})

	close(events)
	<-consumerDone

	if evalErr != nil {
		// 外部把任务标成 FAILED 导致的取消：终态已写好，不再覆盖
		if current, err := r.tasks.GetByID(task.ID); err == nil && current.Status == model.TaskStatusFailed {
			log.Printf("任务 %s 已被外部终止", task.ID)
			return nil
		}
		return evalErr
	}

	note := fmt.Sprintf("评估完成: 成功 %d 个，失败 %d 个", result.Success, result.Failed)
	return r.complete(task.ID, total, note, encodeDetail(result))
}

// collectUnevaluated 分页扫描项目数据集，收集未评估的记录
// 已有分数和评语的记录跳过，重跑任务因此是幂等的
func (r *Runner) collectUnevaluated(projectID string) ([]string, error) {
	var ids []string

	for page := 1; ; page++ {
		datasets, _, err := r.datasets.ListPage(projectID, page, pageSize)
		if err != nil {
			return nil, err
		}

		for _, d := range datasets {
			if !d.Evaluated() {
				ids = append(ids, d.ID)
			}
		}

		if len(datasets) < pageSize {
			break
		}
	}

	return ids, nil
}

// consumeProgress 进度事件的唯一消费者
// 单调递增守卫丢弃乱序到达的旧事件；每次落盘后回读任务记录，
// 发现任务被外部标记失败时取消执行
func (r *Runner) consumeProgress(taskID string, events <-chan progressEvent, done chan<- struct{}, cancel context.CancelFunc) {
	defer close(done)

	last := 0
	for ev := range events {
		if ev.completed <= last {
			continue
		}
		last = ev.completed

		if err := r.tasks.UpdateFields(taskID, map[string]interface{}{
			"completed_count": ev.completed,
			"note":            fmt.Sprintf("正在评估数据集: %d/%d", ev.completed, ev.total),
		}); err != nil {
			log.Printf("更新任务进度失败: %s: %v", taskID, err)
			continue
		}

		current, err := r.tasks.GetByID(taskID)
		if err != nil {
			continue
		}
		if current.Status == model.TaskStatusFailed {
			cancel()
			return
		}
	}
}

// complete 把任务写入完成终态
func (r *Runner) complete(taskID string, completed int, note, detail string) error {
	now := time.Now()
	fields := map[string]interface{}{
		"status":          model.TaskStatusCompleted,
		"completed_count": completed,
		"end_time":        &now,
		"note":            note,
	}
	if detail != "" {
		fields["detail"] = detail
	}
	if err := r.tasks.UpdateFields(taskID, fields); err != nil {
		return fmt.Errorf("更新任务结果失败: %w", err)
	}
	log.Printf("任务 %s 完成: %s", taskID, note)
	return nil
}

// fail 把任务写入失败终态
func (r *Runner) fail(taskID string, cause error) {
	now := time.Now()
	if err := r.tasks.UpdateFields(taskID, map[string]interface{}{
		"status":   model.TaskStatusFailed,
		"end_time": &now,
		"note":     fmt.Sprintf("评估失败: %v", cause),
	}); err != nil {
		log.Printf("更新任务失败状态失败: %s: %v", taskID, err)
	}
	log.Printf("任务 %s 失败: %v", taskID, cause)
}

// encodeDetail 序列化任务详情，结果明细只保留前若干条
func encodeDetail(result *evaluation.BatchResult) string {
	results := result.Results
	if len(results) > detailResultLimit {
		results = results[:detailResultLimit]
	}

	detail := map[string]interface{}{
		"successCount": result.Success,
		"failedCount":  result.Failed,
		"results":      results,
	}

	data, err := json.Marshal(detail)
	if err != nil {
		return ""
	}
	return string(data)
}
