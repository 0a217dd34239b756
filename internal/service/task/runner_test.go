package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/ashwinyue/next-vision/internal/model"
	"github.com/ashwinyue/next-vision/internal/service/evaluation"
	"github.com/ashwinyue/next-vision/internal/service/llm"
	"github.com/ashwinyue/next-vision/internal/testutil"
)

// ========== 测试替身 ==========

type fakeTasks struct {
	mu    sync.Mutex
	tasks map[string]*model.Task
	// failOnProgress 在第一次进度落盘后把任务标成 FAILED，模拟外部终止
	failOnProgress bool
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: map[string]*model.Task{}}
}

func (f *fakeTasks) Create(task *model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID == "" {
		task.ID = fmt.Sprintf("task-%d", len(f.tasks)+1)
	}
	stored := *task
	f.tasks[task.ID] = &stored
	return nil
}

func (f *fakeTasks) GetByID(id string) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTasks) UpdateFields(id string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range fields {
		switch key {
		case "status":
			task.Status = value.(model.TaskStatus)
		case "total_count":
			task.TotalCount = value.(int)
		case "completed_count":
			task.CompletedCount = value.(int)
			if f.failOnProgress {
				task.Status = model.TaskStatusFailed
			}
		case "note":
			task.Note = value.(string)
		case "detail":
			task.Detail = value.(string)
		case "start_time":
			task.StartTime = value.(*time.Time)
		case "end_time":
			task.EndTime = value.(*time.Time)
		}
	}
	return nil
}

type fakePager struct {
	mu       sync.Mutex
	datasets []*model.ImageDataset
	fetches  int
}

func (f *fakePager) ListPage(projectID string, page, pageSize int) ([]*model.ImageDataset, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++

	start := (page - 1) * pageSize
	if start >= len(f.datasets) {
		return nil, int64(len(f.datasets)), nil
	}
	end := start + pageSize
	if end > len(f.datasets) {
		end = len(f.datasets)
	}
	return f.datasets[start:end], int64(len(f.datasets)), nil
}

type fakeEvaluator struct {
	mu       sync.Mutex
	gotIDs   []string
	gotCfg   *llm.ModelConfig
	behavior func(ctx context.Context, ids []string, onProgress evaluation.ProgressFunc) (*evaluation.BatchResult, error)
}

func (f *fakeEvaluator) EvaluateMany(ctx context.Context, projectID string, datasetIDs []string,
	modelCfg *llm.ModelConfig, language string, onProgress evaluation.ProgressFunc) (*evaluation.BatchResult, error) {
	f.mu.Lock()
	f.gotIDs = datasetIDs
	f.gotCfg = modelCfg
	f.mu.Unlock()

	if f.behavior != nil {
		return f.behavior(ctx, datasetIDs, onProgress)
	}

	result := &evaluation.BatchResult{}
	for i, id := range datasetIDs {
		result.Success++
		result.Results = append(result.Results, &evaluation.ItemResult{DatasetID: id, Score: 4})
		if onProgress != nil {
			onProgress(i+1, len(datasetIDs))
		}
	}
	return result, nil
}

// makeDatasets 构造 total 条记录，其中前 unevaluated 条未评估
func makeDatasets(total, unevaluated int) []*model.ImageDataset {
	datasets := make([]*model.ImageDataset, 0, total)
	for i := 0; i < total; i++ {
		ds := testutil.NewDataset("proj-1", fmt.Sprintf("img-%d", i), "问题", "答案")
		ds.ID = fmt.Sprintf("ds-%d", i)
		if i >= unevaluated {
			ds.Score = 4
			ds.AIEvaluation = "已评估"
		}
		datasets = append(datasets, ds)
	}
	return datasets
}

func startTask(t *testing.T, tasks *fakeTasks, modelInfo string) *model.Task {
	t.Helper()
	task := testutil.NewEvaluationTask("proj-1", modelInfo)
	task.ID = ""
	if err := tasks.Create(task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

// ========== 测试 ==========

func TestRunnerZeroWork(t *testing.T) {
	tasks := newFakeTasks()
	pager := &fakePager{datasets: makeDatasets(5, 0)} // 全部已评估
	runner := NewRunner(tasks, pager, &fakeEvaluator{})

	task := startTask(t, tasks, "qwen-vl-plus")
	runner.Run(context.Background(), task.ID)

	got, _ := tasks.GetByID(task.ID)
	if got.Status != model.TaskStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.Status)
	}
	if got.TotalCount != 0 || got.CompletedCount != 0 {
		t.Errorf("expected zero counts, got total=%d completed=%d", got.TotalCount, got.CompletedCount)
	}
	if got.Note != "没有找到需要评估的数据集" {
		t.Errorf("unexpected note: %s", got.Note)
	}
	if got.EndTime == nil {
		t.Error("end time not set")
	}
}

func TestRunnerPaginatedDiscovery(t *testing.T) {
	tasks := newFakeTasks()
	// 250 条记录里 10 条未评估，分页大小 100 需要 3 次拉取
	pager := &fakePager{datasets: makeDatasets(250, 10)}
	evaluator := &fakeEvaluator{}
	runner := NewRunner(tasks, pager, evaluator)

	task := startTask(t, tasks, "qwen-vl-plus")
	runner.Run(context.Background(), task.ID)

	if pager.fetches != 3 {
		t.Errorf("expected 3 page fetches, got %d", pager.fetches)
	}
	if len(evaluator.gotIDs) != 10 {
		t.Fatalf("expected 10 unevaluated ids, got %d", len(evaluator.gotIDs))
	}
	if evaluator.gotCfg.ModelName != "qwen-vl-plus" {
		t.Errorf("model config not parsed: %+v", evaluator.gotCfg)
	}

	got, _ := tasks.GetByID(task.ID)
	if got.Status != model.TaskStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s (note: %s)", got.Status, got.Note)
	}
	if got.TotalCount != 10 || got.CompletedCount != 10 {
		t.Errorf("got total=%d completed=%d", got.TotalCount, got.CompletedCount)
	}
	if got.Note != "评估完成: 成功 10 个，失败 0 个" {
		t.Errorf("unexpected note: %s", got.Note)
	}
}

func TestRunnerInvalidModelConfig(t *testing.T) {
	tasks := newFakeTasks()
	runner := NewRunner(tasks, &fakePager{}, &fakeEvaluator{})

	task := startTask(t, tasks, `{"provider": "openai"}`) // 缺模型名
	err := runner.Run(context.Background(), task.ID)
	if !errors.Is(err, llm.ErrInvalidModelConfig) {
		t.Fatalf("expected ErrInvalidModelConfig returned to caller, got %v", err)
	}

	got, _ := tasks.GetByID(task.ID)
	if got.Status != model.TaskStatusFailed {
		t.Fatalf("expected FAILED, got %s", got.Status)
	}
	if !strings.HasPrefix(got.Note, "评估失败:") {
		t.Errorf("unexpected note: %s", got.Note)
	}
	if got.EndTime == nil {
		t.Error("end time not set")
	}
}

func TestRunnerRediscoveryIsIdempotent(t *testing.T) {
	tasks := newFakeTasks()
	pager := &fakePager{datasets: makeDatasets(30, 7)}
	// 只统计不写回评分，记录保持未评估状态
	evaluator := &fakeEvaluator{
		behavior: func(ctx context.Context, ids []string, onProgress evaluation.ProgressFunc) (*evaluation.BatchResult, error) {
			result := &evaluation.BatchResult{Failed: len(ids)}
			for _, id := range ids {
				result.Results = append(result.Results, &evaluation.ItemResult{DatasetID: id, Error: "模型超时"})
			}
			return result, nil
		},
	}
	runner := NewRunner(tasks, pager, evaluator)

	first := startTask(t, tasks, "qwen-vl-plus")
	if err := runner.Run(context.Background(), first.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstIDs := append([]string(nil), evaluator.gotIDs...)
	if len(firstIDs) != 7 {
		t.Fatalf("expected 7 unevaluated ids, got %d", len(firstIDs))
	}

	second := startTask(t, tasks, "qwen-vl-plus")
	if err := runner.Run(context.Background(), second.ID); err != nil {
		t.Fatalf("second run: %v", err)
	}
	secondIDs := append([]string(nil), evaluator.gotIDs...)

	// 存储未变化时，重跑扫描出完全相同的未评估集合
	if !reflect.DeepEqual(firstIDs, secondIDs) {
		t.Errorf("rediscovery diverged:\nfirst:  %v\nsecond: %v", firstIDs, secondIDs)
	}
}

func TestRunnerDetailKeepsFirstResults(t *testing.T) {
	tasks := newFakeTasks()
	pager := &fakePager{datasets: makeDatasets(15, 15)}
	runner := NewRunner(tasks, pager, &fakeEvaluator{})

	task := startTask(t, tasks, "qwen-vl-plus")
	runner.Run(context.Background(), task.ID)

	got, _ := tasks.GetByID(task.ID)
	if got.Detail == "" {
		t.Fatal("detail not written")
	}

	var detail struct {
		SuccessCount int                      `json:"successCount"`
		FailedCount  int                      `json:"failedCount"`
		Results      []*evaluation.ItemResult `json:"results"`
	}
	if err := json.Unmarshal([]byte(got.Detail), &detail); err != nil {
		t.Fatalf("detail not valid JSON: %v", err)
	}
	if detail.SuccessCount != 15 {
		t.Errorf("expected successCount 15, got %d", detail.SuccessCount)
	}
	if len(detail.Results) != 10 {
		t.Errorf("expected 10 result samples, got %d", len(detail.Results))
	}
}

func TestRunnerMixedResultNote(t *testing.T) {
	tasks := newFakeTasks()
	pager := &fakePager{datasets: makeDatasets(4, 4)}
	evaluator := &fakeEvaluator{
		behavior: func(ctx context.Context, ids []string, onProgress evaluation.ProgressFunc) (*evaluation.BatchResult, error) {
			result := &evaluation.BatchResult{Success: 3, Failed: 1}
			for _, id := range ids {
				result.Results = append(result.Results, &evaluation.ItemResult{DatasetID: id})
			}
			return result, nil
		},
	}
	runner := NewRunner(tasks, pager, evaluator)

	task := startTask(t, tasks, "qwen-vl-plus")
	runner.Run(context.Background(), task.ID)

	got, _ := tasks.GetByID(task.ID)
	if got.Note != "评估完成: 成功 3 个，失败 1 个" {
		t.Errorf("unexpected note: %s", got.Note)
	}
}

func TestRunnerExternalFailureCancels(t *testing.T) {
	tasks := newFakeTasks()
	tasks.failOnProgress = true
	pager := &fakePager{datasets: makeDatasets(2, 2)}

	evaluator := &fakeEvaluator{
		behavior: func(ctx context.Context, ids []string, onProgress evaluation.ProgressFunc) (*evaluation.BatchResult, error) {
			if onProgress != nil {
				onProgress(1, len(ids))
			}
			// 等待进度消费者发现外部失败并取消
			select {
			case <-ctx.Done():
				return &evaluation.BatchResult{Success: 1, Failed: 1}, ctx.Err()
			case <-time.After(2 * time.Second):
				return nil, fmt.Errorf("cancellation not propagated")
			}
		},
	}
	runner := NewRunner(tasks, pager, evaluator)

	task := startTask(t, tasks, "qwen-vl-plus")
	runner.Run(context.Background(), task.ID)

	got, _ := tasks.GetByID(task.ID)
	// 外部写入的终态不被执行器覆盖
	if got.Status != model.TaskStatusFailed {
		t.Fatalf("expected FAILED to stick, got %s", got.Status)
	}
	if got.CompletedCount != 1 {
		t.Errorf("expected progress 1 persisted, got %d", got.CompletedCount)
	}
}

func TestRunnerSkipsTerminalTask(t *testing.T) {
	tasks := newFakeTasks()
	evaluator := &fakeEvaluator{}
	runner := NewRunner(tasks, &fakePager{datasets: makeDatasets(3, 3)}, evaluator)

	task := startTask(t, tasks, "qwen-vl-plus")
	tasks.UpdateFields(task.ID, map[string]interface{}{"status": model.TaskStatusCompleted})

	runner.Run(context.Background(), task.ID)

	if evaluator.gotIDs != nil {
		t.Error("terminal task must not be re-run")
	}
}

func TestStartDatasetEvaluation(t *testing.T) {
	tasks := newFakeTasks()
	pager := &fakePager{datasets: makeDatasets(1, 1)}
	runner := NewRunner(tasks, pager, &fakeEvaluator{})

	task, err := runner.StartDatasetEvaluation("proj-1", map[string]interface{}{"modelName": "gpt-4o"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Language != "zh" {
		t.Errorf("expected default language zh, got %s", task.Language)
	}
	if !strings.Contains(task.ModelInfo, "gpt-4o") {
		t.Errorf("model info not serialized: %s", task.ModelInfo)
	}

	// 后台执行最终把任务推进到终态
	deadline := time.After(2 * time.Second)
	for {
		got, err := tasks.GetByID(task.ID)
		if err == nil && got.Terminal() {
			if got.Status != model.TaskStatusCompleted {
				t.Fatalf("expected COMPLETED, got %s (note: %s)", got.Status, got.Note)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("task did not reach terminal state")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
