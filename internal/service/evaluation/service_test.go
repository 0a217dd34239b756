package evaluation

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/ashwinyue/next-vision/internal/model"
	"github.com/ashwinyue/next-vision/internal/service/llm"
	"github.com/ashwinyue/next-vision/internal/testutil"
)

// ========== 测试替身 ==========

type fakeDatasets struct {
	mu      sync.Mutex
	byID    map[string]*model.ImageDataset
	updated map[string]float64
}

func (f *fakeDatasets) GetByID(id string) (*model.ImageDataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ds, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ds, nil
}

func (f *fakeDatasets) UpdateEvaluation(id string, score float64, evaluation string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = score
	return nil
}

type fakeStorage struct {
	missing map[string]bool
}

func (f *fakeStorage) SaveImage(ctx context.Context, projectID, imageName string, reader io.Reader, size int64, contentType string) error {
	return nil
}

func (f *fakeStorage) ReadImage(ctx context.Context, projectID, imageName string) ([]byte, error) {
	if f.missing[imageName] {
		return nil, errors.New("file not found")
	}
	return []byte("fake-image"), nil
}

func (f *fakeStorage) DeleteImage(ctx context.Context, projectID, imageName string) error {
	return nil
}

type fakeVision struct {
	reply string
	err   error
}

func (f *fakeVision) Ask(ctx context.Context, prompt, imageBase64, mimeType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeFactory struct {
	vision llm.VisionModel
}

func (f *fakeFactory) NewVisionModel(ctx context.Context, cfg *llm.ModelConfig) (llm.VisionModel, error) {
	return f.vision, nil
}

func newFakeDatasets(ids ...string) *fakeDatasets {
	byID := make(map[string]*model.ImageDataset, len(ids))
	for _, id := range ids {
		byID[id] = testutil.NewDataset("proj-1", "img-"+id, "问题", "答案")
		byID[id].ID = id
	}
	return &fakeDatasets{byID: byID, updated: map[string]float64{}}
}

// ========== 测试 ==========

func TestEvaluateMany(t *testing.T) {
	ctx := context.Background()
	cfg := &llm.ModelConfig{ModelName: "qwen-vl-plus"}

	t.Run("全部成功", func(t *testing.T) {
		datasets := newFakeDatasets("a", "b", "c")
		svc := NewService(datasets, &fakeStorage{}, &fakeFactory{
			vision: &fakeVision{reply: `{"score": 4, "evaluation": "答案准确"}`},
		})

		var mu sync.Mutex
		var lastCompleted int
		result, err := svc.EvaluateMany(ctx, "proj-1", []string{"a", "b", "c"}, cfg, "zh",
			func(completed, total int) {
				mu.Lock()
				if completed > lastCompleted {
					lastCompleted = completed
				}
				mu.Unlock()
			})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Success != 3 || result.Failed != 0 {
			t.Errorf("got success=%d failed=%d", result.Success, result.Failed)
		}
		if len(datasets.updated) != 3 {
			t.Errorf("expected 3 evaluations persisted, got %d", len(datasets.updated))
		}
		if lastCompleted != 3 {
			t.Errorf("expected final progress 3, got %d", lastCompleted)
		}
	})

	t.Run("单条失败不中断批次", func(t *testing.T) {
		datasets := newFakeDatasets("a", "b")
		svc := NewService(datasets, &fakeStorage{}, &fakeFactory{
			vision: &fakeVision{reply: `{"score": 5, "evaluation": "好"}`},
		})

		// missing 不在库里
		result, err := svc.EvaluateMany(ctx, "proj-1", []string{"a", "missing", "b"}, cfg, "zh", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Success != 2 || result.Failed != 1 {
			t.Errorf("got success=%d failed=%d", result.Success, result.Failed)
		}
		if len(result.Results) != 3 {
			t.Errorf("expected 3 item results, got %d", len(result.Results))
		}
	})

	t.Run("评分解析失败计为失败", func(t *testing.T) {
		datasets := newFakeDatasets("a")
		svc := NewService(datasets, &fakeStorage{}, &fakeFactory{
			vision: &fakeVision{reply: "我觉得这个答案还不错"},
		})

		result, err := svc.EvaluateMany(ctx, "proj-1", []string{"a"}, cfg, "zh", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Failed != 1 {
			t.Errorf("expected 1 failure, got %d", result.Failed)
		}
		if len(datasets.updated) != 0 {
			t.Error("no evaluation should be persisted on parse failure")
		}
	})

	t.Run("零分视为无效", func(t *testing.T) {
		datasets := newFakeDatasets("a")
		svc := NewService(datasets, &fakeStorage{}, &fakeFactory{
			vision: &fakeVision{reply: `{"score": 0, "evaluation": "无法评估"}`},
		})

		result, err := svc.EvaluateMany(ctx, "proj-1", []string{"a"}, cfg, "zh", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Failed != 1 {
			t.Errorf("expected 1 failure, got %d", result.Failed)
		}
	})

	t.Run("配置无效直接报错", func(t *testing.T) {
		svc := NewService(newFakeDatasets(), &fakeStorage{}, &fakeFactory{})
		_, err := svc.EvaluateMany(ctx, "proj-1", nil, &llm.ModelConfig{}, "zh", nil)
		if !errors.Is(err, llm.ErrInvalidModelConfig) {
			t.Fatalf("expected ErrInvalidModelConfig, got %v", err)
		}
	})

	t.Run("已取消的上下文返回部分结果", func(t *testing.T) {
		datasets := newFakeDatasets("a", "b")
		svc := NewService(datasets, &fakeStorage{}, &fakeFactory{
			vision: &fakeVision{reply: `{"score": 4, "evaluation": "好"}`},
		})

		result, err := svc.EvaluateMany(testutil.CanceledContext(), "proj-1", []string{"a", "b"}, cfg, "zh", nil)
		if err == nil {
			t.Fatal("expected cancellation error")
		}
		if result == nil {
			t.Fatal("expected partial result on cancellation")
		}
		if len(result.Results) != 2 {
			t.Errorf("expected placeholder results for all items, got %d", len(result.Results))
		}
	})
}
