package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ashwinyue/next-vision/internal/model"
)

// fakeResolver 固定返回预设覆盖内容
type fakeResolver struct {
	content string
	err     error
}

func (r *fakeResolver) Get(ctx context.Context, projectID, promptKey, language string) (string, error) {
	return r.content, r.err
}

func TestBuildQuestionPrompt(t *testing.T) {
	c := NewComposer(nil)
	ctx := context.Background()

	t.Run("中文模版替换数量", func(t *testing.T) {
		got := c.BuildQuestionPrompt(ctx, "zh", 5, "proj-1")
		if !strings.Contains(got, "提出 5 个高质量的问题") {
			t.Errorf("count not substituted: %s", got)
		}
		if strings.Contains(got, "{{number}}") {
			t.Error("placeholder left in prompt")
		}
	})

	t.Run("英文模版", func(t *testing.T) {
		got := c.BuildQuestionPrompt(ctx, "en", 3, "proj-1")
		if !strings.Contains(got, "ask 3 high-quality questions") {
			t.Errorf("count not substituted: %s", got)
		}
	})

	t.Run("项目覆盖优先", func(t *testing.T) {
		override := NewComposer(&fakeResolver{content: "自定义模版 {{number}} 个"})
		got := override.BuildQuestionPrompt(ctx, "zh", 2, "proj-1")
		if got != "自定义模版 2 个" {
			t.Errorf("override not applied: %s", got)
		}
	})

	t.Run("覆盖查询失败回退内置", func(t *testing.T) {
		broken := NewComposer(&fakeResolver{err: errors.New("redis down")})
		got := broken.BuildQuestionPrompt(ctx, "zh", 3, "proj-1")
		if !strings.Contains(got, "提出 3 个高质量的问题") {
			t.Errorf("fallback not applied: %s", got)
		}
	})
}

func TestBuildAnswerPrompt(t *testing.T) {
	c := NewComposer(nil)
	ctx := context.Background()

	t.Run("无模版时只有问题", func(t *testing.T) {
		got := c.BuildAnswerPrompt(ctx, "zh", "图里有什么?", nil, "proj-1")
		if got != "图里有什么?" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("文本类型不追加格式约束", func(t *testing.T) {
		tmpl := &model.QuestionTemplate{AnswerType: model.AnswerTypeText}
		got := c.BuildAnswerPrompt(ctx, "zh", "图里有什么?", tmpl, "proj-1")
		if got != "图里有什么?" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("模版描述追加在问题后", func(t *testing.T) {
		tmpl := &model.QuestionTemplate{
			AnswerType:  model.AnswerTypeText,
			Description: "请用一句话回答",
		}
		got := c.BuildAnswerPrompt(ctx, "zh", "图里有什么?", tmpl, "proj-1")
		if got != "图里有什么?\n\n请用一句话回答" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("中文标签类型带其他哨兵", func(t *testing.T) {
		tmpl := &model.QuestionTemplate{
			AnswerType: model.AnswerTypeLabel,
			Labels:     model.StringSlice{"猫", "狗"},
		}
		got := c.BuildAnswerPrompt(ctx, "zh", "图里是什么动物?", tmpl, "proj-1")
		if !strings.Contains(got, `["其他"]`) {
			t.Errorf("missing zh sentinel: %s", got)
		}
		if !strings.Contains(got, `["猫","狗"]`) {
			t.Errorf("missing label array: %s", got)
		}
	})

	t.Run("英文标签类型带 other 哨兵", func(t *testing.T) {
		tmpl := &model.QuestionTemplate{
			AnswerType: model.AnswerTypeLabel,
			Labels:     model.StringSlice{"cat", "dog"},
		}
		got := c.BuildAnswerPrompt(ctx, "en", "What animal is this?", tmpl, "proj-1")
		if !strings.Contains(got, `["other"]`) {
			t.Errorf("missing en sentinel: %s", got)
		}
		if !strings.Contains(got, `["cat","dog"]`) {
			t.Errorf("missing label array: %s", got)
		}
	})

	t.Run("自定义格式追加结构约束", func(t *testing.T) {
		tmpl := &model.QuestionTemplate{
			AnswerType:   model.AnswerTypeCustomFormat,
			CustomFormat: `{"answer": "", "confidence": 0}`,
		}
		got := c.BuildAnswerPrompt(ctx, "zh", "图里是什么?", tmpl, "proj-1")
		if !strings.Contains(got, `{"answer": "", "confidence": 0}`) {
			t.Errorf("missing custom format: %s", got)
		}
		if !strings.Contains(got, "严格遵循以下结构") {
			t.Errorf("missing constraint text: %s", got)
		}
	})
}

func TestSubstituteRemovesUnknownPlaceholders(t *testing.T) {
	got := substitute("a {{known}} b {{unknown}} c", map[string]string{"known": "X"})
	if got != "a X b  c" {
		t.Errorf("got %q", got)
	}
}
