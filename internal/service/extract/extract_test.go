package extract

import (
	"errors"
	"reflect"
	"testing"
)

func TestQuestionList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "严格 JSON 数组",
			raw:  `["图中有什么?", "这是在哪里拍的?"]`,
			want: []string{"图中有什么?", "这是在哪里拍的?"},
		},
		{
			name: "markdown 代码块",
			raw:  "好的，问题如下：\n```json\n[\"问题一\", \"问题二\"]\n```\n希望对你有帮助。",
			want: []string{"问题一", "问题二"},
		},
		{
			name: "前后有说明文字",
			raw:  `根据图片内容，我生成了这些问题：["Q1", "Q2", "Q3"] 以上就是全部问题。`,
			want: []string{"Q1", "Q2", "Q3"},
		},
		{
			name: "尾逗号靠修复解析",
			raw:  `["问题一", "问题二",]`,
			want: []string{"问题一", "问题二"},
		},
		{
			name: "字符串内的括号不影响配平",
			raw:  `这是结果 ["数组 [0] 的值是什么?", "第二个问题"]`,
			want: []string{"数组 [0] 的值是什么?", "第二个问题"},
		},
		{
			name: "空白项被丢弃",
			raw:  `["有效问题", "  ", ""]`,
			want: []string{"有效问题"},
		},
		{
			name:    "纯文本",
			raw:     "我无法生成问题。",
			wantErr: true,
		},
		{
			name:    "空输入",
			raw:     "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuestionList(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedOutput) {
					t.Fatalf("expected ErrMalformedOutput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuestionListObjectItems(t *testing.T) {
	got, err := QuestionList(`[{"question": "图里是什么?"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0] != `{"question":"图里是什么?"}` {
		t.Errorf("unexpected item: %s", got[0])
	}
}

func TestJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "严格对象", raw: `{"score": 4, "evaluation": "答案准确"}`},
		{name: "代码块包裹", raw: "```json\n{\"score\": 3, \"evaluation\": \"一般\"}\n```"},
		{name: "前缀文字", raw: `评估结果如下 {"score": 5, "evaluation": "完美"}`},
		{name: "截断对象靠修复", raw: `{"score": 4, "evaluation": "不错`},
		{name: "数组不是对象", raw: `[1, 2, 3]`, wantErr: true},
		{name: "纯文本", raw: "无法评估", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := JSONObject(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedOutput) {
					t.Fatalf("expected ErrMalformedOutput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := obj["score"]; !ok {
				t.Errorf("expected score key in %v", obj)
			}
		})
	}
}

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "JSON 字符串取裸值",
			raw:  `"hello"`,
			want: "hello",
		},
		{
			name: "对象重排成缩进 JSON",
			raw:  `{"a":1}`,
			want: "{\n  \"a\": 1\n}",
		},
		{
			name: "非 JSON 原样返回",
			raw:  "not json",
			want: "not json",
		},
		{
			name: "数组也重排",
			raw:  `["a","b"]`,
			want: "[\n  \"a\",\n  \"b\"\n]",
		},
		{
			name: "HTML 字符不转义",
			raw:  `{"url":"a<b>"}`,
			want: "{\n  \"url\": \"a<b>\"\n}",
		},
		{
			name: "普通中文答案",
			raw:  "图片里是一只猫。",
			want: "图片里是一只猫。",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAnswer(tt.raw); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
