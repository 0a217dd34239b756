// Package extract 从模型自由文本输出中提取结构化结果
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrMalformedOutput 模型输出无法解析成期望的结构
var ErrMalformedOutput = errors.New("无法从模型输出中提取有效的 JSON")

// QuestionList 从模型输出中提取问题列表
// 提取阶梯：整体严格解析 → markdown 代码块 → 括号配平子串 → jsonrepair 修复，
// 全部失败返回 ErrMalformedOutput
func QuestionList(raw string) ([]string, error) {
	value, ok := embeddedJSON(raw, '[', ']')
	if !ok {
		return nil, ErrMalformedOutput
	}

	arr, ok := value.([]interface{})
	if !ok {
		return nil, ErrMalformedOutput
	}

	questions := make([]string, 0, len(arr))
	for _, item := range arr {
		switch q := item.(type) {
		case string:
			if s := strings.TrimSpace(q); s != "" {
				questions = append(questions, s)
			}
		default:
			// 模型偶尔输出对象数组，序列化后保留
			b, err := json.Marshal(item)
			if err == nil && len(b) > 0 {
				questions = append(questions, string(b))
			}
		}
	}
	return questions, nil
}

// JSONObject 从模型输出中提取 JSON 对象
// 与 QuestionList 同一套提取阶梯
func JSONObject(raw string) (map[string]interface{}, error) {
	value, ok := embeddedJSON(raw, '{', '}')
	if !ok {
		return nil, ErrMalformedOutput
	}
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, ErrMalformedOutput
	}
	return obj, nil
}

// NormalizeAnswer 把模型答案归一化为可展示文本
// 能解析成 JSON 字符串就取裸字符串；解析成其他结构则重排成缩进 JSON；
// 解析失败原样返回
func NormalizeAnswer(raw string) string {
	trimmed := strings.TrimSpace(raw)

	var value interface{}
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return raw
	}

	if s, ok := value.(string); ok {
		return s
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return raw
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// embeddedJSON 在自由文本中定位并解析 JSON 值
// openCh/closeCh 限定期望的值类型（数组或对象）
func embeddedJSON(raw string, openCh, closeCh byte) (interface{}, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, false
	}

	// 阶梯一：整体就是合法 JSON
	if v, ok := tryParse(s, openCh); ok {
		return v, true
	}

	// 阶梯二：markdown 代码块内容
	if block := fencedBlock(s); block != "" {
		if v, ok := tryParse(block, openCh); ok {
			return v, true
		}
		s = block
	}

	// 阶梯三：括号配平的子串
	if sub := balancedSubstring(s, openCh, closeCh); sub != "" {
		if v, ok := tryParse(sub, openCh); ok {
			return v, true
		}
		// 阶梯四：对定位到的子串做修复
		if repaired, err := jsonrepair.JSONRepair(sub); err == nil {
			if v, ok := tryParse(repaired, openCh); ok {
				return v, true
			}
		}
	}

	// 最后对全文做一次修复
	if repaired, err := jsonrepair.JSONRepair(s); err == nil {
		if v, ok := tryParse(repaired, openCh); ok {
			return v, true
		}
	}

	return nil, false
}

// tryParse 严格解析，且要求值以期望的括号开头
func tryParse(s string, openCh byte) (interface{}, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != openCh {
		return nil, false
	}
	var value interface{}
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, false
	}
	return value, true
}

// fencedBlock 提取第一个 markdown 代码块的内容
func fencedBlock(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return ""
	}
	rest := s[start+3:]
	// 跳过语言标记行，如 ```json
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, "[{") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// balancedSubstring 从第一个 openCh 开始做括号配平，返回配平的子串
// 跳过字符串字面量内部的括号
func balancedSubstring(s string, openCh, closeCh byte) string {
	start := strings.IndexByte(s, openCh)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	// 未配平，返回从 openCh 到结尾，交给修复阶梯补全
	return s[start:]
}
