// Package llm 提供视觉模型网关
package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// 模型相关错误
var (
	// ErrInvalidModelConfig 模型配置不可用（缺少模型名等）
	ErrInvalidModelConfig = errors.New("模型配置不完整")
	// ErrModelUnavailable 模型客户端创建失败
	ErrModelUnavailable = errors.New("视觉模型不可用")
	// ErrModelCallFailed 模型调用失败
	ErrModelCallFailed = errors.New("视觉模型调用失败")
)

// ModelConfig 模型配置
// 调用方可能传纯模型名、JSON 字符串或结构化对象，
// 统一经 ParseModelConfig 归一化后使用，不在调用点做类型猜测
type ModelConfig struct {
	ModelID     string   `json:"modelId,omitempty"`
	ModelName   string   `json:"modelName"`
	Provider    string   `json:"provider,omitempty"`
	BaseURL     string   `json:"baseUrl,omitempty"`
	APIKey      string   `json:"apiKey,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"maxTokens,omitempty"`
}

// Identifier 返回存入数据集记录的模型标识
// 优先 modelId，回退 modelName
func (c *ModelConfig) Identifier() string {
	if c.ModelID != "" {
		return c.ModelID
	}
	return c.ModelName
}

// Validate 校验配置可用
func (c *ModelConfig) Validate() error {
	if c == nil || c.ModelName == "" {
		return ErrInvalidModelConfig
	}
	return nil
}

// ParseModelConfig 把任意形式的模型描述归一化为 ModelConfig
// 接受：*ModelConfig / ModelConfig / JSON 字符串 / 纯模型名 / map
func ParseModelConfig(v interface{}) (*ModelConfig, error) {
	if v == nil {
		return nil, ErrInvalidModelConfig
	}

	switch m := v.(type) {
	case *ModelConfig:
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return m, nil

	case ModelConfig:
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return &m, nil

	case string:
		return parseModelString(m)

	case map[string]interface{}:
		// 经 JSON 往返转成结构体
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModelConfig, err)
		}
		var cfg ModelConfig
		if err := json.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModelConfig, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil

	default:
		return nil, fmt.Errorf("%w: 不支持的模型描述类型 %T", ErrInvalidModelConfig, v)
	}
}

// parseModelString 解析字符串形式的模型描述
// JSON 对象按配置解析，其余当作纯模型名
func parseModelString(s string) (*ModelConfig, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidModelConfig
	}

	if strings.HasPrefix(s, "{") {
		var cfg ModelConfig
		if err := json.Unmarshal([]byte(s), &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModelConfig, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	return &ModelConfig{ModelName: s}, nil
}
