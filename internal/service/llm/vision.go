package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	ecomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/ashwinyue/next-vision/internal/config"
)

// VisionModel 视觉模型网关
// 提交 {提示词, 图片, MIME 类型}，返回模型原始文本
type VisionModel interface {
	Ask(ctx context.Context, prompt, imageBase64, mimeType string) (string, error)
}

// Factory 按模型配置创建视觉模型客户端
type Factory interface {
	NewVisionModel(ctx context.Context, cfg *ModelConfig) (VisionModel, error)
}

// EinoFactory 基于 eino openai ChatModel 的工厂
// 请求里没带凭证时回退到应用配置里的提供商凭证
type EinoFactory struct {
	aiCfg   *config.AIConfig
	limiter *rate.Limiter
}

// NewEinoFactory 创建视觉模型工厂
func NewEinoFactory(aiCfg *config.AIConfig) *EinoFactory {
	var limiter *rate.Limiter
	if aiCfg != nil && aiCfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(aiCfg.RateLimit), 1)
	}
	return &EinoFactory{aiCfg: aiCfg, limiter: limiter}
}

// NewVisionModel 创建视觉模型客户端
func (f *EinoFactory) NewVisionModel(ctx context.Context, cfg *ModelConfig) (VisionModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiKey, baseURL := cfg.APIKey, cfg.BaseURL
	if apiKey == "" || baseURL == "" {
		defKey, defURL, err := f.providerDefaults(cfg.Provider)
		if err != nil {
			return nil, err
		}
		if apiKey == "" {
			apiKey = defKey
		}
		if baseURL == "" {
			baseURL = defURL
		}
	}

	if apiKey == "" {
		return nil, fmt.Errorf("%w: 缺少 API Key", ErrInvalidModelConfig)
	}

	chatModelCfg := &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   cfg.ModelName,
	}
	if cfg.Temperature != nil {
		chatModelCfg.Temperature = cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		chatModelCfg.MaxTokens = &cfg.MaxTokens
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	return &einoVisionModel{chatModel: chatModel, limiter: f.limiter}, nil
}

// providerDefaults 返回提供商的默认凭证
func (f *EinoFactory) providerDefaults(provider string) (apiKey, baseURL string, err error) {
	if f.aiCfg == nil {
		return "", "", nil
	}
	if provider == "" {
		provider = f.aiCfg.Provider
	}

	switch provider {
	case "openai":
		return f.aiCfg.OpenAI.APIKey, f.aiCfg.OpenAI.BaseURL, nil
	case "alibaba", "qwen", "dashscope":
		return f.aiCfg.Alibaba.AccessKeySecret, "https://dashscope.aliyuncs.com/compatible-mode/v1", nil
	case "deepseek":
		return f.aiCfg.DeepSeek.APIKey, f.aiCfg.DeepSeek.BaseURL, nil
	default:
		return "", "", fmt.Errorf("%w: 未知提供商 %s", ErrInvalidModelConfig, provider)
	}
}

// einoVisionModel VisionModel 的 eino 实现
type einoVisionModel struct {
	chatModel ecomodel.ChatModel
	limiter   *rate.Limiter
}

// Ask 提交一次视觉问答
// 图片以 data URL 形式随消息发送
func (m *einoVisionModel) Ask(ctx context.Context, prompt, imageBase64, mimeType string) (string, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrModelCallFailed, err)
		}
	}

	messages := []*schema.Message{
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{
					Type: schema.ChatMessagePartTypeText,
					Text: prompt,
				},
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:      fmt.Sprintf("data:%s;base64,%s", mimeType, imageBase64),
						MIMEType: mimeType,
					},
				},
			},
		},
	}

	resp, err := m.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelCallFailed, err)
	}

	return resp.Content, nil
}
