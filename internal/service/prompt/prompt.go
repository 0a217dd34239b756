// Package prompt 构建图片问题/答案生成提示词
package prompt

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/ashwinyue/next-vision/internal/model"
)

// 提示词键，项目自定义提示词按键覆盖内置模版
const (
	KeyImageQuestion = "imageQuestion"
	KeyImageAnswer   = "imageAnswer"
)

// 内置问题生成模版
// {{number}} 替换为期望的问题数量
const (
	imageQuestionPromptZH = `# 角色
你是一位专业的图像分析师，擅长从图片中挖掘有训练价值的问题。

# 任务
仔细观察这张图片，围绕图片中的内容、细节、场景和含义提出 {{number}} 个高质量的问题。

# 要求
1. 问题必须能够仅凭这张图片回答
2. 问题之间不要重复，覆盖不同角度
3. 问题使用中文表述

# 输出格式
只输出一个 JSON 字符串数组，不要输出任何其他内容：

["问题1", "问题2", "问题3"]`

	imageQuestionPromptEN = `# Role
You are a professional image analyst who excels at mining valuable training questions from images.

# Task
Look carefully at this image and ask {{number}} high-quality questions about its content, details, scene and meaning.

# Requirements
1. Each question must be answerable from this image alone
2. Questions must not repeat each other and should cover different angles
3. Write the questions in English

# Output Format
Output only a JSON string array, nothing else:

["question 1", "question 2", "question 3"]`
)

// 内置答案生成模版
// 问题本身就是提示词主体，模版约束只在配置了问题模版时追加
const imageAnswerPrompt = `{{question}}{{templatePrompt}}{{outputFormatPrompt}}`

// placeholderPattern 匹配模版里的 {{xxx}} 替换目标
var placeholderPattern = regexp.MustCompile(`\{\{\w+\}\}`)

// OverrideResolver 项目级提示词覆盖查询
// 显式注入，不走全局状态；返回空串表示没有覆盖
type OverrideResolver interface {
	Get(ctx context.Context, projectID, promptKey, language string) (string, error)
}

// Composer 提示词组装器
type Composer struct {
	resolver OverrideResolver
}

// NewComposer 创建提示词组装器
// resolver 为 nil 时只用内置模版
func NewComposer(resolver OverrideResolver) *Composer {
	return &Composer{resolver: resolver}
}

// BuildQuestionPrompt 构建问题生成提示词
// 优先使用项目自定义模版，缺省回退内置双语模版
func (c *Composer) BuildQuestionPrompt(ctx context.Context, language string, count int, projectID string) string {
	template := c.lookupOverride(ctx, projectID, KeyImageQuestion, language)
	if template == "" {
		if language == "en" {
			template = imageQuestionPromptEN
		} else {
			template = imageQuestionPromptZH
		}
	}

	return substitute(template, map[string]string{
		"number": strconv.Itoa(count),
	})
}

// BuildAnswerPrompt 构建答案生成提示词
// 问题文本始终是提示词主体；配置了问题模版时追加描述和输出格式约束
func (c *Composer) BuildAnswerPrompt(ctx context.Context, language, question string, tmpl *model.QuestionTemplate, projectID string) string {
	var templatePrompt, outputFormatPrompt string

	if tmpl != nil {
		if tmpl.Description != "" {
			templatePrompt = "\n\n" + tmpl.Description
		}
		switch tmpl.AnswerType {
		case model.AnswerTypeLabel:
			outputFormatPrompt = labelFormatPrompt(language, tmpl.Labels)
		case model.AnswerTypeCustomFormat:
			outputFormatPrompt = customFormatPrompt(language, tmpl.CustomFormat)
		}
		// AnswerTypeText 不追加格式约束
	}

	template := c.lookupOverride(ctx, projectID, KeyImageAnswer, language)
	if template == "" {
		template = imageAnswerPrompt
	}

	return substitute(template, map[string]string{
		"question":           question,
		"templatePrompt":     templatePrompt,
		"outputFormatPrompt": outputFormatPrompt,
	})
}

// labelFormatPrompt 标签类答案的输出格式约束
// 答案不在标签集内时返回语言对应的"无匹配"哨兵值
func labelFormatPrompt(language string, labels model.StringSlice) string {
	labelText := "[]"
	if b, err := json.Marshal([]string(labels)); err == nil {
		labelText = string(b)
	}

	if language == "en" {
		return " \n\n ## Output Format \n\n Final output must be a string array, and must be selected from the following array, if the answer is not in the target array, return: [\"other\"] No additional information can be added: \n\n" + labelText
	}
	return "\n\n ## 输出格式 \n\n 最终输出必须是一个字符串数组，而且必须在以下数组中选择，如果答案不在目标数组中，返回：[\"其他\"] 不得额外添加任何其他信息：\n\n" + labelText
}

// customFormatPrompt 自定义格式答案的输出格式约束
func customFormatPrompt(language, customFormat string) string {
	if language == "en" {
		return " \n\n ## Output Format \n\n Final output must strictly follow the following structure, no additional information can be added: \n\n" + customFormat
	}
	return "\n\n ## 输出格式 \n\n 最终输出必须严格遵循以下结构，不得额外添加任何其他信息：\n\n" + customFormat
}

// lookupOverride 查询项目自定义模版，查询失败按无覆盖处理
func (c *Composer) lookupOverride(ctx context.Context, projectID, promptKey, language string) string {
	if c.resolver == nil || projectID == "" {
		return ""
	}
	content, err := c.resolver.Get(ctx, projectID, promptKey, language)
	if err != nil {
		return ""
	}
	return content
}

// substitute 替换模版里的 {{key}} 占位符
// 未提供值的占位符替换为空串，组装过程不产生错误
func substitute(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	result := strings.NewReplacer(pairs...).Replace(template)
	return placeholderPattern.ReplaceAllString(result, "")
}
