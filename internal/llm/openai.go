package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"

	"resume-advisor/internal/logger"
)

const defaultOpenAIModelName = openai.GPT4oMini

// OpenAIChatModel OpenAI 及兼容接口(DashScope 兼容模式, 本地网关)的聊天模型
type OpenAIChatModel struct {
	client    *openai.Client
	modelName string
}

// NewOpenAIChatModel baseURL 为空时使用官方地址
func NewOpenAIChatModel(apiKey, modelName, baseURL string) (*OpenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoCredential
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultOpenAIModelName
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	logger.Info().Str("base_url", cfg.BaseURL).Str("model", modelName).Msg("使用OpenAI兼容LLM客户端")
	return &OpenAIChatModel{
		client:    openai.NewClientWithConfig(cfg),
		modelName: modelName,
	}, nil
}

// Generate 实现 model.BaseChatModel
func (o *OpenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	opts := model.GetCommonOptions(&model.Options{}, options...)

	req := openai.ChatCompletionRequest{
		Model:    o.modelName,
		Messages: toOpenAIMessages(messages),
	}
	if opts.Model != nil && *opts.Model != "" {
		req.Model = *opts.Model
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.MaxTokens != nil {
		req.MaxTokens = *opts.MaxTokens
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("OpenAI请求缺少消息")
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API调用失败: %w", err)
	}
	logger.Debug().
		Int("input_tokens", resp.Usage.PromptTokens).
		Int("output_tokens", resp.Usage.CompletionTokens).
		Msg("OpenAI API调用完成")

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}
	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

// Stream 不做增量输出, 一次性返回完整结果
func (o *OpenAIChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := o.Generate(ctx, messages, options...)
	if err != nil {
		return nil, err
	}
	return streamOf(msg), nil
}

// WithTools 报告生成不使用工具调用
func (o *OpenAIChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if len(tools) > 0 {
		return nil, fmt.Errorf("OpenAIChatModel 不支持工具调用 (%d 个工具)", len(tools))
	}
	return o, nil
}

func toOpenAIMessages(messages []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		if m == nil {
			continue
		}
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case schema.System:
			role = openai.ChatMessageRoleSystem
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

var _ model.ToolCallingChatModel = (*OpenAIChatModel)(nil)
