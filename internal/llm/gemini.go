package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"resume-advisor/internal/logger"
)

const defaultGeminiModelName = "gemini-2.0-flash"

// GeminiChatModel 基于 Google Generative AI SDK 的聊天模型
type GeminiChatModel struct {
	client    *genai.Client
	modelName string
}

// NewGeminiChatModel 创建 Gemini 客户端
func NewGeminiChatModel(ctx context.Context, apiKey, modelName string) (*GeminiChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoCredential
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultGeminiModelName
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("创建Gemini客户端失败: %w", err)
	}
	logger.Info().Str("model", modelName).Msg("使用Gemini LLM客户端")
	return &GeminiChatModel{client: client, modelName: modelName}, nil
}

// Close 释放底层连接
func (g *GeminiChatModel) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Generate 最后一条非 system 消息作为本轮输入, 之前的消息作为对话历史
func (g *GeminiChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	opts := model.GetCommonOptions(&model.Options{}, options...)
	name := g.modelName
	if opts.Model != nil && *opts.Model != "" {
		name = *opts.Model
	}

	gm := g.client.GenerativeModel(name)
	if opts.Temperature != nil {
		gm.SetTemperature(*opts.Temperature)
	}
	if opts.MaxTokens != nil {
		gm.SetMaxOutputTokens(int32(*opts.MaxTokens))
	}

	system, rest := splitMessages(messages)
	if system != "" {
		gm.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if len(rest) == 0 {
		return nil, errors.New("Gemini请求缺少用户消息")
	}

	cs := gm.StartChat()
	for _, m := range rest[:len(rest)-1] {
		role := "user"
		if m.Role == schema.Assistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(rest[len(rest)-1].Content))
	if err != nil {
		return nil, fmt.Errorf("Gemini API调用失败: %w", err)
	}
	if resp.UsageMetadata != nil {
		logger.Debug().
			Int32("input_tokens", resp.UsageMetadata.PromptTokenCount).
			Int32("output_tokens", resp.UsageMetadata.CandidatesTokenCount).
			Msg("Gemini API调用完成")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return nil, ErrEmptyResponse
	}
	return schema.AssistantMessage(sb.String(), nil), nil
}

// Stream 不做增量输出, 一次性返回完整结果
func (g *GeminiChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := g.Generate(ctx, messages, options...)
	if err != nil {
		return nil, err
	}
	return streamOf(msg), nil
}

// WithTools 报告生成不使用工具调用
func (g *GeminiChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if len(tools) > 0 {
		return nil, fmt.Errorf("GeminiChatModel 不支持工具调用 (%d 个工具)", len(tools))
	}
	return g, nil
}

var _ model.ToolCallingChatModel = (*GeminiChatModel)(nil)
