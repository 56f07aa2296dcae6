// Package llm 外部生成式模型的接入层
// 各提供方统一实现 eino 的 model.ToolCallingChatModel, 上层只依赖该接口
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-advisor/internal/config"
)

var (
	// ErrNoCredential 未配置凭证或使用了演示密钥
	ErrNoCredential = errors.New("未配置LLM凭证")
	// ErrUnknownProvider 不支持的提供方
	ErrUnknownProvider = errors.New("不支持的LLM提供方")
	// ErrEmptyResponse 模型返回空内容
	ErrEmptyResponse = errors.New("LLM返回空响应")
)

// NewChatModel 按配置创建带限流和重试的聊天模型
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (model.ToolCallingChatModel, error) {
	if !cfg.HasCredential() {
		return nil, ErrNoCredential
	}

	var (
		base model.ToolCallingChatModel
		err  error
	)
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderGemini:
		base, err = NewGeminiChatModel(ctx, cfg.APIKey, cfg.Model)
	case config.ProviderOpenAI:
		base, err = NewOpenAIChatModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewLLMWithRateLimit(base, cfg.QPM, cfg.MaxRetries, time.Duration(cfg.RetryWaitSeconds)*time.Second), nil
}

// DefaultOptions 配置中的温度与最大输出长度, 调用方可再用 model.Option 覆盖
func DefaultOptions(cfg config.LLMConfig) []model.Option {
	var opts []model.Option
	if cfg.Temperature > 0 {
		opts = append(opts, model.WithTemperature(float32(cfg.Temperature)))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(cfg.MaxTokens))
	}
	return opts
}

// splitMessages 拆出 system 消息, 其余消息保持顺序
func splitMessages(messages []*schema.Message) (system string, rest []*schema.Message) {
	var parts []string
	for _, m := range messages {
		if m == nil {
			continue
		}
		if m.Role == schema.System {
			parts = append(parts, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(parts, "\n\n"), rest
}

// streamOf 把一次性结果包装成只有一个元素的流
func streamOf(msg *schema.Message) *schema.StreamReader[*schema.Message] {
	return schema.StreamReaderFromArray([]*schema.Message{msg})
}
