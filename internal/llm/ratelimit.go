package llm

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

const (
	defaultQPM        = 30
	defaultMaxRetries = 3
	defaultRetryWait  = time.Second
)

// RateLimitedChatModel 对LLM模型的调用进行限流和重试的代理
type RateLimitedChatModel struct {
	original      model.ToolCallingChatModel
	limiter       *rate.Limiter
	retryWaitTime time.Duration
	maxRetries    int
}

// NewRateLimitedChatModel 创建限流代理, 突发容量为 QPM 的一半
func NewRateLimitedChatModel(original model.ToolCallingChatModel, qpm int) *RateLimitedChatModel {
	if qpm <= 0 {
		qpm = defaultQPM
	}
	burst := max(qpm/2, 1)
	return &RateLimitedChatModel{
		original:      original,
		limiter:       rate.NewLimiter(rate.Limit(float64(qpm)/60.0), burst),
		retryWaitTime: defaultRetryWait,
		maxRetries:    defaultMaxRetries,
	}
}

// WithRetryPolicy 设置重试策略
func (rl *RateLimitedChatModel) WithRetryPolicy(waitTime time.Duration, maxRetries int) *RateLimitedChatModel {
	rl.retryWaitTime = waitTime
	rl.maxRetries = maxRetries
	return rl
}

// Generate 代理Generate方法，增加限流和重试逻辑
func (rl *RateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	var response *schema.Message
	err := rl.retryWithBackoff(ctx, func() error {
		var genErr error
		response, genErr = rl.original.Generate(ctx, messages, options...)
		return genErr
	})
	return response, err
}

// Stream 代理Stream方法，增加限流和重试逻辑
func (rl *RateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var stream *schema.StreamReader[*schema.Message]
	err := rl.retryWithBackoff(ctx, func() error {
		var streamErr error
		stream, streamErr = rl.original.Stream(ctx, messages, options...)
		return streamErr
	})
	return stream, err
}

// WithTools 代理WithTools方法, 新代理共享同一个限流器
func (rl *RateLimitedChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	newModel, err := rl.original.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &RateLimitedChatModel{
		original:      newModel,
		limiter:       rl.limiter,
		retryWaitTime: rl.retryWaitTime,
		maxRetries:    rl.maxRetries,
	}, nil
}

// retryWithBackoff 每次尝试前先取令牌, 可重试错误按指数退避
func (rl *RateLimitedChatModel) retryWithBackoff(ctx context.Context, fn func() error) error {
	var err error
	for retry := 0; retry <= rl.maxRetries; retry++ {
		if err = rl.limiter.Wait(ctx); err != nil {
			return err
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !isRetryableError(err) || retry >= rl.maxRetries {
			return err
		}

		backoffTime := rl.retryWaitTime * time.Duration(1<<uint(retry))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffTime):
		}
	}
	return err
}

// NewLLMWithRateLimit 包装原始模型, 未指定的参数取默认值
func NewLLMWithRateLimit(original model.ToolCallingChatModel, qpm int, maxRetries int, retryWaitTime time.Duration) model.ToolCallingChatModel {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if retryWaitTime <= 0 {
		retryWaitTime = defaultRetryWait
	}
	return NewRateLimitedChatModel(original, qpm).WithRetryPolicy(retryWaitTime, maxRetries)
}

// isRetryableError 根据错误消息判断是否可重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for _, substr := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"EOF",
		"connection refused",
		"429",
		"rate limit",
		"RESOURCE_EXHAUSTED",
		"503",
		"UNAVAILABLE",
		"no such host",
	} {
		if strings.Contains(errStr, substr) {
			return true
		}
	}
	return false
}
