package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockChatModel 测试用的模型模拟器, 按顺序返回预设响应, 用尽后重复最后一个
type MockChatModel struct {
	mu        sync.Mutex
	responses []MockResponse
	callCount int
	received  [][]*schema.Message
}

// MockResponse 单次调用的预设结果
type MockResponse struct {
	Content string
	Err     error
	Delay   time.Duration
}

// NewMockChatModel 返回固定内容的模拟器
func NewMockChatModel(content string) *MockChatModel {
	return NewMockChatModelSequential(MockResponse{Content: content})
}

// NewMockChatModelError 每次调用都返回 err
func NewMockChatModelError(err error) *MockChatModel {
	return NewMockChatModelSequential(MockResponse{Err: err})
}

// NewMockChatModelSequential 按顺序返回 responses
func NewMockChatModelSequential(responses ...MockResponse) *MockChatModel {
	if len(responses) == 0 {
		responses = []MockResponse{{Err: errors.New("mock model has no responses configured")}}
	}
	return &MockChatModel{responses: responses}
}

// Generate 实现 model.BaseChatModel; Delay 期间 ctx 取消则返回 ctx.Err()
func (m *MockChatModel) Generate(ctx context.Context, messages []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	idx := min(m.callCount, len(m.responses)-1)
	resp := m.responses[idx]
	m.callCount++
	m.received = append(m.received, messages)
	m.mu.Unlock()

	if resp.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(resp.Delay):
		}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return schema.AssistantMessage(resp.Content, nil), nil
}

// Stream 实现 model.BaseChatModel
func (m *MockChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return streamOf(msg), nil
}

// WithTools 模拟器忽略工具
func (m *MockChatModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// CallCount 已调用次数
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// ReceivedMessages 每次调用收到的消息
func (m *MockChatModel) ReceivedMessages() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.received))
	copy(out, m.received)
	return out
}

var _ model.ToolCallingChatModel = (*MockChatModel)(nil)
