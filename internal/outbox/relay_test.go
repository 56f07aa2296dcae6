package outbox

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"resume-advisor/internal/storage/models"
)

func TestApplyPublishResult(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	t.Run("success marks SENT", func(t *testing.T) {
		msg := &models.OutboxMessage{Status: models.OutboxStatusPending, RetryCount: 2, ErrorMessage: "old"}
		applyPublishResult(msg, nil, 5, now)
		assert.Equal(t, models.OutboxStatusSent, msg.Status)
		assert.Equal(t, 2, msg.RetryCount)
		assert.Empty(t, msg.ErrorMessage)
		if assert.NotNil(t, msg.ProcessedAt) {
			assert.Equal(t, now, *msg.ProcessedAt)
		}
	})

	t.Run("failure below limit stays PENDING", func(t *testing.T) {
		msg := &models.OutboxMessage{Status: models.OutboxStatusPending}
		applyPublishResult(msg, errors.New("channel closed"), 3, now)
		assert.Equal(t, models.OutboxStatusPending, msg.Status)
		assert.Equal(t, 1, msg.RetryCount)
		assert.Equal(t, "channel closed", msg.ErrorMessage)
		assert.Nil(t, msg.ProcessedAt)
	})

	t.Run("failure at limit marks FAILED", func(t *testing.T) {
		msg := &models.OutboxMessage{Status: models.OutboxStatusPending, RetryCount: 2}
		applyPublishResult(msg, errors.New("channel closed"), 3, now)
		assert.Equal(t, models.OutboxStatusFailed, msg.Status)
		assert.Equal(t, 3, msg.RetryCount)
		assert.NotNil(t, msg.ProcessedAt)
	})
}

func TestNewMessageRelayOptions(t *testing.T) {
	r := NewMessageRelay(nil, nil, nil,
		WithPollingInterval(time.Second),
		WithBatchSize(50),
		WithMaxRetries(0),
	)
	assert.Equal(t, time.Second, r.pollingInterval)
	assert.Equal(t, 50, r.batchSize)
	assert.Equal(t, defaultMaxRetryCount, r.maxRetries)
}

func TestMessageRelayStartStop(t *testing.T) {
	r := NewMessageRelay(nil, nil, nil, WithPollingInterval(time.Hour))
	r.Start()
	done := make(chan struct{})
	go func() {
		r.Stop()
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop 未返回")
	}
}
