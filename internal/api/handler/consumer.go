package handler

import (
	"fmt"

	"resume-advisor/internal/storage"
)

// ConsumerStarter 由 storage.RabbitMQ 实现
type ConsumerStarter interface {
	StartConsumer(queueName string, prefetchCount int, handler storage.ConsumeHandler) (chan<- struct{}, error)
}

// StartAnalysisConsumers 启动 workers 个分析任务消费者, 返回的函数用于全部停止
func (h *AnalysisHandler) StartAnalysisConsumers(mq ConsumerStarter, queueName string, prefetch, workers int) (func(), error) {
	if mq == nil {
		return nil, fmt.Errorf("消息队列未初始化")
	}
	if workers <= 0 {
		workers = 1
	}
	if prefetch <= 0 {
		prefetch = 1
	}

	stops := make([]chan<- struct{}, 0, workers)
	stopAll := func() {
		for _, ch := range stops {
			close(ch)
		}
		stops = nil
	}

	for i := 0; i < workers; i++ {
		stop, err := mq.StartConsumer(queueName, prefetch, h.service.HandleAnalysisMessage)
		if err != nil {
			stopAll()
			return nil, fmt.Errorf("启动第 %d 个分析消费者失败: %w", i+1, err)
		}
		stops = append(stops, stop)
	}
	h.logger.Info().Str("queue", queueName).Int("workers", workers).Int("prefetch", prefetch).Msg("分析任务消费者已启动")
	return stopAll, nil
}
