package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"resume-advisor/internal/config"
	"resume-advisor/internal/logger"
)

// Storage 聚合异步提交链路用到的外部存储, 未配置或连接失败的组件为 nil
type Storage struct {
	MinIO    *MinIO    // 原始简历与报告
	RabbitMQ *RabbitMQ // 分析任务队列
	MySQL    *MySQL    // 提交记录与发件箱
	Redis    *Redis    // 报告缓存、上传去重、处理锁
}

// NewStorage 按配置连接各组件; 单个组件失败只记录警告
// 同步分析接口不依赖任何存储, 异步提交需要全部组件 (见 AsyncReady)
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var failed []string
	try := func(name string, enabled bool, connect func() error) {
		if !enabled {
			logger.Debug().Str("component", name).Msg("未配置, 跳过")
			return
		}
		if err := connect(); err != nil {
			logger.Warn().Err(err).Str("component", name).Msg("存储组件初始化失败")
			failed = append(failed, name)
		}
	}

	try("minio", cfg.MinIO.Endpoint != "", func() (err error) {
		s.MinIO, err = NewMinIO(&cfg.MinIO, minioLogger(cfg))
		return err
	})
	try("rabbitmq", cfg.RabbitMQ.URL != "", func() error {
		mq, err := NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			return err
		}
		if err := mq.SetupAnalysisTopology(); err != nil {
			_ = mq.Close()
			return fmt.Errorf("声明分析队列失败: %w", err)
		}
		s.RabbitMQ = mq
		return nil
	})
	try("mysql", cfg.MySQL.Host != "", func() (err error) {
		s.MySQL, err = NewMySQL(&cfg.MySQL)
		return err
	})
	try("redis", cfg.Redis.Address != "", func() (err error) {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		return err
	})

	if len(failed) > 0 {
		logger.Warn().Str("failed", strings.Join(failed, ",")).Bool("async_ready", s.AsyncReady()).Msg("部分存储组件不可用")
	}
	return s, nil
}

func minioLogger(cfg *config.Config) *log.Logger {
	if cfg.Logger.Level == "debug" || cfg.MinIO.EnableTestLogging {
		return log.New(os.Stderr, "[MinIOStorage] ", log.LstdFlags|log.Lshortfile)
	}
	return log.New(io.Discard, "", 0)
}

// AsyncReady 异步提交链路所需组件是否都可用
func (s *Storage) AsyncReady() bool {
	return s != nil && s.MinIO != nil && s.RabbitMQ != nil && s.MySQL != nil && s.Redis != nil
}

type namedCloser struct {
	name string
	c    io.Closer
}

// Close 关闭所有连接, MinIO 客户端无需关闭
func (s *Storage) Close() {
	var closers []namedCloser
	if s.RabbitMQ != nil {
		closers = append(closers, namedCloser{"rabbitmq", s.RabbitMQ})
	}
	if s.MySQL != nil {
		closers = append(closers, namedCloser{"mysql", s.MySQL})
	}
	if s.Redis != nil {
		closers = append(closers, namedCloser{"redis", s.Redis})
	}
	for _, cl := range closers {
		if err := cl.c.Close(); err != nil {
			logger.Error().Err(err).Str("component", cl.name).Msg("关闭连接失败")
		}
	}
}
