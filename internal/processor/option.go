package processor

import (
	"time"

	"github.com/rs/zerolog"

	"resume-advisor/internal/config"
)

// AnalyzerOption ResumeAnalyzer 选项
type AnalyzerOption func(*ResumeAnalyzer)

// WithExternalGenerator 设置外部生成器, nil 表示只用本地流程
func WithExternalGenerator(gen ExternalGenerator) AnalyzerOption {
	return func(a *ResumeAnalyzer) {
		a.external = gen
	}
}

// WithExternalTimeout 外部生成的超时, 超时同样触发本地兜底
func WithExternalTimeout(timeout time.Duration) AnalyzerOption {
	return func(a *ResumeAnalyzer) {
		a.externalTimeout = timeout
	}
}

// WithDefaultJobCategory 请求未指定岗位时使用
func WithDefaultJobCategory(category string) AnalyzerOption {
	return func(a *ResumeAnalyzer) {
		if category != "" {
			a.defaultJobCategory = category
		}
	}
}

// WithAnalyzerLogger 设置日志记录器
func WithAnalyzerLogger(logger *zerolog.Logger) AnalyzerOption {
	return func(a *ResumeAnalyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Components 异步服务依赖的组件
type Components struct {
	Analyzer    Analyzer
	Extractor   TextExtractor
	Submissions SubmissionStore
	Files       FileStore
	Cache       CacheStore
}

// Settings 异步服务的运行参数
type Settings struct {
	Exchange           string
	RoutingKey         string
	MaxUploadBytes     int64
	ReportCacheTTL     time.Duration
	DedupeTTL          time.Duration
	LockTTL            time.Duration
	UseReportCache     bool
	DefaultJobCategory string
}

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// WithcompAnalyzer 设置分析器
func WithcompAnalyzer(a Analyzer) ComponentOpt {
	return func(c *Components) { c.Analyzer = a }
}

// WithcompExtractor 设置文本提取器
func WithcompExtractor(e TextExtractor) ComponentOpt {
	return func(c *Components) { c.Extractor = e }
}

// WithcompSubmissions 设置提交记录存储
func WithcompSubmissions(s SubmissionStore) ComponentOpt {
	return func(c *Components) { c.Submissions = s }
}

// WithcompFiles 设置对象存储
func WithcompFiles(f FileStore) ComponentOpt {
	return func(c *Components) { c.Files = f }
}

// WithcompCache 设置缓存
func WithcompCache(cs CacheStore) ComponentOpt {
	return func(c *Components) { c.Cache = cs }
}

// WithsetRouting 设置发件箱消息的目标交换机和路由键
func WithsetRouting(exchange, routingKey string) SettingOpt {
	return func(s *Settings) {
		s.Exchange = exchange
		s.RoutingKey = routingKey
	}
}

// WithsetMaxUploadBytes 上传大小上限
func WithsetMaxUploadBytes(n int64) SettingOpt {
	return func(s *Settings) {
		if n > 0 {
			s.MaxUploadBytes = n
		}
	}
}

// WithsetReportCacheTTL 同步分析缓存有效期, 0 表示关闭缓存
func WithsetReportCacheTTL(ttl time.Duration) SettingOpt {
	return func(s *Settings) {
		s.ReportCacheTTL = ttl
		s.UseReportCache = ttl > 0
	}
}

// WithsetDedupeTTL 上传去重记录有效期
func WithsetDedupeTTL(ttl time.Duration) SettingOpt {
	return func(s *Settings) {
		if ttl > 0 {
			s.DedupeTTL = ttl
		}
	}
}

// SettingsFromConfig 从配置生成设置选项
func SettingsFromConfig(cfg *config.Config) []SettingOpt {
	return []SettingOpt{
		WithsetRouting(cfg.RabbitMQ.AnalysisExchange, cfg.RabbitMQ.SubmittedRoutingKey),
		WithsetMaxUploadBytes(cfg.MaxUploadBytes()),
		WithsetReportCacheTTL(config.GetDuration(cfg.Analysis.ReportCacheTTL, 0)),
		WithsetDedupeTTL(config.GetDuration(cfg.Analysis.DedupeTTL, 0)),
		func(s *Settings) {
			if cfg.Analysis.DefaultJobCategory != "" {
				s.DefaultJobCategory = cfg.Analysis.DefaultJobCategory
			}
		},
	}
}
