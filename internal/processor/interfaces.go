package processor

import (
	"context"
	"io"
	"time"

	"resume-advisor/internal/report"
	"resume-advisor/internal/storage"
	"resume-advisor/internal/storage/models"
	"resume-advisor/internal/types"
)

//
// 分析相关接口
//

// ExternalGenerator 外部生成式报告, 由 parser.LLMReportGenerator 实现
// 返回的报告必须已经通过固定标题校验
type ExternalGenerator interface {
	Generate(ctx context.Context, rawText, jobCategory string, record *types.StructuredRecord) (string, report.Sections, error)
}

// TextExtractor 文档转文本, 由 parser.Dispatcher 实现
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename, contentType string) (string, map[string]interface{}, error)
}

// Analyzer 同步分析入口, handler 依赖此接口
type Analyzer interface {
	Analyze(ctx context.Context, rawText, jobCategory string) (*types.AnalysisResult, error)
}

//
// 存储相关接口, 由 internal/storage 中的适配器实现
//

// SubmissionStore 提交记录与发件箱
type SubmissionStore interface {
	CreateSubmissionWithOutbox(ctx context.Context, sub *models.AnalysisSubmission, msg *models.OutboxMessage) error
	GetSubmission(ctx context.Context, submissionUUID string) (*models.AnalysisSubmission, error)
	ClaimSubmission(ctx context.Context, submissionUUID string) (*models.AnalysisSubmission, bool, error)
	UpdateSubmissionStatus(ctx context.Context, submissionUUID, status, errMsg string) error
	SaveAnalysisOutcome(ctx context.Context, submissionUUID string, outcome storage.AnalysisOutcome) error
}

// FileStore 原始文件与报告的对象存储
type FileStore interface {
	UploadResumeFile(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error)
	GetResumeFile(ctx context.Context, objectKey string) ([]byte, error)
	DeleteResumeFile(ctx context.Context, objectKey string) error
	UploadReport(ctx context.Context, submissionUUID, report string) (string, error)
	GetReport(ctx context.Context, objectKey string) (string, error)
}

// CacheStore 报告缓存、上传去重和处理锁
type CacheStore interface {
	GetCachedReport(ctx context.Context, textSHA256, jobCategory string) (string, error)
	CacheReport(ctx context.Context, textSHA256, jobCategory, payload string, ttl time.Duration) error
	CheckAndSetFileMD5(ctx context.Context, md5Hex, jobCategory, submissionUUID string, ttl time.Duration) (bool, string, error)
	RemoveFileMD5(ctx context.Context, md5Hex, jobCategory string) error
	AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error)
	ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error)
}

var (
	_ SubmissionStore = (*storage.MySQL)(nil)
	_ FileStore       = (*storage.MinIO)(nil)
	_ CacheStore      = (*storage.Redis)(nil)
)
