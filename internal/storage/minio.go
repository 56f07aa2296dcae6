package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-advisor/internal/config"
	"resume-advisor/internal/tracing"
)

var minioTracer = otel.Tracer("resume-advisor/storage/minio")

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadResumeFile 上传原始简历并同时计算 MD5, 返回对象键和 MD5
	UploadResumeFile(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error)
	// GetResumeFile 读取原始简历
	GetResumeFile(ctx context.Context, objectKey string) ([]byte, error)
	// UploadReport 保存分析报告文本
	UploadReport(ctx context.Context, submissionUUID, report string) (string, error)
	// GetReport 读取分析报告文本
	GetReport(ctx context.Context, objectKey string) (string, error)
	// DeleteResumeFile 删除原始简历, 用于提交失败时回滚
	DeleteResumeFile(ctx context.Context, objectKey string) error
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client         *minio.Client
	cfg            *config.MinIOConfig
	originalBucket string
	reportBucket   string
	logger         *log.Logger
}

// NewMinIO 创建MinIO客户端
func NewMinIO(cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Printf("[MinIO] 初始化客户端 endpoint=%s originals=%s reports=%s", cfg.Endpoint, cfg.OriginalsBucket, cfg.ReportsBucket)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	originalBucket := cfg.OriginalsBucket
	if originalBucket == "" {
		originalBucket = "resume-originals"
	}
	reportBucket := cfg.ReportsBucket
	if reportBucket == "" {
		reportBucket = "resume-reports"
	}

	m := &MinIO{
		client:         client,
		cfg:            cfg,
		originalBucket: originalBucket,
		reportBucket:   reportBucket,
		logger:         logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, bucket := range []string{originalBucket, reportBucket} {
		if err := m.ensureBucketExists(ctx, bucket, cfg.Location); err != nil {
			return nil, err
		}
	}

	if cfg.OriginalFileExpireDays > 0 || cfg.ReportExpireDays > 0 {
		if err := m.setupLifecycleRules(ctx); err != nil {
			logger.Printf("[MinIO] 警告: 设置生命周期规则失败: %v", err)
		}
	}

	logger.Printf("[MinIO] 客户端初始化成功: %s", cfg.Endpoint)
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	m.logger.Printf("[MinIO] 存储桶 %s 不存在, 创建中", bucketName)
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	return nil
}

// setupLifecycleRules 设置对象生命周期规则
func (m *MinIO) setupLifecycleRules(ctx context.Context) error {
	if m.cfg.OriginalFileExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.originalBucket, "expire-originals", m.cfg.OriginalFileExpireDays); err != nil {
			return fmt.Errorf("为原始文件存储桶 %s 设置生命周期失败: %w", m.originalBucket, err)
		}
	}
	if m.cfg.ReportExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.reportBucket, "expire-reports", m.cfg.ReportExpireDays); err != nil {
			return fmt.Errorf("为报告存储桶 %s 设置生命周期失败: %w", m.reportBucket, err)
		}
	}
	return nil
}

func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, lc)
}

func (m *MinIO) startSpan(ctx context.Context, op, bucket, key string) (context.Context, trace.Span) {
	return minioTracer.Start(ctx, "minio."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("storage.system", "minio"),
			attribute.String("storage.bucket", bucket),
			attribute.String("storage.object_key", key),
		))
}

// OriginalObjectKey 原始简历的对象键, 例如 resume/<uuid>/original.pdf
func OriginalObjectKey(submissionUUID, fileExt string) string {
	return fmt.Sprintf("resume/%s/original%s", submissionUUID, strings.ToLower(fileExt))
}

// ReportObjectKey 分析报告的对象键
func ReportObjectKey(submissionUUID string) string {
	return fmt.Sprintf("report/%s/analysis.txt", submissionUUID)
}

// UploadResumeFile 流式上传简历文件并同时计算MD5
func (m *MinIO) UploadResumeFile(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error) {
	objectName := OriginalObjectKey(submissionUUID, fileExt)
	ctx, span := m.startSpan(ctx, "UploadResumeFile", m.originalBucket, objectName)
	defer span.End()

	md5Hash := md5.New()
	teeReader := io.TeeReader(reader, md5Hash)

	info, err := m.client.PutObject(ctx, m.originalBucket, objectName, teeReader, fileSize,
		minio.PutObjectOptions{ContentType: ContentTypeForExt(fileExt)})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return "", "", fmt.Errorf("流式上传文件到MinIO失败: %w", err)
	}

	md5Hex := hex.EncodeToString(md5Hash.Sum(nil))
	span.SetAttributes(attribute.Int64("storage.object_size", info.Size))
	if m.cfg.EnableTestLogging {
		m.logger.Printf("[MinIO] 已上传 %s, ETag=%s, Size=%d, MD5=%s", objectName, info.ETag, info.Size, md5Hex)
	}
	return objectName, md5Hex, nil
}

// GetResumeFile 从MinIO获取简历文件
func (m *MinIO) GetResumeFile(ctx context.Context, objectKey string) ([]byte, error) {
	return m.download(ctx, m.originalBucket, objectKey)
}

// UploadReport 上传分析报告
func (m *MinIO) UploadReport(ctx context.Context, submissionUUID, report string) (string, error) {
	objectName := ReportObjectKey(submissionUUID)
	ctx, span := m.startSpan(ctx, "UploadReport", m.reportBucket, objectName)
	defer span.End()

	data := []byte(report)
	_, err := m.client.PutObject(ctx, m.reportBucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return "", fmt.Errorf("上传报告 %s 到存储桶 %s 失败: %w", objectName, m.reportBucket, err)
	}
	return objectName, nil
}

// GetReport 读取分析报告
func (m *MinIO) GetReport(ctx context.Context, objectKey string) (string, error) {
	data, err := m.download(ctx, m.reportBucket, objectKey)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (m *MinIO) download(ctx context.Context, bucketName, objectKey string) ([]byte, error) {
	ctx, span := m.startSpan(ctx, "GetObject", bucketName, objectKey)
	defer span.End()

	obj, err := m.client.GetObject(ctx, bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucketName, objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", bucketName, objectKey, err)
	}
	span.SetAttributes(attribute.Int("storage.object_size", len(data)))
	return data, nil
}

// DeleteResumeFile 删除原始简历
func (m *MinIO) DeleteResumeFile(ctx context.Context, objectKey string) error {
	ctx, span := m.startSpan(ctx, "RemoveObject", m.originalBucket, objectKey)
	defer span.End()

	if err := m.client.RemoveObject(ctx, m.originalBucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return fmt.Errorf("删除对象 %s 失败: %w", objectKey, err)
	}
	return nil
}

// ContentTypeForExt 根据扩展名推断内容类型
func ContentTypeForExt(ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = filepath.Ext(ext)
	}
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt", ".md":
		return "text/plain"
	case ".html", ".htm":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}
