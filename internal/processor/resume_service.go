package processor

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-advisor/internal/analyzer"
	"resume-advisor/internal/constants"
	"resume-advisor/internal/logger"
	"resume-advisor/internal/parser"
	"resume-advisor/internal/storage"
	"resume-advisor/internal/storage/models"
	"resume-advisor/internal/tracing"
	"resume-advisor/internal/types"
)

// DefaultPreviewRunes 返回给调用方的文本预览长度
const DefaultPreviewRunes = 1000

// AnalysisService 同步分析与异步提交的服务层
// 同步接口只依赖 Analyzer 和 Extractor, 异步接口还需要三种存储
type AnalysisService struct {
	components Components
	settings   Settings
	logger     *zerolog.Logger
}

// DocumentAnalysis 文档分析结果, 附带提取出的文本和提取元数据
type DocumentAnalysis struct {
	Result *types.AnalysisResult
	Text   string
	Meta   map[string]interface{}
}

// SubmitRequest 异步提交请求
type SubmitRequest struct {
	Data        []byte
	Filename    string
	ContentType string
	JobCategory string
}

// SubmitResult 异步提交结果; Duplicate 为 true 时 SubmissionUUID 指向已有的提交
type SubmitResult struct {
	SubmissionUUID string `json:"submission_uuid"`
	Status         string `json:"status"`
	Duplicate      bool   `json:"duplicate"`
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(compOpts []ComponentOpt, setOpts []SettingOpt, l *zerolog.Logger) *AnalysisService {
	if l == nil {
		nop := zerolog.Nop()
		l = &nop
	}
	s := &AnalysisService{
		settings: Settings{
			MaxUploadBytes:     10 << 20,
			ReportCacheTTL:     constants.DefaultReportCacheTTL,
			DedupeTTL:          constants.DefaultDedupeTTL,
			LockTTL:            constants.SubmissionLockTTL,
			UseReportCache:     true,
			DefaultJobCategory: "Software Engineer",
		},
		logger: l,
	}
	for _, opt := range compOpts {
		opt(&s.components)
	}
	for _, opt := range setOpts {
		opt(&s.settings)
	}
	return s
}

// AsyncEnabled 异步提交需要的组件是否齐全
func (s *AnalysisService) AsyncEnabled() bool {
	return s.components.Submissions != nil && s.components.Files != nil && s.components.Cache != nil
}

// jobCategory 岗位名称只在入口清洗一次, 空值回退到默认岗位
func (s *AnalysisService) jobCategory(job string) string {
	job = analyzer.NormalizeJobCategory(job)
	if job == "" {
		return s.settings.DefaultJobCategory
	}
	return job
}

// AnalyzeText 分析纯文本简历, 相同文本和岗位命中缓存时直接返回
func (s *AnalysisService) AnalyzeText(ctx context.Context, text, jobCategory string) (*types.AnalysisResult, error) {
	jobCategory = s.jobCategory(jobCategory)
	ctx, span := tracer.Start(ctx, "AnalysisService.AnalyzeText",
		trace.WithAttributes(attribute.String("job.category", jobCategory)))
	defer span.End()

	if strings.TrimSpace(text) == "" {
		tracing.RecordError(span, ErrUnreadableInput, tracing.ErrorTypeValidation)
		return nil, ErrUnreadableInput
	}
	if s.components.Analyzer == nil {
		return nil, errors.New("分析器未初始化")
	}
	span.SetAttributes(tracing.ResumeAttributes(text)...)

	textHash := HashText(text)
	if cached, ok := s.loadCachedResult(ctx, textHash, jobCategory); ok {
		span.SetAttributes(attribute.Bool("analysis.cache_hit", true))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("analysis.cache_hit", false))

	result, err := s.components.Analyzer.Analyze(ctx, text, jobCategory)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, err
	}
	s.storeCachedResult(ctx, textHash, jobCategory, result)
	return result, nil
}

// AnalyzeDocument 提取上传文件的文本后分析
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, data []byte, filename, contentType, jobCategory string) (*DocumentAnalysis, error) {
	ctx, span := tracer.Start(ctx, "AnalysisService.AnalyzeDocument",
		trace.WithAttributes(
			attribute.String("file.name", filename),
			attribute.Int("file.size", len(data)),
		))
	defer span.End()

	if err := s.validateUpload(data); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}
	if s.components.Extractor == nil {
		return nil, errors.New("文本提取器未初始化")
	}

	text, meta, err := s.components.Extractor.Extract(ctx, data, filename, contentType)
	if err != nil {
		if errors.Is(err, parser.ErrUnsupportedFormat) {
			err = fmt.Errorf("%w: %w", ErrInvalidUpload, err)
			tracing.RecordError(span, err, tracing.ErrorTypeValidation)
			return nil, err
		}
		err = fmt.Errorf("%w: %w", ErrExtractFailed, err)
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		tracing.RecordError(span, ErrUnreadableInput, tracing.ErrorTypeValidation)
		return nil, ErrUnreadableInput
	}

	result, err := s.AnalyzeText(ctx, text, jobCategory)
	if err != nil {
		return nil, err
	}
	return &DocumentAnalysis{Result: result, Text: text, Meta: meta}, nil
}

func (s *AnalysisService) validateUpload(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: 文件为空", ErrInvalidUpload)
	}
	if s.settings.MaxUploadBytes > 0 && int64(len(data)) > s.settings.MaxUploadBytes {
		return fmt.Errorf("%w: 文件大小 %d 超过上限 %d", ErrInvalidUpload, len(data), s.settings.MaxUploadBytes)
	}
	return nil
}

func (s *AnalysisService) loadCachedResult(ctx context.Context, textHash, jobCategory string) (*types.AnalysisResult, bool) {
	if !s.settings.UseReportCache || s.components.Cache == nil {
		return nil, false
	}
	payload, err := s.components.Cache.GetCachedReport(ctx, textHash, jobCategory)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("读取分析缓存失败")
		}
		return nil, false
	}
	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		s.logger.Warn().Err(err).Msg("分析缓存内容无法解析, 忽略")
		return nil, false
	}
	return &result, true
}

func (s *AnalysisService) storeCachedResult(ctx context.Context, textHash, jobCategory string, result *types.AnalysisResult) {
	if !s.settings.UseReportCache || s.components.Cache == nil || result == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn().Err(err).Msg("序列化分析结果失败")
		return
	}
	if err := s.components.Cache.CacheReport(ctx, textHash, jobCategory, string(payload), s.settings.ReportCacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("写入分析缓存失败")
	}
}

// SubmitUpload 保存原始文件并登记异步分析任务
// 同一文件同一岗位重复上传时返回已有的提交
func (s *AnalysisService) SubmitUpload(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if !s.AsyncEnabled() {
		return nil, ErrAsyncUnavailable
	}
	jobCategory := s.jobCategory(req.JobCategory)

	ctx, span := tracer.Start(ctx, "AnalysisService.SubmitUpload",
		trace.WithAttributes(
			attribute.String("file.name", req.Filename),
			attribute.Int("file.size", len(req.Data)),
			attribute.String("job.category", jobCategory),
		))
	defer span.End()

	if err := s.validateUpload(req.Data); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}
	if parser.DetectKind(req.Filename, req.ContentType, req.Data) == parser.KindUnknown {
		err := fmt.Errorf("%w: %w", ErrInvalidUpload, parser.ErrUnsupportedFormat)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成提交UUID失败: %w", err)
	}
	submissionUUID := id.String()
	span.SetAttributes(attribute.String("submission.uuid", submissionUUID))
	ctx = logger.WithSubmissionUUID(ctx, submissionUUID)
	log := logger.Ctx(ctx)

	sum := md5.Sum(req.Data)
	fileMD5 := hex.EncodeToString(sum[:])

	existing, err := s.claimFileMD5(ctx, fileMD5, jobCategory, submissionUUID)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, err
	}
	if existing != nil {
		log.Info().Str("existing_uuid", existing.SubmissionUUID).Msg("检测到重复上传, 返回已有提交")
		span.SetAttributes(attribute.Bool("submission.duplicate", true))
		return &SubmitResult{
			SubmissionUUID: existing.SubmissionUUID,
			Status:         existing.ProcessingStatus,
			Duplicate:      true,
		}, nil
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	objectKey, _, err := s.components.Files.UploadResumeFile(ctx, submissionUUID, ext, bytes.NewReader(req.Data), int64(len(req.Data)))
	if err != nil {
		s.releaseFileMD5(ctx, fileMD5, jobCategory)
		err = fmt.Errorf("%w: %w", ErrUploadFailed, err)
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, err
	}

	now := time.Now()
	task := storage.AnalysisTaskMessage{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: now,
		JobCategory:         jobCategory,
		OriginalFilename:    req.Filename,
		ContentType:         req.ContentType,
		OriginalFilePathOSS: objectKey,
		RawFileMD5:          fileMD5,
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("序列化分析任务失败: %w", err)
	}

	sub := &models.AnalysisSubmission{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: now,
		JobCategory:         jobCategory,
		OriginalFilename:    req.Filename,
		ContentType:         req.ContentType,
		OriginalFilePathOSS: objectKey,
		RawFileMD5:          fileMD5,
		ProcessingStatus:    constants.StatusPendingAnalysis,
	}
	msg := &models.OutboxMessage{
		AggregateID:      submissionUUID,
		EventType:        constants.EventAnalysisSubmitted,
		Payload:          string(payload),
		TargetExchange:   s.settings.Exchange,
		TargetRoutingKey: s.settings.RoutingKey,
		Status:           models.OutboxStatusPending,
	}
	if err := s.components.Submissions.CreateSubmissionWithOutbox(ctx, sub, msg); err != nil {
		if delErr := s.components.Files.DeleteResumeFile(ctx, objectKey); delErr != nil {
			log.Warn().Err(delErr).Str("object_key", objectKey).Msg("回滚上传的文件失败")
		}
		s.releaseFileMD5(ctx, fileMD5, jobCategory)
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, NewDatabaseError(submissionUUID, err.Error())
	}

	log.Info().Str("job_category", jobCategory).Str("object_key", objectKey).Msg("简历已提交, 等待异步分析")
	return &SubmitResult{SubmissionUUID: submissionUUID, Status: constants.StatusPendingAnalysis}, nil
}

// claimFileMD5 登记文件MD5; 已被登记且对应提交仍存在时返回该提交
// 映射指向的提交已不存在时清理后重试一次
func (s *AnalysisService) claimFileMD5(ctx context.Context, fileMD5, jobCategory, submissionUUID string) (*models.AnalysisSubmission, error) {
	for attempt := 0; attempt < 2; attempt++ {
		exists, owner, err := s.components.Cache.CheckAndSetFileMD5(ctx, fileMD5, jobCategory, submissionUUID, s.settings.DedupeTTL)
		if err != nil {
			return nil, fmt.Errorf("检查文件MD5失败: %w", err)
		}
		if !exists {
			return nil, nil
		}
		sub, err := s.components.Submissions.GetSubmission(ctx, owner)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, storage.ErrSubmissionNotFound) {
			return nil, NewDatabaseError(owner, err.Error())
		}
		s.releaseFileMD5(ctx, fileMD5, jobCategory)
	}
	return nil, fmt.Errorf("文件MD5登记冲突: %s", fileMD5)
}

func (s *AnalysisService) releaseFileMD5(ctx context.Context, fileMD5, jobCategory string) {
	if fileMD5 == "" {
		return
	}
	if err := s.components.Cache.RemoveFileMD5(ctx, fileMD5, jobCategory); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("md5", fileMD5).Msg("清理文件MD5登记失败")
	}
}

// HandleAnalysisMessage RabbitMQ 消费回调, 返回 true 表示确认消息
// 只有数据库类错误需要重新投递, 其余失败已落到提交状态中
func (s *AnalysisService) HandleAnalysisMessage(ctx context.Context, body []byte) bool {
	var msg storage.AnalysisTaskMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.logger.Error().Err(err).Msg("无法解析分析任务消息, 丢弃")
		return true
	}
	if msg.SubmissionUUID == "" {
		s.logger.Error().Msg("分析任务消息缺少 submission_uuid, 丢弃")
		return true
	}

	err := s.ProcessSubmission(ctx, msg)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrDatabaseFailed) {
		s.logger.Error().Err(err).Str("submission_uuid", msg.SubmissionUUID).Msg("处理分析任务遇到数据库错误, 稍后重试")
		return false
	}
	s.logger.Warn().Err(err).Str("submission_uuid", msg.SubmissionUUID).Msg("分析任务处理失败, 状态已记录")
	return true
}

// ProcessSubmission 处理一条异步分析任务
// 通过分布式锁和状态检查保证同一提交只被分析一次
func (s *AnalysisService) ProcessSubmission(ctx context.Context, msg storage.AnalysisTaskMessage) error {
	if !s.AsyncEnabled() {
		return ErrAsyncUnavailable
	}
	ctx = logger.WithSubmissionUUID(ctx, msg.SubmissionUUID)
	log := logger.Ctx(ctx)

	ctx, span := tracer.Start(ctx, "AnalysisService.ProcessSubmission",
		trace.WithAttributes(
			attribute.String("submission.uuid", msg.SubmissionUUID),
			attribute.String("job.category", msg.JobCategory),
		))
	defer span.End()

	lockKey := storage.SubmissionLockKey(msg.SubmissionUUID)
	lockValue, err := s.components.Cache.AcquireLock(ctx, lockKey, s.settings.LockTTL)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("获取处理锁失败: %w", err)
	}
	if lockValue == "" {
		log.Info().Msg("提交正在被其他消费者处理, 跳过")
		span.AddEvent("lock_not_acquired")
		return nil
	}
	defer func() {
		if _, relErr := s.components.Cache.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockValue); relErr != nil {
			log.Warn().Err(relErr).Msg("释放处理锁失败")
		}
	}()

	sub, claimed, err := s.components.Submissions.ClaimSubmission(ctx, msg.SubmissionUUID)
	if err != nil {
		if errors.Is(err, storage.ErrSubmissionNotFound) {
			log.Warn().Msg("提交记录不存在, 丢弃消息")
			return nil
		}
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return NewDatabaseError(msg.SubmissionUUID, err.Error())
	}
	if !claimed {
		log.Info().Str("status", sub.ProcessingStatus).Msg("提交已处理过, 跳过重复消息")
		span.AddEvent("duplicate_message", trace.WithAttributes(attribute.String("status", sub.ProcessingStatus)))
		return nil
	}

	objectKey := sub.OriginalFilePathOSS
	if objectKey == "" {
		objectKey = msg.OriginalFilePathOSS
	}
	jobCategory := s.jobCategory(sub.JobCategory)

	data, err := s.components.Files.GetResumeFile(ctx, objectKey)
	if err != nil {
		s.markFailed(ctx, msg, constants.StatusFailed, err)
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return NewDownloadError(msg.SubmissionUUID, err.Error())
	}

	text, _, err := s.components.Extractor.Extract(ctx, data, sub.OriginalFilename, sub.ContentType)
	if err != nil {
		s.markFailed(ctx, msg, constants.StatusFailed, err)
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return NewExtractError(msg.SubmissionUUID, err.Error())
	}
	if strings.TrimSpace(text) == "" {
		s.markFailed(ctx, msg, constants.StatusFailedUnreadable, ErrUnreadableInput)
		tracing.RecordError(span, ErrUnreadableInput, tracing.ErrorTypeValidation)
		return NewUnreadableError(msg.SubmissionUUID, "提取结果为空")
	}
	span.SetAttributes(tracing.ResumeAttributes(text)...)

	result, err := s.components.Analyzer.Analyze(ctx, text, jobCategory)
	if err != nil {
		status := constants.StatusFailed
		if errors.Is(err, ErrUnreadableInput) {
			status = constants.StatusFailedUnreadable
		}
		s.markFailed(ctx, msg, status, err)
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return err
	}

	reportKey, err := s.components.Files.UploadReport(ctx, msg.SubmissionUUID, result.Report)
	if err != nil {
		// 报告全文仍写入数据库, 对象存储副本缺失不影响查询
		log.Warn().Err(NewStoreError(msg.SubmissionUUID, err.Error())).Msg("上传分析报告失败")
		reportKey = ""
	}

	textHash := HashText(text)
	outcome := storage.AnalysisOutcome{
		Source:          string(result.Source),
		OverallScore:    result.Score,
		ScoreComponents: result.Components,
		Risks:           result.Risks,
		ReportText:      result.Report,
		ReportPathOSS:   reportKey,
		TextPreview:     TextPreview(text, DefaultPreviewRunes),
		RawTextSHA256:   textHash,
	}
	if err := s.components.Submissions.SaveAnalysisOutcome(ctx, msg.SubmissionUUID, outcome); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return NewDatabaseError(msg.SubmissionUUID, err.Error())
	}

	s.storeCachedResult(ctx, textHash, jobCategory, result)
	span.SetAttributes(
		attribute.Int("analysis.overall_score", result.Score),
		attribute.String("analysis.source", string(result.Source)),
	)
	log.Info().Int("overall_score", result.Score).Str("source", string(result.Source)).Msg("异步分析完成")
	return nil
}

// markFailed 写入失败状态并撤销去重登记, 让用户可以重新上传
func (s *AnalysisService) markFailed(ctx context.Context, msg storage.AnalysisTaskMessage, status string, cause error) {
	tracing.RecordError(trace.SpanFromContext(ctx), cause, tracing.ErrorTypeInternal,
		attribute.String("submission.uuid", msg.SubmissionUUID),
		attribute.String("submission.status", status))
	if err := s.components.Submissions.UpdateSubmissionStatus(ctx, msg.SubmissionUUID, status, cause.Error()); err != nil {
		logger.Ctx(ctx).Error().Err(NewUpdateError(msg.SubmissionUUID, err.Error())).Str("status", status).Msg("更新失败状态失败")
	}
	s.releaseFileMD5(ctx, msg.RawFileMD5, s.jobCategory(msg.JobCategory))
}

// GetSubmission 查询提交记录
func (s *AnalysisService) GetSubmission(ctx context.Context, submissionUUID string) (*models.AnalysisSubmission, error) {
	if s.components.Submissions == nil {
		return nil, ErrAsyncUnavailable
	}
	return s.components.Submissions.GetSubmission(ctx, submissionUUID)
}

// GetReport 返回已完成提交的报告文本, 数据库中没有时回源对象存储
func (s *AnalysisService) GetReport(ctx context.Context, submissionUUID string) (*models.AnalysisSubmission, string, error) {
	sub, err := s.GetSubmission(ctx, submissionUUID)
	if err != nil {
		return nil, "", err
	}
	if sub.ProcessingStatus != constants.StatusCompleted {
		return sub, "", nil
	}
	if sub.ReportText != "" {
		return sub, sub.ReportText, nil
	}
	if sub.ReportPathOSS == "" || s.components.Files == nil {
		return sub, "", nil
	}
	text, err := s.components.Files.GetReport(ctx, sub.ReportPathOSS)
	if err != nil {
		return sub, "", fmt.Errorf("读取报告失败: %w", err)
	}
	return sub, text, nil
}

// TextPreview 截取前 n 个字符, 超出时追加省略号
func TextPreview(text string, n int) string {
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// HashText 文本的 sha256 十六进制摘要, 用作缓存键
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
