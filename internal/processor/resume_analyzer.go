package processor

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-advisor/internal/analyzer"
	"resume-advisor/internal/extraction"
	"resume-advisor/internal/report"
	"resume-advisor/internal/tracing"
	"resume-advisor/internal/types"
)

var tracer = otel.Tracer("processor")

const defaultExternalTimeout = 90 * time.Second

// ResumeAnalyzer 分析流程入口
// 本地规则流程总是运行以得到分数和风险; 报告文本先尝试外部生成, 任何失败都改用本地组装
type ResumeAnalyzer struct {
	external           ExternalGenerator
	externalTimeout    time.Duration
	defaultJobCategory string
	logger             *zerolog.Logger
}

var _ Analyzer = (*ResumeAnalyzer)(nil)

// NewResumeAnalyzer 创建分析器, 未设置外部生成器时只走本地流程
func NewResumeAnalyzer(opts ...AnalyzerOption) *ResumeAnalyzer {
	nop := zerolog.Nop()
	a := &ResumeAnalyzer{
		externalTimeout:    defaultExternalTimeout,
		defaultJobCategory: "Software Engineer",
		logger:             &nop,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HasExternal 是否配置了外部生成器
func (a *ResumeAnalyzer) HasExternal() bool {
	return a.external != nil
}

// Analyze 对一份简历文本做完整分析
// 文本为空时返回 ErrUnreadableInput, 这是唯一向外传播的错误
func (a *ResumeAnalyzer) Analyze(ctx context.Context, rawText, jobCategory string) (*types.AnalysisResult, error) {
	jobCategory = analyzer.NormalizeJobCategory(jobCategory)
	if jobCategory == "" {
		jobCategory = a.defaultJobCategory
	}

	ctx, span := tracer.Start(ctx, "ResumeAnalyzer.Analyze",
		trace.WithAttributes(
			attribute.String("job.category", jobCategory),
			attribute.Int("resume.text_length", len(rawText)),
		))
	defer span.End()

	if strings.TrimSpace(rawText) == "" {
		tracing.RecordError(span, ErrUnreadableInput, tracing.ErrorTypeValidation)
		return nil, ErrUnreadableInput
	}

	result := a.analyzeLocal(rawText, jobCategory)
	span.SetAttributes(
		attribute.Int("analysis.overall_score", result.Score),
		attribute.Int("analysis.risk_count", len(result.Risks)),
	)

	if a.external != nil {
		text, err := a.generateExternal(ctx, rawText, jobCategory, result.Record)
		if err == nil {
			result.Report = text
			result.Source = types.SourceExternal
			span.SetAttributes(attribute.String("analysis.source", string(result.Source)))
			return result, nil
		}
		a.logger.Warn().Err(err).Str("job_category", jobCategory).Msg("外部分析不可用, 使用本地规则生成报告")
		span.AddEvent("external_analysis_fallback", trace.WithAttributes(attribute.String("reason", err.Error())))
	}

	result.Report = report.Compose(report.Input{
		JobCategory: jobCategory,
		JobKeywords: analyzer.JobKeywords(jobCategory),
		Record:      result.Record,
		Components:  result.Components,
		Risks:       result.Risks,
		Simulation:  result.Simulation,
		Rewrites:    result.Rewrites,
	})
	result.Source = types.SourceLocal
	span.SetAttributes(attribute.String("analysis.source", string(result.Source)))
	return result, nil
}

// analyzeLocal 纯函数部分, 相同输入得到相同结果
func (a *ResumeAnalyzer) analyzeLocal(rawText, jobCategory string) *types.AnalysisResult {
	record := extraction.Build(rawText)
	components := analyzer.Score(record, jobCategory)
	risks := analyzer.DetectRisks(record)
	if risks == nil {
		risks = []types.RiskFinding{}
	}
	return &types.AnalysisResult{
		JobCategory: jobCategory,
		Score:       components.Total(),
		Components:  components,
		Risks:       risks,
		Simulation:  analyzer.SimulateHiringManager(record),
		Rewrites:    analyzer.SuggestRewrites(rawText, jobCategory),
		Record:      record,
	}
}

func (a *ResumeAnalyzer) generateExternal(ctx context.Context, rawText, jobCategory string, record *types.StructuredRecord) (string, error) {
	ctx, span := tracer.Start(ctx, "ResumeAnalyzer.GenerateExternal")
	defer span.End()

	if a.externalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.externalTimeout)
		defer cancel()
	}

	text, _, err := a.external.Generate(ctx, rawText, jobCategory, record)
	if err != nil {
		err = externalUnavailable(err)
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return "", err
	}
	return text, nil
}
