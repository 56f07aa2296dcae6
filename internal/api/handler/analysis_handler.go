package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"resume-advisor/internal/analyzer"
	"resume-advisor/internal/constants"
	"resume-advisor/internal/processor"
	"resume-advisor/internal/report"
	"resume-advisor/internal/storage"
	"resume-advisor/internal/storage/models"
	"resume-advisor/internal/tracing"
	"resume-advisor/internal/types"
)

// AnalysisHandler 简历分析相关的 HTTP 接口
type AnalysisHandler struct {
	service *processor.AnalysisService
	logger  *zerolog.Logger
}

// NewAnalysisHandler 创建处理器
func NewAnalysisHandler(service *processor.AnalysisService, logger *zerolog.Logger) *AnalysisHandler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AnalysisHandler{service: service, logger: logger}
}

// AnalyzeTextRequest 纯文本分析请求
type AnalyzeTextRequest struct {
	ResumeText  string `json:"resume_text"`
	JobCategory string `json:"job_category"`
}

// AnalysisResponse 同步分析响应
// overall_score 与 score_components 始终来自本地规则, report_score 是从报告文本解析出的分数
type AnalysisResponse struct {
	JobCategory      string                   `json:"job_category"`
	Source           types.AnalysisSource     `json:"source"`
	OverallScore     int                      `json:"overall_score"`
	ReportScore      *int                     `json:"report_score,omitempty"`
	ScoreComponents  types.ScoreComponents    `json:"score_components"`
	Risks            []types.RiskFinding      `json:"risks"`
	HiringSimulation types.HiringSimulation   `json:"hiring_simulation"`
	Rewrites         types.RewriteSuggestions `json:"rewrites"`
	Report           string                   `json:"report"`
	Sections         report.Sections          `json:"sections"`
	TextPreview      string                   `json:"text_preview"`
}

// SubmissionResponse 异步提交查询响应
type SubmissionResponse struct {
	SubmissionUUID   string                 `json:"submission_uuid"`
	Status           string                 `json:"status"`
	JobCategory      string                 `json:"job_category"`
	OriginalFilename string                 `json:"original_filename,omitempty"`
	SubmittedAt      time.Time              `json:"submitted_at"`
	Source           string                 `json:"source,omitempty"`
	OverallScore     *int                   `json:"overall_score,omitempty"`
	ReportScore      *int                   `json:"report_score,omitempty"`
	ScoreComponents  *types.ScoreComponents `json:"score_components,omitempty"`
	Risks            []types.RiskFinding    `json:"risks,omitempty"`
	Sections         report.Sections        `json:"sections,omitempty"`
	TextPreview      string                 `json:"text_preview,omitempty"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	AnalyzedAt       *time.Time             `json:"analyzed_at,omitempty"`
}

// HandleJobCategories GET /api/v1/job-categories
func (h *AnalysisHandler) HandleJobCategories(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"job_categories": analyzer.JobCategories()})
}

// HandleAnalyzeText POST /api/v1/analyze/text
func (h *AnalysisHandler) HandleAnalyzeText(ctx context.Context, c *app.RequestContext) {
	var req AnalyzeTextRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		h.writeError(ctx, c, fmt.Errorf("%w: 请求体不是合法的JSON", processor.ErrInvalidUpload))
		return
	}

	result, err := h.service.AnalyzeText(ctx, req.ResumeText, req.JobCategory)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, newAnalysisResponse(result, req.ResumeText))
}

// HandleAnalyzeUpload POST /api/v1/analyze/upload
func (h *AnalysisHandler) HandleAnalyzeUpload(ctx context.Context, c *app.RequestContext) {
	data, filename, contentType, err := readUpload(c)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}

	doc, err := h.service.AnalyzeDocument(ctx, data, filename, contentType, c.PostForm("job_category"))
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, newAnalysisResponse(doc.Result, doc.Text))
}

// HandleSubmit POST /api/v1/submissions
func (h *AnalysisHandler) HandleSubmit(ctx context.Context, c *app.RequestContext) {
	data, filename, contentType, err := readUpload(c)
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}

	res, err := h.service.SubmitUpload(ctx, processor.SubmitRequest{
		Data:        data,
		Filename:    filename,
		ContentType: contentType,
		JobCategory: c.PostForm("job_category"),
	})
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusAccepted, res)
}

// HandleGetSubmission GET /api/v1/submissions/:uuid
func (h *AnalysisHandler) HandleGetSubmission(ctx context.Context, c *app.RequestContext) {
	sub, err := h.service.GetSubmission(ctx, c.Param("uuid"))
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, h.newSubmissionResponse(sub))
}

// HandleDownloadReport GET /api/v1/submissions/:uuid/report
func (h *AnalysisHandler) HandleDownloadReport(ctx context.Context, c *app.RequestContext) {
	sub, text, err := h.service.GetReport(ctx, c.Param("uuid"))
	if err != nil {
		h.writeError(ctx, c, err)
		return
	}
	if sub.ProcessingStatus != constants.StatusCompleted || text == "" {
		c.JSON(consts.StatusConflict, utils.H{
			"error":  "报告尚未生成",
			"status": sub.ProcessingStatus,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", ReportFilename(sub.JobCategory)))
	c.Data(consts.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// ReportFilename 下载文件名, 例如 resume_analysis_Software_Engineer.txt
func ReportFilename(jobCategory string) string {
	name := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "\"", "", ";", "_").Replace(analyzer.NormalizeJobCategory(jobCategory))
	return "resume_analysis_" + name + ".txt"
}

func readUpload(c *app.RequestContext) ([]byte, string, string, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: 文件未找到", processor.ErrInvalidUpload)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", "", fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", "", fmt.Errorf("读取上传文件内容失败: %w", err)
	}
	return data, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), nil
}

func newAnalysisResponse(result *types.AnalysisResult, text string) AnalysisResponse {
	sections := report.Parse(result.Report)
	resp := AnalysisResponse{
		JobCategory:      result.JobCategory,
		Source:           result.Source,
		OverallScore:     result.Score,
		ScoreComponents:  result.Components,
		Risks:            result.Risks,
		HiringSimulation: result.Simulation,
		Rewrites:         result.Rewrites,
		Report:           result.Report,
		Sections:         sections,
		TextPreview:      processor.TextPreview(text, processor.DefaultPreviewRunes),
	}
	if resp.Risks == nil {
		resp.Risks = []types.RiskFinding{}
	}
	if score, ok := sections.OverallScore(); ok {
		resp.ReportScore = &score
	}
	return resp
}

func (h *AnalysisHandler) newSubmissionResponse(sub *models.AnalysisSubmission) SubmissionResponse {
	resp := SubmissionResponse{
		SubmissionUUID:   sub.SubmissionUUID,
		Status:           sub.ProcessingStatus,
		JobCategory:      sub.JobCategory,
		OriginalFilename: sub.OriginalFilename,
		SubmittedAt:      sub.SubmissionTimestamp,
		ErrorMessage:     sub.ErrorMessage,
	}
	if sub.ProcessingStatus != constants.StatusCompleted {
		return resp
	}

	resp.Source = sub.AnalysisSource
	resp.OverallScore = sub.OverallScore
	resp.TextPreview = sub.TextPreview
	resp.AnalyzedAt = sub.AnalyzedAt

	if len(sub.ScoreComponentsJSON) > 0 {
		var components types.ScoreComponents
		if err := json.Unmarshal(sub.ScoreComponentsJSON, &components); err != nil {
			h.logger.Warn().Err(err).Str("submission_uuid", sub.SubmissionUUID).Msg("解析子分失败")
		} else {
			resp.ScoreComponents = &components
		}
	}
	if len(sub.RisksJSON) > 0 {
		if err := json.Unmarshal(sub.RisksJSON, &resp.Risks); err != nil {
			h.logger.Warn().Err(err).Str("submission_uuid", sub.SubmissionUUID).Msg("解析风险列表失败")
		}
	}
	if sub.ReportText != "" {
		resp.Sections = report.Parse(sub.ReportText)
		if score, ok := resp.Sections.OverallScore(); ok {
			resp.ReportScore = &score
		}
	}
	return resp
}

// writeError 把服务层错误映射为 HTTP 状态码
func (h *AnalysisHandler) writeError(ctx context.Context, c *app.RequestContext, err error) {
	status := StatusForError(err)
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)
	if status >= consts.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", string(c.Path())).Int("status", status).Msg("请求处理失败")
	} else {
		h.logger.Debug().Err(err).Str("path", string(c.Path())).Int("status", status).Msg("请求被拒绝")
	}
	c.JSON(status, utils.H{"error": err.Error()})
}

// StatusForError 错误到状态码的映射
func StatusForError(err error) int {
	switch {
	case errors.Is(err, processor.ErrUnreadableInput):
		return consts.StatusUnprocessableEntity
	case errors.Is(err, processor.ErrInvalidUpload):
		return consts.StatusBadRequest
	case errors.Is(err, storage.ErrSubmissionNotFound):
		return consts.StatusNotFound
	case errors.Is(err, processor.ErrAsyncUnavailable):
		return consts.StatusServiceUnavailable
	case errors.Is(err, processor.ErrExtractFailed):
		return consts.StatusUnprocessableEntity
	default:
		return consts.StatusInternalServerError
	}
}
