package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	// ErrUnreadableInput 上游没有提取到任何文本, 唯一会离开分析流程的错误
	ErrUnreadableInput = errors.New("no text could be extracted from the resume")
	// ErrExternalAnalysisUnavailable 外部生成式分析不可用, 只在内部用于触发本地兜底
	ErrExternalAnalysisUnavailable = errors.New("external analysis unavailable")

	ErrInvalidUpload      = errors.New("上传文件无效")
	ErrDownloadFailed     = errors.New("下载简历失败")
	ErrExtractFailed      = errors.New("提取简历文本失败")
	ErrStoreReportFailed  = errors.New("保存分析报告失败")
	ErrUpdateStatusFailed = errors.New("更新提交状态失败")
	ErrDatabaseFailed     = errors.New("数据库操作失败")
	ErrUploadFailed       = errors.New("上传简历失败")
	ErrAsyncUnavailable   = errors.New("异步分析所需的存储组件未就绪")
)

// AnalysisError 包含详细错误信息的自定义错误
type AnalysisError struct {
	SubmissionUUID string
	Op             string
	BaseErr        error
	Detail         string
}

func (e *AnalysisError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, UUID:%s): %s", e.BaseErr, e.Op, e.SubmissionUUID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, UUID:%s)", e.BaseErr, e.Op, e.SubmissionUUID)
}

func (e *AnalysisError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *AnalysisError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newAnalysisError(uuid, op string, base error, detail string) error {
	return &AnalysisError{SubmissionUUID: uuid, Op: op, BaseErr: base, Detail: detail}
}

// NewDownloadError 原始文件下载失败
func NewDownloadError(uuid, detail string) error {
	return newAnalysisError(uuid, "download", ErrDownloadFailed, detail)
}

// NewExtractError 文本提取失败
func NewExtractError(uuid, detail string) error {
	return newAnalysisError(uuid, "extract", ErrExtractFailed, detail)
}

// NewUnreadableError 提取结果为空
func NewUnreadableError(uuid, detail string) error {
	return newAnalysisError(uuid, "extract", ErrUnreadableInput, detail)
}

func NewStoreError(uuid, detail string) error {
	return newAnalysisError(uuid, "store", ErrStoreReportFailed, detail)
}

func NewUpdateError(uuid, detail string) error {
	return newAnalysisError(uuid, "update", ErrUpdateStatusFailed, detail)
}

func NewDatabaseError(uuid, detail string) error {
	return newAnalysisError(uuid, "database", ErrDatabaseFailed, detail)
}

// externalUnavailable 把外部分析的任何失败统一包装
func externalUnavailable(cause error) error {
	return fmt.Errorf("%w: %w", ErrExternalAnalysisUnavailable, cause)
}
