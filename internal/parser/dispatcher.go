package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFormat 无法识别的文件类型
var ErrUnsupportedFormat = errors.New("不支持的文件格式")

// TextExtractor 从文档字节中提取文本
// 返回: 文本, 元数据, 错误
type TextExtractor interface {
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string, extraMeta map[string]interface{}) (string, map[string]interface{}, error)
}

// FileKind 文档类型
type FileKind string

const (
	KindUnknown FileKind = ""
	KindPDF     FileKind = "pdf"
	KindDOCX    FileKind = "docx"
	KindHTML    FileKind = "html"
	KindText    FileKind = "text"
)

var extensionKinds = map[string]FileKind{
	".pdf":      KindPDF,
	".docx":     KindDOCX,
	".html":     KindHTML,
	".htm":      KindHTML,
	".txt":      KindText,
	".md":       KindText,
	".markdown": KindText,
}

var mimeKinds = map[string]FileKind{
	"application/pdf": KindPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": KindDOCX,
	"text/html":     KindHTML,
	"text/plain":    KindText,
	"text/markdown": KindText,
}

var (
	magicPDF = []byte("%PDF-")
	magicZip = []byte("PK\x03\x04")
)

// DetectKind 依次按扩展名、Content-Type、文件头判断类型
func DetectKind(filename, contentType string, data []byte) FileKind {
	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(filename))]; ok {
		return kind
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if kind, ok := mimeKinds[mediaType]; ok {
			return kind
		}
	}

	head := bytes.TrimLeft(data, " \t\r\n\uFEFF")
	switch {
	case bytes.HasPrefix(head, magicPDF):
		return KindPDF
	case bytes.HasPrefix(head, magicZip):
		// docx 是 zip 包, 其他 zip 会在解析时报错
		return KindDOCX
	}
	lower := bytes.ToLower(head[:min(len(head), 512)])
	if bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.HasPrefix(lower, []byte("<html")) {
		return KindHTML
	}
	if len(data) > 0 && utf8.Valid(data) {
		return KindText
	}
	return KindUnknown
}

// Dispatcher 按文件类型选择提取器
// PDF 先用 Eino 解析, 出错或没有文本时退回逐页提取
type Dispatcher struct {
	pdf         TextExtractor
	pdfFallback TextExtractor
	docx        TextExtractor
	html        TextExtractor
	text        TextExtractor
	logger      *log.Logger
}

// DispatcherOption 配置选项
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger 配置日志记录器
func WithDispatcherLogger(logger *log.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithPDFExtractor 替换主 PDF 提取器
func WithPDFExtractor(e TextExtractor) DispatcherOption {
	return func(d *Dispatcher) {
		d.pdf = e
	}
}

// WithPDFFallbackExtractor 替换兜底 PDF 提取器
func WithPDFFallbackExtractor(e TextExtractor) DispatcherOption {
	return func(d *Dispatcher) {
		d.pdfFallback = e
	}
}

// NewDispatcher 创建带默认提取器的分发器
func NewDispatcher(ctx context.Context, options ...DispatcherOption) (*Dispatcher, error) {
	d := &Dispatcher{
		pdfFallback: NewPlainPDFExtractor(),
		docx:        NewDocxExtractor(),
		html:        NewHTMLExtractor(),
		text:        NewPlainTextExtractor(),
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range options {
		opt(d)
	}
	if d.pdf == nil {
		einoExtractor, err := NewEinoPDFTextExtractor(ctx, WithEinoLogger(d.logger))
		if err != nil {
			return nil, err
		}
		d.pdf = einoExtractor
	}
	return d, nil
}

// Extract 提取并规范化文本; 文本为空不算错误, 由调用方判断
func (d *Dispatcher) Extract(ctx context.Context, data []byte, filename, contentType string) (string, map[string]interface{}, error) {
	kind := DetectKind(filename, contentType, data)
	meta := map[string]interface{}{
		"filename":  filename,
		"file_kind": string(kind),
		"file_size": len(data),
	}

	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, meta, err = d.extractPDF(ctx, data, filename, meta)
	case KindDOCX:
		text, meta, err = d.docx.ExtractTextFromBytes(ctx, data, filename, meta)
	case KindHTML:
		text, meta, err = d.html.ExtractTextFromBytes(ctx, data, filename, meta)
	case KindText:
		text, meta, err = d.text.ExtractTextFromBytes(ctx, data, filename, meta)
	default:
		return "", meta, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return "", meta, err
	}
	return NormalizeText(text), meta, nil
}

func (d *Dispatcher) extractPDF(ctx context.Context, data []byte, uri string, meta map[string]interface{}) (string, map[string]interface{}, error) {
	text, outMeta, err := d.pdf.ExtractTextFromBytes(ctx, data, uri, meta)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, outMeta, nil
	}
	if d.pdfFallback == nil {
		return text, outMeta, err
	}
	if err != nil {
		d.logger.Printf("主PDF提取器失败, 使用兜底提取器: %v", err)
	} else {
		d.logger.Printf("主PDF提取器未提取到文本, 使用兜底提取器: %s", uri)
	}

	fbText, fbMeta, fbErr := d.pdfFallback.ExtractTextFromBytes(ctx, data, uri, meta)
	if fbErr != nil {
		if err != nil {
			return "", meta, fmt.Errorf("PDF提取失败: %w (兜底: %v)", err, fbErr)
		}
		// 主提取器成功但为空, 兜底失败: 按空文本处理
		return "", outMeta, nil
	}
	return fbText, fbMeta, nil
}
