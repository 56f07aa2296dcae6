package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PlainPDFExtractor 逐页读取 PDF 纯文本, 作为 Eino 解析器的兜底
type PlainPDFExtractor struct{}

// NewPlainPDFExtractor 创建兜底 PDF 提取器
func NewPlainPDFExtractor() *PlainPDFExtractor {
	return &PlainPDFExtractor{}
}

// ExtractTextFromBytes 页与页之间以空行分隔, 无文本的页跳过
func (p *PlainPDFExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string, extraMeta map[string]interface{}) (text string, meta map[string]interface{}, err error) {
	// 损坏的 PDF 可能让底层库 panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("读取PDF失败 %s: %v", uri, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", extraMeta, fmt.Errorf("读取PDF失败 %s: %w", uri, err)
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", extraMeta, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, pageText)
	}

	meta = map[string]interface{}{}
	for k, v := range extraMeta {
		meta[k] = v
	}
	meta["extractor"] = "plain-pdf"
	meta["page_count"] = numPages
	return strings.Join(pages, "\n\n"), meta, nil
}
