package parser

import (
	"context"
	"strings"
	"unicode/utf8"
)

// PlainTextExtractor 纯文本和 markdown 简历
type PlainTextExtractor struct{}

// NewPlainTextExtractor 创建纯文本提取器
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// ExtractTextFromBytes 原样返回, 规范化交给 NormalizeText
func (t *PlainTextExtractor) ExtractTextFromBytes(_ context.Context, data []byte, _ string, extraMeta map[string]interface{}) (string, map[string]interface{}, error) {
	meta := map[string]interface{}{}
	for k, v := range extraMeta {
		meta[k] = v
	}
	meta["extractor"] = "text"
	return string(data), meta, nil
}

// NormalizeText 统一换行符, 去掉 BOM、NUL 和非法 UTF-8 序列, 去掉首尾空白
// 行内空白和空行保留, 格式检查依赖它们
func NormalizeText(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.TrimSpace(text)
}
