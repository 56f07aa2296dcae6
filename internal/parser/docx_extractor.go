package parser

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxLineBreak    = regexp.MustCompile(`<w:(?:br|cr)\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

// DocxExtractor 从 document.xml 中按段落还原文本
type DocxExtractor struct{}

// NewDocxExtractor 创建 DOCX 提取器
func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

// ExtractTextFromBytes 每个段落一行, 保留换行与制表符
func (d *DocxExtractor) ExtractTextFromBytes(_ context.Context, data []byte, uri string, extraMeta map[string]interface{}) (string, map[string]interface{}, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", extraMeta, fmt.Errorf("解析DOCX失败 %s: %w", uri, err)
	}
	defer doc.Close()

	text := docxXMLToText(doc.Editable().GetContent())

	meta := map[string]interface{}{}
	for k, v := range extraMeta {
		meta[k] = v
	}
	meta["extractor"] = "docx"
	return text, meta, nil
}

// docxXMLToText 去掉 WordprocessingML 标签, 段落结束转为换行
func docxXMLToText(xml string) string {
	s := docxParagraphEnd.ReplaceAllString(xml, "\n")
	s = docxLineBreak.ReplaceAllString(s, "\n")
	s = docxTab.ReplaceAllString(s, "\t")
	s = xmlTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
