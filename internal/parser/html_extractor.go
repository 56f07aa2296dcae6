package parser

import (
	"context"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// 导航、广告、脚本等与简历内容无关的节点
const htmlNoiseSelectors = "script, style, noscript, iframe, svg, header, footer, nav, aside, " +
	".advertisement, .ad, .sidebar, .comments, [role=navigation], [role=banner], [role=contentinfo]"

// 优先选择的正文容器, 都没有时退回 body
var htmlContentSelectors = []string{"article", "main", "[role=main]", ".resume", "#resume", ".content", "#content"}

// HTMLExtractor 将保存下来的简历网页转为 markdown 文本, 列表项保留为 "- " 条目
type HTMLExtractor struct{}

// NewHTMLExtractor 创建 HTML 提取器
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// ExtractTextFromBytes 实现 TextExtractor
func (h *HTMLExtractor) ExtractTextFromBytes(_ context.Context, data []byte, uri string, extraMeta map[string]interface{}) (string, map[string]interface{}, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return "", extraMeta, fmt.Errorf("解析HTML失败 %s: %w", uri, err)
	}

	doc.Find(htmlNoiseSelectors).Remove()

	meta := map[string]interface{}{}
	for k, v := range extraMeta {
		meta[k] = v
	}
	meta["extractor"] = "html"
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta["title"] = title
	}

	content := doc.Find("body")
	for _, sel := range htmlContentSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 && strings.TrimSpace(found.Text()) != "" {
			content = found
			break
		}
	}

	contentHTML, err := goquery.OuterHtml(content)
	if err != nil || strings.TrimSpace(contentHTML) == "" {
		// 没有 body 时直接取纯文本
		return strings.TrimSpace(doc.Text()), meta, nil
	}

	markdown, err := htmltomarkdown.ConvertString(contentHTML)
	if err != nil {
		return strings.TrimSpace(content.Text()), meta, nil
	}
	return strings.TrimSpace(markdown), meta, nil
}
