package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"

	"resume-advisor/internal/report"
	"resume-advisor/internal/types"
)

// maxPromptResumeRunes 写入提示词的简历正文上限
const maxPromptResumeRunes = 12000

// ErrEmptyLLMResponse 模型返回空内容
var ErrEmptyLLMResponse = errors.New("LLM returned empty response")

const defaultReportSystemMessage = "You are a senior resume reviewer. Answer only with the requested report, using the exact section headings given."

// LLMReportGenerator 调用大模型生成与本地报告相同章节格式的简历点评
type LLMReportGenerator struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string
	systemMessage  string
	modelOptions   []model.Option
	logger         *log.Logger
}

// LLMReportGeneratorOption 配置选项
type LLMReportGeneratorOption func(*LLMReportGenerator)

// WithReportPromptTemplate 自定义提示词模板
// 模板参数依次为: 简历正文, 技能, 工作经历, 项目, 教育, 目标岗位, 章节格式
func WithReportPromptTemplate(template string) LLMReportGeneratorOption {
	return func(g *LLMReportGenerator) {
		g.promptTemplate = template
	}
}

// WithReportSystemMessage 自定义系统消息
func WithReportSystemMessage(msg string) LLMReportGeneratorOption {
	return func(g *LLMReportGenerator) {
		g.systemMessage = msg
	}
}

// WithModelOptions 每次调用附带的模型参数, 如温度和最大 token
func WithModelOptions(opts ...model.Option) LLMReportGeneratorOption {
	return func(g *LLMReportGenerator) {
		g.modelOptions = append(g.modelOptions, opts...)
	}
}

// NewLLMReportGenerator 创建报告生成器
func NewLLMReportGenerator(llmModel model.ToolCallingChatModel, logger *log.Logger, options ...LLMReportGeneratorOption) *LLMReportGenerator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	g := &LLMReportGenerator{
		llmModel:       llmModel,
		promptTemplate: cprwPromptTemplate,
		systemMessage:  defaultReportSystemMessage,
		logger:         logger,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

const cprwPromptTemplate = `ACT as a Senior Certified Professional Resume Writer (CPRW) with 15+ years of experience and a former hiring manager.

**RESUME TO ANALYZE:**
%[1]s

**STRUCTURED DATA EXTRACTED:**
Skills: %[2]s
Experience: %[3]s
Projects: %[4]s
Education: %[5]s

**TARGET ROLE:** %[6]s

Provide a comprehensive analysis in this EXACT format, keeping every heading line exactly as written:

%[7]s

Be extremely specific, direct, and provide exact phrasing suggestions where needed.`

// reportFormatGuide 每个章节的标题和内容要求, 标题来自 report 包
func reportFormatGuide(jobCategory string) string {
	guides := map[report.SectionKey]string{
		report.KeyQuickSummary: "- 5 bullet points highlighting the most critical findings",
		report.KeyResumeScore: "Overall Score: X/100\n" +
			"- Role Alignment: X/25\n- Impact Clarity: X/25\n- ATS Friendliness: X/25\n- Project Relevance: X/25",
		report.KeyRoleFit: fmt.Sprintf("How well does this resume align with %s?", jobCategory),
		report.KeySkillGap: "| Skill Category | Strong Match | Partial Match | Missing But Important |\n" +
			"|----------------|--------------|---------------|----------------------|\n" +
			"| Technical Skills | ... | ... | ... |\n| Tools & Technologies | ... | ... | ... |\n| Soft Skills | ... | ... | ... |",
		report.KeyHiringManager: "Simulate how a real recruiter would read this resume in 30 seconds:\n" +
			"- First impression summary\n- What stands out\n- What raises doubts\n- Likely shortlist decision (Yes / Maybe / No + reason)",
		report.KeyRisks: "Identify potential red flags:\n" +
			"- Skill dumping\n- Buzzwords without proof\n- Too many technologies for experience level\n- Inconsistent timelines",
		report.KeyImprovements: "1. Most impactful change\n2. Second most important\n3. Third priority improvement",
		report.KeyRewrites: "Rewrite one weak experience bullet and one weak project description using\n" +
			"**Before:** original text\n**After:** improved text\n**Why better:** explanation",
	}

	var b strings.Builder
	for i, h := range report.Headings {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(report.HeadingLine(h.Key))
		b.WriteString("\n")
		b.WriteString(guides[h.Key])
	}
	return b.String()
}

// summarizeRecord 结构化数据的简短文本形式
func summarizeRecord(record *types.StructuredRecord) (skills, experience, projects, education string) {
	if record == nil {
		return "[]", "[]", "[]", "[]"
	}
	skills = fmt.Sprintf("technical=%v tools=%v soft_skills=%v",
		record.Skills.Technical, record.Skills.Tools, record.Skills.SoftSkills)

	var parts []string
	for _, e := range record.Experience {
		parts = append(parts, fmt.Sprintf("%s at %s", e.Role, e.Company))
	}
	experience = "[" + strings.Join(parts, "; ") + "]"

	parts = parts[:0]
	for _, p := range record.Projects {
		parts = append(parts, p.Description)
	}
	projects = "[" + strings.Join(parts, "; ") + "]"

	parts = parts[:0]
	for _, e := range record.Education {
		parts = append(parts, fmt.Sprintf("%s, %s", e.Degree, e.Institution))
	}
	education = "[" + strings.Join(parts, "; ") + "]"
	return skills, experience, projects, education
}

// BuildPrompt 组装用户消息
func (g *LLMReportGenerator) BuildPrompt(rawText, jobCategory string, record *types.StructuredRecord) string {
	if utf8.RuneCountInString(rawText) > maxPromptResumeRunes {
		rawText = string([]rune(rawText)[:maxPromptResumeRunes])
	}
	skills, experience, projects, education := summarizeRecord(record)
	return fmt.Sprintf(g.promptTemplate, rawText, skills, experience, projects, education, jobCategory, reportFormatGuide(jobCategory))
}

// Generate 生成报告并校验章节格式; 返回规范化后的报告与解析出的章节
func (g *LLMReportGenerator) Generate(ctx context.Context, rawText, jobCategory string, record *types.StructuredRecord) (string, report.Sections, error) {
	if g.llmModel == nil {
		return "", nil, fmt.Errorf("LLMReportGenerator: llmModel is not initialized")
	}

	userMsg := g.BuildPrompt(rawText, jobCategory, record)
	messages := []*einoschema.Message{
		einoschema.SystemMessage(g.systemMessage),
		einoschema.UserMessage(userMsg),
	}
	g.logger.Printf("[LLMReportGenerator] 目标岗位: %s, 提示词长度: %d", jobCategory, len(userMsg))

	response, err := g.llmModel.Generate(ctx, messages, g.modelOptions...)
	if err != nil {
		g.logger.Printf("[LLMReportGenerator] LLM call error: %v", err)
		return "", nil, fmt.Errorf("LLMReportGenerator: LLM call failed: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", nil, ErrEmptyLLMResponse
	}

	content := strings.TrimPrefix(response.Content, "\uFEFF")
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	content = stripCodeFence(content)

	normalized := report.Normalize(content)
	sections, err := report.Validate(normalized)
	if err != nil {
		g.logger.Printf("[LLMReportGenerator] 响应不符合章节格式: %v", err)
		return "", nil, fmt.Errorf("LLMReportGenerator: invalid report: %w", err)
	}
	return normalized, sections, nil
}

// stripCodeFence 模型有时把整个报告包在 ```markdown 代码块里
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return s
	}
	inner := strings.TrimSuffix(trimmed, "```")
	if idx := strings.Index(inner, "\n"); idx >= 0 {
		return inner[idx+1:]
	}
	return s
}
