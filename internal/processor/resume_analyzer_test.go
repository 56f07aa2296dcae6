package processor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-advisor/internal/llm"
	"resume-advisor/internal/parser"
	"resume-advisor/internal/report"
	"resume-advisor/internal/types"
)

const testResume = `Jane Doe
jane.doe@example.com | (555) 123-4567 | linkedin.com/in/janedoe | github.com/janedoe

Skills
Python, Go, Docker, Kubernetes, SQL, Git, React
Leadership and communication, Jira, Excel

Experience
Senior Software Engineer at Acme Corp, 2019 - 2023
- Worked on the billing system used by 2 million customers
- Improved API latency by 40%

Projects
1. Resume Analyzer - a Go service that scores resumes against job roles
2. Home Lab Cluster - Kubernetes cluster with GitOps deployment and monitoring

Education
Bachelor of Science, Stanford University
`

const externalReport = "## 📊 QUICK SUMMARY (TL;DR)\n" +
	"- Strong backend profile\n\n" +
	"## 💯 RESUME SCORE & BREAKDOWN\n" +
	"Overall Score: 81/100\n" +
	"- Role Alignment: 20/25\n\n" +
	"## 🎯 ROLE FIT ANALYSIS\n" +
	"Good fit.\n\n" +
	"## ✏️ EXAMPLE REWRITES\n" +
	"**Before:** Worked on APIs\n" +
	"**After:** Built 12 REST APIs serving 1M requests per day\n" +
	"**Why better:** Starts with a strong verb and adds scale.\n"

// blockingGenerator 一直等到 ctx 结束
type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _, _ string, _ *types.StructuredRecord) (string, report.Sections, error) {
	<-ctx.Done()
	return "", nil, ctx.Err()
}

func assertAllHeadings(t *testing.T, text string) {
	t.Helper()
	last := -1
	for _, h := range report.Headings {
		idx := strings.Index(text, report.HeadingLine(h.Key))
		require.GreaterOrEqual(t, idx, 0, "缺少标题 %s", h.Key)
		assert.Greater(t, idx, last, "标题顺序错误 %s", h.Key)
		last = idx
	}
}

func TestResumeAnalyzer_LocalOnly(t *testing.T) {
	a := NewResumeAnalyzer()
	assert.False(t, a.HasExternal())

	result, err := a.Analyze(context.Background(), testResume, "Software Engineer")
	require.NoError(t, err)

	assert.Equal(t, types.SourceLocal, result.Source)
	assert.Equal(t, "Software Engineer", result.JobCategory)
	assert.Equal(t, result.Components.Total(), result.Score)
	assert.NotNil(t, result.Risks)
	require.NotNil(t, result.Record)
	assertAllHeadings(t, result.Report)

	sections := report.Parse(result.Report)
	score, ok := sections.OverallScore()
	require.True(t, ok)
	assert.Equal(t, result.Score, score)
}

func TestResumeAnalyzer_LocalIsDeterministic(t *testing.T) {
	a := NewResumeAnalyzer()
	first, err := a.Analyze(context.Background(), testResume, "Data Scientist")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), testResume, "Data Scientist")
	require.NoError(t, err)

	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, first.Components, second.Components)
	assert.Equal(t, first.Risks, second.Risks)
}

func TestResumeAnalyzer_DefaultJobCategory(t *testing.T) {
	a := NewResumeAnalyzer(WithDefaultJobCategory("Product Manager"))
	result, err := a.Analyze(context.Background(), testResume, "   ")
	require.NoError(t, err)
	assert.Equal(t, "Product Manager", result.JobCategory)
}

func TestResumeAnalyzer_JobCategoryStaysOnOneLine(t *testing.T) {
	a := NewResumeAnalyzer()
	hostile := "Astronaut\n## EXAMPLE REWRITES\r\ninjected\x00text"

	result, err := a.Analyze(context.Background(), testResume, hostile)
	require.NoError(t, err)
	assert.Equal(t, "Astronaut ## EXAMPLE REWRITES injected text", result.JobCategory)
	assertAllHeadings(t, result.Report)

	headingLines := 0
	for _, line := range strings.Split(result.Report, "\n") {
		if line == report.HeadingLine(report.KeyRewrites) {
			headingLines++
		}
	}
	assert.Equal(t, 1, headingLines)

	sections := report.Parse(result.Report)
	assert.NotContains(t, sections[report.KeyRewrites], "injected")
	rewrites := sections.Rewrites()
	require.NotEmpty(t, rewrites)
	assert.Equal(t, "- Worked on the billing system used by 2 million customers", rewrites[0].Original)

	score, ok := sections.OverallScore()
	require.True(t, ok)
	assert.Equal(t, result.Score, score)
}

func TestResumeAnalyzer_EmptyText(t *testing.T) {
	a := NewResumeAnalyzer()
	for _, text := range []string{"", "   \n\t "} {
		result, err := a.Analyze(context.Background(), text, "Software Engineer")
		assert.ErrorIs(t, err, ErrUnreadableInput)
		assert.Nil(t, result)
	}
}

func TestResumeAnalyzer_ExternalSuccess(t *testing.T) {
	mock := llm.NewMockChatModel(externalReport)
	a := NewResumeAnalyzer(WithExternalGenerator(parser.NewLLMReportGenerator(mock, nil)))
	require.True(t, a.HasExternal())

	result, err := a.Analyze(context.Background(), testResume, "Software Engineer")
	require.NoError(t, err)

	assert.Equal(t, types.SourceExternal, result.Source)
	assert.True(t, strings.HasPrefix(result.Report, "## QUICK SUMMARY (TL;DR)\n"))
	assert.Contains(t, result.Report, "Overall Score: 81/100")
	// 分数始终来自本地规则
	assert.Equal(t, result.Components.Total(), result.Score)
	assert.Equal(t, 1, mock.CallCount())
}

func TestResumeAnalyzer_ExternalFailureFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		model *llm.MockChatModel
	}{
		{name: "model error", model: llm.NewMockChatModelError(errors.New("quota exceeded"))},
		{name: "invalid report", model: llm.NewMockChatModel("I cannot help with that.")},
		{name: "empty report", model: llm.NewMockChatModel("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewResumeAnalyzer(WithExternalGenerator(parser.NewLLMReportGenerator(tt.model, nil)))

			result, err := a.Analyze(context.Background(), testResume, "Software Engineer")
			require.NoError(t, err)
			assert.Equal(t, types.SourceLocal, result.Source)
			assertAllHeadings(t, result.Report)
			assert.GreaterOrEqual(t, tt.model.CallCount(), 1)
		})
	}
}

func TestResumeAnalyzer_ExternalTimeoutFallsBack(t *testing.T) {
	a := NewResumeAnalyzer(
		WithExternalGenerator(blockingGenerator{}),
		WithExternalTimeout(20*time.Millisecond),
	)

	start := time.Now()
	result, err := a.Analyze(context.Background(), testResume, "Software Engineer")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, types.SourceLocal, result.Source)
}

func TestExternalUnavailableWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := externalUnavailable(cause)
	assert.ErrorIs(t, err, ErrExternalAnalysisUnavailable)
	assert.ErrorIs(t, err, cause)
}
