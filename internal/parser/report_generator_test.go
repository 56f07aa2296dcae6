package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-advisor/internal/llm"
	"resume-advisor/internal/report"
	"resume-advisor/internal/types"
)

const cannedLLMReport = "## 📊 QUICK SUMMARY (TL;DR)\n" +
	"- Strong backend profile\n\n" +
	"## 💯 RESUME SCORE & BREAKDOWN\n" +
	"Overall Score: 72/100\n" +
	"- Role Alignment: 20/25\n\n" +
	"## 🎯 ROLE FIT ANALYSIS\n" +
	"Good fit.\n\n" +
	"## ✏️ EXAMPLE REWRITES\n" +
	"**Before:** Worked on APIs\n" +
	"**After:** Built 12 REST APIs serving 1M requests per day\n" +
	"**Why better:** Starts with a strong verb and adds scale.\n"

func sampleRecord() *types.StructuredRecord {
	return &types.StructuredRecord{
		Skills: types.SkillSet{Technical: []string{"go", "python"}, Tools: []string{"docker"}},
		Experience: []types.ExperienceEntry{
			{Role: "Senior Engineer", Company: "Acme Corp"},
		},
		Projects:  []types.ProjectEntry{{Description: "Built a billing pipeline"}},
		Education: []types.EducationEntry{{Degree: "Bachelor of Science", Institution: "State University"}},
	}
}

func TestLLMReportGenerator_Generate(t *testing.T) {
	mock := llm.NewMockChatModel(cannedLLMReport)
	gen := NewLLMReportGenerator(mock, nil)

	out, sections, err := gen.Generate(context.Background(), "Jane Doe resume text", "Software Engineer", sampleRecord())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "## QUICK SUMMARY (TL;DR)\n"), "emoji 标题应被规范化")
	assert.Contains(t, out, "## EXAMPLE REWRITES\n")
	score, ok := sections.OverallScore()
	require.True(t, ok)
	assert.Equal(t, 72, score)
	assert.Equal(t, "Good fit.", sections[report.KeyRoleFit])

	rewrites := sections.Rewrites()
	require.Len(t, rewrites, 1)
	assert.Equal(t, "Worked on APIs", rewrites[0].Original)

	received := mock.ReceivedMessages()
	require.Len(t, received, 1)
	require.Len(t, received[0], 2)
	prompt := received[0][1].Content
	assert.Contains(t, prompt, "Jane Doe resume text")
	assert.Contains(t, prompt, "**TARGET ROLE:** Software Engineer")
	assert.Contains(t, prompt, "Senior Engineer at Acme Corp")
	assert.Contains(t, prompt, "Bachelor of Science, State University")
	for _, h := range report.Headings {
		assert.Contains(t, prompt, report.HeadingLine(h.Key))
	}
}

func TestLLMReportGenerator_RejectsInvalidReport(t *testing.T) {
	mock := llm.NewMockChatModel("Here are some thoughts about the resume without any headings.")
	gen := NewLLMReportGenerator(mock, nil)

	_, _, err := gen.Generate(context.Background(), "text", "Data Scientist", sampleRecord())
	assert.ErrorIs(t, err, report.ErrMissingSection)
}

func TestLLMReportGenerator_MissingScoreLine(t *testing.T) {
	content := strings.Replace(cannedLLMReport, "Overall Score: 72/100\n", "Score unknown\n", 1)
	gen := NewLLMReportGenerator(llm.NewMockChatModel(content), nil)

	_, _, err := gen.Generate(context.Background(), "text", "Data Scientist", nil)
	assert.ErrorIs(t, err, report.ErrMissingSection)
}

func TestLLMReportGenerator_ModelErrors(t *testing.T) {
	apiErr := errors.New("quota exceeded")
	gen := NewLLMReportGenerator(llm.NewMockChatModelError(apiErr), nil)
	_, _, err := gen.Generate(context.Background(), "text", "Software Engineer", nil)
	assert.ErrorIs(t, err, apiErr)

	gen = NewLLMReportGenerator(llm.NewMockChatModel("   "), nil)
	_, _, err = gen.Generate(context.Background(), "text", "Software Engineer", nil)
	assert.ErrorIs(t, err, ErrEmptyLLMResponse)

	gen = NewLLMReportGenerator(nil, nil)
	_, _, err = gen.Generate(context.Background(), "text", "Software Engineer", nil)
	assert.Error(t, err)
}

func TestLLMReportGenerator_StripsCodeFence(t *testing.T) {
	fenced := "```markdown\n" + cannedLLMReport + "```"
	gen := NewLLMReportGenerator(llm.NewMockChatModel(fenced), nil)

	out, _, err := gen.Generate(context.Background(), "text", "Software Engineer", nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "```")
}

func TestBuildPrompt_TruncatesLongResume(t *testing.T) {
	gen := NewLLMReportGenerator(nil, nil, WithReportPromptTemplate("%[1]s|%[6]s"))
	long := strings.Repeat("a", maxPromptResumeRunes+50)

	prompt := gen.BuildPrompt(long, "QA Engineer", nil)
	assert.Equal(t, strings.Repeat("a", maxPromptResumeRunes)+"|QA Engineer", prompt)
}

func TestLLMReportGenerator_CustomSystemMessage(t *testing.T) {
	mock := llm.NewMockChatModel(cannedLLMReport)
	gen := NewLLMReportGenerator(mock, nil, WithReportSystemMessage("You review resumes for fintech roles."))

	_, _, err := gen.Generate(context.Background(), "text", "Software Engineer", nil)
	require.NoError(t, err)

	received := mock.ReceivedMessages()
	require.Len(t, received, 1)
	assert.Equal(t, "You review resumes for fintech roles.", received[0][0].Content)
}
