package report

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-advisor/internal/analyzer"
	"resume-advisor/internal/extraction"
	"resume-advisor/internal/types"
)

const sampleResume = `Jane Doe
jane.doe@example.com | (555) 123-4567

Skills
Python, Go, Docker, Kubernetes, SQL, Git, React
Leadership and communication, Jira, Excel

Experience
Senior Software Engineer at Acme Corp, 2019 - 2023
- Worked on the billing system used by 2 million customers

Projects
1. Resume Analyzer - a Go service that scores resumes against job roles
`

func buildInput(text, job string) Input {
	record := extraction.Build(text)
	return Input{
		JobCategory: job,
		JobKeywords: analyzer.JobKeywords(job),
		Record:      record,
		Components:  analyzer.Score(record, job),
		Risks:       analyzer.DetectRisks(record),
		Simulation:  analyzer.SimulateHiringManager(record),
		Rewrites:    analyzer.SuggestRewrites(text, job),
	}
}

func TestCompose_HeadingsInOrder(t *testing.T) {
	out := Compose(buildInput(sampleResume, "Software Engineer"))

	last := -1
	for _, h := range Headings {
		idx := strings.Index(out, "\n"+headingPrefix+h.Title+"\n")
		if h.Key == KeyQuickSummary {
			idx = strings.Index(out, headingPrefix+h.Title+"\n")
			assert.Equal(t, 0, idx)
		}
		require.GreaterOrEqual(t, idx, 0, "缺少标题 %s", h.Title)
		assert.Greater(t, idx, last, "标题顺序错误 %s", h.Title)
		last = idx
		assert.Equal(t, 1, strings.Count(out, headingPrefix+h.Title), "标题应唯一 %s", h.Title)
	}
}

func TestCompose_RoundTrip(t *testing.T) {
	in := buildInput(sampleResume, "Software Engineer")
	sections := Parse(Compose(in))

	want := map[SectionKey]string{
		KeyQuickSummary:  quickSummary(in),
		KeyResumeScore:   scoreBreakdown(in.Components),
		KeyRoleFit:       roleFit(in),
		KeySkillGap:      skillGapMatrix(in),
		KeyHiringManager: hiringManager(in.Simulation),
		KeyRisks:         riskDetection(in.Risks),
		KeyImprovements:  improvementActions(in),
		KeyRewrites:      exampleRewrites(in.Rewrites),
	}
	require.Len(t, sections, len(want))
	for key, body := range want {
		assert.Equal(t, body, sections[key], "章节 %s 内容应原样保留", key)
	}

	score, ok := sections.OverallScore()
	require.True(t, ok)
	assert.Equal(t, in.Components.Total(), score)
}

func TestCompose_Idempotent(t *testing.T) {
	a := Compose(buildInput(sampleResume, "Data Analyst"))
	b := Compose(buildInput(sampleResume, "Data Analyst"))
	assert.Equal(t, a, b)
}

func TestCompose_ScoreAndMatrix(t *testing.T) {
	in := buildInput(sampleResume, "Software Engineer")
	out := Compose(in)
	c := in.Components

	assert.Contains(t, out, "Overall Score: "+strconv.Itoa(c.Total())+"/100\n")
	assert.Contains(t, out, "- Role Alignment: "+strconv.Itoa(c.RoleAlignment)+"/25\n")
	assert.Contains(t, out, "- Impact Clarity: "+strconv.Itoa(c.ImpactClarity)+"/25\n")
	assert.Contains(t, out, "- ATS Friendliness: "+strconv.Itoa(c.ATSFriendly)+"/25\n")
	assert.Contains(t, out, "- Project Relevance: "+strconv.Itoa(c.ProjectRelevance)+"/25\n")

	assert.Contains(t, out, matrixHeaderRow+"\n"+matrixRuleRow+"\n")
	assert.Contains(t, out, "| Technical Skills | python, go | sql, react | java, javascript, angular |")
	assert.Contains(t, out, "| Tools & Technologies | excel, jira | Few | Various industry tools |")
	assert.Contains(t, out, "| Soft Skills | leadership, communication | Few | Leadership, communication skills |")

	assert.Contains(t, out, markerBefore+" - Worked on the billing system used by 2 million customers")
	assert.Contains(t, out, markerAfter+" Developed the billing system")
	assert.Contains(t, out, markerWhyBetter+" ")
}

func TestCompose_UnknownCategory(t *testing.T) {
	in := buildInput("A plain line of text without any signals", "Astronaut")
	out := Compose(in)

	assert.Contains(t, out, "| Technical Skills | None | Few | Various |")
	assert.Contains(t, out, "role alignment uses the default score of 10/25")
	assert.Contains(t, out, "Overall Score: 10/100")
	assert.Contains(t, out, "- [LOW] Poor Formatting: ")
	assert.Contains(t, out, "No suitable experience bullet or project description was found to rewrite.")

	sections := Parse(out)
	lines := strings.Split(sections[KeyImprovements], "\n")
	assert.GreaterOrEqual(t, len(lines), 3)
	assert.LessOrEqual(t, len(lines), maxImprovementActions)
	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, strconv.Itoa(i+1)+". "), line)
	}
}

func TestParse_EmojiHeadingsAndMissingSections(t *testing.T) {
	raw := "Intro text\n## 📊 QUICK SUMMARY (TL;DR)\n- one\n- two\n\n## 💯 Resume Score & Breakdown\nOverall Score: 72/100\n- Role Alignment: 20/25\n## OTHER NOTES\nkept\n## ✏️ EXAMPLE REWRITES\n**Before:** a\n**After:** b\n**Why better:** c\n"
	sections := Parse(raw)

	assert.Equal(t, "- one\n- two", sections[KeyQuickSummary])
	assert.Equal(t, "Overall Score: 72/100\n- Role Alignment: 20/25\n## OTHER NOTES\nkept", sections[KeyResumeScore])
	_, hasRisks := sections[KeyRisks]
	assert.False(t, hasRisks)

	score, ok := sections.OverallScore()
	require.True(t, ok)
	assert.Equal(t, 72, score)

	rewrites := sections.Rewrites()
	require.Len(t, rewrites, 1)
	assert.Equal(t, types.Rewrite{Original: "a", Improved: "b", Explanation: "c"}, rewrites[0])
}

func TestParse_UnknownSubheadingStaysInBody(t *testing.T) {
	raw := "## EXAMPLE REWRITES\n" +
		"**Before:** a\n**After:** b\n**Why better:** c\n" +
		"## Notes\n" +
		"**Before:** d\n**After:** e\n**Why better:** f\n" +
		"## 💼 HIRING MANAGER SIMULATION\n" +
		"- pass\n"
	sections := Parse(raw)

	assert.Contains(t, sections[KeyRewrites], "## Notes")
	rewrites := sections.Rewrites()
	require.Len(t, rewrites, 2)
	assert.Equal(t, types.Rewrite{Original: "d", Improved: "e", Explanation: "f"}, rewrites[1])
	assert.Equal(t, "- pass", sections[KeyHiringManager])
	assert.Equal(t, "", sections[KeyQuickSummary])
}

func TestValidate(t *testing.T) {
	good := "## QUICK SUMMARY (TL;DR)\n- ok\n## RESUME SCORE & BREAKDOWN\nOverall Score: 50/100\n## EXAMPLE REWRITES\n**Before:** x\n**After:** y\n"
	sections, err := Validate(good)
	require.NoError(t, err)
	assert.Equal(t, "- ok", sections[KeyQuickSummary])

	_, err = Validate("## QUICK SUMMARY (TL;DR)\n- ok\n")
	assert.ErrorIs(t, err, ErrMissingSection)

	_, err = Validate("## QUICK SUMMARY (TL;DR)\n- ok\n## RESUME SCORE & BREAKDOWN\nno score\n## EXAMPLE REWRITES\nx\n")
	assert.ErrorIs(t, err, ErrMissingSection)

	_, err = Validate("free text without any structure")
	assert.ErrorIs(t, err, ErrMissingSection)
}

func TestNormalize(t *testing.T) {
	raw := "  ## 📊 quick summary (tl;dr)\r\n- a\r\n## ⚠️ RESUME RISK DETECTION\n- b\n### not a heading\n"
	out := Normalize(raw)
	assert.Equal(t, "## QUICK SUMMARY (TL;DR)\n- a\n## RESUME RISK DETECTION\n- b\n### not a heading\n", out)

	composed := Compose(buildInput(sampleResume, "Software Engineer"))
	assert.Equal(t, composed, Normalize(composed))
}
