// Package report 报告的组装与解析
// 报告由固定顺序、固定标题的章节组成, 标题文本字节稳定, 供展示层按标题定位章节
package report

import (
	"strings"
	"unicode"
)

// SectionKey 章节键
type SectionKey string

const (
	KeyQuickSummary  SectionKey = "quick_summary"
	KeyResumeScore   SectionKey = "resume_score"
	KeyRoleFit       SectionKey = "role_fit"
	KeySkillGap      SectionKey = "skill_gap"
	KeyHiringManager SectionKey = "hiring_manager"
	KeyRisks         SectionKey = "risks"
	KeyImprovements  SectionKey = "improvements"
	KeyRewrites      SectionKey = "rewrites"
)

const (
	headingPrefix     = "## "
	markerBefore      = "**Before:**"
	markerAfter       = "**After:**"
	markerWhyBetter   = "**Why better:**"
	overallScoreLabel = "Overall Score:"
	matrixHeaderRow   = "| Skill Category | Strong Match | Partial Match | Missing But Important |"
	matrixRuleRow     = "|----------------|--------------|---------------|----------------------|"
)

// Heading 章节键与标题
type Heading struct {
	Key   SectionKey
	Title string
}

// Headings 报告章节, 顺序即输出顺序
var Headings = []Heading{
	{KeyQuickSummary, "QUICK SUMMARY (TL;DR)"},
	{KeyResumeScore, "RESUME SCORE & BREAKDOWN"},
	{KeyRoleFit, "ROLE FIT ANALYSIS"},
	{KeySkillGap, "SKILL GAP MATRIX"},
	{KeyHiringManager, "HIRING MANAGER SIMULATION"},
	{KeyRisks, "RESUME RISK DETECTION"},
	{KeyImprovements, "IMPROVEMENT ACTIONS (PRIORITIZED)"},
	{KeyRewrites, "EXAMPLE REWRITES"},
}

// HeadingLine 返回某个章节的完整标题行
func HeadingLine(key SectionKey) string {
	for _, h := range Headings {
		if h.Key == key {
			return headingPrefix + h.Title
		}
	}
	return ""
}

// matchHeading 识别标题行, 允许标题前有 emoji 或其他符号, 大小写不敏感
func matchHeading(line string) (SectionKey, bool) {
	if !strings.HasPrefix(line, headingPrefix) {
		return "", false
	}
	rest := strings.TrimLeftFunc(line[len(headingPrefix):], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	upper := strings.ToUpper(strings.TrimSpace(rest))
	for _, h := range Headings {
		if strings.HasPrefix(upper, h.Title) {
			return h.Key, true
		}
	}
	return "", false
}
