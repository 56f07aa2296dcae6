package report

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"resume-advisor/internal/types"
)

// ErrMissingSection 报告缺少必需章节
var ErrMissingSection = errors.New("报告缺少必需章节")

var overallScorePattern = regexp.MustCompile(`Overall Score:\s*(\d+)\s*/\s*100`)

// requiredSections 外部生成的报告至少要包含这些章节
var requiredSections = []SectionKey{KeyQuickSummary, KeyResumeScore, KeyRewrites}

// Sections 解析后的章节内容
type Sections map[SectionKey]string

// Parse 按标题切分报告; 章节内容为两个标题之间的文本(去掉首尾空白)
// 未出现的标题视为不适用, 不报错; 重复标题只取第一次出现
// 不认识的 "## " 行按正文保留
func Parse(report string) Sections {
	sections := Sections{}
	var (
		current SectionKey
		active  bool
		body    []string
	)
	flush := func() {
		if !active {
			return
		}
		if _, seen := sections[current]; !seen {
			sections[current] = strings.TrimSpace(strings.Join(body, "\n"))
		}
		active, body = false, nil
	}

	for _, line := range strings.Split(report, "\n") {
		if strings.HasPrefix(line, headingPrefix) {
			if key, ok := matchHeading(strings.TrimRight(line, "\r")); ok {
				flush()
				current, active = key, true
				continue
			}
		}
		if active {
			body = append(body, line)
		}
	}
	flush()
	return sections
}

// OverallScore 从评分章节解析总分
func (s Sections) OverallScore() (int, bool) {
	m := overallScorePattern.FindStringSubmatch(s[KeyResumeScore])
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}

// Rewrites 解析改写章节中的 Before/After/Why better 三元组
func (s Sections) Rewrites() []types.Rewrite {
	body := s[KeyRewrites]
	var out []types.Rewrite
	parts := strings.Split(body, markerBefore)
	for _, part := range parts[1:] {
		before, rest, ok := strings.Cut(part, markerAfter)
		if !ok {
			continue
		}
		after, why, _ := strings.Cut(rest, markerWhyBetter)
		out = append(out, types.Rewrite{
			Original:    strings.TrimSpace(before),
			Improved:    strings.TrimSpace(after),
			Explanation: strings.TrimSpace(why),
		})
	}
	return out
}

// Validate 校验外部报告是否满足固定章节约定
func Validate(report string) (Sections, error) {
	sections := Parse(report)
	for _, key := range requiredSections {
		if strings.TrimSpace(sections[key]) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingSection, HeadingLine(key))
		}
	}
	if _, ok := sections.OverallScore(); !ok {
		return nil, fmt.Errorf("%w: %s 缺少 '%s N/100'", ErrMissingSection, HeadingLine(KeyResumeScore), overallScoreLabel)
	}
	return sections, nil
}

// Normalize 把带 emoji 或大小写不一致的标题改写为标准标题, 其余行原样保留
func Normalize(report string) string {
	lines := strings.Split(strings.ReplaceAll(report, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if key, ok := matchHeading(strings.TrimSpace(line)); ok {
			lines[i] = HeadingLine(key)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}
