package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"resume-advisor/internal/types"
)

const (
	projectMinLength      = 20
	projectDescriptionMax = 200
)

// projectScanner 某个项目关键词的起点与终止规则
type projectScanner struct {
	keyword *regexp.Regexp
	stop    *regexp.Regexp
}

var projectScanners = buildProjectScanners()

var projectEntrySplitter = regexp.MustCompile(`\n\s*\n|\n\d+\.|•`)

func buildProjectScanners() []projectScanner {
	scanners := make([]projectScanner, 0, len(projectKeywords))
	for _, kw := range projectKeywords {
		stops := []string{}
		for _, other := range projectKeywords {
			if other != kw {
				stops = append(stops, other)
			}
		}
		stops = append(stops, "education", "skills", "experience")
		scanners = append(scanners, projectScanner{
			keyword: regexp.MustCompile(`(?i)` + kw),
			stop:    regexp.MustCompile(`(?i)` + strings.Join(stops, "|")),
		})
	}
	return scanners
}

// ExtractProjects 收集所有项目关键词之后的文本, 按空行/编号/项目符号切分
// 长度超过20的片段作为项目, 描述截断到200字符
func ExtractProjects(text string) []types.ProjectEntry {
	captures := []string{}
	for _, s := range projectScanners {
		captures = append(captures, s.scan(text)...)
	}

	projects := []types.ProjectEntry{}
	if len(captures) == 0 {
		return projects
	}

	joined := strings.Join(captures, " ")
	for _, fragment := range projectEntrySplitter.Split(joined, -1) {
		fragment = strings.TrimSpace(fragment)
		if utf8.RuneCountInString(fragment) <= projectMinLength {
			continue
		}
		projects = append(projects, types.ProjectEntry{
			Title:        types.PlaceholderProjectTitle,
			Description:  truncateDescription(fragment),
			Technologies: []string{},
			Impact:       types.PlaceholderImpact,
		})
	}
	return projects
}

// scan 返回从关键词开始到下一个终止词(或文本末尾)之间的所有片段, 片段互不重叠
func (s projectScanner) scan(text string) []string {
	var out []string
	textEnd := len(text)
	if strings.HasSuffix(text, "\n") {
		textEnd = len(text) - 1
	}

	pos := 0
	for pos < len(text) {
		loc := s.keyword.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		bodyStart := pos + loc[1]

		end := len(text)
		if textEnd >= bodyStart {
			end = textEnd
		}
		if stop := s.stop.FindStringIndex(text[bodyStart:]); stop != nil && bodyStart+stop[0] < end {
			end = bodyStart + stop[0]
		}

		out = append(out, text[start:end])
		pos = end
	}
	return out
}

func truncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= projectDescriptionMax {
		return s
	}
	runes := []rune(s)
	return string(runes[:projectDescriptionMax]) + "..."
}
