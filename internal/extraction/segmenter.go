package extraction

import (
	"regexp"
	"strings"

	"resume-advisor/internal/types"
)

// headingRule 一个章节同义标题规则: 标题关键词 + 终止关键词
type headingRule struct {
	// scan 用于定位章节起点, 跨行匹配
	scan *regexp.Regexp
	// boundary 用于寻找其他章节的起点, 不跨行
	boundary *regexp.Regexp
}

// 末尾的 \n?\z 对应 "文本结束或结束前的最后一个换行"
func newHeadingRule(headings, terminators string) headingRule {
	body := `(` + headings + `).*?(` + terminators + `|\n?\z)`
	return headingRule{
		scan:     regexp.MustCompile(`(?is)` + body),
		boundary: regexp.MustCompile(`(?i)` + body),
	}
}

var sectionRules = map[types.SectionName][]headingRule{
	types.SectionEducation: {
		newHeadingRule(`education|academic|qualifications`, `experience|skills|projects|certifications`),
		newHeadingRule(`school|university|degree|diploma|bachelor|master|phd`, `experience|skills|projects|certifications`),
	},
	types.SectionSkills: {
		newHeadingRule(`skills|technologies|competencies|technical skills`, `experience|projects|education|certifications`),
		newHeadingRule(`technical|programming|languages|frameworks|tools`, `experience|projects|education|certifications`),
	},
	types.SectionExperience: {
		newHeadingRule(`experience|work experience|employment|professional experience`, `skills|projects|education|certifications`),
		newHeadingRule(`professional|career|job|position|employment`, `skills|projects|education|certifications`),
	},
	types.SectionProjects: {
		newHeadingRule(`projects|portfolio|personal projects`, `experience|skills|education|certifications`),
	},
	types.SectionCertifications: {
		newHeadingRule(`certifications|certificates|credentials|licenses`, `experience|skills|projects|education`),
	},
}

// SegmentSections 按标题关键词切分章节
// 每条同义规则独立匹配, 命中即保留一段, 同一章节可能出现重叠或重复片段
// 片段起点为整个匹配(含终止关键词)的结束位置, 终点为其他章节规则在其后最近的起点
func SegmentSections(text string) map[types.SectionName][]string {
	sections := make(map[types.SectionName][]string, len(types.CanonicalSections))

	for _, name := range types.CanonicalSections {
		spans := []string{}
		for _, rule := range sectionRules[name] {
			loc := rule.scan.FindStringIndex(text)
			if loc == nil {
				continue
			}
			start := loc[1]
			end := nextSectionStart(text, start, name)

			span := strings.TrimSpace(text[start:end])
			if span != "" {
				spans = append(spans, span)
			}
		}
		sections[name] = spans
	}

	return sections
}

// nextSectionStart 在 text[start:] 中寻找任意其他章节规则的最早起点
func nextSectionStart(text string, start int, current types.SectionName) int {
	end := len(text)
	rest := text[start:]
	for _, other := range types.CanonicalSections {
		if other == current {
			continue
		}
		for _, rule := range sectionRules[other] {
			if loc := rule.boundary.FindStringIndex(rest); loc != nil && start+loc[0] < end {
				end = start + loc[0]
			}
		}
	}
	return end
}
