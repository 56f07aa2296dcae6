package extraction

import (
	"regexp"
	"strings"

	"resume-advisor/internal/types"
)

const (
	degreeWords     = `Bachelor|Master|PhD|Doctorate|Degree|Diploma|Certificate`
	degreeAcronyms  = `BS|MS|MBA|PhD|BA|MA`
	institutionWord = `[A-Z][a-zA-Z\s]+University|[A-Z][a-zA-Z\s]+College|[A-Z][a-zA-Z\s]+Institute`
)

// 四种变体依次匹配, 区分大小写
var educationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(` + degreeWords + `).*?(` + institutionWord + `)`),
	regexp.MustCompile(`(` + institutionWord + `).*?(` + degreeWords + `)`),
	regexp.MustCompile(`(` + degreeAcronyms + `).*?(` + institutionWord + `)`),
	regexp.MustCompile(`(` + institutionWord + `).*?(` + degreeAcronyms + `)`),
}

// ExtractEducation 提取 学位/院校 对; 缺少任一项的匹配直接丢弃, 不去重
func ExtractEducation(text string) []types.EducationEntry {
	entries := []types.EducationEntry{}
	for _, re := range educationPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			groups := m[1:]
			degree := firstMatching(groups, containsDegreeToken)
			institution := firstMatching(groups, containsInstitutionToken)
			if degree == "" || institution == "" {
				continue
			}
			entries = append(entries, types.EducationEntry{
				Degree:      strings.TrimSpace(degree),
				Institution: strings.TrimSpace(institution),
				Field:       types.PlaceholderField,
				Year:        types.PlaceholderYear,
			})
		}
	}
	return entries
}

func firstMatching(groups []string, pred func(string) bool) string {
	for _, g := range groups {
		if pred(g) {
			return g
		}
	}
	return ""
}

func containsDegreeToken(s string) bool {
	upper := strings.ToUpper(s)
	for _, tok := range degreeTokens {
		if strings.Contains(upper, tok) {
			return true
		}
	}
	return false
}

func containsInstitutionToken(s string) bool {
	lower := strings.ToLower(s)
	for _, tok := range institutionTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
