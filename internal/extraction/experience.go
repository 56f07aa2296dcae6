package extraction

import (
	"regexp"
	"strings"

	"resume-advisor/internal/types"
)

// rolePhrase 大写开头的职位短语, 以职位名词结尾
var rolePhrase = `[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s*(?:` + strings.Join(roleNouns, "|") + `)`

var (
	// "<职位> at <公司>"
	experiencePrimary = regexp.MustCompile(`(` + rolePhrase + `)\s*at\s*([A-Z][a-zA-Z\s&\-0-9]*)`)

	// 主模式无结果时依次尝试
	experienceFallbacks = []*regexp.Regexp{
		regexp.MustCompile(`(` + rolePhrase + `).*?([A-Z][a-zA-Z\s&\-0-9]+)(?:,|\n)`),
		regexp.MustCompile(`([A-Z][a-zA-Z\s&\-0-9]+).*?(` + rolePhrase + `)`),
	}
)

// ExtractExperience 提取 职位/公司 对, 时长与影响力不解析, 使用占位文本
func ExtractExperience(text string) []types.ExperienceEntry {
	entries := []types.ExperienceEntry{}

	for _, m := range experiencePrimary.FindAllStringSubmatch(text, -1) {
		entries = append(entries, newExperienceEntry(m[1], m[2]))
	}
	if len(entries) > 0 {
		return entries
	}

	for _, re := range experienceFallbacks {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			role, company := m[1], m[2]
			// 第一个分组不像职位时交换
			if !looksLikeRole(role) {
				role, company = company, role
			}
			entries = append(entries, newExperienceEntry(role, company))
		}
	}
	return entries
}

func looksLikeRole(s string) bool {
	lower := strings.ToLower(s)
	for _, hint := range roleHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func newExperienceEntry(role, company string) types.ExperienceEntry {
	return types.ExperienceEntry{
		Role:     strings.TrimSpace(role),
		Company:  strings.TrimSpace(company),
		Duration: types.PlaceholderDuration,
		Impact:   types.PlaceholderImpact,
	}
}
