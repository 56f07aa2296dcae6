package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"resume-advisor/internal/types"
)

const (
	bulletMinLength     = 10
	bulletMaxLength     = 200
	markedBulletMin     = 15
	projectLineMin      = 20
	projectLookahead    = 5
	impactClause        = ", resulting in improved performance and user satisfaction"
	bulletExplanation   = "The improved version uses strong action verbs, adds quantifiable impact, and relates directly to the target role."
	projectExplanation  = "The improved version follows the problem-solution-result format, which clearly demonstrates impact and outcomes."
	projectRewriteShape = "Problem: Identified an opportunity to improve [specific challenge] in [context]. " +
		"Solution: Designed and implemented [approach/technology/solution] to address the challenge. " +
		"Result: Achieved [quantifiable outcome] and [business impact]."
)

// weakExpressions 弱表达, 子串匹配
var weakExpressions = []string{
	"worked on", "was responsible for", "helped with", "part of", "did",
	"made", "created", "used", "implemented", "developed",
}

// weakLeadIns 出现在句首时会被替换为强动词
var weakLeadIns = []string{"worked on", "was responsible for", "helped with", "part of", "did", "made"}

var bulletMarkers = []string{"- ", "* ", "• ", "◦ "}

var projectCues = []string{"project", "portfolio", "case study"}

// SuggestRewrites 找一条弱经历条目和一段项目描述并给出改写; 找不到的项为 nil
func SuggestRewrites(rawText, jobCategory string) types.RewriteSuggestions {
	lines := strings.Split(rawText, "\n")
	var out types.RewriteSuggestions

	if bullet, ok := findWeakBullet(lines); ok {
		out.ExperienceBullet = &types.Rewrite{
			Original:    bullet,
			Improved:    ImproveBullet(bullet, jobCategory),
			Explanation: bulletExplanation,
		}
	}
	if desc, ok := findProjectDescription(lines); ok {
		out.ProjectDescription = &types.Rewrite{
			Original:    desc,
			Improved:    projectRewriteShape,
			Explanation: projectExplanation,
		}
	}
	return out
}

// findWeakBullet 先找含弱表达的行, 找不到再找带项目符号的行
func findWeakBullet(lines []string) (string, bool) {
	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if !containsAny(lower, weakExpressions) {
			continue
		}
		if n := utf8.RuneCountInString(line); n > bulletMinLength && n < bulletMaxLength {
			return strings.TrimSpace(line), true
		}
	}
	for _, line := range lines {
		clean := strings.TrimSpace(line)
		if hasBulletMarker(clean) && utf8.RuneCountInString(clean) > markedBulletMin {
			return clean, true
		}
	}
	return "", false
}

// findProjectDescription 第一个包含项目关键词的行之后5行内, 第一条足够长的行
func findProjectDescription(lines []string) (string, bool) {
	for i, line := range lines {
		if !containsAny(strings.ToLower(line), projectCues) {
			continue
		}
		for j := i + 1; j < len(lines) && j <= i+projectLookahead; j++ {
			candidate := strings.TrimSpace(lines[j])
			if utf8.RuneCountInString(candidate) > projectLineMin {
				return candidate, true
			}
		}
		return "", false
	}
	return "", false
}

// ImproveBullet 去掉弱开头并以岗位强动词开头, 提到系统/应用/软件且没有改进词时补充影响描述
func ImproveBullet(original, jobCategory string) string {
	verbs := ActionVerbs(jobCategory)
	lead := verbs[0]

	base := stripBulletMarker(original)
	improved := base
	lower := strings.ToLower(base)
	for _, weak := range weakLeadIns {
		if strings.HasPrefix(lower, weak) {
			improved = lead + " " + strings.TrimSpace(base[len(weak):])
			break
		}
	}

	improvedLower := strings.ToLower(improved)
	if !strings.Contains(improvedLower, "improved") && !strings.Contains(improvedLower, "increased") &&
		containsAny(improvedLower, []string{"application", "system", "software"}) {
		improved += impactClause
	}

	for _, v := range verbs {
		if strings.HasPrefix(improved, v) {
			return improved
		}
	}
	return lead + " " + lowerFirst(improved)
}

func stripBulletMarker(s string) string {
	for _, m := range bulletMarkers {
		if strings.HasPrefix(s, m) {
			return strings.TrimSpace(s[len(m):])
		}
	}
	return s
}

func hasBulletMarker(s string) bool {
	for _, m := range bulletMarkers {
		if strings.HasPrefix(s, m) {
			return true
		}
	}
	return false
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || utf8.RuneCountInString(s) < 2 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
