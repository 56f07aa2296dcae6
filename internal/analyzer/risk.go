package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"resume-advisor/internal/types"
)

const (
	skillDumpingThreshold   = 15
	techBreadthThreshold    = 10
	buzzwordThreshold       = 3
	buzzwordListLimit       = 5
	typoThreshold           = 2
	minExperienceForBreadth = 2
	latestPlausibleYear     = 2026
	earliestPlausibleYear   = 1980
)

// 风险类型
const (
	RiskSkillDumping     = "Skill Dumping"
	RiskBuzzwordOverload = "Buzzword Overload"
	RiskTechBreadth      = "Unrealistic Tech Breadth"
	RiskInvalidTimeline  = "Invalid Timeline"
	RiskTimelineConcern  = "Timeline Concern"
	RiskPossibleTypos    = "Possible Typos"
	RiskPoorFormatting   = "Poor Formatting"
)

var buzzwords = []string{
	"synergize", "paradigm", "disruptive", "cutting-edge", "innovative",
	"proactive", "dynamic", "robust", "scalable", "agile",
}

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}\b`),
		regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{4}\b`),
	}
	yearPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	wordPattern = regexp.MustCompile(`\w+`)
)

// DetectRisks 六条规则独立判断, 按固定顺序返回命中的风险
func DetectRisks(record *types.StructuredRecord) []types.RiskFinding {
	risks := []types.RiskFinding{}
	for _, rule := range []func(*types.StructuredRecord) *types.RiskFinding{
		checkSkillDumping,
		checkBuzzwords,
		checkTechBreadth,
		checkTimeline,
		checkTypos,
		checkFormatting,
	} {
		if finding := rule(record); finding != nil {
			risks = append(risks, *finding)
		}
	}
	return risks
}

func checkSkillDumping(record *types.StructuredRecord) *types.RiskFinding {
	total := record.Skills.Total()
	if total <= skillDumpingThreshold || len(record.Experience) >= minExperienceForBreadth {
		return nil
	}
	return &types.RiskFinding{
		Type: RiskSkillDumping,
		Description: fmt.Sprintf("Listed %d skills but only has %d experience entries - appears to be skill dumping without evidence of use.",
			total, len(record.Experience)),
		Severity: types.SeverityHigh,
	}
}

func checkBuzzwords(record *types.StructuredRecord) *types.RiskFinding {
	lower := strings.ToLower(record.RawText)
	var found []string
	for _, bw := range buzzwords {
		if strings.Contains(lower, bw) {
			found = append(found, bw)
		}
	}
	if len(found) <= buzzwordThreshold {
		return nil
	}
	listed := found
	if len(listed) > buzzwordListLimit {
		listed = listed[:buzzwordListLimit]
	}
	return &types.RiskFinding{
		Type: RiskBuzzwordOverload,
		Description: fmt.Sprintf("Detected %d buzzwords (%s) - lacks specific, concrete examples.",
			len(found), strings.Join(listed, ", ")),
		Severity: types.SeverityMedium,
	}
}

func checkTechBreadth(record *types.StructuredRecord) *types.RiskFinding {
	n := len(record.Skills.Technical)
	if n <= techBreadthThreshold || len(record.Experience) >= minExperienceForBreadth {
		return nil
	}
	return &types.RiskFinding{
		Type: RiskTechBreadth,
		Description: fmt.Sprintf("Lists %d technical skills but has limited work experience - difficult to gain proficiency in all these technologies.",
			n),
		Severity: types.SeverityHigh,
	}
}

// ExtractYears 从日期形态的文本中提取 19xx/20xx 年份
func ExtractYears(text string) []int {
	var years []int
	for _, re := range datePatterns {
		for _, date := range re.FindAllString(text, -1) {
			y := yearPattern.FindString(date)
			if y == "" {
				continue
			}
			if v, err := strconv.Atoi(y); err == nil {
				years = append(years, v)
			}
		}
	}
	return years
}

// checkTimeline 未来年份优先, 与过早年份互斥
func checkTimeline(record *types.StructuredRecord) *types.RiskFinding {
	years := ExtractYears(record.RawText)
	if len(years) == 0 {
		return nil
	}
	minYear, maxYear := years[0], years[0]
	for _, y := range years[1:] {
		minYear = min(minYear, y)
		maxYear = max(maxYear, y)
	}

	switch {
	case maxYear > latestPlausibleYear:
		return &types.RiskFinding{
			Type:        RiskInvalidTimeline,
			Description: fmt.Sprintf("Found future dates (%d) in resume.", maxYear),
			Severity:    types.SeverityHigh,
		}
	case minYear < earliestPlausibleYear:
		return &types.RiskFinding{
			Type:        RiskTimelineConcern,
			Description: fmt.Sprintf("Found very early dates (%d), possibly indicating inaccurate timeline.", minYear),
			Severity:    types.SeverityMedium,
		}
	}
	return nil
}

// CountRepeatedCharWords 统计含有同一字符(字母、数字或下划线)连续出现3次及以上的单词
func CountRepeatedCharWords(text string) int {
	count := 0
	for _, word := range wordPattern.FindAllString(text, -1) {
		if hasTripleRun(word) {
			count++
		}
	}
	return count
}

func hasTripleRun(word string) bool {
	var prev rune
	run := 0
	for _, r := range word {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= 3 {
			return true
		}
	}
	return false
}

func checkTypos(record *types.StructuredRecord) *types.RiskFinding {
	n := CountRepeatedCharWords(record.RawText)
	if n <= typoThreshold {
		return nil
	}
	return &types.RiskFinding{
		Type:        RiskPossibleTypos,
		Description: fmt.Sprintf("Detected %d potential typos (words with repeated letters).", n),
		Severity:    types.SeverityMedium,
	}
}

func checkFormatting(record *types.StructuredRecord) *types.RiskFinding {
	if strings.Contains(record.RawText, "\t") || strings.Contains(record.RawText, "\n\n") {
		return nil
	}
	return &types.RiskFinding{
		Type:        RiskPoorFormatting,
		Description: "Resume appears to have poor formatting with insufficient spacing.",
		Severity:    types.SeverityLow,
	}
}
