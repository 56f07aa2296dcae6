// Package analyzer 基于结构化记录的评分、风险检测、招聘经理模拟与改写建议
// 所有函数都是纯函数, 不持有可变状态, 可并发调用
package analyzer

import (
	"math"
	"regexp"
	"sort"

	"resume-advisor/internal/types"
)

const (
	maxComponentScore    = 25
	defaultRoleAlignment = 10
	pointsPerMetric      = 5
	pointsPerProject     = 8
	atsSignalCount       = 5
)

// metricPatterns 百分比, 金额/大数, 量级词, 排名 #N, top N
var metricPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+%`),
	regexp.MustCompile(`(?i)\$?\d+,?\d+`),
	regexp.MustCompile(`(?i)\d+\s*(?:million|thousand|hundred)`),
	regexp.MustCompile(`(?i)#\d+`),
	regexp.MustCompile(`(?i)top\s*\d+`),
}

// atsSections 参与 ATS 评分的章节
var atsSections = []types.SectionName{
	types.SectionExperience,
	types.SectionSkills,
	types.SectionEducation,
	types.SectionProjects,
}

// Score 计算四项子分
func Score(record *types.StructuredRecord, jobCategory string) types.ScoreComponents {
	return types.ScoreComponents{
		RoleAlignment:    roleAlignment(record.Skills.Technical, JobKeywords(jobCategory)),
		ImpactClarity:    impactClarity(record.RawText),
		ATSFriendly:      atsFriendliness(record),
		ProjectRelevance: min(maxComponentScore, len(record.Projects)*pointsPerProject),
	}
}

// roleAlignment 技术技能命中岗位关键词的比例 * 25, 四舍六入五成双
func roleAlignment(technical, keywords []string) int {
	if len(keywords) == 0 {
		return defaultRoleAlignment
	}
	kwSet := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kwSet[kw] = struct{}{}
	}
	matched := 0
	for _, skill := range technical {
		if _, ok := kwSet[skill]; ok {
			matched++
		}
	}
	score := math.Min(maxComponentScore, float64(matched)/float64(len(keywords))*maxComponentScore)
	return int(math.RoundToEven(score))
}

// CountMetrics 统计原文中的量化指标
// 多个模式命中同一段文字(如 "40%" 同时命中百分比和数字模式)只计一次
func CountMetrics(text string) int {
	var spans [][]int
	for _, re := range metricPatterns {
		spans = append(spans, re.FindAllStringIndex(text, -1)...)
	}
	if len(spans) == 0 {
		return 0
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i][0] != spans[j][0] {
			return spans[i][0] < spans[j][0]
		}
		return spans[i][1] < spans[j][1]
	})

	count := 1
	clusterEnd := spans[0][1]
	for _, s := range spans[1:] {
		if s[0] < clusterEnd {
			if s[1] > clusterEnd {
				clusterEnd = s[1]
			}
			continue
		}
		count++
		clusterEnd = s[1]
	}
	return count
}

func impactClarity(rawText string) int {
	return min(maxComponentScore, CountMetrics(rawText)*pointsPerMetric)
}

// atsFriendliness 四个章节是否非空 + 是否有邮箱或电话, 共5项
func atsFriendliness(record *types.StructuredRecord) int {
	present := 0
	for _, name := range atsSections {
		if record.HasSection(name) {
			present++
		}
	}
	if record.ContactInfo.HasEmailOrPhone() {
		present++
	}
	score := math.Min(maxComponentScore, float64(present)/atsSignalCount*maxComponentScore)
	return int(math.RoundToEven(score))
}
