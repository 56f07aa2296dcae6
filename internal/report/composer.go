package report

import (
	"fmt"
	"strings"

	"resume-advisor/internal/types"
)

// Input 组装报告所需的全部结果
type Input struct {
	JobCategory string
	JobKeywords []string
	Record      *types.StructuredRecord
	Components  types.ScoreComponents
	Risks       []types.RiskFinding
	Simulation  types.HiringSimulation
	Rewrites    types.RewriteSuggestions
}

const maxImprovementActions = 5

// Compose 按固定章节顺序组装报告; 相同输入产生逐字节相同的输出
func Compose(in Input) string {
	bodies := map[SectionKey]string{
		KeyQuickSummary:  quickSummary(in),
		KeyResumeScore:   scoreBreakdown(in.Components),
		KeyRoleFit:       roleFit(in),
		KeySkillGap:      skillGapMatrix(in),
		KeyHiringManager: hiringManager(in.Simulation),
		KeyRisks:         riskDetection(in.Risks),
		KeyImprovements:  improvementActions(in),
		KeyRewrites:      exampleRewrites(in.Rewrites),
	}

	var b strings.Builder
	for i, h := range Headings {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(headingPrefix + h.Title + "\n")
		b.WriteString(bodies[h.Key] + "\n")
	}
	return b.String()
}

func quickSummary(in Input) string {
	rec := in.Record
	var lines []string

	if tech := rec.Skills.Technical; len(tech) > 0 {
		lines = append(lines, fmt.Sprintf("- Technical skills relevant to %s detected: %s", in.JobCategory, joinFirst(tech, 5)))
	} else {
		lines = append(lines, fmt.Sprintf("- No recognized technical skills for %s detected", in.JobCategory))
	}
	lines = append(lines, fmt.Sprintf("- Extracted %d experience entries, %d projects and %d education entries",
		len(rec.Experience), len(rec.Projects), len(rec.Education)))

	switch impact := in.Components.ImpactClarity; {
	case impact == 0:
		lines = append(lines, "- Lacks quantifiable achievements and metrics")
	case impact < 15:
		lines = append(lines, "- Some quantifiable achievements, but more metrics would strengthen impact")
	default:
		lines = append(lines, "- Strong use of quantifiable achievements and metrics")
	}

	if len(in.Risks) == 0 {
		lines = append(lines, "- No major red flags detected")
	} else {
		names := make([]string, 0, len(in.Risks))
		for _, r := range in.Risks {
			names = append(names, r.Type)
		}
		lines = append(lines, fmt.Sprintf("- %d potential red flag(s) detected: %s", len(in.Risks), strings.Join(names, ", ")))
	}
	lines = append(lines, fmt.Sprintf("- Simulated shortlist decision: %s", in.Simulation.Decision))

	return strings.Join(lines, "\n")
}

func scoreBreakdown(c types.ScoreComponents) string {
	return strings.Join([]string{
		fmt.Sprintf("%s %d/100", overallScoreLabel, c.Total()),
		fmt.Sprintf("- Role Alignment: %d/25", c.RoleAlignment),
		fmt.Sprintf("- Impact Clarity: %d/25", c.ImpactClarity),
		fmt.Sprintf("- ATS Friendliness: %d/25", c.ATSFriendly),
		fmt.Sprintf("- Project Relevance: %d/25", c.ProjectRelevance),
	}, "\n")
}

// splitKeywords 按技能顺序给出命中项, 按关键词顺序给出缺失项
func splitKeywords(technical, keywords []string) (matched, missing []string) {
	have := make(map[string]struct{}, len(technical))
	for _, t := range technical {
		have[t] = struct{}{}
	}
	kw := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		kw[k] = struct{}{}
		if _, ok := have[k]; !ok {
			missing = append(missing, k)
		}
	}
	for _, t := range technical {
		if _, ok := kw[t]; ok {
			matched = append(matched, t)
		}
	}
	return matched, missing
}

func roleFit(in Input) string {
	lines := []string{fmt.Sprintf("Target role: %s", in.JobCategory)}
	if len(in.JobKeywords) == 0 {
		lines = append(lines, fmt.Sprintf("- No keyword profile is defined for this role; role alignment uses the default score of %d/25",
			in.Components.RoleAlignment))
		return strings.Join(lines, "\n")
	}

	matched, missing := splitKeywords(in.Record.Skills.Technical, in.JobKeywords)
	lines = append(lines,
		fmt.Sprintf("- Matched keywords (%d/%d): %s", len(matched), len(in.JobKeywords), orDefault(matched, len(matched), "none")),
		fmt.Sprintf("- Missing keywords: %s", orDefault(missing, len(missing), "none")),
		fmt.Sprintf("- Role alignment score: %d/25", in.Components.RoleAlignment),
	)
	return strings.Join(lines, "\n")
}

func skillGapMatrix(in Input) string {
	skills := in.Record.Skills

	missingTech := "Various"
	if len(in.JobKeywords) > 0 {
		_, missing := splitKeywords(skills.Technical, in.JobKeywords)
		missingTech = orDefault(missing, 3, "None")
	}

	rows := []string{
		matrixHeaderRow,
		matrixRuleRow,
		matrixRow("Technical Skills", skills.Technical, missingTech),
		matrixRow("Tools & Technologies", skills.Tools, "Various industry tools"),
		matrixRow("Soft Skills", skills.SoftSkills, "Leadership, communication skills"),
	}
	return strings.Join(rows, "\n")
}

// matrixRow 前两项为强匹配, 第3-4项为部分匹配
func matrixRow(label string, items []string, missing string) string {
	strong := orDefault(items, 2, "None")
	partial := "Few"
	if len(items) > 2 {
		partial = strings.Join(items[2:min(4, len(items))], ", ")
	}
	return fmt.Sprintf("| %s | %s | %s | %s |", label, strong, partial, missing)
}

func hiringManager(sim types.HiringSimulation) string {
	return strings.Join([]string{
		"Simulating a 30-second review by a hiring manager:",
		"- First impression: " + orDefault(sim.FirstImpression, len(sim.FirstImpression), "Nothing notable", "; "),
		"- What stands out: " + orDefault(sim.StandsOut, len(sim.StandsOut), "Nothing specific stands out", "; "),
		"- What raises doubts: " + orDefault(sim.RaisesDoubts, len(sim.RaisesDoubts), "No major doubts", "; "),
		fmt.Sprintf("- Shortlist decision: %s (%s)", sim.Decision, strings.Join(sim.Reasoning, "; ")),
	}, "\n")
}

func riskDetection(risks []types.RiskFinding) string {
	lines := []string{"Potential red flags identified:"}
	if len(risks) == 0 {
		lines = append(lines, "- No red flags detected")
	}
	for _, r := range risks {
		lines = append(lines, fmt.Sprintf("- [%s] %s: %s", strings.ToUpper(string(r.Severity)), r.Type, r.Description))
	}
	return strings.Join(lines, "\n")
}

// improvementActions 先按子分从低到高给出对应建议, 再按规则顺序补充风险建议, 最多5条
func improvementActions(in Input) string {
	type scored struct {
		score  int
		action string
	}
	c := in.Components
	candidates := []scored{
		{c.ImpactClarity, "Add 3-5 quantifiable achievements with specific metrics (percentages, revenue, users served)"},
		{c.RoleAlignment, fmt.Sprintf("Include more keywords relevant to %s in skills and experience descriptions", in.JobCategory)},
		{c.ATSFriendly, "Use standard section headings (Experience, Skills, Education, Projects) and list an email or phone number"},
		{c.ProjectRelevance, "Add 2-3 projects written in problem-solution-result format"},
	}
	// 稳定的插入排序, 同分保持原顺序
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score < candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	var actions []string
	for _, cand := range candidates {
		if cand.score < 25 {
			actions = append(actions, cand.action)
		}
	}
	for _, r := range in.Risks {
		if a, ok := riskActions[r.Type]; ok {
			actions = append(actions, a)
		}
	}
	for _, filler := range []string{
		"Strengthen experience descriptions with impact-focused language",
		fmt.Sprintf("Tailor the summary and top bullets to the %s role", in.JobCategory),
		"Proofread for consistency in dates, tense and formatting",
	} {
		if len(actions) >= 3 {
			break
		}
		actions = append(actions, filler)
	}
	if len(actions) > maxImprovementActions {
		actions = actions[:maxImprovementActions]
	}

	lines := make([]string, 0, len(actions))
	for i, a := range actions {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, a))
	}
	return strings.Join(lines, "\n")
}

var riskActions = map[string]string{
	"Skill Dumping":            "Trim the skills list to technologies backed by experience or projects",
	"Buzzword Overload":        "Replace buzzwords with concrete examples and results",
	"Unrealistic Tech Breadth": "Focus on the core technologies for the target role and show depth in each",
	"Invalid Timeline":         "Correct future dates in the employment and education timeline",
	"Timeline Concern":         "Verify early dates in the timeline and remove outdated entries",
	"Possible Typos":           "Proofread for misspellings and repeated characters",
	"Poor Formatting":          "Separate sections with blank lines and consistent spacing",
}

func exampleRewrites(r types.RewriteSuggestions) string {
	var blocks []string
	for _, rw := range []*types.Rewrite{r.ExperienceBullet, r.ProjectDescription} {
		if rw == nil {
			continue
		}
		blocks = append(blocks, strings.Join([]string{
			markerBefore + " " + rw.Original,
			markerAfter + " " + rw.Improved,
			markerWhyBetter + " " + rw.Explanation,
		}, "\n"))
	}
	if len(blocks) == 0 {
		return "No suitable experience bullet or project description was found to rewrite."
	}
	return strings.Join(blocks, "\n\n")
}

func joinFirst(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}

// orDefault 取前 n 项拼接, 为空时返回默认值; 可选分隔符默认 ", "
func orDefault(items []string, n int, fallback string, sep ...string) string {
	if len(items) == 0 {
		return fallback
	}
	if len(items) > n {
		items = items[:n]
	}
	s := ", "
	if len(sep) > 0 {
		s = sep[0]
	}
	return strings.Join(items, s)
}
