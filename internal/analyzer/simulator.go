package analyzer

import (
	"fmt"
	"strings"

	"resume-advisor/internal/types"
)

// impactVocabulary 出现任意一个即认为有量化成果
var impactVocabulary = []string{"%", "$", "users", "customers", "increase", "decrease", "improve", "reduce"}

// SimulateHiringManager 模拟招聘经理30秒浏览
// 结论 = 亮点数 - 疑虑数: >1 YES, 0或1 MAYBE, <0 NO
func SimulateHiringManager(record *types.StructuredRecord) types.HiringSimulation {
	technical := record.Skills.Technical
	nExp := len(record.Experience)

	sim := types.HiringSimulation{
		FirstImpression: []string{},
		StandsOut:       []string{},
		RaisesDoubts:    []string{},
	}

	if len(technical) > 0 {
		sim.FirstImpression = append(sim.FirstImpression,
			fmt.Sprintf("Has some technical skills: %s", joinFirst(technical, 3)))
	} else {
		sim.FirstImpression = append(sim.FirstImpression, "Limited technical skills visible")
	}
	if nExp > 0 {
		sim.FirstImpression = append(sim.FirstImpression, fmt.Sprintf("Has %d role(s) of experience", nExp))
	} else {
		sim.FirstImpression = append(sim.FirstImpression, "Limited work experience shown")
	}

	switch {
	case len(technical) > 3:
		sim.StandsOut = append(sim.StandsOut, fmt.Sprintf("Impressive technical breadth: %s", joinFirst(technical, 3)))
	case len(technical) > 0:
		sim.StandsOut = append(sim.StandsOut, fmt.Sprintf("Relevant technical skills: %s", joinFirst(technical, 2)))
	}
	if nExp > 2 {
		sim.StandsOut = append(sim.StandsOut, fmt.Sprintf("Solid experience with %d positions", nExp))
	}

	if !mentionsImpact(record.RawText) {
		sim.RaisesDoubts = append(sim.RaisesDoubts, "No quantifiable metrics or achievements")
	}
	if len(technical) > 8 && nExp < 2 {
		sim.RaisesDoubts = append(sim.RaisesDoubts, "Many skills but limited experience - seems unrealistic")
	}
	if len(record.Projects) == 0 {
		sim.RaisesDoubts = append(sim.RaisesDoubts, "No projects to demonstrate practical application")
	}

	switch balance := len(sim.StandsOut) - len(sim.RaisesDoubts); {
	case balance > 1:
		sim.Decision = types.DecisionYes
		sim.Reasoning = []string{"Positive indicators outweigh concerns"}
	case balance >= 0:
		sim.Decision = types.DecisionMaybe
		sim.Reasoning = []string{"Mixed signals, could be viable with improvements"}
	default:
		sim.Decision = types.DecisionNo
		sim.Reasoning = []string{"Concerns outweigh positive aspects"}
	}
	return sim
}

func mentionsImpact(rawText string) bool {
	lower := strings.ToLower(rawText)
	for _, v := range impactVocabulary {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}

func joinFirst(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}
