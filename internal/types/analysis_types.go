package types

// ScoreComponents 四个子分, 每项 0-25
type ScoreComponents struct {
	RoleAlignment    int `json:"role_alignment"`
	ImpactClarity    int `json:"impact_clarity"`
	ATSFriendly      int `json:"ats_friendly"`
	ProjectRelevance int `json:"project_relevance"`
}

// Total 总分即四项之和, 不做归一化
func (s ScoreComponents) Total() int {
	return s.RoleAlignment + s.ImpactClarity + s.ATSFriendly + s.ProjectRelevance
}

// Severity 风险等级
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RiskFinding 一条风险提示
type RiskFinding struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// ShortlistDecision 模拟招聘经理的三档结论
type ShortlistDecision string

const (
	DecisionYes   ShortlistDecision = "YES - Worth a closer look"
	DecisionMaybe ShortlistDecision = "MAYBE - Needs improvement but potential"
	DecisionNo    ShortlistDecision = "NO - Significant improvements needed"
)

// HiringSimulation 30秒快速浏览的模拟结果
type HiringSimulation struct {
	FirstImpression []string          `json:"first_impression"`
	StandsOut       []string          `json:"stands_out"`
	RaisesDoubts    []string          `json:"raises_doubts"`
	Decision        ShortlistDecision `json:"decision"`
	Reasoning       []string          `json:"reasoning"`
}

// Rewrite 改写前后对照
type Rewrite struct {
	Original    string `json:"original"`
	Improved    string `json:"improved"`
	Explanation string `json:"explanation"`
}

// RewriteSuggestions 经历条目和项目描述各一条, 找不到时为 nil
type RewriteSuggestions struct {
	ExperienceBullet   *Rewrite `json:"experience_bullet"`
	ProjectDescription *Rewrite `json:"project_description"`
}

// AnalysisSource 报告来源
type AnalysisSource string

const (
	SourceExternal AnalysisSource = "external" // 外部大模型生成
	SourceLocal    AnalysisSource = "local"    // 本地规则引擎生成
)

// AnalysisResult 一次完整分析的结果
type AnalysisResult struct {
	JobCategory string             `json:"job_category"`
	Source      AnalysisSource     `json:"source"`
	Score       int                `json:"overall_score"`
	Components  ScoreComponents    `json:"score_components"`
	Risks       []RiskFinding      `json:"risks"`
	Simulation  HiringSimulation   `json:"hiring_simulation"`
	Rewrites    RewriteSuggestions `json:"rewrites"`
	Report      string             `json:"report"`

	Record *StructuredRecord `json:"-"`
}
