package types

// SectionName 表示简历章节名称
type SectionName string

const (
	// SectionEducation 教育经历章节
	SectionEducation SectionName = "education"
	// SectionSkills 技能章节
	SectionSkills SectionName = "skills"
	// SectionExperience 工作经历章节
	SectionExperience SectionName = "experience"
	// SectionProjects 项目经历章节
	SectionProjects SectionName = "projects"
	// SectionCertifications 证书章节
	SectionCertifications SectionName = "certifications"
)

// CanonicalSections 章节的固定顺序
var CanonicalSections = []SectionName{
	SectionEducation,
	SectionSkills,
	SectionExperience,
	SectionProjects,
	SectionCertifications,
}

// 占位文本, 这些字段从不解析
const (
	PlaceholderDuration     = "Duration not specified"
	PlaceholderImpact       = "Impact not detailed"
	PlaceholderProjectTitle = "Project title not extracted"
	PlaceholderField        = "Field not specified"
	PlaceholderYear         = "Year not specified"
)

// ContactInfo 联系方式, nil 表示未匹配
type ContactInfo struct {
	Email    []string `json:"email"`
	Phone    []string `json:"phone"`
	LinkedIn []string `json:"linkedin"`
	GitHub   []string `json:"github"`
}

// HasEmailOrPhone ATS 评分只关心邮箱或电话
func (c ContactInfo) HasEmailOrPhone() bool {
	return len(c.Email) > 0 || len(c.Phone) > 0
}

// SkillSet 按类别分组的技能, 均为受控词表中的小写关键词
type SkillSet struct {
	Technical  []string `json:"technical"`
	Tools      []string `json:"tools"`
	SoftSkills []string `json:"soft_skills"`
}

// Total 三类技能数量之和
func (s SkillSet) Total() int {
	return len(s.Technical) + len(s.Tools) + len(s.SoftSkills)
}

// ExperienceEntry 工作经历条目
type ExperienceEntry struct {
	Role     string `json:"role"`
	Company  string `json:"company"`
	Duration string `json:"duration"`
	Impact   string `json:"impact"`
}

// ProjectEntry 项目条目
type ProjectEntry struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"` // 最多200字符, 超出加 "..."
	Technologies []string `json:"technologies"`
	Impact       string   `json:"impact"`
}

// EducationEntry 教育经历条目
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Field       string `json:"field"`
	Year        string `json:"year"`
}

// StructuredRecord 一次分析构建一次的结构化简历数据, 构建后只读, 不落库
type StructuredRecord struct {
	RawText     string                   `json:"raw_text"`
	ContactInfo ContactInfo              `json:"contact_info"`
	Skills      SkillSet                 `json:"skills"`
	Experience  []ExperienceEntry        `json:"experience"`
	Projects    []ProjectEntry           `json:"projects"`
	Education   []EducationEntry         `json:"education"`
	Sections    map[SectionName][]string `json:"sections"`
}

// HasSection 章节至少有一个非空片段
func (r *StructuredRecord) HasSection(name SectionName) bool {
	return len(r.Sections[name]) > 0
}
