package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-advisor/internal/types"
)

const sampleResume = `Jane Doe
jane.doe@example.com | (555) 123-4567 | linkedin.com/in/janedoe | github.com/janedoe

Skills
Python, Go, Docker, Kubernetes, SQL, Git, React
Leadership and communication, Jira, Excel

Experience
Senior Software Engineer at Acme Corp, 2019 - 2023
- Worked on the billing system used by 2 million customers
- Improved API latency by 40%

Projects
1. Resume Analyzer - a Go service that scores resumes against job roles
2. Home Lab Cluster - Kubernetes cluster with GitOps deployment and monitoring

Education
Bachelor of Science, Stanford University
`

func TestSegmentSections_EmptyTextHasAllKeys(t *testing.T) {
	sections := SegmentSections("")
	require.Len(t, sections, len(types.CanonicalSections))
	for _, name := range types.CanonicalSections {
		spans, ok := sections[name]
		assert.True(t, ok, "章节 %s 应始终存在", name)
		assert.NotNil(t, spans)
		assert.Empty(t, spans)
	}
}

// 片段从终止关键词之后开始, 到其他章节规则最近的起点结束
func TestSegmentSections_ForwardScanToNearestHeading(t *testing.T) {
	text := "Skills\nGo, Python\nExperience\nBackend work at Acme\nEducation\nState University"
	sections := SegmentSections(text)

	assert.Equal(t, []string{"Backend work at Acme\nEducation\nState"}, sections[types.SectionSkills])
	assert.Equal(t, []string{"State"}, sections[types.SectionExperience])
	assert.Empty(t, sections[types.SectionEducation])
	assert.Empty(t, sections[types.SectionProjects])
	assert.Empty(t, sections[types.SectionCertifications])
}

func TestSegmentSections_HeadingWithoutTerminatorIsEmpty(t *testing.T) {
	sections := SegmentSections("Certifications\nAWS Certified\nSkills\nTerraform")
	assert.Equal(t, []string{"Terraform"}, sections[types.SectionCertifications])
	// Skills 之后没有终止关键词, 起点落在文本末尾
	assert.Empty(t, sections[types.SectionSkills])
}

func TestExtractContactInfo(t *testing.T) {
	info := ExtractContactInfo(sampleResume)
	assert.Equal(t, []string{"jane.doe@example.com"}, info.Email)
	assert.Equal(t, []string{"(555) 123-4567"}, info.Phone)
	assert.Equal(t, []string{"linkedin.com/in/janedoe"}, info.LinkedIn)
	assert.Equal(t, []string{"github.com/janedoe"}, info.GitHub)
	assert.True(t, info.HasEmailOrPhone())

	none := ExtractContactInfo("A plain line of text without any signals")
	assert.Nil(t, none.Email)
	assert.Nil(t, none.Phone)
	assert.Nil(t, none.LinkedIn)
	assert.Nil(t, none.GitHub)
	assert.False(t, none.HasEmailOrPhone())
}

func TestExtractSkills(t *testing.T) {
	skills := ExtractSkills(sampleResume)
	// 顺序与词表一致, 与出现顺序无关
	assert.Equal(t, []string{"python", "go", "sql", "react", "docker", "kubernetes", "git"}, skills.Technical)
	assert.Equal(t, []string{"excel", "jira"}, skills.Tools)
	assert.Equal(t, []string{"leadership", "communication"}, skills.SoftSkills)
	assert.Equal(t, 11, skills.Total())
}

func TestExtractSkills_SymbolKeywordsAndBoundaries(t *testing.T) {
	skills := ExtractSkills("C++ and C# developer; golang? no. Go, R.")
	assert.Equal(t, []string{"c++", "c#", "go", "r"}, skills.Technical)
	assert.Empty(t, skills.Tools)
	assert.Empty(t, skills.SoftSkills)
}

func TestExtractSkills_CountsKeywordOnce(t *testing.T) {
	skills := ExtractSkills("python python PYTHON Python")
	assert.Equal(t, []string{"python"}, skills.Technical)
}

func TestExtractExperience(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][2]string
	}{
		{"role at company", "Software Engineer at Google, Mountain View", [][2]string{{"Software Engineer", "Google"}}},
		{"multiple entries", "Data Scientist at Acme.\nProduct Manager at Initech.", [][2]string{{"Data Scientist", "Acme"}, {"Product Manager", "Initech"}}},
		{"fallback role then company", "Backend Developer, Initech\n", [][2]string{{"Backend Developer", "Initech"}}},
		{"fallback swaps groups", "Initech Corp - Senior Data Analyst", [][2]string{{"Data Analyst", "Initech Corp - Senior"}}},
		{"no match", "no roles here", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := ExtractExperience(tt.text)
			require.NotNil(t, entries)
			require.Len(t, entries, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w[0], entries[i].Role)
				assert.Equal(t, w[1], entries[i].Company)
				assert.Equal(t, types.PlaceholderDuration, entries[i].Duration)
				assert.Equal(t, types.PlaceholderImpact, entries[i].Impact)
			}
		})
	}
}

func TestExtractEducation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][2]string
	}{
		{"degree then institution", "Bachelor of Science, Stanford University", [][2]string{{"Bachelor", "Stanford University"}}},
		{"acronym degree", "MS in CS, Carnegie Institute", [][2]string{{"MS", "Carnegie Institute"}}},
		{"institution then degree", "Stanford University - Master", [][2]string{{"Master", "Stanford University"}}},
		{"missing institution is dropped", "Bachelor of Arts", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := ExtractEducation(tt.text)
			require.NotNil(t, entries)
			require.Len(t, entries, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w[0], entries[i].Degree)
				assert.Equal(t, w[1], entries[i].Institution)
				assert.Equal(t, types.PlaceholderField, entries[i].Field)
				assert.Equal(t, types.PlaceholderYear, entries[i].Year)
			}
		})
	}
}

func TestExtractProjects(t *testing.T) {
	// "projects" 与 "project" 两个关键词各自截取一次, 重复条目保留
	projects := ExtractProjects("Projects\n1. Resume Analyzer - a Go service that scores resumes\n2. Tiny\n\nEducation\nBS")
	require.Len(t, projects, 2)
	for _, p := range projects {
		assert.Equal(t, "Resume Analyzer - a Go service that scores resumes", p.Description)
		assert.Equal(t, types.PlaceholderProjectTitle, p.Title)
		assert.Equal(t, types.PlaceholderImpact, p.Impact)
		assert.NotNil(t, p.Technologies)
		assert.Empty(t, p.Technologies)
	}

	bullets := ExtractProjects("Portfolio\n• Built a realtime chat app with websockets • Short one")
	require.Len(t, bullets, 1)
	assert.Equal(t, "Built a realtime chat app with websockets", bullets[0].Description)

	none := ExtractProjects("nothing relevant here at all")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestExtractProjects_TruncatesLongDescription(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "abcdefghij"
	}
	projects := ExtractProjects("Portfolio\n\n" + long)
	require.Len(t, projects, 1)
	assert.Equal(t, long[:200]+"...", projects[0].Description)
}

func TestBuild(t *testing.T) {
	record := Build(sampleResume)
	require.NotNil(t, record)

	assert.Equal(t, sampleResume, record.RawText)
	assert.Len(t, record.Skills.Technical, 7)
	require.Len(t, record.Experience, 1)
	assert.Equal(t, "Acme Corp", record.Experience[0].Company)
	assert.Len(t, record.Projects, 4)
	require.Len(t, record.Education, 1)
	assert.Equal(t, "Stanford University", record.Education[0].Institution)
	assert.True(t, record.HasSection(types.SectionSkills))
	assert.True(t, record.HasSection(types.SectionExperience))
	assert.False(t, record.HasSection(types.SectionEducation))
	assert.False(t, record.HasSection(types.SectionProjects))
}

func TestBuild_Deterministic(t *testing.T) {
	assert.Equal(t, Build(sampleResume), Build(sampleResume))
}
