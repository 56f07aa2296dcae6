package analyzer

import (
	"strings"
	"unicode"
)

// maxJobCategoryRunes 岗位名称最大长度
const maxJobCategoryRunes = 80

// jobKeywords 岗位 -> 关键词表, 启动时加载, 只读
var jobKeywords = map[string][]string{
	"Software Engineer":         {"python", "java", "javascript", "react", "angular", "node.js", "sql", "git", "agile", "oop", "algorithms", "data structures"},
	"Data Scientist":            {"python", "r", "sql", "machine learning", "pandas", "numpy", "scikit-learn", "tensorflow", "statistics", "data analysis", "matplotlib", "jupyter"},
	"Product Manager":           {"product strategy", "roadmap", "agile", "scrum", "stakeholder", "requirements", "ux", "analytics", "market research", "feature prioritization"},
	"Full Stack Developer":      {"javascript", "react", "node.js", "express", "html", "css", "sql", "rest", "api", "database", "frontend", "backend"},
	"DevOps Engineer":           {"docker", "kubernetes", "aws", "azure", "ci/cd", "jenkins", "terraform", "linux", "bash", "monitoring", "infrastructure"},
	"Machine Learning Engineer": {"python", "tensorflow", "pytorch", "deep learning", "neural networks", "data preprocessing", "model deployment", "computer vision", "nlp"},
	"Frontend Developer":        {"javascript", "react", "angular", "vue", "html", "css", "typescript", "redux", "webpack", "responsive design", "css frameworks"},
	"Backend Developer":         {"python", "java", "node.js", "express", "sql", "nosql", "api", "microservices", "database", "authentication", "security"},
	"UX Designer":               {"ui/ux", "wireframing", "prototyping", "user research", "usability", "design systems", "figma", "sketch", "user flows", "interaction design"},
	"Cybersecurity Specialist":  {"security", "network security", "penetration testing", "risk assessment", "encryption", "firewalls", "siem", "incident response", "vulnerability"},
	"Data Analyst":              {"sql", "excel", "tableau", "power bi", "python", "r", "data visualization", "statistical analysis", "reporting", "dashboards"},
}

// keywordCategories 有关键词表的岗位, 按展示顺序
var keywordCategories = []string{
	"Software Engineer", "Data Scientist", "Product Manager", "Full Stack Developer",
	"DevOps Engineer", "Machine Learning Engineer", "Frontend Developer", "Backend Developer",
	"UX Designer", "Cybersecurity Specialist", "Data Analyst",
}

// additionalCategories 可选但没有关键词表的岗位, 岗位匹配分固定为默认值
var additionalCategories = []string{
	"Project Manager", "Business Analyst", "Marketing Manager", "Sales Manager",
	"HR Manager", "Financial Analyst", "Operations Manager", "UX/UI Designer",
	"Product Designer", "Sales Executive", "Cloud Architect", "Security Engineer", "QA Engineer",
}

// actionVerbs 岗位 -> 强动词表, 改写经历条目时取第一个
var actionVerbs = map[string][]string{
	"Software Engineer":         {"Developed", "Implemented", "Engineered", "Built", "Optimized", "Designed"},
	"Data Scientist":            {"Analyzed", "Built", "Developed", "Created", "Implemented", "Modeled"},
	"Product Manager":           {"Led", "Managed", "Defined", "Delivered", "Prioritized", "Spearheaded"},
	"Full Stack Developer":      {"Developed", "Integrated", "Built", "Implemented", "Optimized", "Architected"},
	"DevOps Engineer":           {"Automated", "Deployed", "Configured", "Optimized", "Maintained", "Secured"},
	"Machine Learning Engineer": {"Developed", "Trained", "Implemented", "Optimized", "Evaluated", "Deployed"},
	"Frontend Developer":        {"Built", "Designed", "Implemented", "Optimized", "Developed", "Architected"},
	"Backend Developer":         {"Built", "Designed", "Implemented", "Optimized", "Developed", "Architected"},
	"UX Designer":               {"Designed", "Prototyped", "Conducted", "Improved", "Created", "Iterated"},
	"Cybersecurity Specialist":  {"Secured", "Monitored", "Assessed", "Implemented", "Audited", "Mitigated"},
	"Data Analyst":              {"Analyzed", "Visualized", "Reported", "Identified", "Processed", "Modeled"},
}

var defaultActionVerbs = []string{"Developed", "Implemented", "Built", "Optimized"}

// JobKeywords 返回岗位关键词表的副本; 未知岗位返回空表
func JobKeywords(category string) []string {
	kws, ok := jobKeywords[category]
	if !ok {
		return []string{}
	}
	return append([]string(nil), kws...)
}

// ActionVerbs 返回岗位强动词表, 未知岗位使用通用表
func ActionVerbs(category string) []string {
	verbs, ok := actionVerbs[category]
	if !ok {
		verbs = defaultActionVerbs
	}
	return append([]string(nil), verbs...)
}

// JobCategory 岗位目录条目
type JobCategory struct {
	Name        string `json:"name"`
	HasKeywords bool   `json:"has_keywords"`
}

// JobCategories 岗位目录: 先列有关键词表的岗位, 再列其余岗位
func JobCategories() []JobCategory {
	out := make([]JobCategory, 0, len(keywordCategories)+len(additionalCategories))
	for _, name := range keywordCategories {
		out = append(out, JobCategory{Name: name, HasKeywords: true})
	}
	for _, name := range additionalCategories {
		out = append(out, JobCategory{Name: name})
	}
	return out
}

// NormalizeJobCategory 清洗用户输入的岗位名称: 控制字符(含换行)替换为空格,
// 连续空白合并为一个空格, 超长截断; 结果只占一行, 不会在报告中形成标题
func NormalizeJobCategory(job string) string {
	job = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, job)
	job = strings.Join(strings.Fields(job), " ")
	if runes := []rune(job); len(runes) > maxJobCategoryRunes {
		job = strings.TrimSpace(string(runes[:maxJobCategoryRunes]))
	}
	return job
}
