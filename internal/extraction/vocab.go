package extraction

// 受控词表: 技能集合中只会出现这里的关键词

var programmingLanguages = []string{
	"python", "java", "javascript", "typescript", "c++", "c#", "ruby", "php", "go", "rust",
	"scala", "swift", "kotlin", "r", "matlab", "sql", "html", "css", "sass", "less",
}

var frameworksAndPlatforms = []string{
	"react", "angular", "vue", "django", "flask", "spring", "node.js", "express",
	"docker", "kubernetes", "aws", "azure", "gcp", "tensorflow", "pytorch", "mongodb",
	"postgresql", "mysql", "redis", "git", "jenkins", "ansible", "terraform",
}

var softSkillPhrases = []string{
	"leadership", "communication", "teamwork", "problem-solving", "adaptability",
	"critical thinking", "creativity", "time management", "collaboration", "negotiation",
	"conflict resolution", "decision making", "emotional intelligence",
}

var genericTools = []string{
	"excel", "powerpoint", "jira", "confluence", "slack", "figma", "adobe", "tableau",
	"salesforce", "sap", "oracle", "photoshop", "illustrator", "indesign", "autocad",
}

// roleNouns 经历正则中职位名称的结尾词
var roleNouns = []string{
	"Engineer", "Developer", "Manager", "Analyst", "Designer", "Scientist", "Architect",
	"Lead", "Director", "Specialist", "Consultant", "Administrator", "Coordinator",
	"Officer", "Executive", "Technician", "Associate", "Intern",
}

// roleHints 备用模式下判断哪个分组是职位
var roleHints = []string{"engineer", "developer", "manager", "analyst", "designer", "scientist"}

// degreeTokens 教育条目中判定学位分组, 与大写后的文本比较
var degreeTokens = []string{
	"BACHELOR", "MASTER", "PHD", "DOCTORATE", "DEGREE", "DIPLOMA", "CERTIFICATE",
	"BS", "MS", "MBA", "BA", "MA",
}

// institutionTokens 与小写后的文本比较
var institutionTokens = []string{"university", "college", "institute"}

// projectKeywords 项目段落的起始关键词, 顺序即扫描顺序
var projectKeywords = []string{"projects", "project", "portfolio", "case study", "work sample"}

// ProgrammingLanguages 返回编程语言词表的副本
func ProgrammingLanguages() []string { return append([]string(nil), programmingLanguages...) }

// FrameworksAndPlatforms 返回框架/平台词表的副本
func FrameworksAndPlatforms() []string { return append([]string(nil), frameworksAndPlatforms...) }
