package extraction

import (
	"regexp"

	"resume-advisor/internal/types"
)

var (
	emailPattern    = regexp.MustCompile(`(?i)[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern    = regexp.MustCompile(`(?i)(?:\+\d{1,3}[\s-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)
	linkedinPattern = regexp.MustCompile(`(?i)linkedin\.com/in/[a-zA-Z0-9-]+`)
	githubPattern   = regexp.MustCompile(`(?i)github\.com/[a-zA-Z0-9-]+`)
)

// ExtractContactInfo 提取联系方式, 返回完整匹配串; 未匹配的字段为 nil
func ExtractContactInfo(text string) types.ContactInfo {
	return types.ContactInfo{
		Email:    findAllOrNil(emailPattern, text),
		Phone:    findAllOrNil(phonePattern, text),
		LinkedIn: findAllOrNil(linkedinPattern, text),
		GitHub:   findAllOrNil(githubPattern, text),
	}
}

func findAllOrNil(re *regexp.Regexp, text string) []string {
	matches := re.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	return matches
}
