package extraction

import (
	"regexp"
	"strings"

	"resume-advisor/internal/types"
)

// keywordMatcher 关键词的词边界匹配
// 两侧用非单词字符或文本首尾做边界, c++ / c# 这类以符号结尾的关键词也能命中
type keywordMatcher struct {
	keyword string
	re      *regexp.Regexp
}

func newKeywordMatcher(keyword string) keywordMatcher {
	return keywordMatcher{
		keyword: keyword,
		re:      regexp.MustCompile(`(?:^|\W)` + regexp.QuoteMeta(keyword) + `(?:\W|$)`),
	}
}

func compileMatchers(keywords []string) []keywordMatcher {
	matchers := make([]keywordMatcher, 0, len(keywords))
	for _, kw := range keywords {
		matchers = append(matchers, newKeywordMatcher(kw))
	}
	return matchers
}

var (
	technicalMatchers = compileMatchers(append(append([]string{}, programmingLanguages...), frameworksAndPlatforms...))
	softSkillMatchers = compileMatchers(softSkillPhrases)
	toolMatchers      = compileMatchers(genericTools)
)

// ExtractSkills 在小写文本中按词表顺序查找技能关键词, 每个关键词在集合中最多出现一次
func ExtractSkills(text string) types.SkillSet {
	lower := strings.ToLower(text)
	return types.SkillSet{
		Technical:  collectKeywords(lower, technicalMatchers),
		Tools:      collectKeywords(lower, toolMatchers),
		SoftSkills: collectKeywords(lower, softSkillMatchers),
	}
}

func collectKeywords(lower string, matchers []keywordMatcher) []string {
	found := []string{}
	seen := make(map[string]struct{}, len(matchers))
	for _, m := range matchers {
		if _, ok := seen[m.keyword]; ok {
			continue
		}
		if m.re.MatchString(lower) {
			seen[m.keyword] = struct{}{}
			found = append(found, m.keyword)
		}
	}
	return found
}
