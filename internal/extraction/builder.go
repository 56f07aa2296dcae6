// Package extraction 把简历纯文本转换为结构化记录
// 全部基于确定性的正则匹配, 任何提取器都不会返回错误, 无匹配时返回空集合
package extraction

import "resume-advisor/internal/types"

// Build 构建结构化记录; 调用方负责在空文本时不调用
func Build(rawText string) *types.StructuredRecord {
	return &types.StructuredRecord{
		RawText:     rawText,
		ContactInfo: ExtractContactInfo(rawText),
		Skills:      ExtractSkills(rawText),
		Experience:  ExtractExperience(rawText),
		Projects:    ExtractProjects(rawText),
		Education:   ExtractEducation(rawText),
		Sections:    SegmentSections(rawText),
	}
}
