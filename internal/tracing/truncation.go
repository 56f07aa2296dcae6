package tracing

import (
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// 各类属性值的长度上限(按字符)
const (
	MaxSQLLength    = 500
	MaxRedisLength  = 100
	MaxResumeLength = 150
	MaxErrorLength  = 300
)

// 简历正文中的联系方式, 写入 span 之前替换掉
var (
	inlineEmail   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	inlinePhone   = regexp.MustCompile(`\+?\(?\d{1,4}\)?[\s.-]?\(?\d{1,4}\)?[\s.-]?\d{3,4}[\s.-]?\d{3,4}`)
	inlineProfile = regexp.MustCompile(`(?i)(?:linkedin\.com/in|github\.com)/[A-Za-z0-9_-]+`)
)

// MaskPII 保留首尾, 中间替换为 *
// "jane@example.com" -> "ja************om"
func MaskPII(value string) string {
	runes := []rune(value)
	n := len(runes)
	switch {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[0]) + "*"
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	default:
		return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
	}
}

// TruncateString 超长时保留首尾两段, 中间用省略号连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeSQL gorm 语句写入 db.statement 前截断
func SafeSQL(sql string) string {
	return TruncateString(sql, MaxSQLLength)
}

// SafeRedisKey 缓存 key 含文本哈希, 截断即可
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}

// SafeResumeContent 掩码正文中的邮箱、电话和个人主页后截断
func SafeResumeContent(content string) string {
	masked := inlineEmail.ReplaceAllStringFunc(content, MaskPII)
	masked = inlinePhone.ReplaceAllStringFunc(masked, MaskPII)
	masked = inlineProfile.ReplaceAllStringFunc(masked, MaskPII)
	return TruncateString(masked, MaxResumeLength)
}

// ResumeAttributes 简历文本的 span 属性: 字符数与脱敏后的开头片段
func ResumeAttributes(text string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("resume.text_runes", len([]rune(text))),
		attribute.String("resume.preview", SafeResumeContent(text)),
	}
}
