package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 普通span属性的最大长度
	DefaultMaxLength = 200

	// MaxResumeLength 简历原文预览的最大长度，span里永远只放片段
	MaxResumeLength = 150
)

// piiKeywords 属性名里出现这些关键字时，值需要掩码后才能进span
var piiKeywords = []string{
	"email", "phone", "password", "secret", "token",
	"id_card", "身份证", "address", "地址", "name", "姓名", "age", "年龄",
}

// SafeAttributeValue 属性值进span前的统一处理：敏感属性掩码，过长属性截断
func SafeAttributeValue(name, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 掩码个人敏感信息，只保留首尾少量字符
func MaskPII(value string) string {
	runes := []rune(value)
	switch n := len(runes); {
	case n == 0:
		return ""
	case n <= 2:
		return string(runes[0]) + strings.Repeat("*", n-1)
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	default:
		return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
	}
}

// TruncateString 超长字符串截断为前缀加省略号
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}

// SafeResumeContent 简历原文转span属性，截断为预览片段
// 简历里必然有联系方式等PII，完整原文绝不进追踪后端
func SafeResumeContent(content string) string {
	return TruncateString(content, MaxResumeLength)
}
