package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkillExtractor_BasicExtraction(t *testing.T) {
	extractor := NewSkillExtractor()

	// 逗号、斜杠等常见分隔符都应被容忍
	skills := extractor.Extract("Proficient in Python, SQL / Docker | AWS")

	assert.Equal(t, []string{"aws", "docker", "python", "sql"}, skills)
}

func TestSkillExtractor_CaseInsensitive(t *testing.T) {
	extractor := NewSkillExtractor()

	upper := extractor.Extract("PYTHON and TENSORFLOW experience")
	lower := extractor.Extract("python and tensorflow experience")

	assert.Equal(t, lower, upper)
	assert.Equal(t, []string{"python", "tensorflow"}, upper)
}

func TestSkillExtractor_LongestMatchWins(t *testing.T) {
	extractor := NewSkillExtractor()

	// "machine learning" 应整体命中，不被拆出无关短词
	skills := extractor.Extract("3 years of machine learning and deep learning work")
	assert.Contains(t, skills, "machine learning")
	assert.Contains(t, skills, "deep learning")

	// "javascript" 里的 "java" 不应作为独立技能命中
	skills = extractor.Extract("javascript expert")
	assert.Contains(t, skills, "javascript")
	assert.NotContains(t, skills, "java")

	// 两者独立出现时都应命中
	skills = extractor.Extract("java and javascript")
	assert.Contains(t, skills, "java")
	assert.Contains(t, skills, "javascript")
}

func TestSkillExtractor_RepeatedOccurrences(t *testing.T) {
	extractor := NewSkillExtractor()

	// 多词技能被单个分隔符隔开连续出现时，每次出现都应整体占位，
	// 不能因第一次命中吃掉分隔符而把第二次出现拆成子技能
	skills := extractor.Extract("react native react native")
	assert.Equal(t, []string{"react native"}, skills)

	skills = extractor.Extract("rest api rest api")
	assert.Equal(t, []string{"rest api"}, skills)

	// 重复出现与独立出现混合时两者都命中
	skills = extractor.Extract("react native, react native and react")
	assert.Equal(t, []string{"react", "react native"}, skills)
}

func TestSkillExtractor_NonWordSkills(t *testing.T) {
	extractor := NewSkillExtractor()

	// 含#、/等非单词字符的技能需要显式边界处理
	skills := extractor.Extract("Backend in C# with CI/CD pipelines")
	assert.Contains(t, skills, "c#")
	assert.Contains(t, skills, "ci/cd")
}

func TestSkillExtractor_EmptyAndNoMatch(t *testing.T) {
	extractor := NewSkillExtractor()

	// 空文本与无命中文本都返回空集合而不是错误或nil
	assert.Empty(t, extractor.Extract(""))
	assert.NotNil(t, extractor.Extract(""))
	assert.Empty(t, extractor.Extract("完全无关的文本 without any known tokens"))
}

func TestSkillExtractor_Deterministic(t *testing.T) {
	extractor := NewSkillExtractor()
	text := "python docker kubernetes sql react go linux"

	first := extractor.Extract(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, extractor.Extract(text))
	}
}
