package engine

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// SkillExtractor 从自由文本中提取规范化技能
// 提取是纯函数：相同输入永远产出相同的、按字典序排列的技能列表
type SkillExtractor struct {
	// patterns 每个词表技能对应的字面量正则，构造时一次性编译
	patterns map[string]*regexp.Regexp
	// ordered 词表按长度降序排列，保证长词优先占位
	ordered []string
}

var (
	extractorOnce    sync.Once
	defaultExtractor *SkillExtractor
)

// NewSkillExtractor 基于全量词表构造提取器
func NewSkillExtractor() *SkillExtractor {
	extractorOnce.Do(func() {
		ordered := make([]string, len(SkillVocabulary))
		copy(ordered, SkillVocabulary)
		// 长度降序，同长字典序，确保 "machine learning" 先于 "learning" 这类子串占位
		sort.Slice(ordered, func(i, j int) bool {
			if len(ordered[i]) != len(ordered[j]) {
				return len(ordered[i]) > len(ordered[j])
			}
			return ordered[i] < ordered[j]
		})

		patterns := make(map[string]*regexp.Regexp, len(ordered))
		for _, skill := range ordered {
			patterns[skill] = compileSkillPattern(skill)
		}
		defaultExtractor = &SkillExtractor{patterns: patterns, ordered: ordered}
	})
	return defaultExtractor
}

// compileSkillPattern 为单个技能编译字面量正则
// 边界不放进正则里消耗：像 "c#"、"ci/cd" 这类技能含非单词字符，\b 会错判边界，
// 而把边界写成 [^a-z0-9] 会吃掉分隔符，导致同一技能被单个分隔符隔开的相邻出现漏检，
// 因此只匹配技能本身，两侧边界在 Extract 里逐位检查
func compileSkillPattern(skill string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(skill))
}

// Extract 从文本中提取技能，返回去重后的字典序列表
// 空文本或无任何命中时返回空切片而非nil，便于上层直接序列化
func (e *SkillExtractor) Extract(text string) []string {
	found := make([]string, 0)
	if strings.TrimSpace(text) == "" {
		return found
	}
	normalized := strings.ToLower(text)

	// covered 记录已被更长技能占用的字符区间，短技能完全落在其中时不再计入
	var covered [][2]int
	for _, skill := range e.ordered {
		locs := e.patterns[skill].FindAllStringIndex(normalized, -1)
		matched := false
		for _, loc := range locs {
			start, end := loc[0], loc[1]
			if !boundaryAt(normalized, start-1) || !boundaryAt(normalized, end) {
				continue
			}
			if spanCovered(covered, start, end) {
				continue
			}
			covered = append(covered, [2]int{start, end})
			matched = true
		}
		if matched {
			found = append(found, skill)
		}
	}

	sort.Strings(found)
	return found
}

// boundaryAt 判断位置 i 是否可作为技能边界：越界（文本首尾）或非字母数字
func boundaryAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	if c >= 'a' && c <= 'z' {
		return false
	}
	if c >= '0' && c <= '9' {
		return false
	}
	return true
}

// ExtractWithRole 在通用提取之外，确保目标岗位参照集中的技能也被检查
// 当前词表已覆盖全部参照集技能，本方法保留给未来按岗位扩展词表的场景
func (e *SkillExtractor) ExtractWithRole(text, targetRole string) []string {
	return e.Extract(text)
}

// spanCovered 判断 [start,end) 是否完全落在某个已占用区间内
func spanCovered(covered [][2]int, start, end int) bool {
	for _, c := range covered {
		if start >= c[0] && end <= c[1] {
			return true
		}
	}
	return false
}
