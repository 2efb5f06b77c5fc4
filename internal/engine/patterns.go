package engine

import (
	"context"
	"sort"
	"sync"

	"career-engine-go/internal/types"
)

// PatternStore 技能-职业模式的读写接口
// 读永不失败：不存在的 (skill, career) 返回零值模式，置信度取最大不确定先验0.5
// 写必须按 (skill, career) 键串行化，不同键之间可以并发
type PatternStore interface {
	// Get 读取单个模式，不存在时返回零值模式（confidence = 0.5）
	Get(ctx context.Context, skill, career string) (types.SkillCareerPattern, error)
	// ApplyDelta 对单个模式做加性更新并在同一次写入内重算置信度
	ApplyDelta(ctx context.Context, skill, career string, delta types.PatternDelta) (types.SkillCareerPattern, error)
	// ListBySkills 批量读取给定技能集合下的全部已有模式
	ListBySkills(ctx context.Context, skills []string) ([]types.SkillCareerPattern, error)
	// TopPatterns 按置信度降序返回前 limit 个模式，用于学习洞察
	TopPatterns(ctx context.Context, limit int) ([]types.SkillCareerPattern, error)
}

// ZeroPattern 返回 (skill, career) 的零值模式，先验置信度0.5
func ZeroPattern(skill, career string) types.SkillCareerPattern {
	return types.SkillCareerPattern{
		Skill:      skill,
		Career:     career,
		Confidence: LaplaceConfidence(0, 0),
	}
}

// patternKey 内存存储的复合键
type patternKey struct {
	skill  string
	career string
}

// MemoryPatternStore 进程内模式存储
// 用分片锁保证同键写入串行化、异键写入并行，作为无数据库部署和测试的后端
type MemoryPatternStore struct {
	mu       sync.RWMutex
	patterns map[patternKey]types.SkillCareerPattern

	// stripes 写入分片锁，按键哈希选择分片
	stripes [stripeCount]sync.Mutex
}

const stripeCount = 32

// NewMemoryPatternStore 构造内存模式存储
func NewMemoryPatternStore() *MemoryPatternStore {
	return &MemoryPatternStore{
		patterns: make(map[patternKey]types.SkillCareerPattern),
	}
}

// stripeFor 按键哈希选择写入分片（FNV-1a）
func (s *MemoryPatternStore) stripeFor(key patternKey) *sync.Mutex {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for _, c := range []byte(key.skill) {
		h ^= uint64(c)
		h *= prime64
	}
	h ^= uint64(':')
	h *= prime64
	for _, c := range []byte(key.career) {
		h ^= uint64(c)
		h *= prime64
	}
	return &s.stripes[h%stripeCount]
}

// Get 读取单个模式
func (s *MemoryPatternStore) Get(ctx context.Context, skill, career string) (types.SkillCareerPattern, error) {
	key := patternKey{skill: skill, career: career}
	s.mu.RLock()
	p, ok := s.patterns[key]
	s.mu.RUnlock()
	if !ok {
		return ZeroPattern(skill, career), nil
	}
	return p, nil
}

// ApplyDelta 加性更新单个模式
// 分片锁串行化同键的读-改-写，置信度在同一次更新内重算
func (s *MemoryPatternStore) ApplyDelta(ctx context.Context, skill, career string, delta types.PatternDelta) (types.SkillCareerPattern, error) {
	key := patternKey{skill: skill, career: career}

	stripe := s.stripeFor(key)
	stripe.Lock()
	defer stripe.Unlock()

	s.mu.RLock()
	p, ok := s.patterns[key]
	s.mu.RUnlock()
	if !ok {
		p = ZeroPattern(skill, career)
	}

	p.OccurrenceCount += delta.Occurrence
	p.PositiveFeedbackCount += delta.Positive
	p.NegativeFeedbackCount += delta.Negative
	if p.PositiveFeedbackCount < 0 || p.NegativeFeedbackCount < 0 || p.OccurrenceCount < 0 {
		return types.SkillCareerPattern{}, newIntegrityError(
			"patternstore.ApplyDelta", "negative count after delta")
	}
	p.Confidence = LaplaceConfidence(p.PositiveFeedbackCount, p.NegativeFeedbackCount)

	s.mu.Lock()
	s.patterns[key] = p
	s.mu.Unlock()
	return p, nil
}

// ListBySkills 批量读取给定技能下的全部已有模式，只返回实际存在的记录
// map遍历无序，返回前统一按置信度排序保证输出确定
func (s *MemoryPatternStore) ListBySkills(ctx context.Context, skills []string) ([]types.SkillCareerPattern, error) {
	want := make(map[string]struct{}, len(skills))
	for _, sk := range skills {
		want[sk] = struct{}{}
	}

	s.mu.RLock()
	var out []types.SkillCareerPattern
	for key, p := range s.patterns {
		if _, ok := want[key.skill]; ok {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sortPatternsByConfidence(out)
	return out, nil
}

// TopPatterns 按置信度降序返回前 limit 个模式
func (s *MemoryPatternStore) TopPatterns(ctx context.Context, limit int) ([]types.SkillCareerPattern, error) {
	s.mu.RLock()
	all := make([]types.SkillCareerPattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		all = append(all, p)
	}
	s.mu.RUnlock()

	sortPatternsByConfidence(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// sortPatternsByConfidence 置信度降序，平手按出现次数降序再按键名升序，保证输出确定
func sortPatternsByConfidence(ps []types.SkillCareerPattern) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Confidence != ps[j].Confidence {
			return ps[i].Confidence > ps[j].Confidence
		}
		if ps[i].OccurrenceCount != ps[j].OccurrenceCount {
			return ps[i].OccurrenceCount > ps[j].OccurrenceCount
		}
		if ps[i].Skill != ps[j].Skill {
			return ps[i].Skill < ps[j].Skill
		}
		return ps[i].Career < ps[j].Career
	})
}
