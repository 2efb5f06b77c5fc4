package storage

import (
	"context"
	"errors"
	"fmt"

	"career-engine-go/internal/engine"
	"career-engine-go/internal/logger"
	"career-engine-go/internal/storage/models"
	"career-engine-go/internal/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPatternStore MySQL持久化的模式存储，实现 engine.PatternStore
// 同键写入通过事务内 SELECT ... FOR UPDATE 串行化，异键写入互不阻塞；
// 置信度读缓存写穿失效，预测读到轻微滞后的置信度是可接受的最终一致
type GormPatternStore struct {
	db    *gorm.DB
	cache *RedisCache // 可以为nil（无缓存部署）
}

// NewGormPatternStore 构造持久化模式存储
func NewGormPatternStore(db *gorm.DB, cache *RedisCache) *GormPatternStore {
	return &GormPatternStore{db: db, cache: cache}
}

// Get 读取单个模式，不存在时返回零值模式（confidence = 0.5），读永不失败为业务错误
func (s *GormPatternStore) Get(ctx context.Context, skill, career string) (types.SkillCareerPattern, error) {
	var record models.SkillCareerPattern
	err := s.db.WithContext(ctx).
		Where("skill = ? AND career = ?", skill, career).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return engine.ZeroPattern(skill, career), nil
		}
		return types.SkillCareerPattern{}, fmt.Errorf("查询模式记录失败: %w", err)
	}
	return toPattern(record), nil
}

// ApplyDelta 在单个事务内对模式做加性更新并重算置信度
// 行锁保证同键读-改-写串行化；负计数增量违反完整性约束，回滚且不落库
func (s *GormPatternStore) ApplyDelta(ctx context.Context, skill, career string, delta types.PatternDelta) (types.SkillCareerPattern, error) {
	var updated models.SkillCareerPattern

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.SkillCareerPattern
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("skill = ? AND career = ?", skill, career).
			First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = models.SkillCareerPattern{
				Skill:      skill,
				Career:     career,
				Confidence: engine.LaplaceConfidence(0, 0),
			}
			// 并发首次创建同一键时，唯一索引冲突退化为更新
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "skill"}, {Name: "career"}},
				DoNothing: true,
			}).Create(&record).Error; err != nil {
				return fmt.Errorf("创建模式记录失败: %w", err)
			}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("skill = ? AND career = ?", skill, career).
				First(&record).Error; err != nil {
				return fmt.Errorf("回读模式记录失败: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("锁定模式记录失败: %w", err)
		}

		record.OccurrenceCount += delta.Occurrence
		record.PositiveFeedbackCount += delta.Positive
		record.NegativeFeedbackCount += delta.Negative
		if record.OccurrenceCount < 0 || record.PositiveFeedbackCount < 0 || record.NegativeFeedbackCount < 0 {
			return fmt.Errorf("%w: 增量后计数为负 (skill=%s, career=%s)", engine.ErrDataIntegrity, skill, career)
		}
		record.Confidence = engine.LaplaceConfidence(
			record.PositiveFeedbackCount, record.NegativeFeedbackCount)

		if err := tx.Model(&models.SkillCareerPattern{}).
			Where("id = ?", record.ID).
			Updates(map[string]interface{}{
				"occurrence_count":        record.OccurrenceCount,
				"positive_feedback_count": record.PositiveFeedbackCount,
				"negative_feedback_count": record.NegativeFeedbackCount,
				"confidence":              record.Confidence,
			}).Error; err != nil {
			return fmt.Errorf("更新模式记录失败: %w", err)
		}
		updated = record
		return nil
	})
	if err != nil {
		return types.SkillCareerPattern{}, err
	}

	// 写穿失效：删除旧缓存，下一次读回填新置信度
	if s.cache != nil {
		if err := s.cache.InvalidateConfidence(ctx, skill, career); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Str("skill", skill).Str("career", career).
				Msg("置信度缓存失效失败")
		}
	}
	return toPattern(updated), nil
}

// ListBySkills 批量读取给定技能集合下的全部已有模式
func (s *GormPatternStore) ListBySkills(ctx context.Context, skills []string) ([]types.SkillCareerPattern, error) {
	if len(skills) == 0 {
		return nil, nil
	}
	var records []models.SkillCareerPattern
	if err := s.db.WithContext(ctx).
		Where("skill IN ?", skills).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("批量查询模式记录失败: %w", err)
	}
	out := make([]types.SkillCareerPattern, len(records))
	for i, r := range records {
		out[i] = toPattern(r)
	}
	return out, nil
}

// TopPatterns 按置信度降序返回前 limit 个模式
func (s *GormPatternStore) TopPatterns(ctx context.Context, limit int) ([]types.SkillCareerPattern, error) {
	if limit <= 0 {
		limit = 10
	}
	var records []models.SkillCareerPattern
	if err := s.db.WithContext(ctx).
		Order("confidence DESC, occurrence_count DESC, skill ASC, career ASC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("查询高置信模式失败: %w", err)
	}
	out := make([]types.SkillCareerPattern, len(records))
	for i, r := range records {
		out[i] = toPattern(r)
	}
	return out, nil
}

// CareersForSkill 给定技能下的全部职业模式，按置信度降序
func (s *GormPatternStore) CareersForSkill(ctx context.Context, skill string) ([]types.SkillCareerPattern, error) {
	var records []models.SkillCareerPattern
	if err := s.db.WithContext(ctx).
		Where("skill = ?", skill).
		Order("confidence DESC, occurrence_count DESC, career ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("按技能查询模式失败: %w", err)
	}
	out := make([]types.SkillCareerPattern, len(records))
	for i, r := range records {
		out[i] = toPattern(r)
	}
	return out, nil
}

// GetConfidenceCached 带缓存的置信度读取，未命中时回源并回填
func (s *GormPatternStore) GetConfidenceCached(ctx context.Context, skill, career string) (float64, error) {
	if s.cache != nil {
		if conf, ok, err := s.cache.GetConfidence(ctx, skill, career); err == nil && ok {
			return conf, nil
		}
	}
	p, err := s.Get(ctx, skill, career)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.SetConfidence(ctx, skill, career, p.Confidence); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("置信度缓存回填失败")
		}
	}
	return p.Confidence, nil
}

// toPattern 模型转引擎实体
func toPattern(r models.SkillCareerPattern) types.SkillCareerPattern {
	return types.SkillCareerPattern{
		Skill:                 r.Skill,
		Career:                r.Career,
		OccurrenceCount:       r.OccurrenceCount,
		PositiveFeedbackCount: r.PositiveFeedbackCount,
		NegativeFeedbackCount: r.NegativeFeedbackCount,
		Confidence:            r.Confidence,
	}
}
