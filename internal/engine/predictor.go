package engine

import (
	"context"
	"sort"
	"strings"

	"career-engine-go/internal/logger"
	"career-engine-go/internal/types"
)

// Classifier 外部统计分类器的推理契约
// 返回 career → base_confidence(0-100)；不可用时返回错误，由预测器降级处理
type Classifier interface {
	Classify(ctx context.Context, skills []string) (map[string]float64, error)
}

// CareerPredictor 职业预测器
// 把外部分类器的基准置信度与模式表派生的学习加成按固定权重混合后排序
type CareerPredictor struct {
	classifier Classifier
	store      PatternStore

	// patternWeight 混合权重w：final = (1-w)*base + w*boost
	// 基准模型主导，学习层微调，参考区间0.25-0.30
	patternWeight float64
	// maxPredictions 输出截断长度
	maxPredictions int
}

// NewCareerPredictor 构造预测器
func NewCareerPredictor(classifier Classifier, store PatternStore, patternWeight float64, maxPredictions int) *CareerPredictor {
	if patternWeight < 0 || patternWeight > 1 {
		patternWeight = 0.30
	}
	if maxPredictions <= 0 {
		maxPredictions = 3
	}
	return &CareerPredictor{
		classifier:     classifier,
		store:          store,
		patternWeight:  patternWeight,
		maxPredictions: maxPredictions,
	}
}

// Predict 预测职业候选
// 输出按 final_confidence 降序，平手依次按 base_confidence 降序、职业名升序，
// 截断到 maxPredictions；对相同的(技能, 分类器输出, 模式表状态)三元组结果逐字节一致
func (p *CareerPredictor) Predict(ctx context.Context, skills []string) ([]types.CareerCandidate, error) {
	normalized := normalizeSkills(skills)

	base := p.baseConfidences(ctx, normalized)
	if len(base) == 0 {
		return []types.CareerCandidate{}, nil
	}

	boosts, err := p.learnedBoosts(ctx, normalized, base)
	if err != nil {
		return nil, err
	}

	candidates := make([]types.CareerCandidate, 0, len(base))
	for career, baseConf := range base {
		boost := boosts[career]
		final := (1-p.patternWeight)*baseConf + p.patternWeight*boost
		candidates = append(candidates, types.CareerCandidate{
			Career:          career,
			BaseConfidence:  round1(baseConf),
			LearnedBoost:    round1(boost),
			FinalConfidence: round1(final),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].FinalConfidence != candidates[j].FinalConfidence {
			return candidates[i].FinalConfidence > candidates[j].FinalConfidence
		}
		if candidates[i].BaseConfidence != candidates[j].BaseConfidence {
			return candidates[i].BaseConfidence > candidates[j].BaseConfidence
		}
		return candidates[i].Career < candidates[j].Career
	})

	if len(candidates) > p.maxPredictions {
		candidates = candidates[:p.maxPredictions]
	}
	return candidates, nil
}

// baseConfidences 调用外部分类器获取基准置信度
// 分类器不可用或返回空时降级为已知职业空间上的均匀分布，预测本身绝不因此失败
func (p *CareerPredictor) baseConfidences(ctx context.Context, skills []string) map[string]float64 {
	if p.classifier != nil {
		base, err := p.classifier.Classify(ctx, skills)
		if err == nil && len(base) > 0 {
			normalized := make(map[string]float64, len(base))
			for career, conf := range base {
				normalized[normalizeCareer(career)] = clampScore(conf)
			}
			return normalized
		}
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("分类器不可用，基准置信度降级为均匀分布")
		}
	}

	careers := KnownCareers()
	if len(careers) == 0 {
		return map[string]float64{}
	}
	uniform := 100.0 / float64(len(careers))
	base := make(map[string]float64, len(careers))
	for _, c := range careers {
		base[c] = uniform
	}
	return base
}

// learnedBoosts 计算每个职业的学习加成(0-100)
// 聚合方式：对输入技能集合按出现次数加权求模式置信度的加权均值再放大到百分制；
// 从未观测过的 (skill, career) 以先验0.5、权重1参与，技能集为空时加成恒为0
func (p *CareerPredictor) learnedBoosts(ctx context.Context, skills []string, base map[string]float64) (map[string]float64, error) {
	boosts := make(map[string]float64, len(base))
	if len(skills) == 0 {
		for career := range base {
			boosts[career] = 0
		}
		return boosts, nil
	}

	stored, err := p.store.ListBySkills(ctx, skills)
	if err != nil {
		return nil, newUpstreamError("predictor.learnedBoosts", err)
	}
	byPair := make(map[patternKey]types.SkillCareerPattern, len(stored))
	for _, pt := range stored {
		byPair[patternKey{skill: pt.Skill, career: pt.Career}] = pt
	}

	for career := range base {
		var weightedSum, totalWeight float64
		for _, skill := range skills {
			pt, ok := byPair[patternKey{skill: skill, career: career}]
			if !ok {
				pt = ZeroPattern(skill, career)
			}
			weight := float64(pt.OccurrenceCount)
			if weight < 1 {
				weight = 1
			}
			weightedSum += pt.Confidence * weight
			totalWeight += weight
		}
		boosts[career] = weightedSum / totalWeight * 100
	}
	return boosts, nil
}

// normalizeSkills 技能集合规范化：小写、去空白、去重、字典序
func normalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, raw := range skills {
		s := strings.ToLower(strings.TrimSpace(raw))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
