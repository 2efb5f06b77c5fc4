package engine

import (
	"context"
	"sort"
	"strings"

	"career-engine-go/internal/logger"
	"career-engine-go/internal/types"
)

// Vectorizer 外部文本向量化协作方的契约
// Similarity 返回两段文本的余弦相似度[0,1]；不可用时返回错误，由匹配器降级处理
type Vectorizer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// 匹配度权重：必备技能70、加分技能30
const (
	requiredWeight  = 70.0
	preferredWeight = 30.0
)

// 推荐档位文案，下界含等号
const (
	RecommendExcellent = "Excellent match! You meet most requirements."
	RecommendGood      = "Good match. Consider applying and highlighting relevant experience."
	RecommendModerate  = "Moderate match. Focus on learning missing skills before applying."
	RecommendLow       = "Low match. Significant skill gaps exist. Consider other roles or upskilling."
)

// JobFitMatcher 简历-岗位匹配器
// 匹配度只由显式技能重叠决定；语义相似度作为补充信号并列返回，不参与混合
type JobFitMatcher struct {
	vectorizer Vectorizer
}

// NewJobFitMatcher 构造匹配器，vectorizer 可以为nil（相似度始终省略）
func NewJobFitMatcher(vectorizer Vectorizer) *JobFitMatcher {
	return &JobFitMatcher{vectorizer: vectorizer}
}

// Match 计算简历与岗位的匹配结果
// 边界约定：required为空时必备匹配率记1.0（没有要求就没有不达标）；
// preferred为空时加分匹配率记0.0（没有加分项不等于自动满分）；
// 两个列表都为空时整体匹配度直接记100.0（空要求被平凡满足）
func (m *JobFitMatcher) Match(ctx context.Context, resumeSkills, required, preferred []string, resumeText, jobText string) types.JobFitResult {
	resume := toSkillSet(resumeSkills)
	requiredSet := normalizeSkills(required)
	preferredSet := normalizeSkills(preferred)

	requiredMatched, missingRequired := intersectDiff(resume, requiredSet)
	preferredMatched, missingPreferred := intersectDiff(resume, preferredSet)

	var matchPercentage float64
	switch {
	case len(requiredSet) == 0 && len(preferredSet) == 0:
		matchPercentage = 100.0
	default:
		requiredRate := 1.0
		if len(requiredSet) > 0 {
			requiredRate = float64(len(requiredMatched)) / float64(len(requiredSet))
		}
		preferredRate := 0.0
		if len(preferredSet) > 0 {
			preferredRate = float64(len(preferredMatched)) / float64(len(preferredSet))
		}
		matchPercentage = clampScore(requiredRate*requiredWeight + preferredRate*preferredWeight)
	}
	matchPercentage = round1(matchPercentage)

	result := types.JobFitResult{
		MatchPercentage:  matchPercentage,
		RequiredMatched:  requiredMatched,
		PreferredMatched: preferredMatched,
		MissingRequired:  missingRequired,
		MissingPreferred: missingPreferred,
		Recommendation:   recommendationFor(matchPercentage),
	}

	// 相似度是尽力而为的补充信号：向量化服务不可用时省略，绝不影响匹配度
	if m.vectorizer != nil && strings.TrimSpace(resumeText) != "" && strings.TrimSpace(jobText) != "" {
		sim, err := m.vectorizer.Similarity(ctx, resumeText, jobText)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("向量化服务不可用，省略语义相似度")
		} else {
			scaled := round1(clampScore(sim * 100))
			result.SemanticSimilarity = &scaled
		}
	}
	return result
}

// recommendationFor 按匹配度选择推荐档位
func recommendationFor(matchPercentage float64) string {
	switch {
	case matchPercentage >= 80:
		return RecommendExcellent
	case matchPercentage >= 60:
		return RecommendGood
	case matchPercentage >= 40:
		return RecommendModerate
	default:
		return RecommendLow
	}
}

// toSkillSet 技能切片转规范化集合
func toSkillSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, raw := range skills {
		s := strings.ToLower(strings.TrimSpace(raw))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// intersectDiff 求目标集合与简历集合的交集与差集，两者都按字典序返回
func intersectDiff(resume map[string]struct{}, target []string) (matched, missing []string) {
	matched = make([]string, 0, len(target))
	missing = make([]string, 0, len(target))
	for _, t := range target {
		if _, ok := resume[t]; ok {
			matched = append(matched, t)
		} else {
			missing = append(missing, t)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)
	return matched, missing
}
