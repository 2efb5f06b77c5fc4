package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVectorizer 返回固定相似度的向量化桩
type stubVectorizer struct {
	similarity float64
	err        error
}

func (s *stubVectorizer) Similarity(ctx context.Context, a, b string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.similarity, nil
}

func TestJobFitMatcher_WeightedScenario(t *testing.T) {
	matcher := NewJobFitMatcher(nil)

	// 必备全中(70) + 加分命中2/3(20) = 90.0，落在Excellent档
	result := matcher.Match(context.Background(),
		[]string{"python", "sql", "machine learning", "tensorflow", "aws"},
		[]string{"python", "sql", "machine learning"},
		[]string{"tensorflow", "aws", "docker"},
		"", "")

	assert.InDelta(t, 90.0, result.MatchPercentage, 1e-9)
	assert.Equal(t, RecommendExcellent, result.Recommendation)
	assert.Equal(t, []string{"machine learning", "python", "sql"}, result.RequiredMatched)
	assert.Equal(t, []string{"aws", "tensorflow"}, result.PreferredMatched)
	assert.Empty(t, result.MissingRequired)
	assert.Equal(t, []string{"docker"}, result.MissingPreferred)
}

func TestJobFitMatcher_VacuousRequirements(t *testing.T) {
	matcher := NewJobFitMatcher(nil)

	// 要求全空且岗位描述为空：空要求被平凡满足，匹配度100且不报错
	result := matcher.Match(context.Background(),
		[]string{"python"}, nil, nil, "", "")

	assert.InDelta(t, 100.0, result.MatchPercentage, 1e-9)
	assert.Equal(t, RecommendExcellent, result.Recommendation)
	assert.Nil(t, result.SemanticSimilarity)
}

func TestJobFitMatcher_EmptyRequiredOnly(t *testing.T) {
	matcher := NewJobFitMatcher(nil)

	// required为空记匹配率1.0；preferred一个都没中则只有70分
	result := matcher.Match(context.Background(),
		[]string{"python"}, nil, []string{"docker", "kubernetes"}, "", "")

	assert.InDelta(t, 70.0, result.MatchPercentage, 1e-9)
	assert.Equal(t, RecommendGood, result.Recommendation)
}

func TestJobFitMatcher_EmptyPreferredNoBonus(t *testing.T) {
	matcher := NewJobFitMatcher(nil)

	// preferred为空记匹配率0.0，不是自动满分：必备全中也只有70分
	result := matcher.Match(context.Background(),
		[]string{"python", "sql"}, []string{"python", "sql"}, nil, "", "")

	assert.InDelta(t, 70.0, result.MatchPercentage, 1e-9)
}

func TestJobFitMatcher_TierBoundaries(t *testing.T) {
	// 档位下界含等号
	assert.Equal(t, RecommendExcellent, recommendationFor(80.0))
	assert.Equal(t, RecommendGood, recommendationFor(79.9))
	assert.Equal(t, RecommendGood, recommendationFor(60.0))
	assert.Equal(t, RecommendModerate, recommendationFor(59.9))
	assert.Equal(t, RecommendModerate, recommendationFor(40.0))
	assert.Equal(t, RecommendLow, recommendationFor(39.9))
	assert.Equal(t, RecommendLow, recommendationFor(0.0))
}

func TestJobFitMatcher_SemanticSimilarityReported(t *testing.T) {
	matcher := NewJobFitMatcher(&stubVectorizer{similarity: 0.85})

	result := matcher.Match(context.Background(),
		[]string{"python"}, []string{"python"}, nil,
		"resume text", "job description")

	// 相似度并列返回但不混入匹配度
	require.NotNil(t, result.SemanticSimilarity)
	assert.InDelta(t, 85.0, *result.SemanticSimilarity, 1e-9)
	assert.InDelta(t, 70.0, result.MatchPercentage, 1e-9)
}

func TestJobFitMatcher_VectorizerDownOmitsSimilarity(t *testing.T) {
	matcher := NewJobFitMatcher(&stubVectorizer{err: errors.New("timeout")})

	// 向量化不可用：省略相似度，匹配度照常计算
	result := matcher.Match(context.Background(),
		[]string{"python"}, []string{"python", "go"}, nil,
		"resume text", "job description")

	assert.Nil(t, result.SemanticSimilarity)
	assert.InDelta(t, 35.0, result.MatchPercentage, 1e-9)
	assert.Equal(t, RecommendLow, result.Recommendation)
}

func TestJobFitMatcher_NormalizesCase(t *testing.T) {
	matcher := NewJobFitMatcher(nil)

	result := matcher.Match(context.Background(),
		[]string{"Python", "SQL "}, []string{"python", "sql"}, nil, "", "")

	assert.InDelta(t, 70.0, result.MatchPercentage, 1e-9)
	assert.Equal(t, []string{"python", "sql"}, result.RequiredMatched)
}
