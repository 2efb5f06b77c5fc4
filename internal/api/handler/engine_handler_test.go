package handler

import (
	"context"
	"testing"

	"career-engine-go/internal/config"
	"career-engine-go/internal/engine"
	"career-engine-go/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClassifier 固定输出的分类器桩
type fixedClassifier struct {
	result map[string]float64
}

func (f *fixedClassifier) Classify(ctx context.Context, skills []string) (map[string]float64, error) {
	return f.result, nil
}

// newTestHandler 纯内存形态的协调器，无任何外部依赖
func newTestHandler(t *testing.T, classifierResult map[string]float64) *EngineHandler {
	t.Helper()

	cfg := &config.Config{}
	cfg.Engine.PatternWeight = 0.30
	cfg.Engine.MaxPredictions = 3

	st := storage.NewMemoryStorage()
	extractor := engine.NewSkillExtractor()
	scorer := engine.NewATSRubricScorer(extractor)
	learning := engine.NewLearningEngine(st.PatternStore())
	predictor := engine.NewCareerPredictor(
		&fixedClassifier{result: classifierResult}, st.PatternStore(), 0.30, 3)
	matcher := engine.NewJobFitMatcher(nil)

	return NewEngineHandler(cfg, st, extractor, scorer, predictor, learning, matcher)
}

func TestHandleExtractSkills(t *testing.T) {
	h := newTestHandler(t, nil)

	resp, err := h.HandleExtractSkills(context.Background(), ExtractSkillsRequest{
		Text: "Experienced with Python, Docker and SQL",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"docker", "python", "sql"}, resp.Skills)
	assert.Equal(t, 3, resp.Count)

	// 无命中返回空列表而不是错误
	resp, err = h.HandleExtractSkills(context.Background(), ExtractSkillsRequest{Text: ""})
	require.NoError(t, err)
	assert.Empty(t, resp.Skills)
}

func TestHandleScoreResume_RequiresInput(t *testing.T) {
	h := newTestHandler(t, nil)

	_, err := h.HandleScoreResume(context.Background(), ScoreResumeRequest{})
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestHandleScoreResume_Success(t *testing.T) {
	h := newTestHandler(t, map[string]float64{"backend developer": 80})

	resp, err := h.HandleScoreResume(context.Background(), ScoreResumeRequest{
		Text: "Email: dev@example.com Phone: 555-000-1111\n" +
			"Experience: developed services with python and docker\n" +
			"Education: degree\nSkills: python, docker",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AnalysisID)
	assert.GreaterOrEqual(t, resp.Report.OverallScore, 0.0)
	assert.LessOrEqual(t, resp.Report.OverallScore, 100.0)
	assert.Contains(t, resp.Report.DetectedSkills, "python")
	require.NotEmpty(t, resp.Predictions)
	assert.Equal(t, "backend developer", resp.Predictions[0].Career)
}

func TestHandleSubmitFeedback_SyncPathAppliesLearning(t *testing.T) {
	h := newTestHandler(t, nil)
	ctx := context.Background()

	// 无消息队列时走同步路径，学习立即生效
	resp, err := h.HandleSubmitFeedback(ctx, FeedbackRequest{
		PredictedCareer: "Data Scientist",
		Skills:          []string{"python"},
		Polarity:        "POSITIVE",
	})
	require.NoError(t, err)
	assert.Equal(t, "applied", resp.Mode)
	assert.NotEmpty(t, resp.FeedbackID)

	p, err := h.storage.PatternStore().Get(ctx, "python", "data scientist")
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.PositiveFeedbackCount)
	assert.InDelta(t, 2.0/3.0, p.Confidence, 1e-9)
}

func TestHandleSubmitFeedback_ValidationError(t *testing.T) {
	h := newTestHandler(t, nil)

	_, err := h.HandleSubmitFeedback(context.Background(), FeedbackRequest{
		PredictedCareer: "data scientist",
		Skills:          []string{"python"},
		Polarity:        "corrected", // 缺correct_career
	})
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestHandlePredictCareers_FromText(t *testing.T) {
	h := newTestHandler(t, map[string]float64{
		"data scientist":    85,
		"backend developer": 55,
	})

	resp, err := h.HandlePredictCareers(context.Background(), PredictCareersRequest{
		Text: "machine learning with python and tensorflow",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Skills, "machine learning")
	require.NotEmpty(t, resp.Candidates)
	assert.Equal(t, "data scientist", resp.Candidates[0].Career)
}

func TestHandleMatchJob_ExtractsFromJobDescription(t *testing.T) {
	h := newTestHandler(t, nil)

	// 未显式给出技能要求时，从岗位描述提取作为必备集
	resp, err := h.HandleMatchJob(context.Background(), JobMatchRequest{
		ResumeText:     "worked with python and docker",
		JobDescription: "we need python and kubernetes",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, resp.RequiredMatched)
	assert.Equal(t, []string{"kubernetes"}, resp.MissingRequired)
	assert.InDelta(t, 35.0, resp.MatchPercentage, 1e-9)
}

func TestHandleSkillCareers_Validation(t *testing.T) {
	h := newTestHandler(t, nil)

	_, err := h.HandleSkillCareers(context.Background(), "  ")
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestHandleTopPatterns_AfterFeedback(t *testing.T) {
	h := newTestHandler(t, nil)
	ctx := context.Background()

	_, err := h.HandleSubmitFeedback(ctx, FeedbackRequest{
		PredictedCareer: "devops engineer",
		Skills:          []string{"kubernetes", "docker"},
		Polarity:        "positive",
	})
	require.NoError(t, err)

	resp, err := h.HandleTopPatterns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, resp.Patterns, 2)
	for _, p := range resp.Patterns {
		assert.Equal(t, "devops engineer", p.Career)
		assert.InDelta(t, 2.0/3.0, p.Confidence, 1e-9)
	}
}

func TestHandleHealth_ReportsComponents(t *testing.T) {
	h := newTestHandler(t, nil)

	resp := h.HandleHealth(context.Background())
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Components["mysql"])
	assert.False(t, resp.Components["rabbitmq"])
}
