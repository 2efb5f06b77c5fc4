package engine

import (
	"context"
	"sync"
	"testing"

	"career-engine-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaplaceConfidence(t *testing.T) {
	// 零观测时先验恰好为0.5
	assert.InDelta(t, 0.5, LaplaceConfidence(0, 0), 1e-9)
	// 一次正反馈后 (1+1)/(1+0+2) = 2/3
	assert.InDelta(t, 2.0/3.0, LaplaceConfidence(1, 0), 1e-9)
	// 一正一负回到中立 2/4 = 0.5
	assert.InDelta(t, 0.5, LaplaceConfidence(1, 1), 1e-9)
	// 单次早期负反馈不会把置信度打到0
	assert.Greater(t, LaplaceConfidence(0, 1), 0.0)
	assert.InDelta(t, 1.0/3.0, LaplaceConfidence(0, 1), 1e-9)
}

func TestPatternStore_ZeroStateRead(t *testing.T) {
	store := NewMemoryPatternStore()

	// 从未写入的键读出零值模式，置信度0.5
	p, err := store.Get(context.Background(), "python", "data scientist")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p.Confidence, 1e-9)
	assert.Zero(t, p.OccurrenceCount)
	assert.Zero(t, p.PositiveFeedbackCount)
	assert.Zero(t, p.NegativeFeedbackCount)
}

func TestLearningEngine_PositiveFeedback(t *testing.T) {
	store := NewMemoryPatternStore()
	learning := NewLearningEngine(store)

	err := learning.RecordFeedback(context.Background(), types.FeedbackEvent{
		PredictedCareer: "Data Scientist",
		Skills:          []string{"Python", "sql"},
		Polarity:        types.PolarityPositive,
	})
	require.NoError(t, err)

	// 职业名与技能都被规范化为小写
	p, err := store.Get(context.Background(), "python", "data scientist")
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.OccurrenceCount)
	assert.EqualValues(t, 1, p.PositiveFeedbackCount)
	assert.EqualValues(t, 0, p.NegativeFeedbackCount)
	assert.InDelta(t, 2.0/3.0, p.Confidence, 1e-9)

	p, err = store.Get(context.Background(), "sql", "data scientist")
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, p.Confidence, 1e-9)
}

func TestLearningEngine_NegativeThenPositiveReturnsToNeutral(t *testing.T) {
	store := NewMemoryPatternStore()
	learning := NewLearningEngine(store)
	ctx := context.Background()

	event := types.FeedbackEvent{
		PredictedCareer: "backend developer",
		Skills:          []string{"docker"},
	}
	event.Polarity = types.PolarityPositive
	require.NoError(t, learning.RecordFeedback(ctx, event))
	event.Polarity = types.PolarityNegative
	require.NoError(t, learning.RecordFeedback(ctx, event))

	p, err := store.Get(ctx, "docker", "backend developer")
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.OccurrenceCount)
	assert.EqualValues(t, 1, p.PositiveFeedbackCount)
	assert.EqualValues(t, 1, p.NegativeFeedbackCount)
	assert.InDelta(t, 0.5, p.Confidence, 1e-9)
}

func TestLearningEngine_CorrectionRedirectsLearning(t *testing.T) {
	store := NewMemoryPatternStore()
	learning := NewLearningEngine(store)
	ctx := context.Background()

	err := learning.RecordFeedback(ctx, types.FeedbackEvent{
		PredictedCareer: "frontend developer",
		CorrectCareer:   "backend developer",
		Skills:          []string{"python"},
		Polarity:        types.PolarityCorrected,
	})
	require.NoError(t, err)

	// 被否定的预测职业记负反馈
	wrong, err := store.Get(ctx, "python", "frontend developer")
	require.NoError(t, err)
	assert.EqualValues(t, 1, wrong.NegativeFeedbackCount)
	assert.EqualValues(t, 0, wrong.PositiveFeedbackCount)
	assert.InDelta(t, 1.0/3.0, wrong.Confidence, 1e-9)

	// 用户指出的正确职业记正反馈，学习被重定向
	right, err := store.Get(ctx, "python", "backend developer")
	require.NoError(t, err)
	assert.EqualValues(t, 1, right.PositiveFeedbackCount)
	assert.EqualValues(t, 0, right.NegativeFeedbackCount)
	assert.InDelta(t, 2.0/3.0, right.Confidence, 1e-9)
}

func TestLearningEngine_RepeatedEventsEachCount(t *testing.T) {
	store := NewMemoryPatternStore()
	learning := NewLearningEngine(store)
	ctx := context.Background()

	// 相同事件重复提交不做去重，每次都计入历史
	event := types.FeedbackEvent{
		PredictedCareer: "devops engineer",
		Skills:          []string{"kubernetes"},
		Polarity:        types.PolarityPositive,
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, learning.RecordFeedback(ctx, event))
	}

	p, err := store.Get(ctx, "kubernetes", "devops engineer")
	require.NoError(t, err)
	assert.EqualValues(t, 3, p.OccurrenceCount)
	assert.EqualValues(t, 3, p.PositiveFeedbackCount)
	assert.InDelta(t, 4.0/5.0, p.Confidence, 1e-9)
}

func TestLearningEngine_Validation(t *testing.T) {
	learning := NewLearningEngine(NewMemoryPatternStore())
	ctx := context.Background()

	// 缺预测职业
	err := learning.RecordFeedback(ctx, types.FeedbackEvent{
		Skills:   []string{"python"},
		Polarity: types.PolarityPositive,
	})
	assert.ErrorIs(t, err, ErrValidation)

	// 非法极性
	err = learning.RecordFeedback(ctx, types.FeedbackEvent{
		PredictedCareer: "data scientist",
		Skills:          []string{"python"},
		Polarity:        types.FeedbackPolarity("maybe"),
	})
	assert.ErrorIs(t, err, ErrValidation)

	// 纠正反馈必须携带正确职业
	err = learning.RecordFeedback(ctx, types.FeedbackEvent{
		PredictedCareer: "data scientist",
		Skills:          []string{"python"},
		Polarity:        types.PolarityCorrected,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPatternStore_RejectsNegativeCounts(t *testing.T) {
	store := NewMemoryPatternStore()

	// 把计数推成负数的增量违反完整性不变量，必须被拒绝
	_, err := store.ApplyDelta(context.Background(), "python", "data scientist",
		types.PatternDelta{Positive: -1})
	assert.ErrorIs(t, err, ErrDataIntegrity)

	// 拒绝的写入不能留下任何痕迹
	p, err := store.Get(context.Background(), "python", "data scientist")
	require.NoError(t, err)
	assert.Zero(t, p.PositiveFeedbackCount)
}

func TestPatternStore_ListBySkillsOrderedByConfidence(t *testing.T) {
	store := NewMemoryPatternStore()
	ctx := context.Background()

	// 同一技能下置信度不同的三个职业
	_, err := store.ApplyDelta(ctx, "python", "data scientist",
		types.PatternDelta{Occurrence: 3, Positive: 3})
	require.NoError(t, err)
	_, err = store.ApplyDelta(ctx, "python", "backend developer",
		types.PatternDelta{Occurrence: 2, Positive: 1, Negative: 1})
	require.NoError(t, err)
	_, err = store.ApplyDelta(ctx, "python", "frontend developer",
		types.PatternDelta{Occurrence: 1, Negative: 1})
	require.NoError(t, err)

	// map遍历本身无序，输出必须按置信度降序且每次一致
	for i := 0; i < 10; i++ {
		patterns, err := store.ListBySkills(ctx, []string{"python"})
		require.NoError(t, err)
		require.Len(t, patterns, 3)
		assert.Equal(t, "data scientist", patterns[0].Career)
		assert.Equal(t, "backend developer", patterns[1].Career)
		assert.Equal(t, "frontend developer", patterns[2].Career)
	}
}

func TestLearningEngine_ConcurrentSameKeyFeedback(t *testing.T) {
	store := NewMemoryPatternStore()
	learning := NewLearningEngine(store)
	ctx := context.Background()

	// 同键并发写入必须串行化，不允许丢失更新
	const goroutines = 50
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = learning.RecordFeedback(ctx, types.FeedbackEvent{
				PredictedCareer: "data scientist",
				Skills:          []string{"python"},
				Polarity:        types.PolarityPositive,
			})
		}()
	}
	wg.Wait()

	p, err := store.Get(ctx, "python", "data scientist")
	require.NoError(t, err)
	assert.EqualValues(t, goroutines, p.OccurrenceCount)
	assert.EqualValues(t, goroutines, p.PositiveFeedbackCount)
	assert.InDelta(t,
		LaplaceConfidence(goroutines, 0), p.Confidence, 1e-9)
}
