package engine

import (
	"context"
	"strings"

	"career-engine-go/internal/logger"
	"career-engine-go/internal/types"
)

// LaplaceConfidence 拉普拉斯平滑的置信度估计
// (pos+1)/(pos+neg+2)：零观测时先验0.5，随反馈积累收敛到经验正率，
// 且永远严格落在(0,1)开区间内，单次早期负反馈不会把置信度打到0
func LaplaceConfidence(positive, negative int64) float64 {
	return float64(positive+1) / float64(positive+negative+2)
}

// LearningEngine 反馈学习引擎，是模式表唯一的写入方
type LearningEngine struct {
	store PatternStore
}

// NewLearningEngine 构造学习引擎
func NewLearningEngine(store PatternStore) *LearningEngine {
	return &LearningEngine{store: store}
}

// RecordFeedback 应用一次反馈事件
// 对事件技能集合中的每个技能：
//   - (skill, predicted) 的出现计数+1，正反馈时正计数+1，负/纠正反馈时负计数+1
//   - 纠正反馈额外对 (skill, correct) 做出现计数+1和正计数+1，把学习导向正确职业
//
// 置信度由存储层在同一次写入内按拉普拉斯公式重算，本引擎从不单独改置信度
func (e *LearningEngine) RecordFeedback(ctx context.Context, event types.FeedbackEvent) error {
	if err := validateFeedback(event); err != nil {
		return err
	}

	predicted := normalizeCareer(event.PredictedCareer)
	correct := normalizeCareer(event.CorrectCareer)

	for _, raw := range event.Skills {
		skill := strings.ToLower(strings.TrimSpace(raw))
		if skill == "" {
			continue
		}

		delta := types.PatternDelta{Occurrence: 1}
		switch event.Polarity {
		case types.PolarityPositive:
			delta.Positive = 1
		case types.PolarityNegative, types.PolarityCorrected:
			delta.Negative = 1
		}

		if _, err := e.store.ApplyDelta(ctx, skill, predicted, delta); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("skill", skill).
				Str("career", predicted).
				Msg("应用反馈增量失败")
			return err
		}

		// 纠正事件把正反馈重定向到用户指出的正确职业
		if event.Polarity == types.PolarityCorrected {
			redirect := types.PatternDelta{Occurrence: 1, Positive: 1}
			if _, err := e.store.ApplyDelta(ctx, skill, correct, redirect); err != nil {
				logger.Ctx(ctx).Error().Err(err).
					Str("skill", skill).
					Str("career", correct).
					Msg("应用纠正增量失败")
				return err
			}
		}
	}
	return nil
}

// validateFeedback 校验反馈事件的结构合法性
func validateFeedback(event types.FeedbackEvent) error {
	if strings.TrimSpace(event.PredictedCareer) == "" {
		return newValidationError("learning.RecordFeedback", "predicted_career is required")
	}
	switch event.Polarity {
	case types.PolarityPositive, types.PolarityNegative:
		// 合法
	case types.PolarityCorrected:
		if strings.TrimSpace(event.CorrectCareer) == "" {
			return newValidationError("learning.RecordFeedback",
				"correct_career is required for corrected feedback")
		}
	default:
		return newValidationError("learning.RecordFeedback",
			"polarity must be one of positive/negative/corrected")
	}
	return nil
}

// normalizeCareer 职业名规范化为小写去首尾空白
func normalizeCareer(career string) string {
	return strings.ToLower(strings.TrimSpace(career))
}
