package storage

import "career-engine-go/internal/types"

// FeedbackMessage 反馈事件的队列消息载荷
// 消费侧据此驱动学习引擎并落审计记录
type FeedbackMessage struct {
	// FeedbackID 事件唯一标识 (UUIDv7)，用于审计记录主键
	FeedbackID string `json:"feedback_id"`
	// Event 反馈事件本体
	Event types.FeedbackEvent `json:"event"`
	// SubmittedAt 提交时间戳 (Unix毫秒)
	SubmittedAt int64 `json:"submitted_at"`
}
