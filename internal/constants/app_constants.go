package constants

// 反馈极性常量，与存储层 feedback_records.feedback_type 字段取值保持一致
const (
	// FeedbackPositive 用户确认预测正确
	FeedbackPositive = "positive"
	// FeedbackNegative 用户认为预测错误（未给出正确职业）
	FeedbackNegative = "negative"
	// FeedbackCorrected 用户认为预测错误并指出正确职业
	FeedbackCorrected = "corrected"
)

// 分析记录处理状态
const (
	// AnalysisStatusScored 已完成ATS评分
	AnalysisStatusScored = "SCORED"
	// AnalysisStatusArchived 原文已归档到对象存储
	AnalysisStatusArchived = "ARCHIVED"
)

// 默认的消息队列拓扑，可被配置覆盖
const (
	// DefaultFeedbackExchange 反馈事件交换机
	DefaultFeedbackExchange = "career.feedback.exchange"
	// DefaultFeedbackRoutingKey 反馈事件路由键
	DefaultFeedbackRoutingKey = "feedback.submitted"
	// DefaultFeedbackQueue 反馈事件队列
	DefaultFeedbackQueue = "q.career_feedback"
)
