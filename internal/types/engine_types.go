package types

// FeedbackPolarity 反馈极性，三种取值构成完整的状态空间
type FeedbackPolarity string

const (
	// PolarityPositive 预测被确认正确
	PolarityPositive FeedbackPolarity = "positive"
	// PolarityNegative 预测被否定，未提供正确答案
	PolarityNegative FeedbackPolarity = "negative"
	// PolarityCorrected 预测被否定，且用户指出了正确职业
	PolarityCorrected FeedbackPolarity = "corrected"
)

// FeedbackEvent 一次用户反馈事件，仅作为学习引擎的瞬态输入，本身不持久化
type FeedbackEvent struct {
	// PredictedCareer 被反馈的预测职业
	PredictedCareer string `json:"predicted_career"`
	// CorrectCareer 用户纠正后的职业，仅 Polarity 为 corrected 时有效
	CorrectCareer string `json:"correct_career,omitempty"`
	// Skills 本次预测所使用的技能集合
	Skills []string `json:"skills"`
	// Polarity 反馈极性
	Polarity FeedbackPolarity `json:"polarity"`
}

// SkillCareerPattern 技能-职业关联模式，(skill, career)唯一
// 计数只增不减，confidence 始终是两个反馈计数的纯函数
type SkillCareerPattern struct {
	Skill                 string  `json:"skill"`
	Career                string  `json:"career"`
	OccurrenceCount       int64   `json:"occurrence_count"`
	PositiveFeedbackCount int64   `json:"positive_feedback_count"`
	NegativeFeedbackCount int64   `json:"negative_feedback_count"`
	Confidence            float64 `json:"confidence"` // 0.0 - 1.0
}

// PatternDelta 对单个模式的一次加性更新
type PatternDelta struct {
	Occurrence int64
	Positive   int64
	Negative   int64
}

// CareerCandidate 单个职业候选，每次预测请求临时生成，不持久化
type CareerCandidate struct {
	Career          string  `json:"career"`
	BaseConfidence  float64 `json:"base_confidence"`  // 外部分类器输出，0-100
	LearnedBoost    float64 `json:"learned_boost"`    // 模式表派生，0-100
	FinalConfidence float64 `json:"final_confidence"` // 两者加权混合
}

// ResumeData ATS评分的输入，除Text外均为可选
type ResumeData struct {
	Text            string   `json:"text"`
	Skills          []string `json:"skills,omitempty"`           // 已提取的技能，为空时从Text重新提取
	SectionsPresent []string `json:"sections_present,omitempty"` // 显式声明的章节，为空时从Text探测
	TargetRole      string   `json:"target_role,omitempty"`      // 目标岗位，影响关键词参照集
}

// RubricComponent 单个评分维度的结果
type RubricComponent struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"` // 0-1，同一评分卡内权重之和为1.0
	Score  float64 `json:"score"`  // 0-100
}

// ATSReport ATS评分结果
type ATSReport struct {
	OverallScore float64           `json:"overall_score"` // 0-100，各维度加权和
	Breakdown    []RubricComponent `json:"breakdown"`
	// 关键词维度明细
	KeywordsFound   []string `json:"keywords_found"`
	KeywordsMissing []string `json:"keywords_missing"`
	// 章节维度明细
	Sections map[string]bool `json:"sections"`
	// 内容维度明细
	ActionVerbCount int      `json:"action_verb_count"`
	MetricCount     int      `json:"metric_count"`
	GenericPhrases  []string `json:"generic_phrases"` // 命中的泛泛空话，仅作提示
	DetectedSkills  []string `json:"detected_skills"`
}

// JobFitResult 简历与岗位的匹配结果，每次请求即时计算，不持久化
type JobFitResult struct {
	MatchPercentage float64 `json:"match_percentage"` // 0-100，保留一位小数
	// SemanticSimilarity 文本余弦相似度(0-100)，向量化服务不可用时为nil
	SemanticSimilarity *float64 `json:"semantic_similarity,omitempty"`
	RequiredMatched    []string `json:"required_matched"`
	PreferredMatched   []string `json:"preferred_matched"`
	MissingRequired    []string `json:"missing_required"`
	MissingPreferred   []string `json:"missing_preferred"`
	Recommendation     string   `json:"recommendation"`
}
