package constants

// Redis Key 前缀和格式常量
// 统一命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// PatternModulePrefix 技能-职业模式模块
	PatternModulePrefix = "pattern"
	// AnalysisModulePrefix 简历分析模块
	AnalysisModulePrefix = "analysis"

	// EntityConfidence 置信度缓存实体
	EntityConfidence = "confidence"
	// EntityText 文本实体
	EntityText = "text"

	// KeyPatternConfidence 单个(skill, career)模式的置信度缓存 (STRING)
	// 格式: app:pattern:confidence:{skill}:{career}
	KeyPatternConfidence = AppPrefix + ":" + PatternModulePrefix + ":" + EntityConfidence + ":%s:%s"

	// KeyAnalysisText 已评分简历原文缓存 (STRING)
	// 格式: app:analysis:text:{analysisID}
	KeyAnalysisText = AppPrefix + ":" + AnalysisModulePrefix + ":" + EntityText + ":%s"
)
