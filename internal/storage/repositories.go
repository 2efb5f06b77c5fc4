package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"career-engine-go/internal/constants"
	"career-engine-go/internal/storage/models"
	"career-engine-go/internal/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FeedbackRepository 反馈审计记录的读写
type FeedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository 构造反馈记录仓库
func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// SaveRecord 落一条反馈审计记录
func (r *FeedbackRepository) SaveRecord(ctx context.Context, feedbackID string, event types.FeedbackEvent) error {
	skillsJSON, err := json.Marshal(event.Skills)
	if err != nil {
		return fmt.Errorf("序列化技能集合失败: %w", err)
	}
	record := models.FeedbackRecord{
		FeedbackID:      feedbackID,
		PredictedCareer: event.PredictedCareer,
		CorrectCareer:   event.CorrectCareer,
		FeedbackType:    string(event.Polarity),
		Skills:          datatypes.JSON(skillsJSON),
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("写入反馈记录失败: %w", err)
	}
	return nil
}

// FeedbackStats 反馈统计汇总
type FeedbackStats struct {
	Total     int64 `json:"total"`
	Positive  int64 `json:"positive"`
	Negative  int64 `json:"negative"`
	Corrected int64 `json:"corrected"`
}

// Stats 按反馈极性统计事件总量
func (r *FeedbackRepository) Stats(ctx context.Context) (FeedbackStats, error) {
	var rows []struct {
		FeedbackType string
		Count        int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.FeedbackRecord{}).
		Select("feedback_type, COUNT(*) AS count").
		Group("feedback_type").
		Scan(&rows).Error
	if err != nil {
		return FeedbackStats{}, fmt.Errorf("统计反馈记录失败: %w", err)
	}

	var stats FeedbackStats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.FeedbackType {
		case constants.FeedbackPositive:
			stats.Positive = row.Count
		case constants.FeedbackNegative:
			stats.Negative = row.Count
		case constants.FeedbackCorrected:
			stats.Corrected = row.Count
		}
	}
	return stats, nil
}

// CareerAccuracy 单个职业的反馈准确率
type CareerAccuracy struct {
	Career   string  `json:"career"`
	Total    int64   `json:"total"`
	Positive int64   `json:"positive"`
	Accuracy float64 `json:"accuracy"` // positive / total
}

// AccuracyByCareer 按预测职业统计反馈准确率，反馈总量降序
func (r *FeedbackRepository) AccuracyByCareer(ctx context.Context) ([]CareerAccuracy, error) {
	var rows []struct {
		PredictedCareer string
		Total           int64
		Positive        int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.FeedbackRecord{}).
		Select("predicted_career, COUNT(*) AS total, SUM(CASE WHEN feedback_type = ? THEN 1 ELSE 0 END) AS positive",
			constants.FeedbackPositive).
		Group("predicted_career").
		Order("total DESC, predicted_career ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("统计职业准确率失败: %w", err)
	}

	out := make([]CareerAccuracy, 0, len(rows))
	for _, row := range rows {
		acc := CareerAccuracy{
			Career:   row.PredictedCareer,
			Total:    row.Total,
			Positive: row.Positive,
		}
		if row.Total > 0 {
			acc.Accuracy = float64(row.Positive) / float64(row.Total)
		}
		out = append(out, acc)
	}
	return out, nil
}

// AnalysisRepository 简历评分历史的读写
type AnalysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository 构造评分历史仓库
func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// SaveAnalysis 落一条评分历史，状态为SCORED
func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, analysisID string, report types.ATSReport, targetRole, predictedCareer string) error {
	breakdownJSON, err := json.Marshal(report.Breakdown)
	if err != nil {
		return fmt.Errorf("序列化评分明细失败: %w", err)
	}
	skillsJSON, err := json.Marshal(report.DetectedSkills)
	if err != nil {
		return fmt.Errorf("序列化检出技能失败: %w", err)
	}

	record := models.ResumeAnalysis{
		AnalysisID:      analysisID,
		OverallScore:    report.OverallScore,
		Breakdown:       datatypes.JSON(breakdownJSON),
		DetectedSkills:  datatypes.JSON(skillsJSON),
		TargetRole:      targetRole,
		PredictedCareer: predictedCareer,
		Status:          constants.AnalysisStatusScored,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("写入评分历史失败: %w", err)
	}
	return nil
}

// MarkArchived 归档完成后更新状态与对象键
func (r *AnalysisRepository) MarkArchived(ctx context.Context, analysisID, objectKey string) error {
	result := r.db.WithContext(ctx).
		Model(&models.ResumeAnalysis{}).
		Where("analysis_id = ?", analysisID).
		Updates(map[string]interface{}{
			"status":          constants.AnalysisStatusArchived,
			"text_object_key": objectKey,
		})
	if result.Error != nil {
		return fmt.Errorf("更新归档状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("评分历史不存在: %s", analysisID)
	}
	return nil
}

// GetAnalysis 按ID读取评分历史
func (r *AnalysisRepository) GetAnalysis(ctx context.Context, analysisID string) (*models.ResumeAnalysis, error) {
	var record models.ResumeAnalysis
	if err := r.db.WithContext(ctx).
		Where("analysis_id = ?", analysisID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}
