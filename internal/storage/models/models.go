// Package models 定义存储层的GORM数据模型
package models

import (
	"time"

	"gorm.io/datatypes"
)

// SkillCareerPattern 技能-职业关联模式表
// (skill, career) 唯一；计数只增不减；confidence 永远是两个反馈计数的纯函数，
// 由学习引擎在同一事务内重算写入
type SkillCareerPattern struct {
	ID                    uint64    `gorm:"primaryKey;autoIncrement"`
	Skill                 string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_skill_career,priority:1;index:idx_skill"`
	Career                string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_skill_career,priority:2"`
	OccurrenceCount       int64     `gorm:"not null;default:0"`
	PositiveFeedbackCount int64     `gorm:"not null;default:0"`
	NegativeFeedbackCount int64     `gorm:"not null;default:0"`
	Confidence            float64   `gorm:"type:decimal(10,8);not null;default:0.5"`
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (SkillCareerPattern) TableName() string {
	return "skill_career_patterns"
}

// FeedbackRecord 反馈事件审计记录
// 学习效果体现在模式表里，这张表只为可追溯与统计保留原始事件
type FeedbackRecord struct {
	FeedbackID      string         `gorm:"type:varchar(36);primaryKey"`
	PredictedCareer string         `gorm:"type:varchar(100);not null;index:idx_predicted_career"`
	CorrectCareer   string         `gorm:"type:varchar(100)"` // 仅 corrected 反馈有值
	FeedbackType    string         `gorm:"type:varchar(20);not null;index:idx_feedback_type"`
	Skills          datatypes.JSON `gorm:"type:json"` // 事件关联的技能集合
	CreatedAt       time.Time      `gorm:"autoCreateTime;index:idx_created_at"`
}

// TableName 指定表名
func (FeedbackRecord) TableName() string {
	return "feedback_records"
}

// ResumeAnalysis 简历ATS评分历史
type ResumeAnalysis struct {
	AnalysisID      string         `gorm:"type:varchar(36);primaryKey"`
	OverallScore    float64        `gorm:"type:decimal(5,1);not null"`
	Breakdown       datatypes.JSON `gorm:"type:json"` // 各评分维度明细
	DetectedSkills  datatypes.JSON `gorm:"type:json"`
	TargetRole      string         `gorm:"type:varchar(100)"`
	PredictedCareer string         `gorm:"type:varchar(100)"`
	// Status 处理状态: SCORED / ARCHIVED
	Status string `gorm:"type:varchar(20);not null;index:idx_status"`
	// TextObjectKey 原文在对象存储中的键，归档后有值
	TextObjectKey string    `gorm:"type:varchar(255)"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index:idx_analysis_created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (ResumeAnalysis) TableName() string {
	return "resume_analyses"
}
