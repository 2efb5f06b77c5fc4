// Package storage 聚合全部外部存储组件：MySQL、Redis、RabbitMQ、MinIO
package storage

import (
	"context"

	"career-engine-go/internal/config"
	"career-engine-go/internal/engine"

	"github.com/rs/zerolog"
)

// Storage 存储组件聚合
// MySQL不可用时回落到进程内模式存储（开发与测试形态），其余组件都是可选增强：
// Redis缺失只丢缓存，RabbitMQ缺失反馈走同步路径，MinIO缺失跳过原文归档
type Storage struct {
	MySQL    *MySQL
	Redis    *RedisCache
	RabbitMQ *RabbitMQ
	MinIO    *MinIO

	patternStore engine.PatternStore
	feedbackRepo *FeedbackRepository
	analysisRepo *AnalysisRepository

	// initErrors 初始化过程中各组件的非致命错误，健康检查暴露
	initErrors map[string]error
}

// NewStorage 按配置初始化全部存储组件
func NewStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *Storage {
	s := &Storage{initErrors: make(map[string]error)}

	if mysqlDB, err := NewMySQL(ctx, cfg, logger); err != nil {
		logger.Warn().Err(err).Msg("MySQL不可用，模式存储回落到进程内实现")
		s.initErrors["mysql"] = err
	} else {
		s.MySQL = mysqlDB
	}

	if redisCache, err := NewRedisCache(ctx, cfg, logger); err != nil {
		logger.Warn().Err(err).Msg("Redis不可用，置信度缓存停用")
		s.initErrors["redis"] = err
	} else {
		s.Redis = redisCache
	}

	if mq, err := NewRabbitMQ(cfg, logger); err != nil {
		logger.Warn().Err(err).Msg("RabbitMQ不可用，反馈改走同步路径")
		s.initErrors["rabbitmq"] = err
	} else {
		s.RabbitMQ = mq
	}

	if minioClient, err := NewMinIO(ctx, cfg, logger); err != nil {
		logger.Warn().Err(err).Msg("MinIO不可用，跳过简历原文归档")
		s.initErrors["minio"] = err
	} else {
		s.MinIO = minioClient
	}

	if s.MySQL != nil {
		s.patternStore = NewGormPatternStore(s.MySQL.DB(), s.Redis)
		s.feedbackRepo = NewFeedbackRepository(s.MySQL.DB())
		s.analysisRepo = NewAnalysisRepository(s.MySQL.DB())
	} else {
		s.patternStore = engine.NewMemoryPatternStore()
	}
	return s
}

// NewMemoryStorage 纯内存形态的存储聚合，无任何外部组件
// 供单元测试与无依赖的本地运行使用
func NewMemoryStorage() *Storage {
	return &Storage{
		patternStore: engine.NewMemoryPatternStore(),
		initErrors:   make(map[string]error),
	}
}

// PatternStore 当前生效的模式存储
func (s *Storage) PatternStore() engine.PatternStore {
	return s.patternStore
}

// FeedbackRepo 反馈记录仓库，MySQL不可用时为nil
func (s *Storage) FeedbackRepo() *FeedbackRepository {
	return s.feedbackRepo
}

// AnalysisRepo 评分历史仓库，MySQL不可用时为nil
func (s *Storage) AnalysisRepo() *AnalysisRepository {
	return s.analysisRepo
}

// ComponentStatus 各组件的健康状态，true为可用
func (s *Storage) ComponentStatus() map[string]bool {
	return map[string]bool{
		"mysql":    s.MySQL != nil,
		"redis":    s.Redis != nil,
		"rabbitmq": s.RabbitMQ != nil,
		"minio":    s.MinIO != nil,
	}
}

// InitErrors 初始化错误明细
func (s *Storage) InitErrors() map[string]error {
	return s.initErrors
}

// Close 按依赖倒序关闭全部组件
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		s.RabbitMQ.Close()
	}
	if s.Redis != nil {
		s.Redis.Close()
	}
	if s.MySQL != nil {
		s.MySQL.Close()
	}
}
