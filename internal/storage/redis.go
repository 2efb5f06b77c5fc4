package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"career-engine-go/internal/config"
	"career-engine-go/internal/constants"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisCache Redis访问封装
// 当前承载模式置信度读缓存与简历原文的短期缓存
type RedisCache struct {
	client        *redis.Client
	logger        zerolog.Logger
	confidenceTTL time.Duration
}

// NewRedisCache 创建Redis客户端并装配OpenTelemetry追踪
func NewRedisCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*RedisCache, error) {
	redisCfg := &cfg.Redis

	opts := &redis.Options{
		Addr:     redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}
	if redisCfg.PoolSize > 0 {
		opts.PoolSize = redisCfg.PoolSize
	}
	if redisCfg.MinIdleConns > 0 {
		opts.MinIdleConns = redisCfg.MinIdleConns
	}
	if redisCfg.DialTimeoutSeconds > 0 {
		opts.DialTimeout = time.Duration(redisCfg.DialTimeoutSeconds) * time.Second
	}
	if redisCfg.ReadTimeoutSeconds > 0 {
		opts.ReadTimeout = time.Duration(redisCfg.ReadTimeoutSeconds) * time.Second
	}
	if redisCfg.WriteTimeoutSeconds > 0 {
		opts.WriteTimeout = time.Duration(redisCfg.WriteTimeoutSeconds) * time.Second
	}
	if redisCfg.MaxRetries > 0 {
		opts.MaxRetries = redisCfg.MaxRetries
	}
	if redisCfg.MinRetryBackoffMS > 0 {
		opts.MinRetryBackoff = time.Duration(redisCfg.MinRetryBackoffMS) * time.Millisecond
	}
	if redisCfg.MaxRetryBackoffMS > 0 {
		opts.MaxRetryBackoff = time.Duration(redisCfg.MaxRetryBackoffMS) * time.Millisecond
	}

	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Warn().Err(err).Msg("Redis追踪装配失败，继续无追踪运行")
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis连接测试失败: %w", err)
	}

	ttl := time.Duration(redisCfg.ConfidenceCacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	logger.Info().Str("address", redisCfg.Address).Msg("Redis连接初始化完成")
	return &RedisCache{client: client, logger: logger, confidenceTTL: ttl}, nil
}

// confidenceKey 置信度缓存键
func confidenceKey(skill, career string) string {
	return fmt.Sprintf(constants.KeyPatternConfidence, skill, career)
}

// GetConfidence 读取置信度缓存，第二个返回值表示是否命中
func (r *RedisCache) GetConfidence(ctx context.Context, skill, career string) (float64, bool, error) {
	val, err := r.client.Get(ctx, confidenceKey(skill, career)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("读取置信度缓存失败: %w", err)
	}
	conf, err := strconv.ParseFloat(val, 64)
	if err != nil {
		// 缓存内容损坏按未命中处理，顺手清掉脏值
		r.client.Del(ctx, confidenceKey(skill, career))
		return 0, false, nil
	}
	return conf, true, nil
}

// SetConfidence 回填置信度缓存
func (r *RedisCache) SetConfidence(ctx context.Context, skill, career string, confidence float64) error {
	return r.client.Set(ctx, confidenceKey(skill, career),
		strconv.FormatFloat(confidence, 'f', -1, 64), r.confidenceTTL).Err()
}

// InvalidateConfidence 写穿失效单个置信度缓存
func (r *RedisCache) InvalidateConfidence(ctx context.Context, skill, career string) error {
	return r.client.Del(ctx, confidenceKey(skill, career)).Err()
}

// CacheAnalysisText 短期缓存已评分简历原文，归档流程从这里取文本
func (r *RedisCache) CacheAnalysisText(ctx context.Context, analysisID, text string, ttl time.Duration) error {
	key := fmt.Sprintf(constants.KeyAnalysisText, analysisID)
	return r.client.Set(ctx, key, text, ttl).Err()
}

// GetAnalysisText 读取缓存的简历原文，未命中返回空串
func (r *RedisCache) GetAnalysisText(ctx context.Context, analysisID string) (string, error) {
	key := fmt.Sprintf(constants.KeyAnalysisText, analysisID)
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("读取简历原文缓存失败: %w", err)
	}
	return val, nil
}

// Close 关闭Redis连接
func (r *RedisCache) Close() error {
	return r.client.Close()
}
