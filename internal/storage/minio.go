package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"career-engine-go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
)

// MinIO 对象存储封装，归档已评分的简历原文
// 归档对象按配置的天数做生命周期过期，评分历史行保留指向对象的键
type MinIO struct {
	client *minio.Client
	config *config.MinIOConfig
	logger zerolog.Logger
}

// NewMinIO 创建MinIO客户端并确保归档桶与生命周期规则就绪
func NewMinIO(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*MinIO, error) {
	minioCfg := &cfg.MinIO

	client, err := minio.New(minioCfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioCfg.AccessKeyID, minioCfg.SecretAccessKey, ""),
		Secure: minioCfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{client: client, config: minioCfg, logger: logger}
	if err := m.ensureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info().
		Str("endpoint", minioCfg.Endpoint).
		Str("bucket", minioCfg.AnalyzedTextBucket).
		Msg("MinIO初始化完成")
	return m, nil
}

// ensureBucket 确保归档桶存在并应用过期规则
func (m *MinIO) ensureBucket(ctx context.Context) error {
	bucket := m.config.AnalyzedTextBucket
	if bucket == "" {
		return fmt.Errorf("归档桶名不能为空")
	}

	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("检查归档桶失败: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{
			Region: m.config.Location,
		}); err != nil {
			return fmt.Errorf("创建归档桶失败: %w", err)
		}
	}

	if m.config.AnalyzedTextExpireDays > 0 {
		lc := lifecycle.NewConfiguration()
		lc.Rules = []lifecycle.Rule{
			{
				ID:     "expire-analyzed-texts",
				Status: "Enabled",
				Expiration: lifecycle.Expiration{
					Days: lifecycle.ExpirationDays(m.config.AnalyzedTextExpireDays),
				},
			},
		}
		if err := m.client.SetBucketLifecycle(ctx, bucket, lc); err != nil {
			// 生命周期规则失败不阻断启动，只影响存储成本
			m.logger.Warn().Err(err).Str("bucket", bucket).Msg("设置归档桶生命周期失败")
		}
	}
	return nil
}

// ArchiveAnalysisText 归档一份已评分的简历原文，返回对象键
func (m *MinIO) ArchiveAnalysisText(ctx context.Context, analysisID, text string) (string, error) {
	objectKey := fmt.Sprintf("analyses/%s.txt", analysisID)
	reader := strings.NewReader(text)

	_, err := m.client.PutObject(ctx, m.config.AnalyzedTextBucket, objectKey,
		reader, int64(reader.Len()),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return "", fmt.Errorf("归档简历原文失败: %w", err)
	}
	return objectKey, nil
}

// GetAnalysisText 读取已归档的简历原文
func (m *MinIO) GetAnalysisText(ctx context.Context, objectKey string) (string, error) {
	obj, err := m.client.GetObject(ctx, m.config.AnalyzedTextBucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("读取归档对象失败: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("读取归档对象内容失败: %w", err)
	}
	return string(data), nil
}

// Close MinIO客户端无持久连接，保留接口一致性
func (m *MinIO) Close() error {
	return nil
}
