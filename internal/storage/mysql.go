package storage

import (
	"context"
	"fmt"
	"time"

	"career-engine-go/internal/config"
	"career-engine-go/internal/storage/models"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormTracingPlugin 基于OpenTelemetry的GORM查询追踪插件
// 在每次查询前后注册回调，把SQL耗时与影响行数写入span
type GormTracingPlugin struct{}

// Name 插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormTracingPlugin"
}

type gormSpanKey struct{}

// Initialize 注册GORM生命周期回调
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	before := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			tracer := otel.Tracer("career-engine/storage/mysql")
			ctx, span := tracer.Start(tx.Statement.Context, "gorm."+op,
				trace.WithSpanKind(trace.SpanKindClient))
			tx.Statement.Context = context.WithValue(ctx, gormSpanKey{}, span)
		}
	}
	after := func(tx *gorm.DB) {
		span, ok := tx.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()
		span.SetAttributes(
			attribute.String("db.system", "mysql"),
			attribute.String("db.table", tx.Statement.Table),
			attribute.Int64("db.rows_affected", tx.Statement.RowsAffected),
		)
		if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
			span.RecordError(tx.Error)
			span.SetStatus(codes.Error, tx.Error.Error())
		}
	}

	if err := db.Callback().Create().Before("gorm:create").Register("tracing:before_create", before("create")); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("tracing:after_create", after); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("tracing:before_query", before("query")); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("tracing:after_query", after); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tracing:before_update", before("update")); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("tracing:after_update", after); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("tracing:before_delete", before("delete")); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("tracing:after_delete", after); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("tracing:before_row", before("row")); err != nil {
		return err
	}
	if err := db.Callback().Row().After("gorm:row").Register("tracing:after_row", after); err != nil {
		return err
	}
	return nil
}

// MySQL 数据库访问封装
type MySQL struct {
	db     *gorm.DB
	config *config.MySQLConfig
	logger zerolog.Logger
}

// NewMySQL 创建MySQL连接并完成连接池与追踪插件装配
func NewMySQL(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	mysqlCfg := &cfg.MySQL

	dsn := buildDSN(mysqlCfg)
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(mapLogLevel(mysqlCfg.LogLevel)),
	}

	db, err := gorm.Open(mysql.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	if err := db.Use(&GormTracingPlugin{}); err != nil {
		return nil, fmt.Errorf("注册GORM追踪插件失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层sql.DB失败: %w", err)
	}
	if mysqlCfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(mysqlCfg.MaxIdleConns)
	}
	if mysqlCfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(mysqlCfg.MaxOpenConns)
	}
	if mysqlCfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(mysqlCfg.ConnMaxLifetimeMinutes) * time.Minute)
	}
	if mysqlCfg.ConnMaxIdleTimeMinutes > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(mysqlCfg.ConnMaxIdleTimeMinutes) * time.Minute)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("MySQL连接测试失败: %w", err)
	}

	m := &MySQL{db: db, config: mysqlCfg, logger: logger}
	if err := m.autoMigrateSchema(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("host", mysqlCfg.Host).
		Int("port", mysqlCfg.Port).
		Str("database", mysqlCfg.Database).
		Msg("MySQL连接初始化完成")
	return m, nil
}

// buildDSN 拼接MySQL DSN，带超时与utf8mb4设置
func buildDSN(cfg *config.MySQLConfig) string {
	connectTimeout := cfg.ConnectTimeoutSeconds
	if connectTimeout <= 0 {
		connectTimeout = 10
	}
	readTimeout := cfg.ReadTimeoutSeconds
	if readTimeout <= 0 {
		readTimeout = 30
	}
	writeTimeout := cfg.WriteTimeoutSeconds
	if writeTimeout <= 0 {
		writeTimeout = 30
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		connectTimeout, readTimeout, writeTimeout,
	)
}

// mapLogLevel 配置日志级别(1-4)映射到GORM日志级别
func mapLogLevel(level int) gormlogger.LogLevel {
	switch level {
	case 1:
		return gormlogger.Silent
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// autoMigrateSchema 自动迁移表结构
// 迁移期间静默GORM日志，避免启动时刷屏
func (m *MySQL) autoMigrateSchema() error {
	migrator := m.db.Session(&gorm.Session{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err := migrator.AutoMigrate(
		&models.SkillCareerPattern{},
		&models.FeedbackRecord{},
		&models.ResumeAnalysis{},
	); err != nil {
		return fmt.Errorf("自动迁移表结构失败: %w", err)
	}
	return nil
}

// DB 返回底层gorm.DB
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
