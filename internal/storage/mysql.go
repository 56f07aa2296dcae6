package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"resume-advisor/internal/config"
	"resume-advisor/internal/constants"
	"resume-advisor/internal/storage/models"
	"resume-advisor/internal/tracing"
	"resume-advisor/internal/types"
)

var mysqlTracer = otel.Tracer("resume-advisor/storage/mysql")

// ErrSubmissionNotFound 提交记录不存在
var ErrSubmissionNotFound = errors.New("submission not found")

type spanCtxKey struct{}

// GormTracingPlugin 是一个GORM插件，用于向OpenTelemetry中添加数据库操作的追踪点
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	disableErrSkip bool
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	registrations := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")) },
		func() error { return cb.Create().After("gorm:create").Register("otel:after_create", p.after()) },
		func() error { return cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")) },
		func() error { return cb.Query().After("gorm:query").Register("otel:after_query", p.after()) },
		func() error { return cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")) },
		func() error { return cb.Update().After("gorm:update").Register("otel:after_update", p.after()) },
		func() error { return cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")) },
		func() error { return cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()) },
		func() error { return cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")) },
		func() error { return cb.Row().After("gorm:row").Register("otel:after_row", p.after()) },
		func() error { return cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")) },
		func() error { return cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		opts := []trace.SpanStartOption{
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		}
		if stmt := db.Statement.SQL.String(); stmt != "" {
			opts = append(opts, trace.WithAttributes(attribute.String("db.statement", tracing.SafeSQL(stmt))))
		}

		newCtx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, tableName), opts...)
		db.Statement.Context = context.WithValue(newCtx, spanCtxKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement.Context == nil {
			return
		}
		span, ok := db.Statement.Context.Value(spanCtxKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 查不到记录属于正常业务分支
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		disableErrSkip: true,
	}
}

// WithDisableErrSkip 设置是否禁用错误跳过
func (p *GormTracingPlugin) WithDisableErrSkip(disable bool) *GormTracingPlugin {
	p.disableErrSkip = disable
	return p
}

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}
	if err := m.autoMigrateSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

func gormLogLevel(level int) logger.LogLevel {
	switch level {
	case 1:
		return logger.Silent
	case 2:
		return logger.Error
	case 3:
		return logger.Warn
	default:
		return logger.Info
	}
}

// autoMigrateSchema 迁移时关闭SQL日志
func (m *MySQL) autoMigrateSchema() error {
	silentDB := m.db.Session(&gorm.Session{Logger: logger.Default.LogMode(logger.Silent)})
	return silentDB.AutoMigrate(
		&models.AnalysisSubmission{},
		&models.OutboxMessage{},
	)
}

// DB 返回GORM数据库连接实例
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

// CreateSubmissionWithOutbox 在同一事务中写入提交记录和发件箱消息
func (m *MySQL) CreateSubmissionWithOutbox(ctx context.Context, sub *models.AnalysisSubmission, msg *models.OutboxMessage) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("写入提交记录失败: %w", err)
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("写入发件箱消息失败: %w", err)
		}
		return nil
	})
}

// GetSubmission 按 UUID 读取提交记录
func (m *MySQL) GetSubmission(ctx context.Context, submissionUUID string) (*models.AnalysisSubmission, error) {
	var sub models.AnalysisSubmission
	err := m.db.WithContext(ctx).Where("submission_uuid = ?", submissionUUID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询提交记录失败: %w", err)
	}
	return &sub, nil
}

// ClaimSubmission 行锁读取提交记录, 状态允许时置为 ANALYZING
// claimed=false 表示记录已被处理过, 调用方应直接确认消息
func (m *MySQL) ClaimSubmission(ctx context.Context, submissionUUID string) (*models.AnalysisSubmission, bool, error) {
	var sub models.AnalysisSubmission
	claimed := false

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("submission_uuid = ?", submissionUUID).
			First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		if err != nil {
			return err
		}
		if !constants.IsStatusAllowed(sub.ProcessingStatus, constants.AllowedStatusesForAnalysis) {
			return nil
		}
		if err := tx.Model(&models.AnalysisSubmission{}).
			Where("submission_uuid = ?", submissionUUID).
			Update("processing_status", constants.StatusAnalyzing).Error; err != nil {
			return err
		}
		sub.ProcessingStatus = constants.StatusAnalyzing
		claimed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &sub, claimed, nil
}

// UpdateSubmissionStatus 更新状态和错误信息
func (m *MySQL) UpdateSubmissionStatus(ctx context.Context, submissionUUID, status, errMsg string) error {
	res := m.db.WithContext(ctx).Model(&models.AnalysisSubmission{}).
		Where("submission_uuid = ?", submissionUUID).
		Updates(map[string]interface{}{
			"processing_status": status,
			"error_message":     errMsg,
		})
	if res.Error != nil {
		return fmt.Errorf("更新提交状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

// AnalysisOutcome 分析完成后写回提交记录的内容
type AnalysisOutcome struct {
	Source          string
	OverallScore    int
	ScoreComponents types.ScoreComponents
	Risks           []types.RiskFinding
	ReportText      string
	ReportPathOSS   string
	TextPreview     string
	RawTextSHA256   string
}

// SaveAnalysisOutcome 保存分析结果并把状态置为 COMPLETED
func (m *MySQL) SaveAnalysisOutcome(ctx context.Context, submissionUUID string, outcome AnalysisOutcome) error {
	componentsJSON, err := models.ToJSON(outcome.ScoreComponents)
	if err != nil {
		return fmt.Errorf("序列化分数明细失败: %w", err)
	}
	risks := outcome.Risks
	if risks == nil {
		risks = []types.RiskFinding{}
	}
	risksJSON, err := models.ToJSON(risks)
	if err != nil {
		return fmt.Errorf("序列化风险列表失败: %w", err)
	}

	now := time.Now()
	res := m.db.WithContext(ctx).Model(&models.AnalysisSubmission{}).
		Where("submission_uuid = ?", submissionUUID).
		Updates(map[string]interface{}{
			"processing_status":     constants.StatusCompleted,
			"analysis_source":       outcome.Source,
			"overall_score":         outcome.OverallScore,
			"score_components_json": componentsJSON,
			"risks_json":            risksJSON,
			"report_text":           outcome.ReportText,
			"report_path_oss":       outcome.ReportPathOSS,
			"text_preview":          outcome.TextPreview,
			"raw_text_sha256":       outcome.RawTextSHA256,
			"analyzer_version":      constants.AnalyzerVersion,
			"analyzed_at":           now,
			"error_message":         "",
		})
	if res.Error != nil {
		return fmt.Errorf("保存分析结果失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}
