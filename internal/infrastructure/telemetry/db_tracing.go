package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/clinicledger/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin plus callbacks that mark
// slow statements and errors on the active span. Query variables are left
// out of spans unless cfg.DBLogFullSQL is set.
func RegisterDBTracing(db *gorm.DB, cfg config.TelemetryConfig, logger *zap.Logger) error {
	if !cfg.Enabled || !cfg.DBTraceEnabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
	if !cfg.DBLogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	sq := &slowQueryCallback{threshold: cfg.DBSlowQueryThresh}
	if err := sq.register(db); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.DBLogFullSQL),
		zap.Duration("slow_query_threshold", cfg.DBSlowQueryThresh))
	return nil
}

type slowQueryCallback struct {
	threshold time.Duration
}

func (c *slowQueryCallback) register(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("clinic_timing:before_create", c.before),
		cb.Query().Before("gorm:query").Register("clinic_timing:before_query", c.before),
		cb.Update().Before("gorm:update").Register("clinic_timing:before_update", c.before),
		cb.Delete().Before("gorm:delete").Register("clinic_timing:before_delete", c.before),
		cb.Row().Before("gorm:row").Register("clinic_timing:before_row", c.before),
		cb.Raw().Before("gorm:raw").Register("clinic_timing:before_raw", c.before),
		cb.Create().After("gorm:create").Register("clinic_timing:after_create", c.after),
		cb.Query().After("gorm:query").Register("clinic_timing:after_query", c.after),
		cb.Update().After("gorm:update").Register("clinic_timing:after_update", c.after),
		cb.Delete().After("gorm:delete").Register("clinic_timing:after_delete", c.after),
		cb.Row().After("gorm:row").Register("clinic_timing:after_row", c.after),
		cb.Raw().After("gorm:raw").Register("clinic_timing:after_raw", c.after),
	)
}

func (c *slowQueryCallback) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (c *slowQueryCallback) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > c.threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()))
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("threshold_ms", c.threshold.Milliseconds())))
	}
}
