package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query variables in spans (dev only)
	SlowQueryThresh time.Duration // default: 200ms
}

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin plus a callback that flags slow queries
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := slowQueryCallback(cfg.SlowQueryThresh)

	cb := db.Callback()
	for _, reg := range []struct {
		name string
		err  error
	}{
		{"create", cb.Create().Before("gorm:create").Register("revrec_timing:before_create", before)},
		{"query", cb.Query().Before("gorm:query").Register("revrec_timing:before_query", before)},
		{"update", cb.Update().Before("gorm:update").Register("revrec_timing:before_update", before)},
		{"delete", cb.Delete().Before("gorm:delete").Register("revrec_timing:before_delete", before)},
		{"row", cb.Row().Before("gorm:row").Register("revrec_timing:before_row", before)},
		{"raw", cb.Raw().Before("gorm:raw").Register("revrec_timing:before_raw", before)},
		{"create", cb.Create().After("gorm:create").Register("revrec_slow:create", after)},
		{"query", cb.Query().After("gorm:query").Register("revrec_slow:query", after)},
		{"update", cb.Update().After("gorm:update").Register("revrec_slow:update", after)},
		{"delete", cb.Delete().After("gorm:delete").Register("revrec_slow:delete", after)},
		{"row", cb.Row().After("gorm:row").Register("revrec_slow:row", after)},
		{"raw", cb.Raw().After("gorm:raw").Register("revrec_slow:raw", after)},
	} {
		if reg.err != nil {
			return reg.err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func slowQueryCallback(threshold time.Duration) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			return
		}
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		if tx.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
		if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			RecordError(span, tx.Error)
		}
		if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
			if elapsed := time.Since(start); elapsed > threshold {
				span.SetAttributes(attribute.Bool("db.slow_query", true))
				span.AddEvent("slow_query_warning", trace.WithAttributes(
					attribute.Int64("duration_ms", elapsed.Milliseconds()),
					attribute.Int64("threshold_ms", threshold.Milliseconds()),
				))
			}
		}
	}
}
