package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBDurationBuckets are histogram boundaries in seconds for query latency
var DBDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// DBMetrics records query latency and connection pool usage through OTel.
type DBMetrics struct {
	queryTotal     metric.Int64Counter
	queryDuration  metric.Float64Histogram
	slowQueryTotal metric.Int64Counter
	slowThreshold  time.Duration
	logger         *zap.Logger
}

// RegisterDBMetrics instruments db and observes the pool of sqlDB on every collection
func RegisterDBMetrics(db *gorm.DB, sqlDB *sql.DB, mp *MeterProvider, slowThreshold time.Duration, logger *zap.Logger) (*DBMetrics, error) {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := mp.Meter(TracerName + "/db")

	queryTotal, err := meter.Int64Counter("db_query_total",
		metric.WithDescription("Database queries by operation"),
		metric.WithUnit("{query}"))
	if err != nil {
		return nil, err
	}
	queryDuration, err := meter.Float64Histogram("db_query_duration_seconds",
		metric.WithDescription("Database query latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DBDurationBuckets...))
	if err != nil {
		return nil, err
	}
	slowQueryTotal, err := meter.Int64Counter("db_slow_query_total",
		metric.WithDescription("Database queries slower than the configured threshold"),
		metric.WithUnit("{query}"))
	if err != nil {
		return nil, err
	}

	if sqlDB != nil {
		_, err = meter.Int64ObservableGauge("db_pool_connections",
			metric.WithDescription("Pool connections by state"),
			metric.WithUnit("{connection}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				s := sqlDB.Stats()
				o.Observe(int64(s.InUse), metric.WithAttributes(attribute.String("state", "in_use")))
				o.Observe(int64(s.Idle), metric.WithAttributes(attribute.String("state", "idle")))
				o.Observe(s.WaitCount, metric.WithAttributes(attribute.String("state", "waited")))
				return nil
			}))
		if err != nil {
			return nil, err
		}
	}

	m := &DBMetrics{
		queryTotal:     queryTotal,
		queryDuration:  queryDuration,
		slowQueryTotal: slowQueryTotal,
		slowThreshold:  slowThreshold,
		logger:         logger,
	}
	if err := registerTimed(db, "tc_metrics", m.record); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DBMetrics) record(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		status := "ok"
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			status = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("table", db.Statement.Table),
			attribute.String("status", status),
		)
		m.queryTotal.Add(ctx, 1, attrs)

		elapsed, ok := queryElapsed(db)
		if !ok {
			return
		}
		m.queryDuration.Record(ctx, elapsed.Seconds(), attrs)
		if elapsed > m.slowThreshold {
			m.slowQueryTotal.Add(ctx, 1, attrs)
			m.logger.Warn("Slow query",
				zap.String("operation", op),
				zap.String("table", db.Statement.Table),
				zap.Duration("elapsed", elapsed))
		}
	}
}
