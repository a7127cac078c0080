package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

// queryLogger routes gorm's callbacks into the service logger. Only failed
// and slow statements are written; ErrRecordNotFound is an expected outcome
// for repositories and never logged.
type queryLogger struct {
	logg *logger.Logger
	slow time.Duration
	mode gormlogger.LogLevel
}

func newQueryLogger(logg *logger.Logger, slow time.Duration) *queryLogger {
	return &queryLogger{logg: logg, slow: slow, mode: gormlogger.Warn}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *q
	cp.mode = level
	return &cp
}

func (q *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	if q.mode >= gormlogger.Info {
		q.logg.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if q.mode >= gormlogger.Warn {
		q.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	if q.mode >= gormlogger.Error {
		q.logg.Error(ctx, "db.error", fmt.Errorf(msg, args...))
	}
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.mode <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := q.slow > 0 && elapsed > q.slow
	if !failed && !(slow && q.mode >= gormlogger.Warn) {
		return
	}

	sql, rows := fc()
	qctx := q.logg.WithFields(ctx, map[string]any{
		"sql":         sql,
		"rows":        rows,
		"duration_ms": elapsed.Milliseconds(),
	})
	if failed {
		q.logg.Error(qctx, "db.query_failed", err)
		return
	}
	q.logg.Warn(qctx, "db.query_slow")
}
