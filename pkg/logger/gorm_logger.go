package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger는 gorm logger.Interface를 zap 으로 구현합니다.
type GormLogger struct {
	logger                    *zap.Logger
	level                     gormlogger.LogLevel
	slowThreshold             time.Duration
	ignoreRecordNotFoundError bool
}

// NewGormLogger는 GORM 쿼리 로그를 zap 으로 보내는 어댑터를 생성합니다.
// slowThreshold 보다 오래 걸린 쿼리는 Warn 레벨로 기록됩니다.
func NewGormLogger(logger *zap.Logger, level gormlogger.LogLevel, slowThreshold time.Duration, ignoreRecordNotFoundError bool) *GormLogger {
	return &GormLogger{
		logger:                    logger.WithOptions(zap.AddCallerSkip(3)),
		level:                     level,
		slowThreshold:             slowThreshold,
		ignoreRecordNotFoundError: ignoreRecordNotFoundError,
	}
}

// LogMode는 레벨만 바꾼 복사본을 반환합니다.
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Error(fmt.Sprintf(msg, data...))
	}
}

// Trace는 실행된 SQL 한 건을 기록합니다.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("db.statement", sql),
		zap.Int64("db.rows_affected", rows),
		zap.Duration("db.elapsed", elapsed),
	}

	switch {
	case err != nil && l.level >= gormlogger.Error &&
		!(l.ignoreRecordNotFoundError && errors.Is(err, gorm.ErrRecordNotFound)):
		l.logger.Error("SQL 오류", append(fields, zap.Error(err))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		l.logger.Warn("느린 SQL", append(fields, zap.Duration("db.slow_threshold", l.slowThreshold))...)
	case l.level >= gormlogger.Info:
		l.logger.Debug("SQL", fields...)
	}
}
