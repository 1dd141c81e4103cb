package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// SlowQueryThreshold is the duration above which queries are logged at warn.
const SlowQueryThreshold = 200 * time.Millisecond

// gormLogger routes GORM logging through the service logger.
type gormLogger struct {
	logger interfaces.Logger
	level  gormlogger.LogLevel
}

// NewGormLogger adapts log for GORM. Statements are traced at Info level,
// slow ones at Warn and failures at Error.
func NewGormLogger(log interfaces.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{
		logger: log.WithFields(interfaces.String("component", "gorm")),
		level:  level,
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{logger: l.logger, level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.WithContext(ctx).Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.WithContext(ctx).Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.WithContext(ctx).Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	log := l.logger.WithContext(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		log.Error("sql error",
			interfaces.Error(err),
			interfaces.String("sql", sql),
			interfaces.Int64("rows", rows),
			interfaces.Duration("elapsed", elapsed))
	case elapsed > SlowQueryThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		log.Warn("slow sql query",
			interfaces.String("sql", sql),
			interfaces.Int64("rows", rows),
			interfaces.Duration("elapsed", elapsed))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		log.Debug("sql trace",
			interfaces.String("sql", sql),
			interfaces.Int64("rows", rows),
			interfaces.Duration("elapsed", elapsed))
	}
}
