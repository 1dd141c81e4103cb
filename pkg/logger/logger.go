package logger

import (
	"context"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// ZapLogger wraps zap logger to implement the Logger interface.
type ZapLogger struct {
	logger *zap.Logger
}

// New creates a new logger based on environment.
func New() interfaces.Logger {
	env := os.Getenv("ENVIRONMENT")
	development := env == "" || env == "development" || env == "dev"

	logger, err := NewZapLogger(development)
	if err != nil {
		panic(err)
	}

	return logger
}

// NewZapLogger creates a new zap logger with the specified configuration.
func NewZapLogger(development bool) (*ZapLogger, error) {
	cfg := DefaultConfig()
	if development {
		cfg = DevelopmentConfig()
	}

	// LOG_LEVEL overrides the preset
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Level = logLevel
	}

	return cfg.Build()
}

// Zap exposes the underlying zap logger for libraries that need it directly.
func (l *ZapLogger) Zap() *zap.Logger {
	return l.logger
}

// Debug logs a debug message.
func (l *ZapLogger) Debug(msg string, fields ...interfaces.Field) {
	l.logger.Debug(msg, convertFields(fields)...)
}

// Info logs an info message.
func (l *ZapLogger) Info(msg string, fields ...interfaces.Field) {
	l.logger.Info(msg, convertFields(fields)...)
}

// Warn logs a warning message.
func (l *ZapLogger) Warn(msg string, fields ...interfaces.Field) {
	l.logger.Warn(msg, convertFields(fields)...)
}

// Error logs an error message.
func (l *ZapLogger) Error(msg string, fields ...interfaces.Field) {
	l.logger.Error(msg, convertFields(fields)...)
}

// Fatal logs a fatal message and exits.
func (l *ZapLogger) Fatal(msg string, fields ...interfaces.Field) {
	l.logger.Fatal(msg, convertFields(fields)...)
}

// WithContext attaches the request id, when present.
func (l *ZapLogger) WithContext(ctx context.Context) interfaces.Logger {
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		return l.WithFields(interfaces.String("request_id", reqID))
	}
	return l
}

// WithFields returns a logger with additional fields.
func (l *ZapLogger) WithFields(fields ...interfaces.Field) interfaces.Logger {
	return &ZapLogger{logger: l.logger.With(convertFields(fields)...)}
}

// Sync flushes any buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func convertFields(fields []interfaces.Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, field := range fields {
		if err, ok := field.Value.(error); ok && field.Key == "error" {
			zapFields[i] = zap.Error(err)
			continue
		}
		zapFields[i] = zap.Any(field.Key, field.Value)
	}
	return zapFields
}

// levelOf parses a textual level, defaulting to info.
func levelOf(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}
