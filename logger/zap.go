package logger

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements Interface using zap
type ZapLogger struct {
	Logger              *zap.Logger
	LogLevel            LogLevel
	SlowThreshold       time.Duration
	IgnoreNotFoundError bool
}

// NewZap creates a new logger using zap
func NewZap(logger *zap.Logger, config Config) Interface {
	return &ZapLogger{
		Logger:              logger,
		LogLevel:            config.LogLevel,
		SlowThreshold:       config.SlowThreshold,
		IgnoreNotFoundError: config.IgnoreNotFoundError,
	}
}

// NewZapProduction builds a zap production logger at the configured level.
func NewZapProduction(config Config) (Interface, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(ZapLevel(config.LogLevel))
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZap(logger, config), nil
}

// LogMode sets the log level
func (l *ZapLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info logs info messages
func (l *ZapLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= Info {
		l.Logger.Info(msg, dataFields(data)...)
	}
}

// Warn logs warning messages
func (l *ZapLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= Warn {
		l.Logger.Warn(msg, dataFields(data)...)
	}
}

// Error logs error messages
func (l *ZapLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= Error {
		l.Logger.Error(msg, dataFields(data)...)
	}
}

func dataFields(data []any) []zap.Field {
	if len(data) == 0 {
		return nil
	}
	return []zap.Field{zap.Any("data", data)}
}

// Trace logs a backend round trip
func (l *ZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (op string, docs int64), err error) {
	if l.LogLevel <= Silent {
		return
	}

	elapsed := time.Since(begin)
	op, docs := fc()

	fields := []zap.Field{
		zap.String("duration", elapsedMillis(elapsed)),
		zap.String("op", op),
	}
	if docs != -1 {
		fields = append(fields, zap.Int64("docs", docs))
	}

	switch {
	case l.LogLevel >= Error && shouldReport(err, l.IgnoreNotFoundError):
		fields = append(fields, zap.Error(err))
		l.Logger.Error("backend call", fields...)
	case l.LogLevel >= Warn && l.SlowThreshold != 0 && elapsed > l.SlowThreshold:
		fields = append(fields, zap.String("slow_threshold", l.SlowThreshold.String()))
		l.Logger.Warn("slow backend call", fields...)
	case l.LogLevel >= Info:
		l.Logger.Info("backend call", fields...)
	}
}

// ZapLevel converts LogLevel to zapcore.Level
func ZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case Silent:
		return zapcore.DPanicLevel
	case Error:
		return zapcore.ErrorLevel
	case Warn:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
