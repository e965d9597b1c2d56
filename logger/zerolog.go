package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Interface using zerolog
type ZerologLogger struct {
	Logger              zerolog.Logger
	LogLevel            LogLevel
	SlowThreshold       time.Duration
	IgnoreNotFoundError bool
}

// NewZerolog creates a new logger using zerolog
func NewZerolog(logger zerolog.Logger, config Config) Interface {
	return &ZerologLogger{
		Logger:              logger,
		LogLevel:            config.LogLevel,
		SlowThreshold:       config.SlowThreshold,
		IgnoreNotFoundError: config.IgnoreNotFoundError,
	}
}

// LogMode sets the log level
func (l *ZerologLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info logs info messages
func (l *ZerologLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= Info {
		l.emit(ctx, l.Logger.Info(), msg, data)
	}
}

// Warn logs warning messages
func (l *ZerologLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= Warn {
		l.emit(ctx, l.Logger.Warn(), msg, data)
	}
}

// Error logs error messages
func (l *ZerologLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= Error {
		l.emit(ctx, l.Logger.Error(), msg, data)
	}
}

func (l *ZerologLogger) emit(ctx context.Context, event *zerolog.Event, msg string, data []any) {
	if len(data) > 0 {
		event = event.Interface("data", data)
	}
	if ctx != nil {
		event = event.Ctx(ctx)
	}
	event.Msg(msg)
}

// Trace logs a backend round trip
func (l *ZerologLogger) Trace(ctx context.Context, begin time.Time, fc func() (op string, docs int64), err error) {
	if l.LogLevel <= Silent {
		return
	}

	elapsed := time.Since(begin)

	var event *zerolog.Event
	switch {
	case l.LogLevel >= Error && shouldReport(err, l.IgnoreNotFoundError):
		event = l.Logger.Error().Err(err)
	case l.LogLevel >= Warn && l.SlowThreshold != 0 && elapsed > l.SlowThreshold:
		event = l.Logger.Warn().Str("slow_threshold", l.SlowThreshold.String())
	case l.LogLevel >= Info:
		event = l.Logger.Info()
	default:
		return
	}

	op, docs := fc()
	event = event.Str("duration", elapsedMillis(elapsed)).Str("op", op)
	if docs != -1 {
		event = event.Int64("docs", docs)
	}
	if ctx != nil {
		event = event.Ctx(ctx)
	}
	event.Msg("backend call")
}

// ZerologLevel converts LogLevel to zerolog.Level
func ZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case Silent:
		return zerolog.Disabled
	case Error:
		return zerolog.ErrorLevel
	case Warn:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
