package logger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// LogrusLogger implements Interface using logrus
type LogrusLogger struct {
	Logger              *logrus.Logger
	LogLevel            LogLevel
	SlowThreshold       time.Duration
	IgnoreNotFoundError bool
}

// NewLogrus creates a new logger using logrus
func NewLogrus(logger *logrus.Logger, config Config) Interface {
	return &LogrusLogger{
		Logger:              logger,
		LogLevel:            config.LogLevel,
		SlowThreshold:       config.SlowThreshold,
		IgnoreNotFoundError: config.IgnoreNotFoundError,
	}
}

// LogMode sets the log level
func (l *LogrusLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info logs info messages
func (l *LogrusLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= Info {
		l.entry(ctx, data).Info(msg)
	}
}

// Warn logs warning messages
func (l *LogrusLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= Warn {
		l.entry(ctx, data).Warn(msg)
	}
}

// Error logs error messages
func (l *LogrusLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= Error {
		l.entry(ctx, data).Error(msg)
	}
}

func (l *LogrusLogger) entry(ctx context.Context, data []any) *logrus.Entry {
	entry := logrus.NewEntry(l.Logger)
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}
	if len(data) > 0 {
		entry = entry.WithField("data", data)
	}
	return entry
}

// Trace logs a backend round trip
func (l *LogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (op string, docs int64), err error) {
	if l.LogLevel <= Silent {
		return
	}

	elapsed := time.Since(begin)
	op, docs := fc()

	fields := logrus.Fields{
		"duration": elapsedMillis(elapsed),
		"op":       op,
	}
	if docs != -1 {
		fields["docs"] = docs
	}
	entry := l.entry(ctx, nil)

	switch {
	case l.LogLevel >= Error && shouldReport(err, l.IgnoreNotFoundError):
		fields["error"] = err.Error()
		entry.WithFields(fields).Error("backend call")
	case l.LogLevel >= Warn && l.SlowThreshold != 0 && elapsed > l.SlowThreshold:
		fields["slow_threshold"] = l.SlowThreshold.String()
		entry.WithFields(fields).Warn("slow backend call")
	case l.LogLevel >= Info:
		entry.WithFields(fields).Info("backend call")
	}
}
