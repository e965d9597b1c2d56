// Package logger defines the logging interface used by models and drivers, with
// adapters for zerolog (the default), zap and logrus.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/burugo/modelkit/common"
)

// Interface is implemented by every logger adapter.
type Interface interface {
	LogMode(LogLevel) Interface
	Info(ctx context.Context, msg string, data ...any)
	Warn(ctx context.Context, msg string, data ...any)
	Error(ctx context.Context, msg string, data ...any)
	// Trace logs one backend round trip. fc returns the operation label and the number
	// of documents involved (-1 when unknown).
	Trace(ctx context.Context, begin time.Time, fc func() (op string, docs int64), err error)
}

// LogLevel log level
type LogLevel int

const (
	// Silent disables all output
	Silent LogLevel = iota + 1
	// Error prints errors only
	Error
	// Warn prints warnings, slow operations and errors
	Warn
	// Info prints everything, including each backend round trip
	Info
)

func (l LogLevel) String() string {
	switch l {
	case Silent:
		return "silent"
	case Error:
		return "error"
	case Warn:
		return "warn"
	case Info:
		return "info"
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// ParseLevel converts a level name to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent", "off", "none":
		return Silent, nil
	case "error":
		return Error, nil
	case "warn", "warning":
		return Warn, nil
	case "info", "debug":
		return Info, nil
	}
	return 0, fmt.Errorf("modelkit: unknown log level %q", s)
}

// Config configures an adapter.
type Config struct {
	LogLevel      LogLevel
	SlowThreshold time.Duration
	// IgnoreNotFoundError keeps common.ErrNotFound out of the error log.
	IgnoreNotFoundError bool
}

// DefaultConfig is used by Default.
var DefaultConfig = Config{
	LogLevel:            Warn,
	SlowThreshold:       200 * time.Millisecond,
	IgnoreNotFoundError: true,
}

// Default writes human readable lines to stderr.
var Default = New(os.Stderr, "console", DefaultConfig)

// Discard drops everything.
var Discard Interface = NewZerolog(zerolog.Nop(), Config{LogLevel: Silent})

// New builds a zerolog backed logger writing to w. format is "console" or "json".
func New(w io.Writer, format string, config Config) Interface {
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).With().Timestamp().Logger()
	return NewZerolog(zl, config)
}

func shouldReport(err error, ignoreNotFound bool) bool {
	return err != nil && (!ignoreNotFound || !isNotFound(err))
}

func isNotFound(err error) bool {
	return err != nil && errors.Is(err, common.ErrNotFound)
}

func elapsedMillis(d time.Duration) string {
	return fmt.Sprintf("%.3fms", float64(d.Nanoseconds())/1e6)
}
