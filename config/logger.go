package config

import (
	"time"

	"github.com/burugo/modelkit/logger"
)

type Logger struct {
	Level         string        `env:"LEVEL" envDefault:"warn"`
	Format        string        `env:"FORMAT" envDefault:"console"`
	SlowThreshold time.Duration `env:"SLOW_THRESHOLD" envDefault:"200ms"`
}

func (l Logger) LogLevel() (logger.LogLevel, error) {
	return logger.ParseLevel(l.Level)
}

// LoggerConfig converts the settings into an adapter configuration.
func (l Logger) LoggerConfig() (logger.Config, error) {
	level, err := l.LogLevel()
	if err != nil {
		return logger.Config{}, err
	}
	return logger.Config{
		LogLevel:            level,
		SlowThreshold:       l.SlowThreshold,
		IgnoreNotFoundError: true,
	}, nil
}
