package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Logger contains logging settings.
type Logger struct {
	LogLevel string `yaml:"LogLevel"`
	// LogEncoding is either "console" or "json".
	LogEncoding string `yaml:"LogEncoding"`
	// LogPath enables file logging with rotation.
	LogPath       string `yaml:"LogPath"`
	LogMaxSizeMB  int    `yaml:"LogMaxSizeMB"`
	LogMaxBackups int    `yaml:"LogMaxBackups"`
	LogMaxAgeDays int    `yaml:"LogMaxAgeDays"`
}

// Validate checks Logger for internal consistency.
func (l Logger) Validate() error {
	if l.LogLevel != "" {
		if _, err := zapcore.ParseLevel(l.LogLevel); err != nil {
			return newError("Logger.LogLevel", err)
		}
	}
	switch l.LogEncoding {
	case "", "console", "json":
	default:
		return newError("Logger.LogEncoding", fmt.Errorf("unknown encoding %q", l.LogEncoding))
	}
	return nil
}
