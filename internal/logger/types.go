// Package logger provides structured logging for abedge.
package logger

import "strings"

// Level represents the logging level.
type Level string

const (
	// DebugLevel logs debug messages.
	DebugLevel Level = "debug"
	// InfoLevel logs info messages.
	InfoLevel Level = "info"
	// WarnLevel logs warning messages.
	WarnLevel Level = "warn"
	// ErrorLevel logs error messages.
	ErrorLevel Level = "error"
	// FatalLevel logs fatal messages and exits.
	FatalLevel Level = "fatal"
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum logging level (debug, info, warn, error, fatal).
	Level Level `mapstructure:"level" yaml:"level"`
	// Encoding is the output format (json, console).
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
	// Development enables colored, human-friendly output.
	Development bool `mapstructure:"development" yaml:"development"`
	// OutputPaths is a list of paths to write logging output to.
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
}

// SetDefaults lower-cases the level and encoding and applies default values
// to the config if not set.
func (c *Config) SetDefaults() {
	c.Level = normalizeLevel(c.Level)
	c.Encoding = strings.ToLower(strings.TrimSpace(c.Encoding))
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = DefaultOutputPaths
	}
}

// Validate checks the level and encoding.
func (c *Config) Validate() error {
	if _, ok := logLevels[string(normalizeLevel(c.Level))]; !ok {
		return ErrInvalidLevel
	}
	switch c.Encoding {
	case "json", "console":
		return nil
	default:
		return ErrInvalidEncoding
	}
}

func normalizeLevel(l Level) Level {
	return Level(strings.ToLower(strings.TrimSpace(string(l))))
}
