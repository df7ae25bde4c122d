package logger

import (
	"time"
)

// NoOpLogger discards everything. The engine packages fall back to it when no
// logger is supplied, and tests use it when log output is not under test.
type NoOpLogger struct{}

// NewNoOp creates a new no-op logger instance.
func NewNoOp() Interface {
	return NoOpLogger{}
}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any) {}
func (NoOpLogger) Warn(string, ...any) {}
func (NoOpLogger) Error(string, ...any) {}

// Fatal does not exit.
func (NoOpLogger) Fatal(string, ...any) {}

func (l NoOpLogger) With(...any) Interface { return l }
func (l NoOpLogger) WithRequestID(string) Interface { return l }
func (l NoOpLogger) WithDuration(time.Duration) Interface { return l }
func (l NoOpLogger) WithError(error) Interface { return l }
func (l NoOpLogger) WithComponent(string) Interface { return l }
