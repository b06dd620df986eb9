package logger

import (
	"io"
	"os"
	"strings"
)

// LogLevel defines the level of logging
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

// GetLevelFromEnv will look at the environment var `RESCACHE_LOG_LEVEL` and
// convert it into the appropriate LogLevel
func GetLevelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("RESCACHE_LOG_LEVEL")) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "none":
		return LevelNone
	default:
		return LevelInfo
	}
}

type Sink io.Writer

// Logger is an interface for logging
type Logger interface {
	// With will return a new logger using metadata as the base context
	With(metadata map[string]interface{}) Logger
	// Debug level logging
	Debug(msg string, args ...interface{})
	// Info level logging
	Info(msg string, args ...interface{})
	// Warning level logging
	Warn(msg string, args ...interface{})
	// Error level logging
	Error(msg string, args ...interface{})
	// IsLevelEnabled returns true if the given log level is enabled
	IsLevelEnabled(level LogLevel) bool
}

type nullLogger struct{}

var _ Logger = (*nullLogger)(nil)

func (nullLogger) With(map[string]interface{}) Logger { return nullLogger{} }
func (nullLogger) Debug(string, ...interface{})       {}
func (nullLogger) Info(string, ...interface{})        {}
func (nullLogger) Warn(string, ...interface{})        {}
func (nullLogger) Error(string, ...interface{})       {}
func (nullLogger) IsLevelEnabled(LogLevel) bool       { return false }

// None returns a Logger that discards everything.
func None() Logger {
	return nullLogger{}
}
