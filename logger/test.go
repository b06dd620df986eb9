package logger

import (
	"fmt"
	"strings"
	"sync"
)

type TestLogEntry struct {
	Severity string
	Message  string
	Metadata map[string]interface{}
}

// TestLogger captures log entries for assertions in tests. Safe for
// concurrent use; loggers derived via With share the same entry slice.
type TestLogger struct {
	metadata map[string]interface{}
	mu       *sync.Mutex
	logs     *[]TestLogEntry
}

var _ Logger = (*TestLogger)(nil)

func (c *TestLogger) With(metadata map[string]interface{}) Logger {
	kv := make(map[string]interface{}, len(c.metadata)+len(metadata))
	for k, v := range c.metadata {
		kv[k] = v
	}
	for k, v := range metadata {
		kv[k] = v
	}
	return &TestLogger{metadata: kv, mu: c.mu, logs: c.logs}
}

func (c *TestLogger) IsLevelEnabled(LogLevel) bool { return true }

func (c *TestLogger) log(severity, msg string, args []interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.logs = append(*c.logs, TestLogEntry{severity, fmt.Sprintf(msg, args...), c.metadata})
}

func (c *TestLogger) Debug(msg string, args ...interface{}) { c.log("DEBUG", msg, args) }
func (c *TestLogger) Info(msg string, args ...interface{})  { c.log("INFO", msg, args) }
func (c *TestLogger) Warn(msg string, args ...interface{})  { c.log("WARN", msg, args) }
func (c *TestLogger) Error(msg string, args ...interface{}) { c.log("ERROR", msg, args) }

// Logs returns a snapshot of the captured entries.
func (c *TestLogger) Logs() []TestLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TestLogEntry, len(*c.logs))
	copy(out, *c.logs)
	return out
}

// Contains reports whether any captured message contains substr.
func (c *TestLogger) Contains(substr string) bool {
	for _, e := range c.Logs() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// NewTestLogger returns a new Logger instance useful for testing
func NewTestLogger() *TestLogger {
	logs := make([]TestLogEntry, 0)
	return &TestLogger{
		metadata: map[string]interface{}{},
		mu:       &sync.Mutex{},
		logs:     &logs,
	}
}
