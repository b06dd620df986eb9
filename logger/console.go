package logger

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const isWindows = runtime.GOOS == "windows"

var noColor = os.Getenv("TERM") == "dumb" ||
	(!isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()))

func color(val string) string {
	if isWindows || noColor {
		return ""
	}
	return val
}

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	gray   = "\033[1;90m"
)

type consoleLogger struct {
	metadata map[string]interface{}
	sink     Sink
	logLevel LogLevel
	mu       *sync.Mutex
}

var _ Logger = (*consoleLogger)(nil)

func (c *consoleLogger) With(metadata map[string]interface{}) Logger {
	kv := make(map[string]interface{}, len(c.metadata)+len(metadata))
	for k, v := range c.metadata {
		kv[k] = v
	}
	for k, v := range metadata {
		kv[k] = v
	}
	return &consoleLogger{metadata: kv, sink: c.sink, logLevel: c.logLevel, mu: c.mu}
}

func (c *consoleLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= c.logLevel
}

func (c *consoleLogger) metadataSuffix() string {
	if len(c.metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c.metadata))
	for k := range c.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf(" %s=%v", k, c.metadata[k]))
	}
	return color(gray) + sb.String() + color(reset)
}

func (c *consoleLogger) write(level LogLevel, levelColor, label, msg string, args []interface{}) {
	if !c.IsLevelEnabled(level) {
		return
	}
	line := fmt.Sprintf("%s %s[%s]%s %s%s\n",
		time.Now().Format("2006-01-02T15:04:05.000"),
		color(levelColor), label, color(reset),
		fmt.Sprintf(msg, args...),
		c.metadataSuffix(),
	)
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.sink, line)
}

func (c *consoleLogger) Debug(msg string, args ...interface{}) {
	c.write(LevelDebug, cyan, "DEBUG", msg, args)
}

func (c *consoleLogger) Info(msg string, args ...interface{}) {
	c.write(LevelInfo, green, "INFO", msg, args)
}

func (c *consoleLogger) Warn(msg string, args ...interface{}) {
	c.write(LevelWarn, yellow, "WARN", msg, args)
}

func (c *consoleLogger) Error(msg string, args ...interface{}) {
	c.write(LevelError, red, "ERROR", msg, args)
}

// NewConsoleLogger returns a Logger that writes human-readable lines to
// stderr at the given level. If no level is given, it comes from
// RESCACHE_LOG_LEVEL (default info).
func NewConsoleLogger(levels ...LogLevel) Logger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &consoleLogger{
		metadata: map[string]interface{}{},
		sink:     os.Stderr,
		logLevel: level,
		mu:       &sync.Mutex{},
	}
}

// NewConsoleLoggerWithSink is like NewConsoleLogger but writes to sink,
// useful for capturing output in tests.
func NewConsoleLoggerWithSink(sink Sink, level LogLevel) Logger {
	return &consoleLogger{
		metadata: map[string]interface{}{},
		sink:     sink,
		logLevel: level,
		mu:       &sync.Mutex{},
	}
}
