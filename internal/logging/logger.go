package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// ParseLevel maps ERROR/WARN/INFO/DEBUG/TRACE to a level, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError
	case "WARN", "WARNING":
		return LogLevelWarn
	case "DEBUG":
		return LogLevelDebug
	case "TRACE":
		return LogLevelTrace
	default:
		return LogLevelInfo
	}
}

// Logger provides leveled logging with a [Component] prefix. Copies made
// with WithComponent or WithOutput share the level of their parent.
type Logger struct {
	level     *atomic.Int32
	component string
	out       *log.Logger
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	l := &Logger{level: new(atomic.Int32), out: log.Default()}
	l.level.Store(int32(level))
	return l
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	return NewLogger(ParseLevel(os.Getenv("LOG_LEVEL")))
}

// WithOutput returns a copy writing to w
func (l *Logger) WithOutput(w io.Writer) *Logger {
	c := *l
	c.out = log.New(w, "", log.LstdFlags)
	return &c
}

// WithComponent returns a copy that tags every line with [component]
func (l *Logger) WithComponent(component string) *Logger {
	c := *l
	c.component = component
	return &c
}

// SetLevel changes the verbosity
func (l *Logger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

func (l *Logger) logf(level LogLevel, tag, format string, args ...interface{}) {
	if l.GetLevel() < level {
		return
	}
	prefix := "[" + tag + "] "
	if l.component != "" {
		prefix += "[" + l.component + "] "
	}
	l.out.Printf(prefix+format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LogLevelError, "ERROR", format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LogLevelWarn, "WARN", format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LogLevelInfo, "INFO", format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LogLevelDebug, "DEBUG", format, args...)
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	l.logf(LogLevelTrace, "TRACE", format, args...)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return LogLevel(l.level.Load())
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()

// New returns a DefaultLogger copy tagged with component
func New(component string) *Logger {
	return DefaultLogger.WithComponent(component)
}
