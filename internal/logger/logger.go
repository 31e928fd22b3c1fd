// Package logger provides the structured logger used by the apifoxmcp binary.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the severity of a log message
type LogLevel int

// Log level constants
const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
	DISABLED
)

// LogFormat defines how log messages are formatted
type LogFormat int

// Log format constants
const (
	TEXT LogFormat = iota
	JSON
)

// levelFatal sits above slog.LevelError so FATAL survives an ERROR threshold.
const levelFatal = slog.Level(12)

var levelNames = map[LogLevel]string{
	DEBUG:    "DEBUG",
	INFO:     "INFO",
	WARN:     "WARN",
	ERROR:    "ERROR",
	FATAL:    "FATAL",
	DISABLED: "DISABLED",
}

// String returns the upper-case level name
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case INFO:
		return slog.LevelInfo
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	case FATAL:
		return levelFatal
	default:
		return levelFatal + 1
	}
}

// Logger is a structured logger backed by a slog handler
type Logger struct {
	level       *slog.LevelVar
	format      LogFormat
	out         io.Writer
	handler     slog.Handler
	contextPath []string
	exit        func(int)
	mu          sync.Mutex
}

// Config holds configuration options for the logger
type Config struct {
	Level       LogLevel
	Format      LogFormat
	Output      io.Writer
	DefaultTags map[string]interface{}
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:       INFO,
		Format:      TEXT,
		Output:      os.Stderr,
		DefaultTags: map[string]interface{}{"service": "apifoxmcp"},
	}
}

// New creates a new logger with the given configuration
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	if config.Output == nil {
		config.Output = os.Stderr
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(config.Level.slogLevel())

	l := &Logger{
		level:  levelVar,
		format: config.Format,
		out:    config.Output,
		exit:   os.Exit,
	}
	l.handler = l.newHandler()

	if len(config.DefaultTags) > 0 {
		l.handler = l.handler.WithAttrs(mapAttrs(config.DefaultTags))
	}
	return l
}

func (l *Logger) newHandler() slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     l.level,
		AddSource: false,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= levelFatal {
					a.Value = slog.StringValue("FATAL")
				}
			}
			if a.Key == slog.MessageKey && l.format == JSON {
				a.Key = "message"
			}
			return a
		},
	}
	if l.format == JSON {
		return slog.NewJSONHandler(l.out, opts)
	}
	return slog.NewTextHandler(l.out, opts)
}

func mapAttrs(fields map[string]interface{}) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

// SetLevel sets the logger's minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.level.Set(level.slogLevel())
}

// SetFormat sets the logger's output format. Fields added before the switch are dropped.
func (l *Logger) SetFormat(format LogFormat) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = format
	l.handler = l.newHandler()
}

func (l *Logger) derive(handler slog.Handler, contextPath []string) *Logger {
	return &Logger{
		level:       l.level,
		format:      l.format,
		out:         l.out,
		handler:     handler,
		contextPath: contextPath,
		exit:        l.exit,
	}
}

// WithField returns a new logger with the field added to its context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.derive(l.handler.WithAttrs([]slog.Attr{slog.Any(key, value)}), append([]string{}, l.contextPath...))
}

// WithFields returns a new logger with multiple fields added to its context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.derive(l.handler.WithAttrs(mapAttrs(fields)), append([]string{}, l.contextPath...))
}

// WithContext returns a new logger with a context path
func (l *Logger) WithContext(contexts ...string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	contextPath := append(append([]string{}, l.contextPath...), contexts...)
	return l.derive(l.handler, contextPath)
}

// Slog exposes the logger as a *slog.Logger for library packages
func (l *Logger) Slog() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.handler
	if len(l.contextPath) > 0 {
		h = h.WithAttrs([]slog.Attr{slog.String("context", strings.Join(l.contextPath, "."))})
	}
	return slog.New(h)
}

// Debug logs a message at DEBUG level
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(DEBUG, msg, args...)
}

// Info logs a message at INFO level
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(INFO, msg, args...)
}

// Warn logs a message at WARN level
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(WARN, msg, args...)
}

// Error logs a message at ERROR level
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(ERROR, msg, args...)
}

// Fatal logs a message at FATAL level and then exits with status code 1
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log(FATAL, msg, args...)
	l.exit(1)
}

// log formats printf-style arguments and hands the record to the slog handler
func (l *Logger) log(level LogLevel, msg string, args ...interface{}) {
	lvl := level.slogLevel()
	ctx := context.Background()
	if !l.handler.Enabled(ctx, lvl) {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	if len(l.contextPath) > 0 {
		msg = "[" + strings.Join(l.contextPath, ".") + "] " + msg
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	slog.New(l.handler).Log(ctx, lvl, msg)
}

// ParseLevel converts a string level to a LogLevel
func ParseLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	case "DISABLED", "OFF":
		return DISABLED
	default:
		return INFO
	}
}

// ParseFormat converts a string format to a LogFormat
func ParseFormat(format string) LogFormat {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return JSON
	}
	return TEXT
}

// Global default logger
var defaultLogger = New(DefaultConfig())

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the global default logger
func GetDefaultLogger() *Logger {
	return defaultLogger
}

// GetLogger returns a logger with the given name as a field
func GetLogger(name string) *Logger {
	return defaultLogger.WithField("name", name)
}

// Debug logs to the default logger at DEBUG level
func Debug(msg string, args ...interface{}) {
	defaultLogger.Debug(msg, args...)
}

// Info logs to the default logger at INFO level
func Info(msg string, args ...interface{}) {
	defaultLogger.Info(msg, args...)
}

// Warn logs to the default logger at WARN level
func Warn(msg string, args ...interface{}) {
	defaultLogger.Warn(msg, args...)
}

// Error logs to the default logger at ERROR level
func Error(msg string, args ...interface{}) {
	defaultLogger.Error(msg, args...)
}

// Fatal logs to the default logger at FATAL level and then exits
func Fatal(msg string, args ...interface{}) {
	defaultLogger.Fatal(msg, args...)
}
