package docfill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel is a slog level. LogOff sits above every level a record uses.
type LogLevel = slog.Level

const (
	LogDebug = slog.LevelDebug
	LogInfo  = slog.LevelInfo
	LogWarn  = slog.LevelWarn
	LogError = slog.LevelError
	LogOff   = slog.LevelError + 4
)

var logLevels = map[string]LogLevel{
	"debug": LogDebug,
	"info":  LogInfo,
	"warn":  LogWarn,
	"error": LogError,
	"off":   LogOff,
}

// ParseLogLevel reads a log_level setting, case-insensitively. Unknown
// names mean info.
func ParseLogLevel(name string) LogLevel {
	if level, ok := logLevels[strings.ToLower(name)]; ok {
		return level
	}
	return LogInfo
}

// Logger writes printf-style records through slog. It satisfies the
// logging surface of the fill engine. Loggers made with With follow the
// level of the logger they came from.
type Logger struct {
	h     *slog.Logger
	level *slog.LevelVar
}

// NewLogger writes text records to w.
func NewLogger(w io.Writer, level LogLevel) *Logger {
	return NewLoggerWithFormat(w, level, "text")
}

// NewLoggerWithFormat writes text or json records to w. A nil w discards.
func NewLoggerWithFormat(w io.Writer, level LogLevel, format string) *Logger {
	if w == nil {
		w = io.Discard
	}
	lv := new(slog.LevelVar)
	lv.Set(level)
	opts := &slog.HandlerOptions{Level: lv}
	if strings.EqualFold(format, "json") {
		return &Logger{h: slog.New(slog.NewJSONHandler(w, opts)), level: lv}
	}
	return &Logger{h: slog.New(slog.NewTextHandler(w, opts)), level: lv}
}

// NewLoggerFromHandler puts a Logger in front of h. Records below level
// never reach h.
func NewLoggerFromHandler(h slog.Handler, level LogLevel) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)
	return &Logger{h: slog.New(h), level: lv}
}

func (l *Logger) SetLevel(level LogLevel) { l.level.Set(level) }

// Enabled reports whether records at level get written.
func (l *Logger) Enabled(level LogLevel) bool { return level >= l.level.Level() }

// Slog exposes the underlying slog logger for key/value logging.
func (l *Logger) Slog() *slog.Logger { return l.h }

// With returns a logger that adds the key/value pairs args to each record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{h: l.h.With(args...), level: l.level}
}

func (l *Logger) printf(level LogLevel, format string, args []any) {
	if !l.Enabled(level) {
		return
	}
	l.h.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) { l.printf(LogDebug, format, args) }
func (l *Logger) Info(format string, args ...any)  { l.printf(LogInfo, format, args) }
func (l *Logger) Warn(format string, args ...any)  { l.printf(LogWarn, format, args) }
func (l *Logger) Error(format string, args ...any) { l.printf(LogError, format, args) }

var processLogger atomic.Pointer[Logger]

func init() {
	c := ProcessConfig()
	processLogger.Store(NewLoggerWithFormat(os.Stderr, ParseLogLevel(c.LogLevel), c.LogFormat))
}

// ProcessLogger returns the logger engines start with. It writes to
// stderr at the level of ProcessConfig.
func ProcessLogger() *Logger { return processLogger.Load() }

// SetProcessLogger replaces the logger engines made from now on start with.
func SetProcessLogger(l *Logger) {
	if l != nil {
		processLogger.Store(l)
	}
}
