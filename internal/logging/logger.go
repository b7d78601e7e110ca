// Package logging wraps github.com/rs/zerolog in the small facade the
// rest of this module logs through, so call sites depend on a four-line
// interface (Debugf/Infof/Warnf/Errorf, or the structured With*
// builders) instead of zerolog's API directly.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aioq/go-aio/internal/interfaces"
)

var _ interfaces.Logger = (*Logger)(nil)

// LogLevel selects the minimum severity a Logger emits.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Config holds logging configuration.
type Config struct {
	Level  LogLevel
	Format string // "text" (default, console-formatted) or "json"
	Output io.Writer
	Sync   bool // not read by NewLogger; every entry is written to Output as it is logged
	NoColor bool
}

// DefaultConfig returns a sensible default configuration: info level,
// human-readable console output to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// Logger is a thin wrapper around a zerolog.Logger giving call sites a
// Printf-shaped API plus structured With* builders for request context.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger builds a Logger from config; a nil config uses
// DefaultConfig.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	if config.Format != "json" {
		output = zerolog.ConsoleWriter{Out: output, NoColor: config.NoColor}
	}
	zl := zerolog.New(output).Level(config.Level.zerolog()).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// Default returns the process-wide default Logger, creating one from
// DefaultConfig on first use.
func Default() *Logger {
	defaultMu.RLock()
	if defaultLogger != nil {
		defer defaultMu.RUnlock()
		return defaultLogger
	}
	defaultMu.RUnlock()

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault replaces the process-wide default Logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// WithFd returns a child Logger that annotates every entry with fd.
func (l *Logger) WithFd(fd int) *Logger {
	return &Logger{zl: l.zl.With().Int("fd", fd).Logger()}
}

// WithRequest returns a child Logger annotating every entry with a
// request id and the operation name ("Read", "Write", "Sync", "Cancel").
func (l *Logger) WithRequest(id int64, op string) *Logger {
	return &Logger{zl: l.zl.With().Int64("request_id", id).Str("op", op).Logger()}
}

// WithError returns a child Logger annotating every entry with err.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

func (l *Logger) Debugf(format string, args ...any) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.zl.Error().Msgf(format, args...) }

// Printf satisfies interfaces.Logger by logging at info level.
func (l *Logger) Printf(format string, args ...any) { l.Infof(format, args...) }

// Global convenience functions forward to Default().

func Debug(msg string) { Default().Debug(msg) }
func Info(msg string)  { Default().Info(msg) }
func Warn(msg string)  { Default().Warn(msg) }
func Error(msg string) { Default().Error(msg) }

func Debugf(format string, args ...any) { Default().Debugf(format, args...) }
func Infof(format string, args ...any)  { Default().Infof(format, args...) }
func Warnf(format string, args ...any)  { Default().Warnf(format, args...) }
func Errorf(format string, args ...any) { Default().Errorf(format, args...) }
