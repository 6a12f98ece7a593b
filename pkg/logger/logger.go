// Package logger is the process-wide leveled logger.
//
// It keeps the small printf-style surface used everywhere in the repo and
// delegates formatting, levels and output to logrus.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Level is the verbosity threshold used by the logger.
//
// Lower values are more verbose.
type Level int

const (
	// LevelTrace enables extremely verbose logs (wire events, reducer inputs).
	LevelTrace Level = iota
	// LevelDebug enables verbose logs intended for debugging.
	LevelDebug
	// LevelInfo enables informational logs (default).
	LevelInfo
	// LevelWarn enables only warnings and errors.
	LevelWarn
	// LevelError enables only error logs.
	LevelError
)

var (
	mu  sync.Mutex
	std = newStd()
)

func newStd() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return l
}

// Options configures the global logger.
type Options struct {
	// Level is the textual level (trace|debug|info|warn|error). Empty keeps
	// the current level.
	Level string
	// File, when set, mirrors output into a size-rotated log file.
	File string
	// MaxSizeMB is the rotation threshold for File. Defaults to 50.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept. Defaults to 3.
	MaxBackups int
	// Quiet drops console output; only File receives log lines.
	Quiet bool
}

// Configure applies opts to the global logger.
func Configure(opts Options) error {
	if opts.Level != "" {
		level, err := ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		SetLevel(level)
	}

	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 50
		}
		backups := opts.MaxBackups
		if backups <= 0 {
			backups = 3
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: backups,
			MaxAge:     30,
		})
	}
	switch len(writers) {
	case 0:
		SetOutput(io.Discard)
	case 1:
		SetOutput(writers[0])
	default:
		SetOutput(io.MultiWriter(writers...))
	}
	return nil
}

// ParseLevel parses a log level string into a Level.
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case LevelTrace:
		return logrus.TraceLevel
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// SetOutput replaces the writer used by the global logger.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

// SetLevel sets the global log level threshold.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	std.SetLevel(level.logrus())
}

// Enabled reports whether a level would be emitted by the current configuration.
func Enabled(level Level) bool {
	return std.IsLevelEnabled(level.logrus())
}

// WithField returns an entry carrying a structured field, for call sites that
// log many lines about the same entity.
func WithField(key string, value any) *logrus.Entry {
	return std.WithField(key, value)
}

// Tracef logs at TRACE level.
func Tracef(format string, args ...any) { std.Tracef(format, args...) }

// Debugf logs at DEBUG level.
func Debugf(format string, args ...any) { std.Debugf(format, args...) }

// Infof logs at INFO level.
func Infof(format string, args ...any) { std.Infof(format, args...) }

// Warnf logs at WARN level.
func Warnf(format string, args ...any) { std.Warnf(format, args...) }

// Errorf logs at ERROR level.
func Errorf(format string, args ...any) { std.Errorf(format, args...) }
