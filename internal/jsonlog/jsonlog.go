package jsonlog

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Level represents the severity level for a log entry.
type Level int8

// Initialize constants which represent a specific severity level.
const (
	LevelInfo  Level = iota // Has the value 0.
	LevelError              // Has the value 1.
	LevelFatal              // Has the value 2.
	LevelOff                // Has the value 3.
)

// String returns a human-friendly string for the severity level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return ""
	}
}

// ParseLevel maps a configuration value (info, error, fatal, off) onto a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return LevelInfo, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	case "off":
		return LevelOff, nil
	}
	return LevelInfo, fmt.Errorf("jsonlog: unknown level %q", s)
}

func (l Level) zerologLevel() zerolog.Level {
	switch l {
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.Disabled
	}
}

// Logger writes one JSON object per line: level, time, message, an optional
// properties object, and a stack trace for entries at ERROR and above.
type Logger struct {
	out      zerolog.Logger
	minLevel Level
	mu       sync.Mutex
}

// New returns a Logger that writes entries at or above minLevel to out.
func New(out io.Writer, minLevel Level) *Logger {
	return &Logger{
		out:      zerolog.New(out).Level(minLevel.zerologLevel()).With().Timestamp().Logger(),
		minLevel: minLevel,
	}
}

// PrintInfo writes a log entry at the INFO level.
func (l *Logger) PrintInfo(message string, properties map[string]string) {
	l.print(LevelInfo, message, properties)
}

// PrintError writes a log entry at the ERROR level.
func (l *Logger) PrintError(err error, properties map[string]string) {
	l.print(LevelError, err.Error(), properties)
}

// PrintFatal writes a log entry at the FATAL level and terminates the application.
func (l *Logger) PrintFatal(err error, properties map[string]string) {
	l.print(LevelFatal, err.Error(), properties)
	os.Exit(1)
}

func (l *Logger) print(level Level, message string, properties map[string]string) {
	if level < l.minLevel {
		return
	}

	event := l.out.WithLevel(level.zerologLevel())

	if len(properties) > 0 {
		dict := zerolog.Dict()
		for k, v := range properties {
			dict = dict.Str(k, v)
		}
		event = event.Dict("properties", dict)
	}

	if level >= LevelError {
		event = event.Str("trace", string(debug.Stack()))
	}

	// Concurrent entries must not interleave on the underlying writer.
	l.mu.Lock()
	defer l.mu.Unlock()

	event.Msg(message)
}

// Write lets the Logger satisfy io.Writer, so it can back the http.Server error log.
// Entries written this way are logged at the ERROR level with no properties.
func (l *Logger) Write(message []byte) (n int, err error) {
	l.print(LevelError, strings.TrimRight(string(message), "\n"), nil)
	return len(message), nil
}
