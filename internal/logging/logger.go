package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

var (
	rootInstance *componentLogger
	rootOnce     sync.Once
)

// componentLogger writes leveled, component-tagged lines to stderr and an
// optional debug file in the user's home directory.
type componentLogger struct {
	mu        sync.Mutex
	out       *log.Logger
	file      *os.File
	component string
}

var (
	levelMu  sync.Mutex
	minLevel = INFO
)

func root() *componentLogger {
	rootOnce.Do(func() {
		rootInstance = &componentLogger{
			out: log.New(os.Stderr, "", 0),
		}
		if os.Getenv("SFL_DEBUG") != "" {
			SetLevel(DEBUG)
		}
		if home, err := os.UserHomeDir(); err == nil {
			path := filepath.Join(home, "sfl-studio-debug.log")
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
				rootInstance.file = f
			}
		}
	})
	return rootInstance
}

// SetLevel sets the minimum level emitted by all component loggers.
func SetLevel(level Level) {
	levelMu.Lock()
	minLevel = level
	levelMu.Unlock()
}

func currentLevel() Level {
	levelMu.Lock()
	defer levelMu.Unlock()
	return minLevel
}

// NewComponentLogger returns the default application logger scoped to a component.
func NewComponentLogger(component string) Logger {
	r := root()
	return &componentLogger{
		out:       r.out,
		file:      r.file,
		component: component,
	}
}

func (l *componentLogger) logf(level Level, format string, args ...any) {
	if level < currentLevel() {
		return
	}

	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] [%s] %s",
		time.Now().Format("2006-01-02 15:04:05.000"), level, l.component, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Print(line)
	if l.file != nil {
		fmt.Fprintln(l.file, line)
	}
}

func (l *componentLogger) Debug(format string, args ...any) { l.logf(DEBUG, format, args...) }
func (l *componentLogger) Info(format string, args ...any)  { l.logf(INFO, format, args...) }
func (l *componentLogger) Warn(format string, args ...any)  { l.logf(WARN, format, args...) }
func (l *componentLogger) Error(format string, args ...any) { l.logf(ERROR, format, args...) }
