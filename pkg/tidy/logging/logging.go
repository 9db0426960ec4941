// Package logging provides component loggers for tidy.
//
// Loggers are silent until Init is called, so library packages can hold a
// package-level logger without forcing output on embedders:
//
//	var logger = logging.Get("preview")
//
// The CLI calls Init once with the configured level and log path:
//
//	if err := logging.Init(logging.Config{Level: "debug", ConsoleLevel: "warn"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level is a logging level.
type Level int

// Levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned by ParseLevel for unknown level names.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures Init.
type Config struct {
	// Level is the default file log level.
	Level string

	// Path is the log file. Empty uses DefaultLogPath.
	Path string

	// Rotation controls log file rotation.
	Rotation RotationConfig

	// Components overrides the level per component name.
	Components map[string]string

	// ConsoleLevel mirrors logs at or above this level to stderr.
	// Empty disables console output.
	ConsoleLevel string
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}

// DefaultLogPath returns $XDG_STATE_HOME/tidy/tidy.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "tidy", "tidy.log")
}

// Logger is a component logger writing to the log file and optionally stderr.
type Logger struct {
	mu        sync.RWMutex
	file      *log.Logger
	console   *log.Logger
	component string
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...interface{}) { l.emit(LevelDebug, msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...interface{}) { l.emit(LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...interface{}) { l.emit(LevelWarn, msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...interface{}) { l.emit(LevelError, msg, args...) }

// With returns a logger that adds key/value pairs to every entry.
func (l *Logger) With(args ...interface{}) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := &Logger{file: l.file.With(args...), component: l.component}
	if l.console != nil {
		out.console = l.console.With(args...)
	}
	return out
}

func (l *Logger) emit(level Level, msg string, args ...interface{}) {
	l.mu.RLock()
	file, console := l.file, l.console
	l.mu.RUnlock()

	write(file, level, msg, args...)
	if console != nil {
		write(console, level, msg, args...)
	}
}

func write(lg *log.Logger, level Level, msg string, args ...interface{}) {
	switch level {
	case LevelDebug:
		lg.Debug(msg, args...)
	case LevelInfo:
		lg.Info(msg, args...)
	case LevelWarn:
		lg.Warn(msg, args...)
	case LevelError:
		lg.Error(msg, args...)
	}
}

type registry struct {
	mu           sync.Mutex
	initialized  bool
	writer       *RotatingWriter
	level        Level
	console      bool
	consoleLevel Level
	components   map[string]Level
	loggers      map[string]*Logger
}

var global = &registry{
	components: make(map[string]Level),
	loggers:    make(map[string]*Logger),
}

// Init configures every existing and future logger.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for name, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", name, err)
		}
		components[name] = parsed
	}

	console := cfg.ConsoleLevel != ""
	consoleLevel := LevelWarn
	if console {
		if consoleLevel, err = ParseLevel(cfg.ConsoleLevel); err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		_ = global.writer.Close()
	}
	global.writer = writer
	global.level = level
	global.components = components
	global.console = console
	global.consoleLevel = consoleLevel
	global.initialized = true

	for name, lg := range global.loggers {
		global.configure(name, lg)
	}
	return nil
}

// Get returns the logger for component, creating it on first use.
func Get(component string) *Logger {
	global.mu.Lock()
	defer global.mu.Unlock()

	if lg, ok := global.loggers[component]; ok {
		return lg
	}
	lg := &Logger{component: component}
	global.configure(component, lg)
	global.loggers[component] = lg
	return lg
}

// configure points lg at the current outputs. Callers hold r.mu.
func (r *registry) configure(component string, lg *Logger) {
	level := r.level
	if lvl, ok := r.components[component]; ok {
		level = lvl
	}

	var (
		file    *log.Logger
		console *log.Logger
	)
	if !r.initialized {
		file = log.NewWithOptions(io.Discard, log.Options{Level: level.charm(), Prefix: component})
	} else {
		file = log.NewWithOptions(r.writer, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		})
		if r.console {
			console = log.NewWithOptions(os.Stderr, log.Options{
				Level:           r.consoleLevel.charm(),
				ReportTimestamp: true,
				TimeFormat:      time.Kitchen,
				Prefix:          component,
			})
		}
	}

	lg.mu.Lock()
	lg.file, lg.console = file, console
	lg.mu.Unlock()
}

// Close flushes the log file and returns all loggers to silence.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.initialized {
		return nil
	}
	var err error
	if global.writer != nil {
		err = global.writer.Close()
		global.writer = nil
	}
	global.initialized = false
	global.components = make(map[string]Level)
	for name, lg := range global.loggers {
		global.configure(name, lg)
	}
	if err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}
