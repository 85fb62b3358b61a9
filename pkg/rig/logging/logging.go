// Package logging provides per-component structured loggers for rig, backed
// by charmbracelet/log and a size-rotated log file.
//
//	if err := logging.Init(logging.DefaultConfig()); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logger := logging.Get("download")
//	logger.Info("item fetched", "path", item.Path)
//
// Until Init is called every logger discards its output, so library code
// and tests can log freely.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level is a logging severity.
type Level int

// Levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// String returns the lowercase level name.
func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "unknown"
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

// ErrInvalidLevel is returned for unknown level names.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name. "warning" is accepted for warn.
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
	}
	return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
}

// Config configures Init.
type Config struct {
	// Level is the default level for every component.
	Level string

	// Path is the log file. Empty means DefaultLogPath().
	Path string

	// Rotation controls log file rotation.
	Rotation RotationConfig

	// Components overrides Level per component name.
	Components map[string]string

	// ConsoleLevel mirrors records at or above this level to stderr.
	// Empty disables the console.
	ConsoleLevel string

	// TUIMode keeps stderr quiet and collects warnings and errors in a
	// Recent buffer for the progress view instead.
	TUIMode bool
}

// DefaultConfig returns info-level file logging at DefaultLogPath.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}

// DefaultLogPath is $XDG_STATE_HOME/rig/rig.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "rig", "rig.log")
}

// Entry is a record kept in the Recent buffer.
type Entry struct {
	Time      time.Time
	Level     Level
	Component string
	Message   string
}

// Logger is a component logger writing to the log file and, optionally,
// to stderr. Loggers returned by Get follow later calls to Init.
type Logger struct {
	component string
	out       atomic.Pointer[outputs]
}

type outputs struct {
	file    *log.Logger
	console *log.Logger
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyvals ...any) { l.emit(LevelDebug, msg, keyvals) }

// Info logs at info level.
func (l *Logger) Info(msg string, keyvals ...any) { l.emit(LevelInfo, msg, keyvals) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, keyvals ...any) { l.emit(LevelWarn, msg, keyvals) }

// Error logs at error level.
func (l *Logger) Error(msg string, keyvals ...any) { l.emit(LevelError, msg, keyvals) }

// With returns a logger that adds keyvals to every record. The derived
// logger keeps the outputs current at the time of the call.
func (l *Logger) With(keyvals ...any) *Logger {
	o := l.out.Load()
	derived := &outputs{file: o.file.With(keyvals...)}
	if o.console != nil {
		derived.console = o.console.With(keyvals...)
	}
	out := &Logger{component: l.component}
	out.out.Store(derived)
	return out
}

func (l *Logger) emit(level Level, msg string, keyvals []any) {
	o := l.out.Load()
	write(o.file, level, msg, keyvals)
	if o.console != nil {
		write(o.console, level, msg, keyvals)
	}
	if level >= LevelWarn {
		global.remember(Entry{Time: time.Now(), Level: level, Component: l.component, Message: msg})
	}
}

func write(to *log.Logger, level Level, msg string, keyvals []any) {
	switch level {
	case LevelDebug:
		to.Debug(msg, keyvals...)
	case LevelInfo:
		to.Info(msg, keyvals...)
	case LevelWarn:
		to.Warn(msg, keyvals...)
	case LevelError:
		to.Error(msg, keyvals...)
	}
}

type state struct {
	mu          sync.RWMutex
	initialized bool
	level       Level
	components  map[string]Level
	console     *Level
	writer      *RotatingWriter
	loggers     map[string]*Logger
	recent      *Recent
}

var global = &state{
	components: map[string]Level{},
	loggers:    map[string]*Logger{},
}

// Init configures logging. Loggers obtained earlier are rebuilt so they pick
// up the new outputs.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	components := make(map[string]Level, len(cfg.Components))
	for name, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("component %s: %w", name, err)
		}
		components[name] = parsed
	}

	var console *Level
	if cfg.ConsoleLevel != "" && !cfg.TUIMode {
		parsed, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("console: %w", err)
		}
		console = &parsed
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		if err := global.writer.Close(); err != nil {
			return fmt.Errorf("closing previous log file: %w", err)
		}
		global.writer = nil
	}

	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return err
	}

	global.initialized = true
	global.level = level
	global.components = components
	global.console = console
	global.writer = writer
	global.recent = nil
	if cfg.TUIMode {
		global.recent = NewRecent(DefaultRecentSize)
	}

	global.refresh()
	return nil
}

// Get returns the logger for component, creating it on first use.
func Get(component string) *Logger {
	global.mu.RLock()
	l, ok := global.loggers[component]
	global.mu.RUnlock()
	if ok {
		return l
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	if l, ok := global.loggers[component]; ok {
		return l
	}
	l = &Logger{component: component}
	l.out.Store(global.outputs(component))
	global.loggers[component] = l
	return l
}

// refresh points every logger at the current outputs. It must be called
// with mu held.
func (s *state) refresh() {
	for name, l := range s.loggers {
		l.out.Store(s.outputs(name))
	}
}

// outputs must be called with mu held.
func (s *state) outputs(component string) *outputs {
	level := s.level
	if lvl, ok := s.components[component]; ok {
		level = lvl
	}

	if !s.initialized {
		return &outputs{
			file: log.NewWithOptions(io.Discard, log.Options{Level: level.charm(), Prefix: component}),
		}
	}

	o := &outputs{
		file: log.NewWithOptions(s.writer, log.Options{
			Level:           level.charm(),
			Prefix:          component,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
		}),
	}
	if s.console != nil {
		o.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           s.console.charm(),
			Prefix:          component,
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
		})
	}
	return o
}

func (s *state) remember(e Entry) {
	s.mu.RLock()
	r := s.recent
	s.mu.RUnlock()
	if r != nil {
		r.Add(e)
	}
}

// RecentEntries returns the warnings and errors collected in TUI mode,
// oldest first. It returns nil outside TUI mode.
func RecentEntries(n int) []Entry {
	global.mu.RLock()
	r := global.recent
	global.mu.RUnlock()
	if r == nil {
		return nil
	}
	return r.Last(n)
}

// Close flushes and closes the log file and returns loggers to discard mode.
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
	global.recent = nil
	global.console = nil
	global.components = map[string]Level{}
	global.refresh()
	return err
}
