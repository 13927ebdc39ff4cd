// Package logger writes leveled, timestamped log lines to a per-day
// file under the user log directory, pruning files past the retention
// horizon. A console echo can be enabled for CLI runs.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level
type Level int

const (
	// DEBUG level for detailed debugging information
	DEBUG Level = iota
	// INFO level for informational messages
	INFO
	// WARN level for warning messages
	WARN
	// ERROR level for error messages
	ERROR
)

// String returns the string representation of the level
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

// ParseLevel maps a config string to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger writes to a daily-rotated file, optionally echoing to stderr
type Logger struct {
	mu            sync.Mutex
	level         Level
	file          *os.File
	out           io.Writer
	console       bool
	logDir        string
	currentDay    string
	retentionDays int
}

// Config holds logger configuration
type Config struct {
	LogDir        string
	Level         Level
	RetentionDays int
	// Console echoes every line to stderr in addition to the file
	Console bool
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() Config {
	return Config{
		LogDir:        defaultLogDir(),
		Level:         INFO,
		RetentionDays: 7,
	}
}

func defaultLogDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "vaani", "logs")
}

// New creates a new logger
func New(config Config) (*Logger, error) {
	l := &Logger{
		level:         config.Level,
		logDir:        config.LogDir,
		retentionDays: config.RetentionDays,
		console:       config.Console,
	}

	l.mu.Lock()
	err := l.rotateLocked()
	l.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return l, nil
}

// rotateLocked opens the file for the current day, closing the previous
// one and pruning expired files. Caller holds mu.
func (l *Logger) rotateLocked() error {
	today := time.Now().Format("20060102")
	if l.currentDay == today && l.file != nil {
		return nil
	}

	if l.file != nil {
		l.file.Close()
	}

	if err := os.MkdirAll(l.logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(l.logDir, fmt.Sprintf("vaani-%s.log", today))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.file = file
	l.currentDay = today
	if l.console {
		l.out = io.MultiWriter(file, os.Stderr)
	} else {
		l.out = file
	}

	l.pruneLocked()
	return nil
}

// pruneLocked removes .log files older than the retention horizon.
// Failures are ignored; pruning is best effort.
func (l *Logger) pruneLocked() {
	cutoff := time.Now().AddDate(0, 0, -l.retentionDays)

	entries, err := os.ReadDir(l.logDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(l.logDir, entry.Name()))
		}
	}
}

func (l *Logger) logf(level Level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}
	if err := l.rotateLocked(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to rotate log: %v\n", err)
		return
	}

	ts := time.Now().Format("2006/01/02 15:04:05")
	fmt.Fprintf(l.out, "%s [%s] %s\n", ts, level, fmt.Sprintf(format, v...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.logf(DEBUG, format, v...)
}

// Info logs an informational message
func (l *Logger) Info(format string, v ...interface{}) {
	l.logf(INFO, format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.logf(WARN, format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.logf(ERROR, format, v...)
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.level = level
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.level
}
