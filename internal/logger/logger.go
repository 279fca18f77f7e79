package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger writes leveled session logs for backtest and optimization runs
type Logger struct {
	name     string
	out      io.Writer
	file     *os.File
	logger   *log.Logger
	mu       sync.Mutex
	minLevel LogLevel
	now      func() time.Time
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelStatus  LogLevel = "STATUS"
)

var levelRank = map[LogLevel]int{
	LogLevelDebug:   0,
	LogLevelInfo:    1,
	LogLevelTrade:   1,
	LogLevelStatus:  1,
	LogLevelWarning: 2,
	LogLevelError:   3,
}

// ParseLevel maps a config string to a threshold level, defaulting to INFO.
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarning
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// New creates a logger writing to w
func New(name string, w io.Writer) *Logger {
	return &Logger{
		name:     name,
		out:      w,
		logger:   log.New(w, "", 0),
		minLevel: LogLevelInfo,
		now:      time.Now,
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return New("nop", io.Discard)
}

// NewFileLogger creates a dated log file for the named session under logDir
func NewFileLogger(logDir, name string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.log", name, time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := New(name, file)
	l.file = file
	l.writeSessionHeader()
	return l, nil
}

// SetLevel sets the minimum level that gets written
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	bar := strings.Repeat("=", 80)
	l.logger.Printf("\n%s\nSESSION STARTED: %s\nStarted: %s\n%s\n",
		bar, l.name, l.now().Format("2006-01-02 15:04:05"), bar)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelRank[level] < levelRank[l.minLevel] {
		return
	}

	timestamp := l.now().Format("2006-01-02 15:04:05")
	l.logger.Printf("[%s] [%s] %s", timestamp, level, fmt.Sprintf(format, args...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.Log(LogLevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Trade logs a simulated fill
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// Status logs run status information
func (l *Logger) Status(format string, args ...interface{}) {
	l.Log(LogLevelStatus, format, args...)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	bar := strings.Repeat("=", 80)
	l.logger.Printf("\n%s\nSESSION ENDED: %s\nEnded: %s\n%s\n",
		bar, l.name, l.now().Format("2006-01-02 15:04:05"), bar)

	err := l.file.Close()
	l.file = nil
	return err
}
