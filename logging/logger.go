package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

// Log level constants define the severity hierarchy for filtering log output
const (
	DEBUG LogLevel = iota // DEBUG is the lowest severity level for detailed diagnostics
	INFO                  // INFO is for general informational messages
	WARN                  // WARN is for warning messages that don't prevent operation
	ERROR                 // ERROR is the highest severity for error conditions
)

func (l LogLevel) String() string {
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

// ParseLogLevel converts a string to a LogLevel
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger provides structured logging with configurable levels
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	logger *log.Logger
	prefix string
}

// New creates a new Logger with the specified level
func New(level LogLevel, prefix string) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(os.Stderr, "", log.LstdFlags),
		prefix: prefix,
	}
}

// NewWithWriter creates a new Logger with custom output writer
func NewWithWriter(level LogLevel, prefix string, w io.Writer) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(w, "", log.LstdFlags),
		prefix: prefix,
	}
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// shouldLog checks if a message at the given level should be logged
func (l *Logger) shouldLog(level LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

// log writes a log message with the given level and fields
func (l *Logger) log(level LogLevel, msg string, fields map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}

	var sb strings.Builder

	if l.prefix != "" {
		sb.WriteString(l.prefix)
		sb.WriteString(" ")
	}

	sb.WriteString(level.String())
	sb.WriteString(": ")
	sb.WriteString(msg)

	if len(fields) > 0 {
		sb.WriteString(" |")
		for k, v := range fields {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, v))
		}
	}

	l.logger.Println(sb.String())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.log(DEBUG, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.log(INFO, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.log(WARN, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.log(ERROR, msg, fields)
}

// LifecycleEvent represents a type of worker lifecycle event
type LifecycleEvent string

// Lifecycle event constants identify install, activation, and fetch outcomes
const (
	EventInstallStarted  LifecycleEvent = "install_started"  // EventInstallStarted indicates a pre-cache run has begun
	EventInstallComplete LifecycleEvent = "install_complete" // EventInstallComplete indicates all assets were cached
	EventInstallFailed   LifecycleEvent = "install_failed"   // EventInstallFailed indicates the pre-cache run failed
	EventActivated       LifecycleEvent = "activated"        // EventActivated indicates stale caches were pruned and the worker took over
)

// LogInstallStarted logs the start of a pre-cache run (INFO level)
func (l *Logger) LogInstallStarted(cacheName string, assets int) {
	l.Info("Install started", map[string]interface{}{
		"event":  EventInstallStarted,
		"cache":  cacheName,
		"assets": assets,
	})
}

// LogInstallComplete logs a successful pre-cache run (INFO level)
func (l *Logger) LogInstallComplete(cacheName string, assets int, elapsed time.Duration) {
	l.Info("Opened cache and cached all assets", map[string]interface{}{
		"event":   EventInstallComplete,
		"cache":   cacheName,
		"assets":  assets,
		"elapsed": elapsed.String(),
	})
}

// LogInstallFailed logs a failed pre-cache run (ERROR level)
func (l *Logger) LogInstallFailed(cacheName string, err error, elapsed time.Duration) {
	l.Error("Install failed", map[string]interface{}{
		"event":   EventInstallFailed,
		"cache":   cacheName,
		"error":   err.Error(),
		"elapsed": elapsed.String(),
	})
}

// LogActivated logs worker activation with the caches that were pruned (INFO level)
func (l *Logger) LogActivated(cacheName string, pruned []string) {
	l.Info("Worker activated", map[string]interface{}{
		"event":  EventActivated,
		"cache":  cacheName,
		"pruned": strings.Join(pruned, ","),
	})
}
