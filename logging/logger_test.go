package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", DEBUG},
		{"debug", DEBUG},
		{"INFO", INFO},
		{"info", INFO},
		{"WARN", WARN},
		{"warn", WARN},
		{"ERROR", ERROR},
		{"error", ERROR},
		{"invalid", INFO}, // default to INFO
		{"", INFO},        // default to INFO
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLogLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.level.String()
			if result != tt.expected {
				t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, result, tt.expected)
			}
		})
	}
}

func TestLoggerSetGetLevel(t *testing.T) {
	logger := New(INFO, "test")

	if logger.GetLevel() != INFO {
		t.Errorf("Initial level = %v, want %v", logger.GetLevel(), INFO)
	}

	logger.SetLevel(DEBUG)
	if logger.GetLevel() != DEBUG {
		t.Errorf("After SetLevel(DEBUG), level = %v, want %v", logger.GetLevel(), DEBUG)
	}
}

func TestLoggerFiltering(t *testing.T) {
	tests := []struct {
		name         string
		logLevel     LogLevel
		logFunc      func(*Logger)
		shouldAppear bool
	}{
		{
			name:         "DEBUG message with DEBUG level",
			logLevel:     DEBUG,
			logFunc:      func(l *Logger) { l.Debug("test", nil) },
			shouldAppear: true,
		},
		{
			name:         "DEBUG message with INFO level",
			logLevel:     INFO,
			logFunc:      func(l *Logger) { l.Debug("test", nil) },
			shouldAppear: false,
		},
		{
			name:         "INFO message with INFO level",
			logLevel:     INFO,
			logFunc:      func(l *Logger) { l.Info("test", nil) },
			shouldAppear: true,
		},
		{
			name:         "WARN message with ERROR level",
			logLevel:     ERROR,
			logFunc:      func(l *Logger) { l.Warn("test", nil) },
			shouldAppear: false,
		},
		{
			name:         "ERROR message with ERROR level",
			logLevel:     ERROR,
			logFunc:      func(l *Logger) { l.Error("test", nil) },
			shouldAppear: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(tt.logLevel, "", &buf)

			tt.logFunc(logger)

			appeared := strings.Contains(buf.String(), "test")
			if appeared != tt.shouldAppear {
				t.Errorf("Message appeared = %v, want %v (output: %q)", appeared, tt.shouldAppear, buf.String())
			}
		})
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(INFO, "", &buf)

	logger.Info("request handled", map[string]interface{}{
		"path": "/manifest.json",
	})

	output := buf.String()
	if !strings.Contains(output, "request handled") {
		t.Errorf("Expected message in output, got %q", output)
	}
	if !strings.Contains(output, "path=/manifest.json") {
		t.Errorf("Expected field in output, got %q", output)
	}
}

func TestLoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(INFO, "[gateway]", &buf)

	logger.Info("started", nil)

	if !strings.Contains(buf.String(), "[gateway]") {
		t.Errorf("Expected prefix in output, got %q", buf.String())
	}
}

func TestLifecycleEventHelpers(t *testing.T) {
	t.Run("install complete", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(INFO, "", &buf)

		logger.LogInstallComplete("budget-tracker-v1", 5, 120*time.Millisecond)

		output := buf.String()
		if !strings.Contains(output, string(EventInstallComplete)) {
			t.Errorf("Expected install_complete event, got %q", output)
		}
		if !strings.Contains(output, "cache=budget-tracker-v1") {
			t.Errorf("Expected cache name field, got %q", output)
		}
	})

	t.Run("install failed", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(INFO, "", &buf)

		logger.LogInstallFailed("budget-tracker-v1", errors.New("asset missing"), time.Second)

		output := buf.String()
		if !strings.Contains(output, string(EventInstallFailed)) {
			t.Errorf("Expected install_failed event, got %q", output)
		}
		if !strings.Contains(output, "asset missing") {
			t.Errorf("Expected error field, got %q", output)
		}
	})

	t.Run("activated with pruned caches", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(INFO, "", &buf)

		logger.LogActivated("budget-tracker-v2", []string{"budget-tracker-v1"})

		output := buf.String()
		if !strings.Contains(output, string(EventActivated)) {
			t.Errorf("Expected activated event, got %q", output)
		}
		if !strings.Contains(output, "pruned=budget-tracker-v1") {
			t.Errorf("Expected pruned field, got %q", output)
		}
	})
}
