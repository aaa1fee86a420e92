// Package common provides shared utilities for Fairval
package common

import (
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// Logger wraps arbor.ILogger to provide a consistent interface
type Logger struct {
	arbor.ILogger
}

// NewLogger creates a console logger at the specified level
func NewLogger(level string) *Logger {
	logger := arbor.NewLogger().WithConsoleWriter(consoleWriter()).WithLevelFromString(level)
	return &Logger{ILogger: logger}
}

// NewLoggerFromConfig creates a logger with the writers named in the logging config
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	logger := arbor.NewLogger()

	hasConsole := len(cfg.Outputs) == 0
	for _, output := range cfg.Outputs {
		switch output {
		case "console", "stdout":
			hasConsole = true
		case "file":
			if cfg.FilePath == "" {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
				hasConsole = true
				continue
			}
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   cfg.FilePath,
				TimeFormat: "15:04:05",
				MaxSize:    100 * 1024 * 1024, // 100 MB
				MaxBackups: 3,
				OutputType: models.OutputFormatLogfmt,
			})
		}
	}

	if hasConsole {
		logger = logger.WithConsoleWriter(consoleWriter())
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	return &Logger{ILogger: logger.WithLevelFromString(level)}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *Logger {
	return NewLogger("info")
}

// NewSilentLogger creates a logger with no writers attached
func NewSilentLogger() *Logger {
	return &Logger{ILogger: arbor.NewLogger()}
}

// WithCorrelationID returns a child logger tagged with the request correlation ID
func (l *Logger) WithCorrelationID(id string) *Logger {
	return &Logger{ILogger: l.ILogger.WithCorrelationId(id)}
}

func consoleWriter() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
	}
}
