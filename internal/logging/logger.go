package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the slog-based logger used for lifecycle and business events.
// Per-request service logging goes through logrus (see NewLogrus).
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a JSON logger on stdout at the given level.
func NewLogger(logLevel string) *Logger {
	return NewLoggerWithWriter(os.Stdout, logLevel)
}

// NewLoggerWithWriter creates a JSON logger writing to w.
func NewLoggerWithWriter(w io.Writer, logLevel string) *Logger {
	return &Logger{
		logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: getSlogLevel(logLevel),
		})),
	}
}

// NewLoggerFromHandler wraps an arbitrary slog handler.
func NewLoggerFromHandler(h slog.Handler) *Logger {
	return &Logger{logger: slog.New(h)}
}

// WithComponent creates a logger with component context
func (l *Logger) WithComponent(componentName string) *slog.Logger {
	return l.logger.With("component", componentName)
}

// WithSymbol creates a logger with symbol context
func (l *Logger) WithSymbol(symbol string) *slog.Logger {
	return l.logger.With("symbol", symbol)
}

// WithError creates a logger with error context
func (l *Logger) WithError(err error) *slog.Logger {
	return l.logger.With("error", err.Error())
}

// LogStartup logs application startup information
func (l *Logger) LogStartup(serviceName string, version string, port int) {
	l.logger.Info("Application startup",
		"service", serviceName,
		"version", version,
		"port", port,
		"event", "startup",
	)
}

// LogShutdown logs application shutdown information
func (l *Logger) LogShutdown(serviceName string, reason string) {
	l.logger.Info("Application shutdown",
		"service", serviceName,
		"reason", reason,
		"event", "shutdown",
	)
}

// LogAnalysis records a completed analysis as a business event.
func (l *Logger) LogAnalysis(symbol, action string, confidence float64, sentimentStatus string, duration time.Duration) {
	l.logger.Info("Analysis completed",
		"symbol", symbol,
		"action", action,
		"confidence", confidence,
		"sentiment_status", sentimentStatus,
		"duration_ms", duration.Milliseconds(),
		"event", "analysis",
	)
}

// LogScan records the outcome of one scheduled watchlist scan.
func (l *Logger) LogScan(symbols, failures int, duration time.Duration) {
	l.logger.Info("Watchlist scan completed",
		"symbols", symbols,
		"failures", failures,
		"duration_ms", duration.Milliseconds(),
		"event", "scan",
	)
}

// Logger returns the underlying *slog.Logger
func (l *Logger) Logger() *slog.Logger {
	return l.logger
}

// NewLogrus builds the JSON logrus logger shared by services and handlers.
func NewLogrus(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(ParseLogrusLevel(logLevel))
	return logger
}

// getSlogLevel converts string level to slog.Level
func getSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogrusLevel converts string level to logrus.Level
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
