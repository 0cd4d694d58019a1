// Package logging provides structured logging for robota using Go's slog.
//
// Console output belongs to the operator (tables, prompts, the REPL), so the
// default destination is a rotating file under ~/.robota/logs.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type contextKey string

const (
	commandKey       contextKey = "command"
	issueKey         contextKey = "issue"
	correlationIDKey contextKey = "correlation_id"
)

var (
	defaultLogger *slog.Logger
	loggerMu      sync.RWMutex
	closer        io.Closer
)

func init() {
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Config holds logging configuration.
type Config struct {
	Level    string          `yaml:"level"`    // debug, info, warn, error
	Format   string          `yaml:"format"`   // json, text
	Output   string          `yaml:"output"`   // stdout, stderr, or file path
	Rotation *RotationConfig `yaml:"rotation"` // only used for file output
}

// RotationConfig holds log rotation settings.
type RotationConfig struct {
	MaxSize    string `yaml:"max_size"` // e.g., "10MB"
	MaxAge     string `yaml:"max_age"`  // e.g., "14d"
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "text",
		Output: DefaultLogPath(),
		Rotation: &RotationConfig{
			MaxSize:    "10MB",
			MaxAge:     "14d",
			MaxBackups: 3,
		},
	}
}

// DefaultLogPath returns ~/.robota/logs/robota.log.
func DefaultLogPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".robota", "logs", "robota.log")
}

// Init initializes the global logger with the given configuration.
// Calling Init again closes the previous file output, if any.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)
	writer, err := getWriter(cfg)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	loggerMu.Lock()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
	if c, ok := writer.(io.Closer); ok && writer != os.Stdout && writer != os.Stderr {
		closer = c
	}
	defaultLogger = slog.New(handler)
	loggerMu.Unlock()

	return nil
}

// Close flushes and closes file output. Safe to call when nothing is open.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

func parseLevel(level string) slog.Level {
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

func getWriter(cfg *Config) (io.Writer, error) {
	switch cfg.Output {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "":
		return newRotatingWriter(DefaultLogPath(), cfg.Rotation)
	default:
		return newRotatingWriter(cfg.Output, cfg.Rotation)
	}
}

// Logger returns the global logger.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// WithComponent returns a logger with a component attribute.
func WithComponent(component string) *slog.Logger {
	return Logger().With(slog.String("component", component))
}

// WithContext returns a logger with values from context.
func WithContext(ctx context.Context) *slog.Logger {
	logger := Logger()

	if v, ok := ctx.Value(commandKey).(string); ok {
		logger = logger.With(slog.String("command", v))
	}
	if v, ok := ctx.Value(issueKey).(string); ok {
		logger = logger.With(slog.String("issue", v))
	}
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		logger = logger.With(slog.String("correlation_id", v))
	}

	return logger
}

// ContextWithCommand adds the dispatched command name to the context.
func ContextWithCommand(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, commandKey, name)
}

// ContextWithIssue adds an issue key to the context.
func ContextWithIssue(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, issueKey, key)
}

// ContextWithCorrelationID adds a correlation ID to the context.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}
