// Package infrastructure provides logging setup shared by all binaries.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"healthvault/internal/config"
)

var (
	defaultLogger *slog.Logger
	loggerOnce    sync.Once
)

type contextKey string

const loggerContextKey contextKey = "logger"

// requestIDHandler injects the request_id attribute from the context
// into every log record that passes through it.
type requestIDHandler struct {
	slog.Handler
}

func (h *requestIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok && reqID != "" {
		r.AddAttrs(slog.String("request_id", reqID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *requestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &requestIDHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *requestIDHandler) WithGroup(name string) slog.Handler {
	return &requestIDHandler{Handler: h.Handler.WithGroup(name)}
}

// RequestIDKey is the context key under which middleware stores the
// per-request identifier.
const RequestIDKey contextKey = "request_id"

// InitializeLogger sets up the global structured logger according to
// the logging configuration. Safe to call more than once; the first
// call wins.
func InitializeLogger(cfg config.LoggingConfig) error {
	var initErr error
	loggerOnce.Do(func() {
		initErr = initLogger(cfg)
	})
	return initErr
}

func initLogger(cfg config.LoggingConfig) error {
	var output io.Writer
	switch cfg.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		output = f
	default:
		return fmt.Errorf("unknown log output %q", cfg.Output)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	defaultLogger = slog.New(&requestIDHandler{Handler: handler})
	slog.SetDefault(defaultLogger)
	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogger returns the global logger, falling back to a plain stdout
// JSON logger when InitializeLogger has not run.
func GetLogger() *slog.Logger {
	if defaultLogger == nil {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return defaultLogger
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext retrieves the logger from the context, falling
// back to the global logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return GetLogger()
}
