// Package logging is the structured logging layer for the document
// server and CLI. It wraps slog with a process-wide logger plus typed
// event helpers for the operations worth querying in aggregate:
// document opens, segment edits, saves, websocket traffic, and
// security rejections.
package logging

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// ContextKey keeps context values from colliding with other packages.
type ContextKey string

// RequestIDKey carries the per-request id set by RequestIDMiddleware.
const RequestIDKey ContextKey = "request_id"

// Level selects the minimum severity that gets emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format selects the output encoding. JSON is the server default;
// text is what the CLI prints for humans.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

var slogLevels = map[Level]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

var defaultLogger *slog.Logger

func init() {
	InitLogger(LevelInfo, FormatJSON)
}

// InitLogger replaces the process-wide logger. Timestamps are RFC3339
// so log lines sort and diff cleanly.
func InitLogger(level Level, format Format) {
	slogLevel, ok := slogLevels[level]
	if !ok {
		slogLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the process-wide logger.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithRequestID stores a request id on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID returns the request id from the context, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// LoggerFromContext returns the logger with the request id attached
// when the context carries one.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if id := GetRequestID(ctx); id != "" {
		return defaultLogger.With("request_id", id)
	}
	return defaultLogger
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

// withExtra appends caller-supplied key-value pairs to an event's
// fixed fields.
func withExtra(fields []any, extra []any) []any {
	return append(fields, extra...)
}

func httpFields(method, path, remoteAddr string, statusCode int, duration time.Duration) []any {
	return []any{
		"method", method,
		"path", path,
		"remote_addr", remoteAddr,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	}
}

// HTTPRequest logs a completed request without context fields.
func HTTPRequest(method, path, remoteAddr string, statusCode int, duration time.Duration, args ...any) {
	defaultLogger.Info("http_request",
		withExtra(httpFields(method, path, remoteAddr, statusCode, duration), args)...)
}

// HTTPRequestContext logs a completed request with the request id from ctx.
func HTTPRequestContext(ctx context.Context, method, path, remoteAddr string, statusCode int, duration time.Duration, args ...any) {
	LoggerFromContext(ctx).Info("http_request",
		withExtra(httpFields(method, path, remoteAddr, statusCode, duration), args)...)
}

// DocumentOpened records a successful parse.
func DocumentOpened(path string, segments int, sourceLang, targetLang string, args ...any) {
	defaultLogger.Info("document_opened", withExtra([]any{
		"path", path,
		"segments", segments,
		"source_language", sourceLang,
		"target_language", targetLang,
	}, args)...)
}

// SegmentUpdated records an accepted edit, with the number of
// non-blocking validation warnings it carried.
func SegmentUpdated(path, segmentID string, warnings int, args ...any) {
	defaultLogger.Info("segment_updated", withExtra([]any{
		"path", path,
		"segment_id", segmentID,
		"warnings", warnings,
	}, args)...)
}

// DocumentSaved records a completed serialization to disk.
func DocumentSaved(path string, bytes int64, inPlace bool, args ...any) {
	defaultLogger.Info("document_saved", withExtra([]any{
		"path", path,
		"bytes", bytes,
		"in_place", inPlace,
	}, args)...)
}

// DocumentError records a failed document operation.
func DocumentError(path, operation string, err error, args ...any) {
	defaultLogger.Error("document_error", withExtra([]any{
		"path", path,
		"operation", operation,
		"error", err.Error(),
	}, args)...)
}

// WebSocketEvent records connection churn on the progress socket.
func WebSocketEvent(event string, clientCount int, args ...any) {
	defaultLogger.Info("websocket_event", withExtra([]any{
		"event", event,
		"client_count", clientCount,
	}, args)...)
}

// ServerStartup records listener details at boot.
func ServerStartup(serverType, protocol string, port int, args ...any) {
	defaultLogger.Info("server_startup", withExtra([]any{
		"server_type", serverType,
		"protocol", protocol,
		"port", port,
	}, args)...)
}

// SecurityEvent records a rejected request: bad path, bad key, bad id.
// Always logged at Warn so these surface in default configurations.
func SecurityEvent(event, component string, args ...any) {
	defaultLogger.Warn("security_event", withExtra([]any{
		"event", event,
		"component", component,
	}, args)...)
}
