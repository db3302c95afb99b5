// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger so packages share one swappable instance.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the process-wide logger. ConfigureLogger replaces it.
var GlobalLogger = &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stdout, nil))}

// ConfigureLogger swaps the global handler: JSON in production, text elsewhere.
func ConfigureLogger(env, level string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

type correlationKey struct{}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func appendFields(attrs []any, fields map[string]interface{}) []any {
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

// RepoLogger logs data access against one platform collection or bucket.
// Successful operations log at debug; failures at error.
type RepoLogger struct {
	collection string
}

func NewRepoLogger(collection string) *RepoLogger {
	return &RepoLogger{collection: collection}
}

func (l *RepoLogger) attrs(ctx context.Context, operation string) []any {
	return []any{
		slog.String("collection", l.collection),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
}

func (l *RepoLogger) debug(ctx context.Context, operation string, fields map[string]interface{}) {
	GlobalLogger.DebugContext(ctx, "repository "+operation, appendFields(l.attrs(ctx, operation), fields)...)
}

func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]interface{}) {
	l.debug(ctx, "create", fields)
}

func (l *RepoLogger) LogRead(ctx context.Context, fields map[string]interface{}) {
	l.debug(ctx, "read", fields)
}

func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]interface{}) {
	l.debug(ctx, "update", fields)
}

func (l *RepoLogger) LogDelete(ctx context.Context, fields map[string]interface{}) {
	l.debug(ctx, "delete", fields)
}

func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	GlobalLogger.ErrorContext(ctx, "repository error",
		append(l.attrs(ctx, operation), slog.String("error", err.Error()))...)
}

// WSLogger logs websocket lifecycle events for a named connection owner
// (the browser feed hub or the platform realtime subscriber).
type WSLogger struct {
	name string
}

func NewWSLogger(name string) *WSLogger {
	return &WSLogger{name: name}
}

func (l *WSLogger) LogConnect(ctx context.Context, peer string) {
	GlobalLogger.InfoContext(ctx, "websocket connected",
		slog.String("hub", l.name),
		slog.String("peer", peer),
	)
}

func (l *WSLogger) LogDisconnect(ctx context.Context, peer, reason string) {
	GlobalLogger.InfoContext(ctx, "websocket disconnected",
		slog.String("hub", l.name),
		slog.String("peer", peer),
		slog.String("reason", reason),
	)
}

func (l *WSLogger) LogError(ctx context.Context, err error, eventType string) {
	GlobalLogger.ErrorContext(ctx, "websocket error",
		slog.String("hub", l.name),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// ServiceLogger records failures leaving the service layer. Each failure is
// logged exactly once, at the service boundary.
type ServiceLogger struct{}

func NewServiceLogger() *ServiceLogger {
	return &ServiceLogger{}
}

func (ServiceLogger) LogFailure(ctx context.Context, service, method string, err error, fields map[string]interface{}) {
	attrs := []any{
		slog.String("service", service),
		slog.String("method", method),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	GlobalLogger.ErrorContext(ctx, "service call failed", appendFields(attrs, fields)...)
}
