package logging

import (
	"context"

	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 3)

	if sessionID := SessionIDFromContext(ctx); sessionID != "" {
		fields = append(fields, zap.String("session.id", sessionID))
	}
	if path := DatasetFromContext(ctx); path != "" {
		fields = append(fields, zap.String("dataset.path", path))
	}
	if run := RunFromContext(ctx); run != "" {
		fields = append(fields, zap.String("run", run))
	}

	return fields
}

// Context key types
type sessionCtxKey struct{}
type datasetCtxKey struct{}
type runCtxKey struct{}
type loggerCtxKey struct{}

// WithSessionID adds session ID to context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sessionID)
}

// SessionIDFromContext extracts session ID from context.
func SessionIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(sessionCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithDataset tags the context with the dataset being processed.
func WithDataset(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, datasetCtxKey{}, path)
}

// DatasetFromContext extracts the dataset path from context.
func DatasetFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(datasetCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithRun tags the context with the run being materialized.
func WithRun(ctx context.Context, run string) context.Context {
	return context.WithValue(ctx, runCtxKey{}, run)
}

// RunFromContext extracts the run token from context.
func RunFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(runCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
