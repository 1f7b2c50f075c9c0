package common

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ContextKey represents a context key type
type ContextKey string

// Context keys
const (
	ContextKeyAccountID ContextKey = "account_id"
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyStartTime ContextKey = "start_time"
	ContextKeyLogger    ContextKey = "logger"
)

// WithAccountID adds the verified account ID to context
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, ContextKeyAccountID, accountID)
}

// GetAccountID extracts the account ID from context
func GetAccountID(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(ContextKeyAccountID).(string)
	return accountID, ok && accountID != ""
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	return requestID, ok
}

// WithStartTime adds start time to context
func WithStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyStartTime, startTime)
}

// GetElapsedTime calculates elapsed time from start time in context
func GetElapsedTime(ctx context.Context) time.Duration {
	if startTime, ok := ctx.Value(ContextKeyStartTime).(time.Time); ok {
		return time.Since(startTime)
	}
	return 0
}

// WithLogger stores a request-scoped logger in the context
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ContextKeyLogger, logger)
}

// Logger returns the request-scoped logger, or fallback when the context
// carries none.
func Logger(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger, ok := ctx.Value(ContextKeyLogger).(*zap.Logger); ok && logger != nil {
		return logger
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback
}

// EnrichContext adds request metadata and a child logger carrying it
func EnrichContext(ctx context.Context, base *zap.Logger, accountID, requestID string) context.Context {
	ctx = WithRequestID(ctx, requestID)
	ctx = WithStartTime(ctx, time.Now())

	fields := []zap.Field{zap.String("requestID", requestID)}
	if accountID != "" {
		ctx = WithAccountID(ctx, accountID)
		fields = append(fields, zap.String("accountID", accountID))
	}

	return WithLogger(ctx, Logger(ctx, base).With(fields...))
}
