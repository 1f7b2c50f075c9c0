package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFallback(t *testing.T) {
	fallback := zap.NewNop()

	assert.Same(t, fallback, Logger(context.Background(), fallback))
	assert.NotNil(t, Logger(context.Background(), nil))
}

func TestEnrichContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	ctx := EnrichContext(context.Background(), zap.New(core), "acc-1", "req-1")

	accountID, ok := GetAccountID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "acc-1", accountID)

	requestID, ok := GetRequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", requestID)

	Logger(ctx, nil).Info("store call")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "acc-1", fields["accountID"])
		assert.Equal(t, "req-1", fields["requestID"])
	}
}

func TestEnrichContextWithoutAccount(t *testing.T) {
	ctx := EnrichContext(context.Background(), zap.NewNop(), "", "req-2")

	_, ok := GetAccountID(ctx)
	assert.False(t, ok)
}
