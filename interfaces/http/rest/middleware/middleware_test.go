package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TorresLabs/aika-server/pkg/common"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
)

func TestRequestContextAndLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	var seenAccount string
	handler := chimiddleware.RequestID(RequestContext(logger)(Logger(logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenAccount, _ = common.GetAccountID(r.Context())
			w.WriteHeader(http.StatusTeapot)
		}),
	)))

	req := httptest.NewRequest(http.MethodGet, "/clip/created", nil)
	req.Header.Set(common.HeaderAccountID, " u1 ")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "u1", seenAccount)

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["accountID"])
	assert.NotEmpty(t, fields["requestID"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}

func TestRequestContextWithoutAccount(t *testing.T) {
	var hasAccount bool
	handler := RequestContext(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAccount = common.GetAccountID(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, hasAccount)
}

type recordingLimiter struct {
	keys  []string
	allow bool
}

func (l *recordingLimiter) Allow(_ context.Context, key string) bool {
	l.keys = append(l.keys, key)
	return l.allow
}

func TestRateLimitKeys(t *testing.T) {
	limiter := &recordingLimiter{allow: true}
	handler := RequestContext(zap.NewNop())(RateLimit(limiter, pkgerrors.NewErrorHandler(zap.NewNop(), false))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	))

	withAccount := httptest.NewRequest(http.MethodGet, "/", nil)
	withAccount.Header.Set(common.HeaderAccountID, "u1")
	handler.ServeHTTP(httptest.NewRecorder(), withAccount)

	anonymous := httptest.NewRequest(http.MethodGet, "/", nil)
	anonymous.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(httptest.NewRecorder(), anonymous)

	assert.Equal(t, []string{"account:u1", "ip:10.0.0.1:1234"}, limiter.keys)
}

func TestRateLimitRejects(t *testing.T) {
	called := false
	handler := RateLimit(&recordingLimiter{}, pkgerrors.NewErrorHandler(zap.NewNop(), false))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), string(pkgerrors.CodeRateLimited))
	assert.False(t, called)
}

func TestRateLimitDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := RateLimit(nil, pkgerrors.NewErrorHandler(zap.NewNop(), false))(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
