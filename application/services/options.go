package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/application/ports"
	"github.com/TorresLabs/aika-server/domain/events"
	"github.com/TorresLabs/aika-server/pkg/common"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
	"github.com/TorresLabs/aika-server/pkg/observability"
)

// Option configures a service
type Option func(*runner)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(r *runner) {
		r.now = now
	}
}

// WithTracer records a subsegment per operation
func WithTracer(tracer *observability.Tracer) Option {
	return func(r *runner) {
		r.tracer = tracer
	}
}

// WithMetrics records latency and errors per operation
func WithMetrics(metrics *observability.Metrics) Option {
	return func(r *runner) {
		r.metrics = metrics
	}
}

// WithPublisher publishes domain events after successful writes
func WithPublisher(publisher ports.EventPublisher) Option {
	return func(r *runner) {
		r.publisher = publisher
	}
}

// runner holds what every service operation runs with
type runner struct {
	now       func() time.Time
	tracer    *observability.Tracer
	metrics   *observability.Metrics
	publisher ports.EventPublisher
	logger    *zap.Logger
}

func newRunner(logger *zap.Logger, opts []Option) runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := runner{now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r runner) log(ctx context.Context) *zap.Logger {
	return common.Logger(ctx, r.logger)
}

// run executes one service operation inside a trace subsegment and records
// its latency and, on failure, its error type and code.
func (r runner) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	err := r.tracer.TraceFunction(ctx, operation, fn)
	r.metrics.RecordLatency(ctx, operation, time.Since(start))

	if err != nil {
		errType, code := string(pkgerrors.ErrorTypeInternal), ""
		if appErr := pkgerrors.GetAppError(err); appErr != nil {
			errType, code = string(appErr.Type), string(appErr.Code)
		}
		r.metrics.RecordError(ctx, errType, code)
	}
	return err
}

// publish sends events. A failed publish is logged and never fails the
// operation that raised the events.
func (r runner) publish(ctx context.Context, domainEvents ...events.DomainEvent) {
	if r.publisher == nil || len(domainEvents) == 0 {
		return
	}
	if err := r.publisher.Publish(ctx, domainEvents...); err != nil {
		r.log(ctx).Warn("Failed to publish domain events",
			zap.Int("count", len(domainEvents)),
			zap.String("eventType", domainEvents[0].GetEventType()),
			zap.Error(err),
		)
	}
}
