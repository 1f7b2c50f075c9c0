package observability

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metric names emitted by the service
const (
	MetricUnprocessedBatchEntries = "UnprocessedBatchEntries"
	MetricConsistencyFaults       = "ConsistencyFaults"
	MetricDroppedFollowEntries    = "DroppedFollowEntries"
	MetricOperationLatency        = "OperationLatency"
	MetricErrors                  = "Errors"
)

// CloudWatchAPI is the subset of *cloudwatch.Client used for publishing
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics handles application metrics. A nil *Metrics or one without a
// client records nothing.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
	now       func() time.Time
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordCount records a counter value with optional dimensions
func (m *Metrics) RecordCount(ctx context.Context, metricName string, value int, dimensions map[string]string) {
	if value <= 0 {
		return
	}
	m.put(ctx, metricName, float64(value), types.StandardUnitCount, dimensions)
}

// RecordLatency records latency for any operation
func (m *Metrics) RecordLatency(ctx context.Context, operation string, latency time.Duration) {
	m.put(ctx, MetricOperationLatency, float64(latency.Milliseconds()), types.StandardUnitMilliseconds,
		map[string]string{"Operation": operation})
}

// RecordError records error occurrences
func (m *Metrics) RecordError(ctx context.Context, errorType, errorCode string) {
	m.put(ctx, MetricErrors, 1, types.StandardUnitCount,
		map[string]string{"ErrorType": errorType, "ErrorCode": errorCode})
}

func (m *Metrics) put(ctx context.Context, metricName string, value float64, unit types.StandardUnit, dimensions map[string]string) {
	if m == nil || m.client == nil {
		return
	}

	names := make([]string, 0, len(dimensions))
	for name := range dimensions {
		names = append(names, name)
	}
	sort.Strings(names)

	cwDimensions := make([]types.Dimension, 0, len(names))
	for _, name := range names {
		cwDimensions = append(cwDimensions, types.Dimension{
			Name:  aws.String(name),
			Value: aws.String(dimensions[name]),
		})
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Dimensions: cwDimensions,
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(m.now()),
			},
		},
	}

	// Metrics never fail the request
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Warn("Failed to send metrics",
			zap.String("metric", metricName),
			zap.Error(err),
		)
	}
}
