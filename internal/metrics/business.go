package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/volt/internal/errors"
)

// StatusSuccess is the status recorded for operations that returned no error.
const StatusSuccess = "success"

// StatusError is the status recorded for errors that carry no vault error code.
const StatusError = "error"

// Purge triggers recorded by RecordPurged.
const (
	PurgeTriggerWorker = "worker"
	PurgeTriggerCLI    = "cli"
)

// BusinessMetrics records the outcome of vault secret operations.
type BusinessMetrics interface {
	// RecordOperation counts an operation. Status is StatusSuccess or the vault error code
	// of the failure (e.g. "SecretNotFound").
	RecordOperation(ctx context.Context, operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(ctx context.Context, operation string, duration time.Duration, status string)

	// RecordPurged counts deleted secrets removed after their retention period.
	// Trigger identifies the caller, such as "worker" or "cli".
	RecordPurged(ctx context.Context, count int, trigger string)
}

// StatusFromError maps an operation error to the status label.
func StatusFromError(err error) string {
	if err == nil {
		return StatusSuccess
	}
	var serviceErr *errors.ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Code != "" {
		return serviceErr.Code
	}
	return StatusError
}

// businessMetrics implements BusinessMetrics using OpenTelemetry metrics.
type businessMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
	purgedCounter    metric.Int64Counter
}

// NewBusinessMetrics creates a new BusinessMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names (e.g., "volt").
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_secret_operations_total", namespace),
		metric.WithDescription("Total number of secret operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_secret_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of secret operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	purgedCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_deleted_secrets_purged_total", namespace),
		metric.WithDescription("Total number of deleted secrets purged after their retention period"),
		metric.WithUnit("{secret}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create purge counter: %w", err)
	}

	return &businessMetrics{
		operationCounter: operationCounter,
		durationHisto:    durationHisto,
		purgedCounter:    purgedCounter,
	}, nil
}

// RecordOperation increments the operation counter with operation and status labels.
func (b *businessMetrics) RecordOperation(ctx context.Context, operation, status string) {
	b.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordDuration records the operation duration in seconds with operation and status labels.
func (b *businessMetrics) RecordDuration(ctx context.Context, operation string, duration time.Duration, status string) {
	b.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordPurged adds count to the purge counter.
func (b *businessMetrics) RecordPurged(ctx context.Context, count int, trigger string) {
	if count <= 0 {
		return
	}
	b.purgedCounter.Add(ctx, int64(count), metric.WithAttributes(attribute.String("trigger", trigger)))
}

// NoOpBusinessMetrics is a no-op implementation of BusinessMetrics for when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

// RecordOperation does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, operation, status string) {}

// RecordDuration does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordDuration(ctx context.Context, operation string, duration time.Duration, status string) {
}

// RecordPurged does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordPurged(ctx context.Context, count int, trigger string) {}
