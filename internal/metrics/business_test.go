package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/volt/internal/errors"
)

// assertBizMetricLine checks that the Prometheus output contains a business metric
// matching the given name, partial label pattern, and value. Uses regex to handle
// extra OTel scope labels injected by the Prometheus exporter.
func assertBizMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func TestNewBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	businessMetrics, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")

	require.NoError(t, err)
	assert.NotNil(t, businessMetrics)
}

func TestStatusFromError(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusFromError(nil))
	assert.Equal(t, StatusError, StatusFromError(assert.AnError))
	assert.Equal(t, "SecretNotFound", StatusFromError(
		errors.NewServiceError(errors.ErrNotFound, "SecretNotFound", "missing", "req"),
	))
	assert.Equal(t, "Conflict", StatusFromError(
		errors.Wrap(errors.NewServiceError(errors.ErrConflict, "Conflict", "deleted", "req"), "set secret"),
	))
}

func TestNewNoOpBusinessMetrics(t *testing.T) {
	noOpMetrics := NewNoOpBusinessMetrics()

	assert.NotNil(t, noOpMetrics)
	assert.IsType(t, &NoOpBusinessMetrics{}, noOpMetrics)

	assert.NotPanics(t, func() {
		noOpMetrics.RecordOperation(context.Background(), "secret_set", StatusSuccess)
		noOpMetrics.RecordDuration(context.Background(), "secret_get", 100*time.Millisecond, "SecretNotFound")
		noOpMetrics.RecordPurged(context.Background(), 3, "worker")
	})
}

func TestBusinessMetrics_Integration(t *testing.T) {
	provider, err := NewProvider("integration_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "integration_test")
	require.NoError(t, err)

	ctx := context.Background()

	bm.RecordOperation(ctx, "secret_set", StatusSuccess)
	bm.RecordOperation(ctx, "secret_set", StatusSuccess)
	bm.RecordOperation(ctx, "secret_get", "SecretNotFound")
	bm.RecordDuration(ctx, "secret_set", 50*time.Millisecond, StatusSuccess)
	bm.RecordDuration(ctx, "secret_set", 60*time.Millisecond, StatusSuccess)
	bm.RecordPurged(ctx, 2, "worker")
	bm.RecordPurged(ctx, 0, "worker")
	bm.RecordPurged(ctx, 1, "cli")

	output := scrape(t, provider)

	assertBizMetricLine(t, output, `integration_test_secret_operations_total`,
		`operation="secret_set".*status="success"`, `2`)
	assertBizMetricLine(t, output, `integration_test_secret_operations_total`,
		`operation="secret_get".*status="SecretNotFound"`, `1`)
	assertBizMetricLine(t, output, `integration_test_secret_operation_duration_seconds_count`,
		`operation="secret_set".*status="success"`, `2`)
	assertBizMetricLine(t, output, `integration_test_deleted_secrets_purged_total`,
		`trigger="worker"`, `2`)
	assertBizMetricLine(t, output, `integration_test_deleted_secrets_purged_total`,
		`trigger="cli"`, `1`)
}
