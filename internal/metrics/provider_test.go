package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()

	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("volt")
	require.NoError(t, err)
	require.NotNil(t, provider.MeterProvider())

	body := scrape(t, provider)
	assert.Contains(t, body, "go_goroutines")
}

func TestProvider_ExportsBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("volt")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "volt")
	require.NoError(t, err)

	bm.RecordPurged(context.Background(), 3, PurgeTriggerWorker)

	assert.Contains(t, scrape(t, provider), "volt_deleted_secrets_purged_total")
}

func TestProvider_Shutdown(t *testing.T) {
	t.Run("flushes the meter provider", func(t *testing.T) {
		provider, err := NewProvider("volt")
		require.NoError(t, err)

		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	t.Run("zero provider", func(t *testing.T) {
		provider := &Provider{}

		assert.NoError(t, provider.Shutdown(context.Background()))
	})
}
