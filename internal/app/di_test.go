package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/volt/internal/config"
	"github.com/allisson/volt/internal/metrics"
	"github.com/allisson/volt/internal/secrets/repository/document"
	"github.com/allisson/volt/internal/secrets/repository/repositorytest"
	"github.com/allisson/volt/internal/secrets/repository/sqlstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ServerHost:               "127.0.0.1",
		ServerPort:               0,
		LogLevel:                 "info",
		OAuthLevel:               config.OAuthLevelNone,
		RecoverableDays:          90,
		StoreDriver:              config.StoreDriverDocument,
		StoreLocation:            t.TempDir(),
		StoreEncryptionAlgorithm: config.EncryptionAESGCM,
		DBMaxOpenConnections:     5,
		DBMaxIdleConnections:     1,
		DBConnMaxLifetime:        time.Minute,
		PurgeSchedule:            "@every 1m",
		MetricsNamespace:         "volt",
	}
}

func newTestContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	container := NewContainer(cfg)
	t.Cleanup(func() {
		_ = container.Shutdown(context.Background())
	})
	return container
}

func TestNewContainer(t *testing.T) {
	cfg := newTestConfig(t)
	container := NewContainer(cfg)

	require.NotNil(t, container)
	assert.Same(t, cfg, container.Config())
}

func TestContainer_Logger(t *testing.T) {
	t.Run("singleton", func(t *testing.T) {
		container := newTestContainer(t, newTestConfig(t))

		logger := container.Logger()
		require.NotNil(t, logger)
		assert.Same(t, logger, container.Logger())
	})

	t.Run("unknown level defaults to info", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.LogLevel = "invalid"
		container := newTestContainer(t, cfg)

		logger := container.Logger()
		require.NotNil(t, logger)
		assert.False(t, logger.Enabled(context.Background(), -4))
	})

	t.Run("tees to log file", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.LogFile = filepath.Join(t.TempDir(), "volt.log")
		container := NewContainer(cfg)

		container.Logger().Info("hello from the log file")
		require.NoError(t, container.Shutdown(context.Background()))

		data, err := os.ReadFile(cfg.LogFile)
		require.NoError(t, err)

		var line map[string]any
		require.NoError(t, json.Unmarshal(data, &line))
		assert.Equal(t, "hello from the log file", line["msg"])
	})
}

func TestContainer_Metrics(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		container := newTestContainer(t, newTestConfig(t))

		provider, err := container.MetricsProvider()
		require.NoError(t, err)
		assert.Nil(t, provider)

		businessMetrics, err := container.BusinessMetrics()
		require.NoError(t, err)
		assert.IsType(t, &metrics.NoOpBusinessMetrics{}, businessMetrics)

		server, err := container.MetricsServer()
		require.NoError(t, err)
		assert.Nil(t, server)
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.MetricsEnabled = true
		container := newTestContainer(t, cfg)

		provider, err := container.MetricsProvider()
		require.NoError(t, err)
		require.NotNil(t, provider)

		businessMetrics, err := container.BusinessMetrics()
		require.NoError(t, err)
		assert.NotNil(t, businessMetrics)

		server, err := container.MetricsServer()
		require.NoError(t, err)
		require.NotNil(t, server)

		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestContainer_Store(t *testing.T) {
	t.Run("document by default", func(t *testing.T) {
		container := newTestContainer(t, newTestConfig(t))

		store, err := container.Store(context.Background())
		require.NoError(t, err)
		assert.IsType(t, &document.Store{}, store)

		again, err := container.Store(context.Background())
		require.NoError(t, err)
		assert.Same(t, store, again)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.StoreDriver = config.StoreDriverSQLite
		container := newTestContainer(t, cfg)

		store, err := container.Store(context.Background())
		require.NoError(t, err)
		assert.IsType(t, &sqlstore.Store{}, store)

		require.NoError(t, store.Init(context.Background()))
		_, err = os.Stat(filepath.Join(cfg.StoreLocation, sqlstore.DefaultSQLiteFileName))
		assert.NoError(t, err)
	})

	t.Run("unsupported driver", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.StoreDriver = "redis"
		container := newTestContainer(t, cfg)

		_, err := container.Store(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported store driver")

		// The initialization error is remembered.
		_, err = container.Store(context.Background())
		assert.Error(t, err)

		_, err = container.SecretUseCase(context.Background())
		assert.Error(t, err)
	})

	t.Run("encrypted snapshot", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.StoreKMSKeyURI = "base64key://YWJjZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXoxMjM0NTY="
		cfg.StoreEncryptionAlgorithm = config.EncryptionChaCha20Poly1305
		container := NewContainer(cfg)
		ctx := repositorytest.Context()

		store, err := container.Store(ctx)
		require.NoError(t, err)
		require.NoError(t, store.Init(ctx))
		_, err = store.SetSecret(ctx, repositorytest.NewSecret("sealed", "top-secret", repositorytest.BaseTime))
		require.NoError(t, err)
		require.NoError(t, container.Shutdown(ctx))

		data, err := os.ReadFile(filepath.Join(cfg.StoreLocation, document.DefaultFileName))
		require.NoError(t, err)
		assert.NotContains(t, string(data), "top-secret")

		var envelope map[string]any
		require.NoError(t, json.Unmarshal(data, &envelope))
		assert.Equal(t, config.EncryptionChaCha20Poly1305, envelope["algorithm"])
		assert.NotEmpty(t, envelope["encrypted_key"])
	})

	t.Run("invalid kms uri", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.StoreKMSKeyURI = "unknown://key"
		container := newTestContainer(t, cfg)

		_, err := container.Store(context.Background())
		assert.Error(t, err)
	})
}

func TestContainer_SecretComponents(t *testing.T) {
	ctx := context.Background()

	t.Run("metrics disabled", func(t *testing.T) {
		container := newTestContainer(t, newTestConfig(t))

		useCase, err := container.SecretUseCase(ctx)
		require.NoError(t, err)
		require.NotNil(t, useCase)

		handler, err := container.SecretHandler(ctx)
		require.NoError(t, err)
		assert.NotNil(t, handler)

		worker, err := container.PurgeWorker(ctx)
		require.NoError(t, err)
		assert.NotNil(t, worker)
	})

	t.Run("metrics enabled", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.MetricsEnabled = true
		container := newTestContainer(t, cfg)

		useCase, err := container.SecretUseCase(ctx)
		require.NoError(t, err)
		assert.NotNil(t, useCase)
	})

	t.Run("invalid recovery policy", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.RecoverableDays = 3
		container := newTestContainer(t, cfg)

		_, err := container.SecretUseCase(ctx)
		assert.Error(t, err)
	})
}

func TestContainer_HTTPServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := newTestConfig(t)
	cfg.SkipAPIVersionCheck = true
	container := newTestContainer(t, cfg)

	server, err := container.HTTPServer(ctx)
	require.NoError(t, err)
	require.NotNil(t, server)

	again, err := container.HTTPServer(ctx)
	require.NoError(t, err)
	assert.Same(t, server, again)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	store, err := container.Store(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Init(ctx))

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secrets/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"value":[],"nextLink":null}`, w.Body.String())
}

func TestContainer_HTTPServerInvalidTLS(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.TLSCertFile = filepath.Join(t.TempDir(), "missing.pem")
	cfg.TLSKeyFile = filepath.Join(t.TempDir(), "missing.key")
	container := newTestContainer(t, cfg)

	_, err := container.HTTPServer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tls")
}

func TestContainer_Shutdown(t *testing.T) {
	t.Run("nothing initialized", func(t *testing.T) {
		container := NewContainer(newTestConfig(t))
		assert.NoError(t, container.Shutdown(context.Background()))
	})

	t.Run("closes the store", func(t *testing.T) {
		container := NewContainer(newTestConfig(t))
		ctx := context.Background()

		store, err := container.Store(ctx)
		require.NoError(t, err)
		require.NoError(t, store.Init(ctx))

		require.NoError(t, container.Shutdown(ctx))
		assert.Error(t, store.Ping(ctx))
		assert.NoError(t, store.Clean(ctx))
	})
}
