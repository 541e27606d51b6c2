package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/volt/internal/app"
	"github.com/allisson/volt/internal/config"
	"github.com/allisson/volt/internal/metrics"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
	"github.com/allisson/volt/internal/secrets/repository/document"
	"github.com/allisson/volt/internal/secrets/repository/repositorytest"
	"github.com/allisson/volt/internal/secrets/usecase/mocks"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, operation, status string) {
	m.Called(ctx, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(ctx context.Context, operation string, duration time.Duration, status string) {
	m.Called(ctx, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordPurged(ctx context.Context, count int, trigger string) {
	m.Called(ctx, count, trigger)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunPurgeDeletedSecrets(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("text-output", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		bm := &mockBusinessMetrics{}
		useCase.On("PurgeExpiredDeletedSecrets", ctx, false).Return([]string{"alpha", "beta"}, nil)
		bm.On("RecordPurged", ctx, 2, metrics.PurgeTriggerCLI).Once()

		var out bytes.Buffer
		err := RunPurgeDeletedSecrets(ctx, useCase, bm, logger, &out, false, "text")

		require.NoError(t, err)
		assert.Contains(t, out.String(), "Successfully purged 2 deleted secret(s)")
		assert.Contains(t, out.String(), "  - alpha\n")
		bm.AssertExpectations(t)
	})

	t.Run("json-output-dry-run", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		bm := &mockBusinessMetrics{}
		useCase.On("PurgeExpiredDeletedSecrets", ctx, true).Return([]string{"alpha"}, nil)

		var out bytes.Buffer
		err := RunPurgeDeletedSecrets(ctx, useCase, bm, logger, &out, true, "json")

		require.NoError(t, err)
		assert.Contains(t, out.String(), `"count": 1`)
		assert.Contains(t, out.String(), `"dry_run": true`)
		bm.AssertNotCalled(t, "RecordPurged", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("nothing to purge", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		bm := &mockBusinessMetrics{}
		useCase.On("PurgeExpiredDeletedSecrets", ctx, false).Return([]string{}, nil)

		var out bytes.Buffer
		require.NoError(t, RunPurgeDeletedSecrets(ctx, useCase, bm, logger, &out, false, "text"))

		assert.Contains(t, out.String(), "Successfully purged 0 deleted secret(s)")
		bm.AssertNotCalled(t, "RecordPurged", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("use case error", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		useCase.On("PurgeExpiredDeletedSecrets", ctx, false).Return(nil, errors.New("store is down"))

		err := RunPurgeDeletedSecrets(ctx, useCase, &mockBusinessMetrics{}, logger, &bytes.Buffer{}, false, "text")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "store is down")
	})
}

const seedYAML = `
secrets:
  - name: db-password
    value: s3cr3t
    contentType: text/plain
    tags:
      env: dev
  - name: api-key
    value: k3y
    enabled: false
    expires: 2030-01-01T00:00:00Z
`

func TestParseSeedFile(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		seed, err := ParseSeedFile(strings.NewReader(seedYAML))
		require.NoError(t, err)
		require.Len(t, seed.Secrets, 2)

		first := seed.Secrets[0]
		assert.Equal(t, "db-password", first.Name)
		assert.Equal(t, "s3cr3t", first.Value)
		assert.Equal(t, "text/plain", first.ContentType)
		assert.Equal(t, map[string]string{"env": "dev"}, first.Tags)
		assert.Nil(t, first.Enabled)

		second := seed.Secrets[1]
		require.NotNil(t, second.Enabled)
		assert.False(t, *second.Enabled)
		require.NotNil(t, second.Expires)
		assert.True(t, second.Expires.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseSeedFile(strings.NewReader(""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseSeedFile(strings.NewReader("secrets:\n  - name: a\n    colour: blue\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse seed file")
	})
}

func TestRunImportSecrets(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("imports every entry", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		useCase.On("SetSecret", ctx, mock.MatchedBy(func(p *secretsDomain.SetSecretParams) bool {
			return p.Name == "db-password" && p.Value == "s3cr3t" && p.Tags["env"] == "dev"
		})).Return(&secretsDomain.Secret{Name: "db-password", Version: "v1"}, nil).Once()
		useCase.On("SetSecret", ctx, mock.MatchedBy(func(p *secretsDomain.SetSecretParams) bool {
			return p.Name == "api-key" && p.Enabled != nil && !*p.Enabled && p.Expires != nil
		})).Return(&secretsDomain.Secret{Name: "api-key", Version: "v2"}, nil).Once()

		var out bytes.Buffer
		err := RunImportSecrets(ctx, useCase, logger, IOTuple{Reader: strings.NewReader(seedYAML), Writer: &out}, "text")

		require.NoError(t, err)
		assert.Contains(t, out.String(), "Successfully imported 2 secret(s)")
		assert.Contains(t, out.String(), "  - db-password/v1\n")
		assert.Contains(t, out.String(), "  - api-key/v2\n")
	})

	t.Run("json output", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		useCase.On("SetSecret", ctx, mock.Anything).Return(&secretsDomain.Secret{Name: "a", Version: "v"}, nil).Twice()

		var out bytes.Buffer
		err := RunImportSecrets(ctx, useCase, logger, IOTuple{Reader: strings.NewReader(seedYAML), Writer: &out}, "json")

		require.NoError(t, err)
		assert.Contains(t, out.String(), `"count": 2`)
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		useCase := mocks.NewMockSecretUseCase(t)
		useCase.On("SetSecret", ctx, mock.Anything).Return(nil, errors.New("conflict")).Once()

		err := RunImportSecrets(ctx, useCase, logger, IOTuple{Reader: strings.NewReader(seedYAML), Writer: &bytes.Buffer{}}, "text")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to import secret 1 (db-password)")
	})
}

func TestRunMigrationsAndCleanStore(t *testing.T) {
	ctx := repositorytest.Context()
	logger := discardLogger()
	path := filepath.Join(t.TempDir(), document.DefaultFileName)

	store := document.New(document.Config{Path: path})
	require.NoError(t, RunMigrations(ctx, store, logger, config.StoreDriverDocument))
	require.NoError(t, store.Ping(ctx))

	_, err := store.SetSecret(ctx, repositorytest.NewSecret("doomed", "v", repositorytest.BaseTime))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RunCleanStore(ctx, store, logger, &out))
	assert.Contains(t, out.String(), "Store cleaned successfully")
	assert.NoFileExists(t, path)
}

func TestRunServer(t *testing.T) {
	newConfig := func(t *testing.T) *config.Config {
		return &config.Config{
			ServerHost:               "127.0.0.1",
			ServerPort:               0,
			ServerShutdownTimeout:    5 * time.Second,
			LogLevel:                 "error",
			OAuthLevel:               config.OAuthLevelNone,
			RecoverableDays:          90,
			StoreDriver:              config.StoreDriverDocument,
			StoreLocation:            t.TempDir(),
			StoreEncryptionAlgorithm: config.EncryptionAESGCM,
			PurgeSchedule:            "@every 1m",
		}
	}

	t.Run("stops when the context is canceled", func(t *testing.T) {
		container := app.NewContainer(newConfig(t))
		defer CloseContainer(container, container.Logger())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- RunServer(ctx, container, "test")
		}()

		time.Sleep(200 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatal("server did not stop")
		}
	})

	t.Run("rejects an invalid configuration", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.RecoverableDays = 3
		container := app.NewContainer(cfg)
		defer CloseContainer(container, container.Logger())

		err := RunServer(context.Background(), container, "test")
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("fails on an invalid purge schedule", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.PurgeSchedule = "whenever"
		container := app.NewContainer(cfg)
		defer CloseContainer(container, container.Logger())

		done := make(chan error, 1)
		go func() {
			done <- RunServer(context.Background(), container, "test")
		}()

		select {
		case err := <-done:
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid purge schedule")
		case <-time.After(10 * time.Second):
			t.Fatal("server did not stop")
		}
	})
}
