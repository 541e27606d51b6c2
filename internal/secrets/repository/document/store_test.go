package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/allisson/volt/internal/errors"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
	"github.com/allisson/volt/internal/secrets/repository/repositorytest"
	"github.com/allisson/volt/internal/secrets/usecase"
)

func newTestStore(t *testing.T, config Config) *Store {
	t.Helper()
	if config.Path == "" {
		config.Path = filepath.Join(t.TempDir(), DefaultFileName)
	}
	store := New(config)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store
}

func TestStore_Conformance(t *testing.T) {
	repositorytest.Run(t, func(t *testing.T) usecase.SecretRepository {
		return newTestStore(t, Config{})
	})
}

func TestStore_PersistsAcrossRestarts(t *testing.T) {
	ctx := repositorytest.Context()
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)

	store := New(Config{Path: path})
	require.NoError(t, store.Init(ctx))

	first, err := store.SetSecret(ctx, repositorytest.NewSecret("Persisted", "v1", repositorytest.BaseTime))
	require.NoError(t, err)
	_, err = store.SetSecret(ctx, repositorytest.NewSecret("persisted", "v2", repositorytest.BaseTime.Add(time.Second)))
	require.NoError(t, err)
	_, err = store.SetSecret(ctx, repositorytest.NewSecret("gone", "v", repositorytest.BaseTime))
	require.NoError(t, err)
	_, err = store.DeleteSecret(ctx, "gone", deletion(), false)
	require.NoError(t, err)

	require.NoError(t, store.Close(ctx))
	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened := New(Config{Path: path})
	require.NoError(t, reopened.Init(ctx))
	defer func() {
		_ = reopened.Close(ctx)
	}()

	latest, err := reopened.GetSecret(ctx, "PERSISTED", "")
	require.NoError(t, err)
	assert.Equal(t, "Persisted", latest.Name)
	assert.Equal(t, "v2", latest.Value)

	old, err := reopened.GetSecret(ctx, "persisted", first.Version)
	require.NoError(t, err)
	assert.Equal(t, "v1", old.Value)

	deleted, err := reopened.GetDeletedSecret(ctx, "gone")
	require.NoError(t, err)
	assert.Equal(t, "https://localhost:13000/deletedsecrets/gone", deleted.RecoveryID)

	// The sequence survives so that new versions still win the tie-break.
	_, err = reopened.SetSecret(ctx, repositorytest.NewSecret("persisted", "v3", repositorytest.BaseTime.Add(time.Second)))
	require.NoError(t, err)
	latest, err = reopened.GetSecret(ctx, "persisted", "")
	require.NoError(t, err)
	assert.Equal(t, "v3", latest.Value)
}

func deletion() secretsDomain.DeletionProperties {
	return secretsDomain.DeletionProperties{
		DeletedDate:        repositorytest.BaseTime,
		ScheduledPurgeDate: repositorytest.BaseTime.AddDate(0, 0, 90),
		RecoveryID:         "https://localhost:13000/deletedsecrets/gone",
	}
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("operations require init", func(t *testing.T) {
		store := New(Config{Path: filepath.Join(t.TempDir(), DefaultFileName)})

		_, err := store.SecretExists(ctx, "s1")
		assert.ErrorIs(t, err, ErrStoreNotOpen)
		assert.ErrorIs(t, store.Ping(ctx), apperrors.ErrUnavailable)
	})

	t.Run("init is idempotent", func(t *testing.T) {
		store := newTestStore(t, Config{})
		require.NoError(t, store.Init(ctx))
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("clean requires close", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultFileName)
		store := New(Config{Path: path})
		require.NoError(t, store.Init(ctx))

		_, err := store.SetSecret(repositorytest.Context(), repositorytest.NewSecret("s1", "v", repositorytest.BaseTime))
		require.NoError(t, err)

		assert.ErrorIs(t, store.Clean(ctx), ErrStoreNotClosed)

		require.NoError(t, store.Close(ctx))
		_, err = os.Stat(path)
		require.NoError(t, err)

		require.NoError(t, store.Clean(ctx))
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))

		// Cleaning twice is harmless.
		assert.NoError(t, store.Clean(ctx))
	})

	t.Run("closed store rejects operations", func(t *testing.T) {
		store := New(Config{Path: filepath.Join(t.TempDir(), DefaultFileName)})
		require.NoError(t, store.Init(ctx))
		require.NoError(t, store.Close(ctx))
		require.NoError(t, store.Close(ctx))

		_, err := store.GetSecret(ctx, "s1", "")
		assert.ErrorIs(t, err, ErrStoreNotOpen)
		assert.ErrorIs(t, store.Init(ctx), ErrStoreNotOpen)
	})

	t.Run("corrupted snapshot fails init", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultFileName)
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		store := New(Config{Path: path})
		assert.Error(t, store.Init(ctx))
	})
}

func TestStore_Autosave(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := repositorytest.Context()
	path := filepath.Join(t.TempDir(), DefaultFileName)

	store := New(Config{Path: path, AutosaveInterval: 20 * time.Millisecond})
	require.NoError(t, store.Init(ctx))

	_, err := store.SetSecret(ctx, repositorytest.NewSecret("auto", "v", repositorytest.BaseTime))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(data), `"auto"`)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, store.Close(ctx))
}

type failingSealer struct{}

func (failingSealer) Seal(context.Context, []byte) ([]byte, error) {
	return nil, errors.New("kms unavailable")
}

func (failingSealer) Open(_ context.Context, data []byte) ([]byte, error) {
	return data, nil
}

func TestStore_AutosaveErrorHandler(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := repositorytest.Context()
	var mu sync.Mutex
	var reported []error

	store := New(Config{
		Path:             filepath.Join(t.TempDir(), DefaultFileName),
		AutosaveInterval: 10 * time.Millisecond,
		Sealer:           failingSealer{},
		OnAutosaveError: func(err error) {
			mu.Lock()
			defer mu.Unlock()
			reported = append(reported, err)
		},
	})
	require.NoError(t, store.Init(ctx))

	_, err := store.SetSecret(ctx, repositorytest.NewSecret("s1", "v", repositorytest.BaseTime))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) > 0
	}, 2*time.Second, 10*time.Millisecond)

	// The failed flush keeps the changes pending, so close reports the error too.
	assert.ErrorContains(t, store.Close(ctx), "kms unavailable")
}

type xorSealer struct{}

func (xorSealer) Seal(_ context.Context, data []byte) ([]byte, error) {
	return xor(data), nil
}

func (xorSealer) Open(_ context.Context, data []byte) ([]byte, error) {
	return xor(data), nil
}

func xor(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ 0x5a
	}
	return out
}

func TestStore_Sealer(t *testing.T) {
	ctx := repositorytest.Context()
	path := filepath.Join(t.TempDir(), DefaultFileName)

	store := New(Config{Path: path, Sealer: xorSealer{}})
	require.NoError(t, store.Init(ctx))
	_, err := store.SetSecret(ctx, repositorytest.NewSecret("sealed", "top-secret", repositorytest.BaseTime))
	require.NoError(t, err)
	require.NoError(t, store.Close(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "top-secret")

	plain := New(Config{Path: path})
	assert.Error(t, plain.Init(ctx))

	reopened := New(Config{Path: path, Sealer: xorSealer{}})
	require.NoError(t, reopened.Init(ctx))
	defer func() {
		_ = reopened.Close(ctx)
	}()

	secret, err := reopened.GetSecret(ctx, "sealed", "")
	require.NoError(t, err)
	assert.Equal(t, "top-secret", secret.Value)
}

func TestStore_ConcurrentWriters(t *testing.T) {
	ctx := repositorytest.Context()
	store := newTestStore(t, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			secret := repositorytest.NewSecret("shared", string(rune('a'+i)), repositorytest.BaseTime)
			_, err := store.SetSecret(ctx, secret)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	versions, marker, err := store.GetSecretVersions(ctx, "shared", 25, nil)
	require.NoError(t, err)
	assert.Nil(t, marker)
	assert.Len(t, versions, 20)
}

func TestStore_DeleteWhileNameIsDeleted(t *testing.T) {
	ctx := repositorytest.Context()
	store := newTestStore(t, Config{})

	_, err := store.SetSecret(ctx, repositorytest.NewSecret("gone", "v1", repositorytest.BaseTime))
	require.NoError(t, err)
	_, err = store.DeleteSecret(ctx, "gone", deletion(), false)
	require.NoError(t, err)

	_, err = store.SetSecret(ctx, repositorytest.NewSecret("Gone", "v2", repositorytest.BaseTime.Add(time.Second)))
	require.NoError(t, err)

	_, err = store.DeleteSecret(ctx, "gone", deletion(), false)
	assert.ErrorIs(t, err, secretsDomain.ErrSecretInDeletedState)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	exists, err := store.SecretExists(ctx, "gone")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.DeleteSecret(ctx, "gone", deletion(), true)
	require.NoError(t, err)
}
