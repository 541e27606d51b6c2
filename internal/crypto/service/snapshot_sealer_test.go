package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/volt/internal/crypto/domain"
)

type mockKeeper struct {
	mock.Mock
}

func (m *mockKeeper) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockKeeper) Close() error {
	return m.Called().Error(0)
}

func openLocalKeeper(t *testing.T) cryptoDomain.KMSKeeper {
	t.Helper()
	keeper, err := NewKMSService().OpenKeeper(context.Background(), generateLocalSecretsURI(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = keeper.Close() })
	return keeper
}

func TestSnapshotSealer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	plaintext := []byte(`{"secrets":[{"name":"db-pass"}]}`)

	for _, alg := range []cryptoDomain.Algorithm{cryptoDomain.AESGCM, cryptoDomain.ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			sealer := NewSnapshotSealer(openLocalKeeper(t), NewAEADManager(), alg)

			sealed, err := sealer.Seal(ctx, plaintext)
			require.NoError(t, err)
			assert.NotContains(t, string(sealed), "db-pass")

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(sealed, &envelope))
			assert.Equal(t, string(alg), envelope["algorithm"])
			for _, field := range []string{"encrypted_key", "nonce", "ciphertext"} {
				assert.NotEmpty(t, envelope[field], field)
			}

			opened, err := sealer.Open(ctx, sealed)
			require.NoError(t, err)
			assert.Equal(t, plaintext, opened)
		})
	}
}

func TestSnapshotSealer_FreshDataKeyPerSeal(t *testing.T) {
	ctx := context.Background()
	sealer := NewSnapshotSealer(openLocalKeeper(t), NewAEADManager(), cryptoDomain.AESGCM)

	first, err := sealer.Seal(ctx, []byte("same"))
	require.NoError(t, err)
	second, err := sealer.Seal(ctx, []byte("same"))
	require.NoError(t, err)

	var e1, e2 cryptoDomain.Envelope
	require.NoError(t, json.Unmarshal(first, &e1))
	require.NoError(t, json.Unmarshal(second, &e2))
	assert.NotEqual(t, e1.EncryptedKey, e2.EncryptedKey)
	assert.NotEqual(t, e1.Ciphertext, e2.Ciphertext)
}

func TestSnapshotSealer_OpenUsesEnvelopeAlgorithm(t *testing.T) {
	ctx := context.Background()
	keeper := openLocalKeeper(t)

	sealed, err := NewSnapshotSealer(keeper, NewAEADManager(), cryptoDomain.ChaCha20).Seal(ctx, []byte("payload"))
	require.NoError(t, err)

	opened, err := NewSnapshotSealer(keeper, NewAEADManager(), cryptoDomain.AESGCM).Open(ctx, sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), opened)
}

func TestSnapshotSealer_OpenErrors(t *testing.T) {
	ctx := context.Background()
	keeper := openLocalKeeper(t)
	sealer := NewSnapshotSealer(keeper, NewAEADManager(), cryptoDomain.AESGCM)

	t.Run("not json", func(t *testing.T) {
		_, err := sealer.Open(ctx, []byte("plain snapshot"))
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidEnvelope)
	})

	t.Run("incomplete envelope", func(t *testing.T) {
		_, err := sealer.Open(ctx, []byte(`{"algorithm":"aes-gcm"}`))
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidEnvelope)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		sealed, err := sealer.Seal(ctx, []byte("payload"))
		require.NoError(t, err)

		var envelope cryptoDomain.Envelope
		require.NoError(t, json.Unmarshal(sealed, &envelope))
		envelope.Ciphertext[0] ^= 0xFF
		tampered, err := json.Marshal(envelope)
		require.NoError(t, err)

		_, err = sealer.Open(ctx, tampered)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("different keeper", func(t *testing.T) {
		sealed, err := sealer.Seal(ctx, []byte("payload"))
		require.NoError(t, err)

		other := NewSnapshotSealer(openLocalKeeper(t), NewAEADManager(), cryptoDomain.AESGCM)
		_, err = other.Open(ctx, sealed)
		assert.Error(t, err)
	})
}

func TestSnapshotSealer_KeeperFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("wrap failure", func(t *testing.T) {
		keeper := &mockKeeper{}
		keeper.On("Encrypt", ctx, mock.Anything).Return(nil, errors.New("kms unavailable")).Once()

		_, err := NewSnapshotSealer(keeper, NewAEADManager(), cryptoDomain.AESGCM).Seal(ctx, []byte("payload"))
		assert.ErrorContains(t, err, "failed to wrap data key")
		keeper.AssertExpectations(t)
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		keeper := &mockKeeper{}

		_, err := NewSnapshotSealer(keeper, NewAEADManager(), "des").Seal(ctx, []byte("payload"))
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
		keeper.AssertNotCalled(t, "Encrypt", mock.Anything, mock.Anything)
	})
}
