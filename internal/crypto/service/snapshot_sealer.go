package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"

	cryptoDomain "github.com/allisson/volt/internal/crypto/domain"
)

// snapshotAAD binds sealed payloads to their use.
var snapshotAAD = []byte("volt/store-snapshot")

// SnapshotSealer encrypts store snapshots into JSON envelopes.
type SnapshotSealer struct {
	keeper      cryptoDomain.KMSKeeper
	aeadManager AEADManager
	algorithm   cryptoDomain.Algorithm
}

// NewSnapshotSealer creates a sealer that seals with algorithm and wraps data keys with keeper.
func NewSnapshotSealer(
	keeper cryptoDomain.KMSKeeper,
	aeadManager AEADManager,
	algorithm cryptoDomain.Algorithm,
) *SnapshotSealer {
	return &SnapshotSealer{
		keeper:      keeper,
		aeadManager: aeadManager,
		algorithm:   algorithm,
	}
}

// Seal encrypts plaintext under a fresh data key and returns the encoded envelope.
func (s *SnapshotSealer) Seal(ctx context.Context, plaintext []byte) ([]byte, error) {
	dataKey := make([]byte, cryptoDomain.KeySize)
	defer cryptoDomain.Zero(dataKey)

	if _, err := rand.Read(dataKey); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}

	cipher, err := s.aeadManager.CreateCipher(dataKey, s.algorithm)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := cipher.Encrypt(plaintext, snapshotAAD)
	if err != nil {
		return nil, err
	}

	encryptedKey, err := s.keeper.Encrypt(ctx, dataKey)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap data key: %w", err)
	}

	return json.Marshal(cryptoDomain.Envelope{
		Algorithm:    s.algorithm,
		EncryptedKey: encryptedKey,
		Nonce:        nonce,
		Ciphertext:   ciphertext,
	})
}

// Open decodes an envelope produced by Seal and returns the plaintext. The envelope's own
// algorithm is used, so snapshots survive a change of the configured algorithm.
func (s *SnapshotSealer) Open(ctx context.Context, sealed []byte) ([]byte, error) {
	var envelope cryptoDomain.Envelope
	if err := json.Unmarshal(sealed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", cryptoDomain.ErrInvalidEnvelope, err)
	}
	if err := envelope.Validate(); err != nil {
		return nil, err
	}

	dataKey, err := s.keeper.Decrypt(ctx, envelope.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap data key: %w", err)
	}
	defer cryptoDomain.Zero(dataKey)

	cipher, err := s.aeadManager.CreateCipher(dataKey, envelope.Algorithm)
	if err != nil {
		return nil, err
	}

	plaintext, err := cipher.Decrypt(envelope.Ciphertext, envelope.Nonce, snapshotAAD)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
