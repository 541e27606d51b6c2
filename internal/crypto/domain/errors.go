package domain

import (
	"github.com/allisson/volt/internal/errors"
)

// Cryptographic operation error definitions.
var (
	// ErrUnsupportedAlgorithm indicates an algorithm other than AESGCM or ChaCha20.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a data key that is not KeySize bytes long.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a wrong key or a tampered envelope. The cause is not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrInvalidKeyURI indicates a KMS key URI that cannot be opened by any registered driver.
	ErrInvalidKeyURI = errors.Wrap(errors.ErrInvalidInput, "invalid kms key uri")

	// ErrInvalidEnvelope indicates sealed data that is not a well formed envelope.
	ErrInvalidEnvelope = errors.Wrap(errors.ErrInvalidInput, "invalid envelope")
)
