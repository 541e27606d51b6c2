// Package domain defines the envelope encryption model used to protect store snapshots.
package domain

import "fmt"

// Algorithm is the AEAD cipher sealing a snapshot.
type Algorithm string

const (
	// AESGCM is AES-256-GCM.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305, preferred on hosts without AES hardware support.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the data key length in bytes for every supported algorithm.
const KeySize = 32

// ParseAlgorithm validates an algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch alg := Algorithm(name); alg {
	case AESGCM, ChaCha20:
		return alg, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}
