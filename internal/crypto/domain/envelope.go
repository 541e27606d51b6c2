package domain

import "context"

// Envelope is the on-disk form of a sealed snapshot. The data key is stored wrapped by
// the KMS keeper; byte fields are base64 encoded in JSON.
type Envelope struct {
	Algorithm    Algorithm `json:"algorithm"`
	EncryptedKey []byte    `json:"encrypted_key"`
	Nonce        []byte    `json:"nonce"`
	Ciphertext   []byte    `json:"ciphertext"`
}

// Validate reports whether every envelope field is present.
func (e *Envelope) Validate() error {
	if e.Algorithm == "" || len(e.EncryptedKey) == 0 || len(e.Nonce) == 0 || len(e.Ciphertext) == 0 {
		return ErrInvalidEnvelope
	}
	return nil
}

// KMSKeeper wraps and unwraps data keys. *secrets.Keeper from gocloud.dev implements it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
