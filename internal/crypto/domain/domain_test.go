package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5}
	Zero(b)
	assert.Equal(t, make([]byte, 5), b)

	assert.NotPanics(t, func() { Zero(nil) })
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("aes-gcm")
	require.NoError(t, err)
	assert.Equal(t, AESGCM, alg)

	alg, err = ParseAlgorithm("chacha20-poly1305")
	require.NoError(t, err)
	assert.Equal(t, ChaCha20, alg)

	_, err = ParseAlgorithm("des")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestEnvelope_Validate(t *testing.T) {
	valid := Envelope{
		Algorithm:    AESGCM,
		EncryptedKey: []byte{1},
		Nonce:        []byte{2},
		Ciphertext:   []byte{3},
	}
	assert.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(e *Envelope){
		"missing algorithm":     func(e *Envelope) { e.Algorithm = "" },
		"missing encrypted key": func(e *Envelope) { e.EncryptedKey = nil },
		"missing nonce":         func(e *Envelope) { e.Nonce = nil },
		"missing ciphertext":    func(e *Envelope) { e.Ciphertext = nil },
	} {
		t.Run(name, func(t *testing.T) {
			e := valid
			mutate(&e)
			assert.ErrorIs(t, e.Validate(), ErrInvalidEnvelope)
		})
	}
}
