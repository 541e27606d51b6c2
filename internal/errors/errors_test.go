package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wrapped error
		want    string
	}{
		{"wrap", ErrNotFound, Wrap(ErrNotFound, "secret my-secret"), "secret my-secret: not found"},
		{"wrapf", ErrConflict, Wrapf(ErrConflict, "secret %s is deleted", "db"), "secret db is deleted: conflict"},
		{"wrap twice", ErrForbidden, Wrap(Wrap(ErrForbidden, "disabled"), "get"), "get: disabled: forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.wrapped, tt.want)
			assert.ErrorIs(t, tt.wrapped, tt.err)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "ignored"))
		assert.NoError(t, Wrapf(nil, "ignored %d", 1))
	})
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrForbidden,
		ErrNotImplemented,
		ErrUnavailable,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			assert.Equal(t, i == j, Is(a, b), "%v vs %v", a, b)
		}
	}
}

func TestServiceError(t *testing.T) {
	cause := Wrap(ErrNotFound, "secret not found")
	err := NewServiceError(cause, "SecretNotFound", "A secret with (name/id) db was not found in this key vault.", "req-1")

	assert.EqualError(t, err, "A secret with (name/id) db was not found in this key vault.")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, cause)

	var serviceErr *ServiceError
	require.True(t, As(fmt.Errorf("get secret: %w", err), &serviceErr))
	assert.Equal(t, "SecretNotFound", serviceErr.Code)
	assert.Equal(t, "req-1", serviceErr.RequestID)
}

func TestJoin(t *testing.T) {
	assert.NoError(t, Join(nil, nil))

	joined := Join(ErrConflict, nil, New("flush failed"))
	assert.ErrorIs(t, joined, ErrConflict)
	assert.Contains(t, joined.Error(), "flush failed")
	assert.False(t, errors.Is(joined, ErrForbidden))
}
