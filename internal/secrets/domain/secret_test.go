package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/allisson/volt/internal/errors"
)

func TestNewVersionID(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first := NewVersionID("my-secret", created, "req-1")
	assert.Regexp(t, `^[a-f0-9]{32}$`, first)
	assert.True(t, VersionPattern.MatchString(first))
	assert.Equal(t, first, NewVersionID("my-secret", created, "req-1"))

	assert.NotEqual(t, first, NewVersionID("my-secret", created, "req-2"))
	assert.NotEqual(t, first, NewVersionID("my-secret", created.Add(time.Millisecond), "req-1"))
	assert.NotEqual(t, first, NewVersionID("other", created, "req-1"))
}

func TestSecret_IsNewerThan(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	older := &Secret{Attributes: Attributes{Created: now}, Sequence: 5}
	newer := &Secret{Attributes: Attributes{Created: now.Add(time.Second)}, Sequence: 1}
	sameTimeLater := &Secret{Attributes: Attributes{Created: now}, Sequence: 6}

	assert.True(t, newer.IsNewerThan(older))
	assert.False(t, older.IsNewerThan(newer))
	assert.True(t, sameTimeLater.IsNewerThan(older))
	assert.False(t, older.IsNewerThan(sameTimeLater))
}

func TestSecret_Apply(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	expires := created.Add(24 * time.Hour)

	secret := &Secret{
		Name:        "s1",
		ContentType: "text/plain",
		Tags:        map[string]string{"a": "1"},
		Attributes:  Attributes{Enabled: true, Created: created, Updated: created},
	}

	t.Run("nil fields are retained", func(t *testing.T) {
		s := secret.Clone()
		s.Apply(&SecretUpdate{Updated: updated})

		assert.Equal(t, "text/plain", s.ContentType)
		assert.Equal(t, map[string]string{"a": "1"}, s.Tags)
		assert.True(t, s.Attributes.Enabled)
		assert.Equal(t, created, s.Attributes.Created)
		assert.Equal(t, updated, s.Attributes.Updated)
	})

	t.Run("supplied fields replace", func(t *testing.T) {
		s := secret.Clone()
		contentType := "application/json"
		enabled := false
		s.Apply(&SecretUpdate{
			ContentType: &contentType,
			Tags:        map[string]string{},
			Enabled:     &enabled,
			Expires:     &expires,
			Updated:     updated,
		})

		assert.Equal(t, "application/json", s.ContentType)
		assert.Empty(t, s.Tags)
		assert.False(t, s.Attributes.Enabled)
		assert.Equal(t, expires, *s.Attributes.Expires)
		assert.Nil(t, s.Attributes.NotBefore)
		assert.Equal(t, created, s.Attributes.Created)
	})

	t.Run("clone does not share tags", func(t *testing.T) {
		s := secret.Clone()
		s.Tags["b"] = "2"
		assert.NotContains(t, secret.Tags, "b")
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
		contains string
	}{
		{
			name:     "secret not found",
			err:      NewSecretNotFoundError("req", "s1", ""),
			sentinel: errors.ErrNotFound,
			code:     CodeSecretNotFound,
			contains: "A secret with (name/id) s1 was not found",
		},
		{
			name:     "version not found",
			err:      NewSecretNotFoundError("req", "s1", "abc"),
			sentinel: ErrSecretNotFound,
			code:     CodeSecretNotFound,
			contains: "(name/id) s1/abc",
		},
		{
			name:     "deleted secret not found",
			err:      NewDeletedSecretNotFoundError("req", "s1"),
			sentinel: ErrDeletedSecretNotFound,
			code:     CodeSecretNotFound,
			contains: "Deleted Secret not found: s1",
		},
		{
			name:     "disabled",
			err:      NewSecretDisabledError("req"),
			sentinel: errors.ErrForbidden,
			code:     CodeForbidden,
			contains: "disabled secret",
		},
		{
			name:     "deleted state conflict",
			err:      NewSecretInDeletedStateError("req", "s1"),
			sentinel: errors.ErrConflict,
			code:     CodeConflict,
			contains: "Secret s1 is currently in a deleted but recoverable state",
		},
		{
			name:     "not implemented",
			err:      NewNotImplementedError("req"),
			sentinel: errors.ErrNotImplemented,
			code:     CodeAPINotImplemented,
			contains: "Current API is not implemented yet.",
		},
		{
			name:     "bad parameter",
			err:      NewBadParameterError("req", "bad", nil),
			sentinel: errors.ErrInvalidInput,
			code:     CodeBadParameter,
			contains: "bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)

			var serviceErr *errors.ServiceError
			assert.True(t, errors.As(tt.err, &serviceErr))
			assert.Equal(t, tt.code, serviceErr.Code)
			assert.Equal(t, "req", serviceErr.RequestID)
			assert.Contains(t, serviceErr.Message, tt.contains)
		})
	}
}

func TestDeletionProperties_ForName(t *testing.T) {
	tests := []struct {
		name      string
		recovery  string
		requested string
		stored    string
		want      string
	}{
		{"same casing", "https://h/deletedsecrets/Foo", "Foo", "Foo", "https://h/deletedsecrets/Foo"},
		{"other casing", "https://h/deletedsecrets/FOO", "FOO", "Foo", "https://h/deletedsecrets/Foo"},
		{"empty recovery id", "", "FOO", "Foo", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DeletionProperties{RecoveryID: tt.recovery}.ForName(tt.requested, tt.stored)
			assert.Equal(t, tt.want, p.RecoveryID)
		})
	}
}
