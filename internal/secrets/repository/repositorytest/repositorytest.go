// Package repositorytest provides a conformance suite shared by every secret store implementation.
package repositorytest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/volt/internal/errors"
	"github.com/allisson/volt/internal/pagination"
	"github.com/allisson/volt/internal/requestctx"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
	"github.com/allisson/volt/internal/secrets/usecase"
)

// RequestID is the correlation id carried by the suite's context.
const RequestID = "conformance-request"

// BaseTime is the creation time of the first secret written by the suite.
var BaseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Factory returns a fresh, initialized and empty repository.
type Factory func(t *testing.T) usecase.SecretRepository

// Context returns a context carrying the suite request information.
func Context() context.Context {
	return requestctx.WithInfo(context.Background(), requestctx.Info{
		ID:        RequestID,
		StartTime: BaseTime,
		Endpoint:  "https://localhost:13000",
	})
}

// NewSecret builds a new version of name created at the given time.
func NewSecret(name, value string, created time.Time) *secretsDomain.Secret {
	return &secretsDomain.Secret{
		Name:        name,
		Version:     secretsDomain.NewVersionID(name, created, value),
		Value:       value,
		ContentType: "text/plain",
		Tags:        map[string]string{"origin": "suite"},
		Attributes: secretsDomain.Attributes{
			Enabled: true,
			Created: created,
			Updated: created,
		},
	}
}

// Run executes the conformance suite.
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo usecase.SecretRepository)
	}{
		{"set and get", testSetAndGet},
		{"versions are unique and latest wins", testLatestWins},
		{"latest tie-break", testLatestTieBreak},
		{"case insensitive names", testCaseInsensitive},
		{"older disabled version does not block", testOlderDisabled},
		{"latest disabled blocks fallback", testLatestDisabled},
		{"get missing", testGetMissing},
		{"update", testUpdate},
		{"update missing", testUpdateMissing},
		{"existence probes", testExists},
		{"list secrets pages", testListSecrets},
		{"list secrets single item pages", testListSecretsSingleItemPages},
		{"list secrets includes disabled", testListIncludesDisabled},
		{"list versions", testListVersions},
		{"list versions pages", testListVersionsPages},
		{"list versions missing", testListVersionsMissing},
		{"delete", testDelete},
		{"delete keeps stored casing in recovery id", testDeleteRecoveryIDCasing},
		{"delete without soft delete", testDeleteWithoutSoftDelete},
		{"delete missing", testDeleteMissing},
		{"deleted secret disabled", testDeletedSecretDisabled},
		{"list deleted secrets", testListDeletedSecrets},
		{"purge deleted secret", testPurgeDeletedSecret},
		{"recover deleted secret", testRecoverDeletedSecret},
		{"purge expired deleted secrets", testPurgeExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, factory(t))
		})
	}
}

func set(t *testing.T, repo usecase.SecretRepository, name, value string, created time.Time) *secretsDomain.Secret {
	t.Helper()
	secret, err := repo.SetSecret(Context(), NewSecret(name, value, created))
	require.NoError(t, err)
	return secret
}

func assertServiceError(t *testing.T, err error, sentinel error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)

	var serviceErr *errors.ServiceError
	require.True(t, errors.As(err, &serviceErr), "expected a service error, got %v", err)
	assert.Equal(t, code, serviceErr.Code)
	assert.Equal(t, RequestID, serviceErr.RequestID)
}

func assertSameTime(t *testing.T, expected, actual time.Time) {
	t.Helper()
	assert.True(t, expected.Equal(actual), "expected %s, got %s", expected, actual)
}

func testSetAndGet(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	created := set(t, repo, "s1", "v1", BaseTime)

	assert.Equal(t, "s1", created.Name)
	assert.Regexp(t, `^[a-f0-9]{32}$`, created.Version)

	secret, err := repo.GetSecret(ctx, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "v1", secret.Value)
	assert.True(t, secret.Attributes.Enabled)
	assert.Equal(t, "text/plain", secret.ContentType)
	assert.Equal(t, map[string]string{"origin": "suite"}, secret.Tags)
	assertSameTime(t, BaseTime, secret.Attributes.Created)
	assertSameTime(t, BaseTime, secret.Attributes.Updated)
	assert.Nil(t, secret.Attributes.Expires)
	assert.Nil(t, secret.Attributes.NotBefore)

	expires := BaseTime.Add(48 * time.Hour)
	notBefore := BaseTime.Add(time.Hour)
	withDates := NewSecret("s2", "v", BaseTime)
	withDates.Attributes.Expires = &expires
	withDates.Attributes.NotBefore = &notBefore
	withDates.Tags = nil
	withDates.ContentType = ""
	_, err = repo.SetSecret(ctx, withDates)
	require.NoError(t, err)

	secret, err = repo.GetSecret(ctx, "s2", withDates.Version)
	require.NoError(t, err)
	require.NotNil(t, secret.Attributes.Expires)
	require.NotNil(t, secret.Attributes.NotBefore)
	assertSameTime(t, expires, *secret.Attributes.Expires)
	assertSameTime(t, notBefore, *secret.Attributes.NotBefore)
	assert.Empty(t, secret.Tags)
	assert.Empty(t, secret.ContentType)
}

func testLatestWins(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	first := set(t, repo, "s1", "v1", BaseTime)
	second := set(t, repo, "s1", "v2", BaseTime.Add(time.Second))

	assert.NotEqual(t, first.Version, second.Version)

	latest, err := repo.GetSecret(ctx, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "v2", latest.Value)
	assert.Equal(t, second.Version, latest.Version)

	old, err := repo.GetSecret(ctx, "s1", first.Version)
	require.NoError(t, err)
	assert.Equal(t, "v1", old.Value)

	// A version created earlier but written later never becomes the latest.
	set(t, repo, "s1", "backdated", BaseTime.Add(-time.Hour))
	latest, err = repo.GetSecret(ctx, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "v2", latest.Value)
}

func testLatestTieBreak(t *testing.T, repo usecase.SecretRepository) {
	set(t, repo, "s1", "a", BaseTime)
	set(t, repo, "s1", "b", BaseTime)
	set(t, repo, "s1", "c", BaseTime)

	latest, err := repo.GetSecret(Context(), "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "c", latest.Value)
}

func testCaseInsensitive(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	first := set(t, repo, "Foo", "v1", BaseTime)
	second := set(t, repo, "FOO", "v2", BaseTime.Add(time.Second))
	assert.Equal(t, "Foo", second.Name)

	for _, name := range []string{"foo", "FOO", "fOo"} {
		secret, err := repo.GetSecret(ctx, name, "")
		require.NoError(t, err)
		assert.Equal(t, "Foo", secret.Name)
		assert.Equal(t, "v2", secret.Value)
	}

	secret, err := repo.GetSecret(ctx, "foo", strings.ToUpper(first.Version))
	require.NoError(t, err)
	assert.Equal(t, "v1", secret.Value)

	secrets, _, err := repo.GetSecrets(ctx, 10, nil)
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, "Foo", secrets[0].Name)
}

func testOlderDisabled(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	first := set(t, repo, "s1", "v1", BaseTime)
	set(t, repo, "s1", "v2", BaseTime.Add(time.Second))

	disabled := false
	_, err := repo.UpdateSecret(ctx, &secretsDomain.SecretUpdate{
		Name:    "s1",
		Version: first.Version,
		Enabled: &disabled,
		Updated: BaseTime.Add(2 * time.Second),
	})
	require.NoError(t, err)

	set(t, repo, "s1", "v3", BaseTime.Add(3*time.Second))

	latest, err := repo.GetSecret(ctx, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "v3", latest.Value)

	_, err = repo.GetSecret(ctx, "s1", first.Version)
	assertServiceError(t, err, secretsDomain.ErrSecretDisabled, secretsDomain.CodeForbidden)
}

func testLatestDisabled(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	set(t, repo, "s1", "v1", BaseTime)
	latest := set(t, repo, "s1", "v2", BaseTime.Add(time.Second))

	disabled := false
	_, err := repo.UpdateSecret(ctx, &secretsDomain.SecretUpdate{
		Name:    "s1",
		Version: latest.Version,
		Enabled: &disabled,
		Updated: BaseTime.Add(2 * time.Second),
	})
	require.NoError(t, err)

	_, err = repo.GetSecret(ctx, "s1", "")
	assertServiceError(t, err, secretsDomain.ErrSecretDisabled, secretsDomain.CodeForbidden)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
	assert.False(t, errors.Is(err, errors.ErrNotFound))
}

func testGetMissing(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()

	_, err := repo.GetSecret(ctx, "missing", "")
	assertServiceError(t, err, secretsDomain.ErrSecretNotFound, secretsDomain.CodeSecretNotFound)

	set(t, repo, "s1", "v1", BaseTime)
	_, err = repo.GetSecret(ctx, "s1", "00000000000000000000000000000000")
	assertServiceError(t, err, secretsDomain.ErrSecretNotFound, secretsDomain.CodeSecretNotFound)
	assert.Contains(t, err.Error(), "s1/00000000000000000000000000000000")
}

func testUpdate(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	first := set(t, repo, "s1", "v1", BaseTime)
	second := set(t, repo, "s1", "v2", BaseTime.Add(time.Second))

	contentType := "application/json"
	expires := BaseTime.Add(72 * time.Hour)
	updatedAt := BaseTime.Add(time.Minute)

	updated, err := repo.UpdateSecret(ctx, &secretsDomain.SecretUpdate{
		Name:        "S1",
		ContentType: &contentType,
		Tags:        map[string]string{"env": "dev"},
		Expires:     &expires,
		Updated:     updatedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, second.Version, updated.Version)
	assert.Equal(t, "s1", updated.Name)
	assert.Equal(t, "application/json", updated.ContentType)
	assert.Equal(t, map[string]string{"env": "dev"}, updated.Tags)
	assert.True(t, updated.Attributes.Enabled)
	assertSameTime(t, BaseTime.Add(time.Second), updated.Attributes.Created)
	assertSameTime(t, updatedAt, updated.Attributes.Updated)
	require.NotNil(t, updated.Attributes.Expires)
	assertSameTime(t, expires, *updated.Attributes.Expires)

	stored, err := repo.GetSecret(ctx, "s1", second.Version)
	require.NoError(t, err)
	assert.Equal(t, "v2", stored.Value)
	assert.Equal(t, "application/json", stored.ContentType)
	assertSameTime(t, updatedAt, stored.Attributes.Updated)

	untouched, err := repo.GetSecret(ctx, "s1", first.Version)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", untouched.ContentType)
	assertSameTime(t, BaseTime, untouched.Attributes.Updated)

	updated, err = repo.UpdateSecret(ctx, &secretsDomain.SecretUpdate{
		Name:    "s1",
		Version: strings.ToUpper(first.Version),
		Updated: updatedAt.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, first.Version, updated.Version)
	assert.Equal(t, "text/plain", updated.ContentType)
	assert.Equal(t, map[string]string{"origin": "suite"}, updated.Tags)
}

func testUpdateMissing(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()

	_, err := repo.UpdateSecret(ctx, &secretsDomain.SecretUpdate{Name: "missing", Updated: BaseTime})
	assertServiceError(t, err, secretsDomain.ErrSecretNotFound, secretsDomain.CodeSecretNotFound)

	set(t, repo, "s1", "v1", BaseTime)
	_, err = repo.UpdateSecret(ctx, &secretsDomain.SecretUpdate{
		Name:    "s1",
		Version: "ffffffffffffffffffffffffffffffff",
		Updated: BaseTime,
	})
	assertServiceError(t, err, secretsDomain.ErrSecretNotFound, secretsDomain.CodeSecretNotFound)
}

func testExists(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()

	exists, err := repo.SecretExists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, exists)

	set(t, repo, "S1", "v1", BaseTime)

	exists, err = repo.SecretExists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err := repo.DeletedSecretExists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.DeleteSecret(ctx, "s1", deletionProperties("s1", 90), false)
	require.NoError(t, err)

	exists, err = repo.SecretExists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, exists)

	deleted, err = repo.DeletedSecretExists(ctx, "S1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func names(secrets []*secretsDomain.Secret) []string {
	out := make([]string, 0, len(secrets))
	for _, secret := range secrets {
		out = append(out, secret.Name)
	}
	return out
}

func testListSecrets(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	expected := []string{"alpha", "Bravo", "charlie", "delta", "Echo", "foxtrot", "golf"}

	for i, name := range []string{"golf", "alpha", "Echo", "charlie", "Bravo", "foxtrot", "delta"} {
		set(t, repo, name, "v", BaseTime.Add(time.Duration(i)*time.Second))
	}

	var visited []string
	var marker *pagination.Marker
	pages := 0
	for {
		secrets, next, err := repo.GetSecrets(ctx, 3, marker)
		require.NoError(t, err)
		pages++
		if next != nil {
			assert.Len(t, secrets, 3)
			assert.Equal(t, pagination.CollectionSecret, next.Identifier.Collection)
		}
		visited = append(visited, names(secrets)...)
		if next == nil {
			break
		}
		// Markers survive the wire encoding.
		decoded, err := pagination.ParseSkipToken(pagination.BuildSkipToken(*next), pagination.CollectionSecret)
		require.NoError(t, err)
		marker = decoded
		require.Less(t, pages, 10)
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, expected, visited)

	secrets, next, err := repo.GetSecrets(ctx, len(expected), nil)
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Len(t, secrets, len(expected))
}

func testListSecretsSingleItemPages(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	set(t, repo, "c", "v", BaseTime)
	set(t, repo, "a", "v", BaseTime)
	set(t, repo, "b", "v", BaseTime)

	secrets, marker, err := repo.GetSecrets(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(secrets))
	require.NotNil(t, marker)

	secrets, marker, err = repo.GetSecrets(ctx, 1, marker)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names(secrets))
	require.NotNil(t, marker)

	secrets, marker, err = repo.GetSecrets(ctx, 1, marker)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names(secrets))
	assert.Nil(t, marker)

	secrets, marker, err = repo.GetSecrets(ctx, 5, &pagination.Marker{
		Identifier: pagination.ItemIdentifier{Collection: pagination.CollectionSecret, Name: "zzz"},
	})
	require.NoError(t, err)
	assert.Empty(t, secrets)
	assert.Nil(t, marker)
}

func testListIncludesDisabled(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	set(t, repo, "s1", "v1", BaseTime)
	latest := set(t, repo, "s1", "v2", BaseTime.Add(time.Second))

	disabled := false
	_, err := repo.UpdateSecret(ctx, &secretsDomain.SecretUpdate{Name: "s1", Enabled: &disabled, Updated: BaseTime})
	require.NoError(t, err)

	secrets, _, err := repo.GetSecrets(ctx, 25, nil)
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, latest.Version, secrets[0].Version)
	assert.False(t, secrets[0].Attributes.Enabled)
}

func testListVersions(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	const count = 6

	var expected []string
	for i := 0; i < count; i++ {
		secret := set(t, repo, "s1", fmt.Sprintf("v%d", i), BaseTime.Add(time.Duration(i)*time.Second))
		expected = append(expected, secret.Version)
	}
	sort.Strings(expected)

	versions, marker, err := repo.GetSecretVersions(ctx, "S1", count+5, nil)
	require.NoError(t, err)
	assert.Nil(t, marker)
	require.Len(t, versions, count)

	got := make([]string, 0, count)
	for _, version := range versions {
		got = append(got, version.Version)
		assert.Equal(t, "s1", version.Name)
	}
	assert.Equal(t, expected, got)
}

func testListVersionsPages(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()

	var expected []string
	for i := 0; i < 5; i++ {
		secret := set(t, repo, "s1", fmt.Sprintf("v%d", i), BaseTime.Add(time.Duration(i)*time.Second))
		expected = append(expected, secret.Version)
	}
	set(t, repo, "other", "v", BaseTime)
	sort.Strings(expected)

	var visited []string
	var marker *pagination.Marker
	for i := 0; i < 10; i++ {
		versions, next, err := repo.GetSecretVersions(ctx, "s1", 2, marker)
		require.NoError(t, err)
		for _, version := range versions {
			visited = append(visited, version.Version)
		}
		if next == nil {
			break
		}
		assert.Equal(t, "s1", next.Identifier.Name)
		assert.NotEmpty(t, next.Identifier.Version)

		decoded, err := pagination.DecodeMarker(pagination.EncodeMarker(*next))
		require.NoError(t, err)
		marker = &decoded
	}

	assert.Equal(t, expected, visited)
}

func testListVersionsMissing(t *testing.T, repo usecase.SecretRepository) {
	_, _, err := repo.GetSecretVersions(Context(), "missing", 5, nil)
	assertServiceError(t, err, secretsDomain.ErrSecretNotFound, secretsDomain.CodeSecretNotFound)
}

func deletionProperties(name string, days int) secretsDomain.DeletionProperties {
	return secretsDomain.DeletionProperties{
		DeletedDate:        BaseTime,
		ScheduledPurgeDate: BaseTime.AddDate(0, 0, days),
		RecoveryID:         "https://localhost:13000/deletedsecrets/" + name,
	}
}

func testDelete(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	set(t, repo, "Sec", "v1", BaseTime)
	latest := set(t, repo, "sec", "v2", BaseTime.Add(time.Second))

	deleted, err := repo.DeleteSecret(ctx, "SEC", deletionProperties("Sec", 90), false)
	require.NoError(t, err)
	assert.Equal(t, "Sec", deleted.Name)
	assert.Equal(t, latest.Version, deleted.Version)
	assert.Equal(t, "v2", deleted.Value)
	assertSameTime(t, BaseTime, deleted.DeletedDate)
	assertSameTime(t, BaseTime.AddDate(0, 0, 90), deleted.ScheduledPurgeDate)

	_, err = repo.GetSecret(ctx, "sec", "")
	assertServiceError(t, err, secretsDomain.ErrSecretNotFound, secretsDomain.CodeSecretNotFound)

	_, _, err = repo.GetSecretVersions(ctx, "sec", 5, nil)
	assertServiceError(t, err, secretsDomain.ErrSecretNotFound, secretsDomain.CodeSecretNotFound)

	got, err := repo.GetDeletedSecret(ctx, "sec")
	require.NoError(t, err)
	assert.Equal(t, "Sec", got.Name)
	assert.Equal(t, "v2", got.Value)
	assertSameTime(t, got.DeletedDate.AddDate(0, 0, 90), got.ScheduledPurgeDate)
	assert.Equal(t, "https://localhost:13000/deletedsecrets/Sec", got.RecoveryID)

	// Delete requires a live secret.
	_, err = repo.DeleteSecret(ctx, "sec", deletionProperties("sec", 90), false)
	assertServiceError(t, err, secretsDomain.ErrSecretNotFound, secretsDomain.CodeSecretNotFound)
}

func testDeleteRecoveryIDCasing(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	set(t, repo, "Foo", "v1", BaseTime)

	deleted, err := repo.DeleteSecret(ctx, "FOO", deletionProperties("FOO", 90), false)
	require.NoError(t, err)
	assert.Equal(t, "https://localhost:13000/deletedsecrets/Foo", deleted.RecoveryID)

	got, err := repo.GetDeletedSecret(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, "https://localhost:13000/deletedsecrets/Foo", got.RecoveryID)

	listed, _, err := repo.GetDeletedSecrets(ctx, 5, nil)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "https://localhost:13000/deletedsecrets/Foo", listed[0].RecoveryID)
}

func testDeleteWithoutSoftDelete(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	set(t, repo, "s1", "v1", BaseTime)

	deleted, err := repo.DeleteSecret(ctx, "s1", deletionProperties("s1", 0), true)
	require.NoError(t, err)
	assert.Equal(t, "s1", deleted.Name)
	assert.Equal(t, "v1", deleted.Value)

	_, err = repo.GetSecret(ctx, "s1", "")
	assertServiceError(t, err, secretsDomain.ErrSecretNotFound, secretsDomain.CodeSecretNotFound)

	_, err = repo.GetDeletedSecret(ctx, "s1")
	assertServiceError(t, err, secretsDomain.ErrDeletedSecretNotFound, secretsDomain.CodeSecretNotFound)

	exists, err := repo.DeletedSecretExists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, exists)

	// The name is immediately reusable.
	set(t, repo, "S1", "fresh", BaseTime.Add(time.Minute))
	secret, err := repo.GetSecret(ctx, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "S1", secret.Name)
	assert.Equal(t, "fresh", secret.Value)

	versions, _, err := repo.GetSecretVersions(ctx, "s1", 25, nil)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func testDeleteMissing(t *testing.T, repo usecase.SecretRepository) {
	_, err := repo.DeleteSecret(Context(), "missing", deletionProperties("missing", 90), false)
	assertServiceError(t, err, secretsDomain.ErrSecretNotFound, secretsDomain.CodeSecretNotFound)
}

func testDeletedSecretDisabled(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	set(t, repo, "s1", "v1", BaseTime)

	disabled := false
	_, err := repo.UpdateSecret(ctx, &secretsDomain.SecretUpdate{Name: "s1", Enabled: &disabled, Updated: BaseTime})
	require.NoError(t, err)

	deleted, err := repo.DeleteSecret(ctx, "s1", deletionProperties("s1", 90), false)
	require.NoError(t, err)
	assert.False(t, deleted.Attributes.Enabled)

	_, err = repo.GetDeletedSecret(ctx, "s1")
	assertServiceError(t, err, secretsDomain.ErrSecretDisabled, secretsDomain.CodeForbidden)
}

func testListDeletedSecrets(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	for _, name := range []string{"d3", "d1", "live", "d2"} {
		set(t, repo, name, "v", BaseTime)
	}
	for _, name := range []string{"d1", "d2", "d3"} {
		_, err := repo.DeleteSecret(ctx, name, deletionProperties(name, 30), false)
		require.NoError(t, err)
	}

	deleted, marker, err := repo.GetDeletedSecrets(ctx, 2, nil)
	require.NoError(t, err)
	require.Len(t, deleted, 2)
	assert.Equal(t, "d1", deleted[0].Name)
	assert.Equal(t, "d2", deleted[1].Name)
	assert.Equal(t, "https://localhost:13000/deletedsecrets/d1", deleted[0].RecoveryID)
	require.NotNil(t, marker)
	assert.Equal(t, pagination.CollectionDeletedSecret, marker.Identifier.Collection)

	deleted, marker, err = repo.GetDeletedSecrets(ctx, 2, marker)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "d3", deleted[0].Name)
	assert.Nil(t, marker)
}

func testPurgeDeletedSecret(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	set(t, repo, "s1", "v1", BaseTime)

	err := repo.PurgeDeletedSecret(ctx, "s1")
	assertServiceError(t, err, secretsDomain.ErrDeletedSecretNotFound, secretsDomain.CodeSecretNotFound)

	_, err = repo.DeleteSecret(ctx, "s1", deletionProperties("s1", 90), false)
	require.NoError(t, err)

	require.NoError(t, repo.PurgeDeletedSecret(ctx, "S1"))

	exists, err := repo.DeletedSecretExists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, exists)

	set(t, repo, "s1", "again", BaseTime.Add(time.Hour))
	versions, _, err := repo.GetSecretVersions(ctx, "s1", 25, nil)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func testRecoverDeletedSecret(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	set(t, repo, "Rec", "v1", BaseTime)
	latest := set(t, repo, "rec", "v2", BaseTime.Add(time.Second))

	_, err := repo.RecoverDeletedSecret(ctx, "rec")
	assertServiceError(t, err, secretsDomain.ErrDeletedSecretNotFound, secretsDomain.CodeSecretNotFound)

	_, err = repo.DeleteSecret(ctx, "rec", deletionProperties("Rec", 90), false)
	require.NoError(t, err)

	recovered, err := repo.RecoverDeletedSecret(ctx, "REC")
	require.NoError(t, err)
	assert.Equal(t, "Rec", recovered.Name)
	assert.Equal(t, latest.Version, recovered.Version)

	versions, _, err := repo.GetSecretVersions(ctx, "rec", 25, nil)
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	exists, err := repo.DeletedSecretExists(ctx, "rec")
	require.NoError(t, err)
	assert.False(t, exists)

	secret, err := repo.GetSecret(ctx, "rec", "")
	require.NoError(t, err)
	assert.Equal(t, "v2", secret.Value)
}

func testPurgeExpired(t *testing.T, repo usecase.SecretRepository) {
	ctx := Context()
	for _, name := range []string{"short", "long", "edge"} {
		set(t, repo, name, "v", BaseTime)
	}
	_, err := repo.DeleteSecret(ctx, "short", deletionProperties("short", 7), false)
	require.NoError(t, err)
	_, err = repo.DeleteSecret(ctx, "long", deletionProperties("long", 90), false)
	require.NoError(t, err)
	_, err = repo.DeleteSecret(ctx, "edge", deletionProperties("edge", 30), false)
	require.NoError(t, err)

	purged, err := repo.PurgeExpiredDeletedSecrets(ctx, BaseTime.AddDate(0, 0, 30))
	require.NoError(t, err)
	sort.Strings(purged)
	assert.Equal(t, []string{"edge", "short"}, purged)

	exists, err := repo.DeletedSecretExists(ctx, "long")
	require.NoError(t, err)
	assert.True(t, exists)

	purged, err = repo.PurgeExpiredDeletedSecrets(ctx, BaseTime.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Empty(t, purged)
}
