// Package usecase defines the interfaces and implementations for vault secret use cases.
// Use cases validate request parameters, run the preconditions the stores do not own,
// stamp request times and shape store results into vault resources.
package usecase

import (
	"context"
	"time"

	"github.com/allisson/volt/internal/pagination"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

// SecretRepository defines the persistence contract for secrets, versions and deleted secrets.
// Names and versions are matched case-insensitively. Implementations never log; they return
// typed domain errors carrying the request id found in ctx.
type SecretRepository interface {
	SecretExists(ctx context.Context, name string) (bool, error)
	DeletedSecretExists(ctx context.Context, name string) (bool, error)
	// SetSecret appends a new version, creating the secret on first use.
	SetSecret(ctx context.Context, secret *secretsDomain.Secret) (*secretsDomain.Secret, error)
	UpdateSecret(ctx context.Context, update *secretsDomain.SecretUpdate) (*secretsDomain.Secret, error)
	// GetSecret returns the given version, or the latest one when version is empty.
	GetSecret(ctx context.Context, name, version string) (*secretsDomain.Secret, error)
	// GetSecrets lists the latest version of each live secret by ascending name.
	// The returned marker points at the first item of the next page and is nil on the last page.
	GetSecrets(
		ctx context.Context,
		maxResults int,
		marker *pagination.Marker,
	) ([]*secretsDomain.Secret, *pagination.Marker, error)
	// GetSecretVersions lists every version of a secret by ascending version id.
	GetSecretVersions(
		ctx context.Context,
		name string,
		maxResults int,
		marker *pagination.Marker,
	) ([]*secretsDomain.Secret, *pagination.Marker, error)
	// DeleteSecret removes a live secret, parking it in the deleted namespace unless
	// disableSoftDelete is set.
	DeleteSecret(
		ctx context.Context,
		name string,
		properties secretsDomain.DeletionProperties,
		disableSoftDelete bool,
	) (*secretsDomain.DeletedSecret, error)
	GetDeletedSecret(ctx context.Context, name string) (*secretsDomain.DeletedSecret, error)
	GetDeletedSecrets(
		ctx context.Context,
		maxResults int,
		marker *pagination.Marker,
	) ([]*secretsDomain.DeletedSecret, *pagination.Marker, error)
	PurgeDeletedSecret(ctx context.Context, name string) error
	// RecoverDeletedSecret moves a deleted secret back to the live namespace and returns its latest version.
	RecoverDeletedSecret(ctx context.Context, name string) (*secretsDomain.Secret, error)
	// PurgeExpiredDeletedSecrets purges deleted secrets scheduled for purge at or before the given
	// instant and returns their names.
	PurgeExpiredDeletedSecrets(ctx context.Context, before time.Time) ([]string, error)
}

// Store is a SecretRepository with a storage lifecycle.
type Store interface {
	SecretRepository
	// Init opens or creates the backing storage.
	Init(ctx context.Context) error
	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error
	// Close flushes and releases the backing storage.
	Close(ctx context.Context) error
	// Clean deletes the backing storage. It fails unless Close has completed.
	Clean(ctx context.Context) error
}

// SecretUseCase defines the vault secret operations.
type SecretUseCase interface {
	SetSecret(ctx context.Context, params *secretsDomain.SetSecretParams) (*secretsDomain.Secret, error)
	UpdateSecret(ctx context.Context, update *secretsDomain.SecretUpdate) (*secretsDomain.Secret, error)
	GetSecret(ctx context.Context, name, version string) (*secretsDomain.Secret, error)
	// ListSecrets pages through the live secrets. A nil maxResults selects the ceiling.
	ListSecrets(ctx context.Context, maxResults *int, skipToken string) (*secretsDomain.SecretPage, error)
	ListSecretVersions(
		ctx context.Context,
		name string,
		maxResults *int,
		skipToken string,
	) (*secretsDomain.SecretPage, error)
	DeleteSecret(ctx context.Context, name string) (*secretsDomain.DeletedSecret, error)
	GetDeletedSecret(ctx context.Context, name string) (*secretsDomain.DeletedSecret, error)
	ListDeletedSecrets(ctx context.Context, maxResults *int, skipToken string) (*secretsDomain.DeletedSecretPage, error)
	PurgeDeletedSecret(ctx context.Context, name string) error
	RecoverDeletedSecret(ctx context.Context, name string) (*secretsDomain.Secret, error)
	BackupSecret(ctx context.Context, name string) error
	RestoreSecret(ctx context.Context) error
	// PurgeExpiredDeletedSecrets purges deleted secrets whose scheduled purge date has passed.
	// With dryRun set nothing is removed and the names that would be purged are returned.
	PurgeExpiredDeletedSecrets(ctx context.Context, dryRun bool) ([]string, error)
}
