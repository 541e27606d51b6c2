package usecase

import (
	"context"
	"time"

	"github.com/allisson/volt/internal/metrics"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

// secretUseCaseWithMetrics decorates SecretUseCase with metrics instrumentation.
type secretUseCaseWithMetrics struct {
	next    SecretUseCase
	metrics metrics.BusinessMetrics
}

// NewSecretUseCaseWithMetrics wraps a SecretUseCase with metrics recording.
func NewSecretUseCaseWithMetrics(useCase SecretUseCase, m metrics.BusinessMetrics) SecretUseCase {
	return &secretUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *secretUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.StatusFromError(err)
	s.metrics.RecordOperation(ctx, operation, status)
	s.metrics.RecordDuration(ctx, operation, time.Since(start), status)
}

func (s *secretUseCaseWithMetrics) SetSecret(
	ctx context.Context,
	params *secretsDomain.SetSecretParams,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.SetSecret(ctx, params)
	s.record(ctx, "secret_set", start, err)
	return secret, err
}

func (s *secretUseCaseWithMetrics) UpdateSecret(
	ctx context.Context,
	update *secretsDomain.SecretUpdate,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.UpdateSecret(ctx, update)
	s.record(ctx, "secret_update", start, err)
	return secret, err
}

func (s *secretUseCaseWithMetrics) GetSecret(
	ctx context.Context,
	name, version string,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.GetSecret(ctx, name, version)
	s.record(ctx, "secret_get", start, err)
	return secret, err
}

func (s *secretUseCaseWithMetrics) ListSecrets(
	ctx context.Context,
	maxResults *int,
	skipToken string,
) (*secretsDomain.SecretPage, error) {
	start := time.Now()
	page, err := s.next.ListSecrets(ctx, maxResults, skipToken)
	s.record(ctx, "secret_list", start, err)
	return page, err
}

func (s *secretUseCaseWithMetrics) ListSecretVersions(
	ctx context.Context,
	name string,
	maxResults *int,
	skipToken string,
) (*secretsDomain.SecretPage, error) {
	start := time.Now()
	page, err := s.next.ListSecretVersions(ctx, name, maxResults, skipToken)
	s.record(ctx, "secret_list_versions", start, err)
	return page, err
}

func (s *secretUseCaseWithMetrics) DeleteSecret(
	ctx context.Context,
	name string,
) (*secretsDomain.DeletedSecret, error) {
	start := time.Now()
	deleted, err := s.next.DeleteSecret(ctx, name)
	s.record(ctx, "secret_delete", start, err)
	return deleted, err
}

func (s *secretUseCaseWithMetrics) GetDeletedSecret(
	ctx context.Context,
	name string,
) (*secretsDomain.DeletedSecret, error) {
	start := time.Now()
	deleted, err := s.next.GetDeletedSecret(ctx, name)
	s.record(ctx, "deleted_secret_get", start, err)
	return deleted, err
}

func (s *secretUseCaseWithMetrics) ListDeletedSecrets(
	ctx context.Context,
	maxResults *int,
	skipToken string,
) (*secretsDomain.DeletedSecretPage, error) {
	start := time.Now()
	page, err := s.next.ListDeletedSecrets(ctx, maxResults, skipToken)
	s.record(ctx, "deleted_secret_list", start, err)
	return page, err
}

func (s *secretUseCaseWithMetrics) PurgeDeletedSecret(ctx context.Context, name string) error {
	start := time.Now()
	err := s.next.PurgeDeletedSecret(ctx, name)
	s.record(ctx, "deleted_secret_purge", start, err)
	return err
}

func (s *secretUseCaseWithMetrics) RecoverDeletedSecret(
	ctx context.Context,
	name string,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.RecoverDeletedSecret(ctx, name)
	s.record(ctx, "deleted_secret_recover", start, err)
	return secret, err
}

func (s *secretUseCaseWithMetrics) BackupSecret(ctx context.Context, name string) error {
	start := time.Now()
	err := s.next.BackupSecret(ctx, name)
	s.record(ctx, "secret_backup", start, err)
	return err
}

func (s *secretUseCaseWithMetrics) RestoreSecret(ctx context.Context) error {
	start := time.Now()
	err := s.next.RestoreSecret(ctx)
	s.record(ctx, "secret_restore", start, err)
	return err
}

func (s *secretUseCaseWithMetrics) PurgeExpiredDeletedSecrets(ctx context.Context, dryRun bool) ([]string, error) {
	start := time.Now()
	names, err := s.next.PurgeExpiredDeletedSecrets(ctx, dryRun)
	s.record(ctx, "deleted_secret_purge_expired", start, err)
	return names, err
}
