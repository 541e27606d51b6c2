package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/volt/internal/pagination"
	"github.com/allisson/volt/internal/requestctx"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
	"github.com/allisson/volt/internal/validation"
)

// secretUseCase implements the SecretUseCase interface on top of a SecretRepository.
type secretUseCase struct {
	repo   SecretRepository
	policy secretsDomain.RecoveryPolicy
	logger *slog.Logger
	now    func() time.Time
}

// NewSecretUseCase creates a new secret use case instance with the provided dependencies.
func NewSecretUseCase(
	repo SecretRepository,
	policy secretsDomain.RecoveryPolicy,
	logger *slog.Logger,
) SecretUseCase {
	return &secretUseCase{
		repo:   repo,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// requestInfo returns the request information carried by ctx. Calls made outside an
// HTTP request get a fresh request id and the current time, stored back in the context.
func (s *secretUseCase) requestInfo(ctx context.Context) (context.Context, requestctx.Info) {
	info, ok := requestctx.GetInfo(ctx)
	if ok && info.ID != "" && !info.StartTime.IsZero() {
		info.StartTime = info.StartTime.UTC()
		return ctx, info
	}
	if info.ID == "" {
		info.ID = uuid.NewString()
	}
	if info.StartTime.IsZero() {
		info.StartTime = s.now()
	}
	info.StartTime = info.StartTime.UTC()
	return requestctx.WithInfo(ctx, info), info
}

func badParameter(requestID, subject string, err error) error {
	return secretsDomain.NewBadParameterError(requestID, subject+": "+strings.TrimSuffix(err.Error(), ": invalid input"), err)
}

func (s *secretUseCase) validateName(requestID, name string) error {
	if err := validation.ValidateName(name); err != nil {
		return badParameter(requestID, "invalid secret name", err)
	}
	return nil
}

func (s *secretUseCase) validateVersion(requestID, version string) error {
	if err := validation.ValidateVersion(version); err != nil {
		return badParameter(requestID, "invalid secret version", err)
	}
	return nil
}

// pageSize resolves the requested page size; nil selects the ceiling.
func (s *secretUseCase) pageSize(requestID string, maxResults *int) (int, error) {
	if maxResults == nil {
		return secretsDomain.MaxResultsCeiling, nil
	}
	if err := validation.ValidateMaxResults(*maxResults); err != nil {
		return 0, secretsDomain.NewBadParameterError(
			requestID,
			"invalid maxresults: "+strings.TrimSuffix(err.Error(), ": invalid input"),
			secretsDomain.ErrInvalidMaxResults,
		)
	}
	return *maxResults, nil
}

func (s *secretUseCase) marker(requestID, skipToken, collection string) (*pagination.Marker, error) {
	if skipToken == "" {
		return nil, nil
	}
	marker, err := pagination.ParseSkipToken(skipToken, collection)
	if err != nil {
		return nil, secretsDomain.NewBadParameterError(requestID, "invalid $skiptoken", err)
	}
	return marker, nil
}

func skipTokenFor(marker *pagination.Marker) string {
	if marker == nil {
		return ""
	}
	return pagination.BuildSkipToken(*marker)
}

// decorate attaches the resource id and the vault recovery settings.
func (s *secretUseCase) decorate(info requestctx.Info, secret *secretsDomain.Secret) *secretsDomain.Secret {
	secret.ID = info.Endpoint + "/secrets/" + secret.Name + "/" + secret.Version
	secret.Attributes.RecoveryLevel = s.policy.Level
	secret.Attributes.RecoverableDays = s.policy.RecoverableDays
	return secret
}

func (s *secretUseCase) decorateDeleted(info requestctx.Info, deleted *secretsDomain.DeletedSecret) *secretsDomain.DeletedSecret {
	s.decorate(info, &deleted.Secret)
	deleted.RecoveryID = info.Endpoint + "/deletedsecrets/" + deleted.Name
	return deleted
}

// ensureNotDeleted fails with a conflict when the name is parked in the deleted namespace.
func (s *secretUseCase) ensureNotDeleted(ctx context.Context, requestID, name string) error {
	deleted, err := s.repo.DeletedSecretExists(ctx, name)
	if err != nil {
		return err
	}
	if deleted {
		return secretsDomain.NewSecretInDeletedStateError(requestID, name)
	}
	return nil
}

// SetSecret stores a new version of a secret, creating the secret on first use.
func (s *secretUseCase) SetSecret(
	ctx context.Context,
	params *secretsDomain.SetSecretParams,
) (*secretsDomain.Secret, error) {
	ctx, info := s.requestInfo(ctx)

	if err := s.validateName(info.ID, params.Name); err != nil {
		return nil, err
	}
	if err := s.ensureNotDeleted(ctx, info.ID, params.Name); err != nil {
		return nil, err
	}

	enabled := true
	if params.Enabled != nil {
		enabled = *params.Enabled
	}

	secret := &secretsDomain.Secret{
		Name:        params.Name,
		Version:     secretsDomain.NewVersionID(params.Name, info.StartTime, info.ID),
		Value:       params.Value,
		ContentType: params.ContentType,
		Tags:        params.Tags,
		Attributes: secretsDomain.Attributes{
			Enabled:   enabled,
			Created:   info.StartTime,
			Updated:   info.StartTime,
			Expires:   params.Expires,
			NotBefore: params.NotBefore,
		},
	}

	stored, err := s.repo.SetSecret(ctx, secret)
	if err != nil {
		return nil, err
	}

	return s.decorate(info, stored), nil
}

// UpdateSecret changes the attributes of a version, or of the latest version when none is given.
func (s *secretUseCase) UpdateSecret(
	ctx context.Context,
	update *secretsDomain.SecretUpdate,
) (*secretsDomain.Secret, error) {
	ctx, info := s.requestInfo(ctx)

	if err := s.validateName(info.ID, update.Name); err != nil {
		return nil, err
	}
	if err := s.validateVersion(info.ID, update.Version); err != nil {
		return nil, err
	}
	if err := s.ensureNotDeleted(ctx, info.ID, update.Name); err != nil {
		return nil, err
	}

	update.Updated = info.StartTime

	updated, err := s.repo.UpdateSecret(ctx, update)
	if err != nil {
		return nil, err
	}

	return s.decorate(info, updated), nil
}

// GetSecret returns a version of a secret, or its latest version when version is empty.
func (s *secretUseCase) GetSecret(ctx context.Context, name, version string) (*secretsDomain.Secret, error) {
	ctx, info := s.requestInfo(ctx)

	if err := s.validateName(info.ID, name); err != nil {
		return nil, err
	}
	if err := s.validateVersion(info.ID, version); err != nil {
		return nil, err
	}

	secret, err := s.repo.GetSecret(ctx, name, version)
	if err != nil {
		return nil, err
	}

	return s.decorate(info, secret), nil
}

// ListSecrets returns one page of live secrets.
func (s *secretUseCase) ListSecrets(
	ctx context.Context,
	maxResults *int,
	skipToken string,
) (*secretsDomain.SecretPage, error) {
	ctx, info := s.requestInfo(ctx)

	size, err := s.pageSize(info.ID, maxResults)
	if err != nil {
		return nil, err
	}
	marker, err := s.marker(info.ID, skipToken, pagination.CollectionSecret)
	if err != nil {
		return nil, err
	}

	secrets, next, err := s.repo.GetSecrets(ctx, size, marker)
	if err != nil {
		return nil, err
	}

	for _, secret := range secrets {
		s.decorate(info, secret)
	}

	return &secretsDomain.SecretPage{Secrets: secrets, SkipToken: skipTokenFor(next)}, nil
}

// ListSecretVersions returns one page of the versions of a secret.
func (s *secretUseCase) ListSecretVersions(
	ctx context.Context,
	name string,
	maxResults *int,
	skipToken string,
) (*secretsDomain.SecretPage, error) {
	ctx, info := s.requestInfo(ctx)

	if err := s.validateName(info.ID, name); err != nil {
		return nil, err
	}
	size, err := s.pageSize(info.ID, maxResults)
	if err != nil {
		return nil, err
	}
	marker, err := s.marker(info.ID, skipToken, pagination.CollectionSecret)
	if err != nil {
		return nil, err
	}

	versions, next, err := s.repo.GetSecretVersions(ctx, name, size, marker)
	if err != nil {
		return nil, err
	}

	for _, version := range versions {
		s.decorate(info, version)
	}

	return &secretsDomain.SecretPage{Secrets: versions, SkipToken: skipTokenFor(next)}, nil
}

// DeleteSecret deletes a secret with all of its versions. With soft delete enabled the
// secret stays recoverable until its scheduled purge date.
func (s *secretUseCase) DeleteSecret(ctx context.Context, name string) (*secretsDomain.DeletedSecret, error) {
	ctx, info := s.requestInfo(ctx)

	if err := s.validateName(info.ID, name); err != nil {
		return nil, err
	}

	properties := secretsDomain.DeletionProperties{
		DeletedDate:        info.StartTime,
		ScheduledPurgeDate: info.StartTime.AddDate(0, 0, s.policy.RecoverableDays),
		RecoveryID:         info.Endpoint + "/deletedsecrets/" + name,
	}

	deleted, err := s.repo.DeleteSecret(ctx, name, properties, s.policy.DisableSoftDelete)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("secret deleted",
		slog.String("request_id", info.ID),
		slog.String("name", deleted.Name),
		slog.Bool("soft_delete", !s.policy.DisableSoftDelete),
	)

	return s.decorateDeleted(info, deleted), nil
}

// GetDeletedSecret returns the latest version of a deleted secret.
func (s *secretUseCase) GetDeletedSecret(ctx context.Context, name string) (*secretsDomain.DeletedSecret, error) {
	ctx, info := s.requestInfo(ctx)

	if err := s.validateName(info.ID, name); err != nil {
		return nil, err
	}

	deleted, err := s.repo.GetDeletedSecret(ctx, name)
	if err != nil {
		return nil, err
	}

	return s.decorateDeleted(info, deleted), nil
}

// ListDeletedSecrets returns one page of deleted secrets.
func (s *secretUseCase) ListDeletedSecrets(
	ctx context.Context,
	maxResults *int,
	skipToken string,
) (*secretsDomain.DeletedSecretPage, error) {
	ctx, info := s.requestInfo(ctx)

	size, err := s.pageSize(info.ID, maxResults)
	if err != nil {
		return nil, err
	}
	marker, err := s.marker(info.ID, skipToken, pagination.CollectionDeletedSecret)
	if err != nil {
		return nil, err
	}

	deleted, next, err := s.repo.GetDeletedSecrets(ctx, size, marker)
	if err != nil {
		return nil, err
	}

	for _, secret := range deleted {
		s.decorateDeleted(info, secret)
	}

	return &secretsDomain.DeletedSecretPage{DeletedSecrets: deleted, SkipToken: skipTokenFor(next)}, nil
}

// PurgeDeletedSecret permanently removes a deleted secret unless purge protection is on.
func (s *secretUseCase) PurgeDeletedSecret(ctx context.Context, name string) error {
	ctx, info := s.requestInfo(ctx)

	if err := s.validateName(info.ID, name); err != nil {
		return err
	}
	if s.policy.PurgeProtection {
		return secretsDomain.NewPurgeProtectedError(info.ID)
	}

	return s.repo.PurgeDeletedSecret(ctx, name)
}

// RecoverDeletedSecret moves a deleted secret back to the live namespace.
func (s *secretUseCase) RecoverDeletedSecret(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	ctx, info := s.requestInfo(ctx)

	if err := s.validateName(info.ID, name); err != nil {
		return nil, err
	}

	exists, err := s.repo.SecretExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, secretsDomain.NewSecretAlreadyExistsError(info.ID, name)
	}

	recovered, err := s.repo.RecoverDeletedSecret(ctx, name)
	if err != nil {
		return nil, err
	}

	return s.decorate(info, recovered), nil
}

// BackupSecret is reserved.
func (s *secretUseCase) BackupSecret(ctx context.Context, name string) error {
	_, info := s.requestInfo(ctx)
	return secretsDomain.NewNotImplementedError(info.ID)
}

// RestoreSecret is reserved.
func (s *secretUseCase) RestoreSecret(ctx context.Context) error {
	_, info := s.requestInfo(ctx)
	return secretsDomain.NewNotImplementedError(info.ID)
}

// PurgeExpiredDeletedSecrets removes deleted secrets whose scheduled purge date is not after
// the request time.
func (s *secretUseCase) PurgeExpiredDeletedSecrets(ctx context.Context, dryRun bool) ([]string, error) {
	ctx, info := s.requestInfo(ctx)

	if !dryRun {
		purged, err := s.repo.PurgeExpiredDeletedSecrets(ctx, info.StartTime)
		if err != nil {
			return nil, err
		}
		if len(purged) > 0 {
			s.logger.Info("purged expired deleted secrets",
				slog.String("request_id", info.ID),
				slog.Int("count", len(purged)),
			)
		}
		return purged, nil
	}

	var expired []string
	var marker *pagination.Marker
	for {
		deleted, next, err := s.repo.GetDeletedSecrets(ctx, secretsDomain.MaxResultsCeiling, marker)
		if err != nil {
			return nil, err
		}
		for _, secret := range deleted {
			if !secret.ScheduledPurgeDate.After(info.StartTime) {
				expired = append(expired, secret.Name)
			}
		}
		if next == nil {
			return expired, nil
		}
		marker = next
	}
}
