// Package mocks provides mock implementations of the secret use case interfaces for testing.
package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/volt/internal/pagination"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

func markerArg(args mock.Arguments, index int) *pagination.Marker {
	if args.Get(index) == nil {
		return nil
	}
	return args.Get(index).(*pagination.Marker)
}

func secretArg(args mock.Arguments, index int) *secretsDomain.Secret {
	if args.Get(index) == nil {
		return nil
	}
	return args.Get(index).(*secretsDomain.Secret)
}

func secretsArg(args mock.Arguments, index int) []*secretsDomain.Secret {
	if args.Get(index) == nil {
		return nil
	}
	return args.Get(index).([]*secretsDomain.Secret)
}

func deletedSecretArg(args mock.Arguments, index int) *secretsDomain.DeletedSecret {
	if args.Get(index) == nil {
		return nil
	}
	return args.Get(index).(*secretsDomain.DeletedSecret)
}

// MockSecretRepository is a mock implementation of SecretRepository for testing.
type MockSecretRepository struct {
	mock.Mock
}

// NewMockSecretRepository creates a MockSecretRepository that asserts its expectations on cleanup.
func NewMockSecretRepository(t *testing.T) *MockSecretRepository {
	m := &MockSecretRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// SecretExists mocks the SecretExists method of SecretRepository.
func (m *MockSecretRepository) SecretExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// DeletedSecretExists mocks the DeletedSecretExists method of SecretRepository.
func (m *MockSecretRepository) DeletedSecretExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// SetSecret mocks the SetSecret method of SecretRepository.
func (m *MockSecretRepository) SetSecret(
	ctx context.Context,
	secret *secretsDomain.Secret,
) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, secret)
	return secretArg(args, 0), args.Error(1)
}

// UpdateSecret mocks the UpdateSecret method of SecretRepository.
func (m *MockSecretRepository) UpdateSecret(
	ctx context.Context,
	update *secretsDomain.SecretUpdate,
) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, update)
	return secretArg(args, 0), args.Error(1)
}

// GetSecret mocks the GetSecret method of SecretRepository.
func (m *MockSecretRepository) GetSecret(ctx context.Context, name, version string) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, name, version)
	return secretArg(args, 0), args.Error(1)
}

// GetSecrets mocks the GetSecrets method of SecretRepository.
func (m *MockSecretRepository) GetSecrets(
	ctx context.Context,
	maxResults int,
	marker *pagination.Marker,
) ([]*secretsDomain.Secret, *pagination.Marker, error) {
	args := m.Called(ctx, maxResults, marker)
	return secretsArg(args, 0), markerArg(args, 1), args.Error(2)
}

// GetSecretVersions mocks the GetSecretVersions method of SecretRepository.
func (m *MockSecretRepository) GetSecretVersions(
	ctx context.Context,
	name string,
	maxResults int,
	marker *pagination.Marker,
) ([]*secretsDomain.Secret, *pagination.Marker, error) {
	args := m.Called(ctx, name, maxResults, marker)
	return secretsArg(args, 0), markerArg(args, 1), args.Error(2)
}

// DeleteSecret mocks the DeleteSecret method of SecretRepository.
func (m *MockSecretRepository) DeleteSecret(
	ctx context.Context,
	name string,
	properties secretsDomain.DeletionProperties,
	disableSoftDelete bool,
) (*secretsDomain.DeletedSecret, error) {
	args := m.Called(ctx, name, properties, disableSoftDelete)
	return deletedSecretArg(args, 0), args.Error(1)
}

// GetDeletedSecret mocks the GetDeletedSecret method of SecretRepository.
func (m *MockSecretRepository) GetDeletedSecret(ctx context.Context, name string) (*secretsDomain.DeletedSecret, error) {
	args := m.Called(ctx, name)
	return deletedSecretArg(args, 0), args.Error(1)
}

// GetDeletedSecrets mocks the GetDeletedSecrets method of SecretRepository.
func (m *MockSecretRepository) GetDeletedSecrets(
	ctx context.Context,
	maxResults int,
	marker *pagination.Marker,
) ([]*secretsDomain.DeletedSecret, *pagination.Marker, error) {
	args := m.Called(ctx, maxResults, marker)
	var deleted []*secretsDomain.DeletedSecret
	if args.Get(0) != nil {
		deleted = args.Get(0).([]*secretsDomain.DeletedSecret)
	}
	return deleted, markerArg(args, 1), args.Error(2)
}

// PurgeDeletedSecret mocks the PurgeDeletedSecret method of SecretRepository.
func (m *MockSecretRepository) PurgeDeletedSecret(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// RecoverDeletedSecret mocks the RecoverDeletedSecret method of SecretRepository.
func (m *MockSecretRepository) RecoverDeletedSecret(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, name)
	return secretArg(args, 0), args.Error(1)
}

// PurgeExpiredDeletedSecrets mocks the PurgeExpiredDeletedSecrets method of SecretRepository.
func (m *MockSecretRepository) PurgeExpiredDeletedSecrets(ctx context.Context, before time.Time) ([]string, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockSecretUseCase is a mock implementation of SecretUseCase for testing.
type MockSecretUseCase struct {
	mock.Mock
}

// NewMockSecretUseCase creates a MockSecretUseCase that asserts its expectations on cleanup.
func NewMockSecretUseCase(t *testing.T) *MockSecretUseCase {
	m := &MockSecretUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// SetSecret mocks the SetSecret method of SecretUseCase.
func (m *MockSecretUseCase) SetSecret(
	ctx context.Context,
	params *secretsDomain.SetSecretParams,
) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, params)
	return secretArg(args, 0), args.Error(1)
}

// UpdateSecret mocks the UpdateSecret method of SecretUseCase.
func (m *MockSecretUseCase) UpdateSecret(
	ctx context.Context,
	update *secretsDomain.SecretUpdate,
) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, update)
	return secretArg(args, 0), args.Error(1)
}

// GetSecret mocks the GetSecret method of SecretUseCase.
func (m *MockSecretUseCase) GetSecret(ctx context.Context, name, version string) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, name, version)
	return secretArg(args, 0), args.Error(1)
}

// ListSecrets mocks the ListSecrets method of SecretUseCase.
func (m *MockSecretUseCase) ListSecrets(
	ctx context.Context,
	maxResults *int,
	skipToken string,
) (*secretsDomain.SecretPage, error) {
	args := m.Called(ctx, maxResults, skipToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.SecretPage), args.Error(1)
}

// ListSecretVersions mocks the ListSecretVersions method of SecretUseCase.
func (m *MockSecretUseCase) ListSecretVersions(
	ctx context.Context,
	name string,
	maxResults *int,
	skipToken string,
) (*secretsDomain.SecretPage, error) {
	args := m.Called(ctx, name, maxResults, skipToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.SecretPage), args.Error(1)
}

// DeleteSecret mocks the DeleteSecret method of SecretUseCase.
func (m *MockSecretUseCase) DeleteSecret(ctx context.Context, name string) (*secretsDomain.DeletedSecret, error) {
	args := m.Called(ctx, name)
	return deletedSecretArg(args, 0), args.Error(1)
}

// GetDeletedSecret mocks the GetDeletedSecret method of SecretUseCase.
func (m *MockSecretUseCase) GetDeletedSecret(ctx context.Context, name string) (*secretsDomain.DeletedSecret, error) {
	args := m.Called(ctx, name)
	return deletedSecretArg(args, 0), args.Error(1)
}

// ListDeletedSecrets mocks the ListDeletedSecrets method of SecretUseCase.
func (m *MockSecretUseCase) ListDeletedSecrets(
	ctx context.Context,
	maxResults *int,
	skipToken string,
) (*secretsDomain.DeletedSecretPage, error) {
	args := m.Called(ctx, maxResults, skipToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.DeletedSecretPage), args.Error(1)
}

// PurgeDeletedSecret mocks the PurgeDeletedSecret method of SecretUseCase.
func (m *MockSecretUseCase) PurgeDeletedSecret(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// RecoverDeletedSecret mocks the RecoverDeletedSecret method of SecretUseCase.
func (m *MockSecretUseCase) RecoverDeletedSecret(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, name)
	return secretArg(args, 0), args.Error(1)
}

// BackupSecret mocks the BackupSecret method of SecretUseCase.
func (m *MockSecretUseCase) BackupSecret(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// RestoreSecret mocks the RestoreSecret method of SecretUseCase.
func (m *MockSecretUseCase) RestoreSecret(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// PurgeExpiredDeletedSecrets mocks the PurgeExpiredDeletedSecrets method of SecretUseCase.
func (m *MockSecretUseCase) PurgeExpiredDeletedSecrets(ctx context.Context, dryRun bool) ([]string, error) {
	args := m.Called(ctx, dryRun)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
