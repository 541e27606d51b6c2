package domain

import (
	"fmt"

	"github.com/allisson/volt/internal/errors"
)

// Vault error codes returned in the error envelope.
const (
	CodeSecretNotFound    = "SecretNotFound"
	CodeForbidden         = "Forbidden"
	CodeConflict          = "Conflict"
	CodeBadParameter      = "BadParameter"
	CodeAPINotImplemented = "APINotImplemented"
)

// Secret-specific error definitions.
var (
	// ErrSecretNotFound indicates the secret or the requested version does not exist.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "secret not found")

	// ErrDeletedSecretNotFound indicates no secret with the name is in the deleted namespace.
	ErrDeletedSecretNotFound = errors.Wrap(errors.ErrNotFound, "deleted secret not found")

	// ErrSecretDisabled indicates the target version exists but is disabled.
	ErrSecretDisabled = errors.Wrap(errors.ErrForbidden, "secret is disabled")

	// ErrSecretInDeletedState indicates a mutation against a name parked in the deleted namespace.
	ErrSecretInDeletedState = errors.Wrap(errors.ErrConflict, "secret is in a deleted state")

	// ErrSecretAlreadyExists indicates a recovery that would collide with a live secret.
	ErrSecretAlreadyExists = errors.Wrap(errors.ErrConflict, "secret already exists")

	// ErrPurgeProtected indicates a purge attempt while purge protection is enabled.
	ErrPurgeProtected = errors.Wrap(errors.ErrForbidden, "purge protection is enabled")

	// ErrInvalidMaxResults indicates a maxresults value outside the accepted range.
	ErrInvalidMaxResults = errors.Wrap(errors.ErrInvalidInput, "invalid maxresults")

	// ErrInvalidRecoveryPolicy indicates a configuration combination outside the recovery level table.
	ErrInvalidRecoveryPolicy = errors.New("invalid recovery policy")

	// ErrOperationNotImplemented indicates a reserved operation.
	ErrOperationNotImplemented = errors.Wrap(errors.ErrNotImplemented, "operation not implemented")
)

// NewSecretNotFoundError reports a missing secret or version.
func NewSecretNotFoundError(requestID, name, version string) error {
	nameID := name
	if version != "" {
		nameID = name + "/" + version
	}
	message := fmt.Sprintf(
		"A secret with (name/id) %s was not found in this key vault. "+
			"If you recently deleted this secret you may be able to recover it using the correct recovery command. "+
			"For help resolving this issue, please see https://go.microsoft.com/fwlink/?linkid=2125182",
		nameID,
	)
	return errors.NewServiceError(ErrSecretNotFound, CodeSecretNotFound, message, requestID)
}

// NewDeletedSecretNotFoundError reports a name missing from the deleted namespace.
func NewDeletedSecretNotFoundError(requestID, name string) error {
	return errors.NewServiceError(
		ErrDeletedSecretNotFound,
		CodeSecretNotFound,
		fmt.Sprintf("Deleted Secret not found: %s", name),
		requestID,
	)
}

// NewSecretDisabledError reports an access to a disabled version.
func NewSecretDisabledError(requestID string) error {
	return errors.NewServiceError(
		ErrSecretDisabled,
		CodeForbidden,
		"Operation get is not allowed on a disabled secret.",
		requestID,
	)
}

// NewSecretInDeletedStateError reports a set or update against a deleted secret.
func NewSecretInDeletedStateError(requestID, name string) error {
	return errors.NewServiceError(
		ErrSecretInDeletedState,
		CodeConflict,
		fmt.Sprintf(
			"Secret %s is currently in a deleted but recoverable state, and its name cannot be reused; "+
				"in this state, the secret can only be recovered or purged.",
			name,
		),
		requestID,
	)
}

// NewSecretAlreadyExistsError reports a recovery blocked by a live secret with the same name.
func NewSecretAlreadyExistsError(requestID, name string) error {
	return errors.NewServiceError(
		ErrSecretAlreadyExists,
		CodeConflict,
		fmt.Sprintf("Secret %s already exists and cannot be recovered.", name),
		requestID,
	)
}

// NewPurgeProtectedError reports a purge refused by purge protection.
func NewPurgeProtectedError(requestID string) error {
	return errors.NewServiceError(
		ErrPurgeProtected,
		CodeForbidden,
		`Operation "purge" is not allowed because purge protection is enabled for this vault. `+
			"Key Vault service will automatically purge it after the retention period has passed.",
		requestID,
	)
}

// NewBadParameterError reports an invalid request parameter.
func NewBadParameterError(requestID, message string, err error) error {
	if err == nil {
		err = errors.ErrInvalidInput
	}
	return errors.NewServiceError(err, CodeBadParameter, message, requestID)
}

// NewNotImplementedError reports a reserved operation.
func NewNotImplementedError(requestID string) error {
	return errors.NewServiceError(
		ErrOperationNotImplemented,
		CodeAPINotImplemented,
		"Current API is not implemented yet.",
		requestID,
	)
}
