// Package validation provides custom validation rules for the application.
package validation

import (
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/volt/internal/errors"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// SecretName validates a secret name: 1 to 127 letters, digits or dashes.
var SecretName = []validation.Rule{
	validation.Required.Error("must not be empty"),
	validation.Length(1, secretsDomain.MaxNameLength),
	validation.Match(secretsDomain.NamePattern).Error("must contain only 0-9, a-z, A-Z and -"),
}

// SecretVersion validates an optional version identifier.
var SecretVersion = validation.Match(secretsDomain.VersionPattern).
	Error("must be a 32 character hexadecimal version id")

// MaxResults validates a page size against the 1..25 range.
// Zero is rejected too, which the built-in threshold rules would treat as empty.
var MaxResults = validation.By(func(value interface{}) error {
	n, ok := value.(int)
	if !ok {
		return validation.NewError("validation_max_results_type", "must be an integer")
	}
	if n < 1 || n > secretsDomain.MaxResultsCeiling {
		return validation.NewError("validation_max_results", "must be between 1 and 25")
	}
	return nil
})

// ValidateName checks a secret name and returns an ErrInvalidInput wrapped error.
func ValidateName(name string) error {
	return WrapValidationError(validation.Validate(name, SecretName...))
}

// ValidateVersion checks an optional version identifier.
func ValidateVersion(version string) error {
	return WrapValidationError(validation.Validate(version, SecretVersion))
}

// ValidateMaxResults checks a page size against the 1..25 range.
func ValidateMaxResults(maxResults int) error {
	return WrapValidationError(validation.Validate(maxResults, MaxResults))
}
