package dto

import (
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

// SecretListResult is a page of secrets or secret versions.
type SecretListResult struct {
	Value    []SecretItem `json:"value"`
	NextLink *string      `json:"nextLink"`
}

// DeletedSecretListResult is a page of deleted secrets.
type DeletedSecretListResult struct {
	Value    []DeletedSecretItem `json:"value"`
	NextLink *string             `json:"nextLink"`
}

// MapSecretPage converts a page of secrets to a list result.
func MapSecretPage(page *secretsDomain.SecretPage, withVersion bool, nextLink *string) SecretListResult {
	value := make([]SecretItem, 0, len(page.Secrets))
	for _, secret := range page.Secrets {
		value = append(value, MapSecretToItem(secret, withVersion))
	}
	return SecretListResult{Value: value, NextLink: nextLink}
}

// MapDeletedSecretPage converts a page of deleted secrets to a list result.
func MapDeletedSecretPage(page *secretsDomain.DeletedSecretPage, nextLink *string) DeletedSecretListResult {
	value := make([]DeletedSecretItem, 0, len(page.DeletedSecrets))
	for _, deleted := range page.DeletedSecrets {
		value = append(value, MapDeletedSecretToItem(deleted))
	}
	return DeletedSecretListResult{Value: value, NextLink: nextLink}
}
