package dto

import (
	"strings"
	"time"

	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

// SecretAttributes is the wire form of secret attributes. Timestamps are unix seconds.
type SecretAttributes struct {
	Enabled         bool   `json:"enabled"`
	NotBefore       *int64 `json:"nbf,omitempty"`
	Expires         *int64 `json:"exp,omitempty"`
	Created         int64  `json:"created"`
	Updated         int64  `json:"updated"`
	RecoveryLevel   string `json:"recoveryLevel"`
	RecoverableDays int    `json:"recoverableDays"`
}

// SecretItem is a secret without its value, as returned by the listing operations.
type SecretItem struct {
	ID          string            `json:"id"`
	ContentType string            `json:"contentType,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Attributes  SecretAttributes  `json:"attributes"`
}

// SecretBundle is a secret version including its value.
type SecretBundle struct {
	Value string `json:"value"`
	SecretItem
}

// DeletionInfo holds the fields added to secrets in the deleted namespace.
type DeletionInfo struct {
	RecoveryID         string `json:"recoveryId"`
	DeletedDate        int64  `json:"deletedDate"`
	ScheduledPurgeDate int64  `json:"scheduledPurgeDate"`
}

// DeletedSecretBundle is a deleted secret including the value of its latest version.
type DeletedSecretBundle struct {
	SecretBundle
	DeletionInfo
}

// DeletedSecretItem is a deleted secret without its value.
type DeletedSecretItem struct {
	SecretItem
	DeletionInfo
}

func mapAttributes(attributes secretsDomain.Attributes) SecretAttributes {
	return SecretAttributes{
		Enabled:         attributes.Enabled,
		NotBefore:       toUnix(attributes.NotBefore),
		Expires:         toUnix(attributes.Expires),
		Created:         attributes.Created.Unix(),
		Updated:         attributes.Updated.Unix(),
		RecoveryLevel:   string(attributes.RecoveryLevel),
		RecoverableDays: attributes.RecoverableDays,
	}
}

func mapItem(secret *secretsDomain.Secret) SecretItem {
	return SecretItem{
		ID:          secret.ID,
		ContentType: secret.ContentType,
		Tags:        secret.Tags,
		Attributes:  mapAttributes(secret.Attributes),
	}
}

func mapDeletion(properties secretsDomain.DeletionProperties) DeletionInfo {
	return DeletionInfo{
		RecoveryID:         properties.RecoveryID,
		DeletedDate:        properties.DeletedDate.Unix(),
		ScheduledPurgeDate: properties.ScheduledPurgeDate.Unix(),
	}
}

// MapSecretToBundle converts a secret version to its wire bundle.
func MapSecretToBundle(secret *secretsDomain.Secret) SecretBundle {
	return SecretBundle{Value: secret.Value, SecretItem: mapItem(secret)}
}

// MapDeletedSecretToBundle converts a deleted secret to its wire bundle.
func MapDeletedSecretToBundle(deleted *secretsDomain.DeletedSecret) DeletedSecretBundle {
	return DeletedSecretBundle{
		SecretBundle: MapSecretToBundle(&deleted.Secret),
		DeletionInfo: mapDeletion(deleted.DeletionProperties),
	}
}

// MapSecretToItem converts a secret version to a list item. The secret listing identifies
// secrets without their version, the version listing keeps it.
func MapSecretToItem(secret *secretsDomain.Secret, withVersion bool) SecretItem {
	item := mapItem(secret)
	if !withVersion && secret.Version != "" {
		item.ID = strings.TrimSuffix(item.ID, "/"+secret.Version)
	}
	return item
}

// MapDeletedSecretToItem converts a deleted secret to a list item.
func MapDeletedSecretToItem(deleted *secretsDomain.DeletedSecret) DeletedSecretItem {
	return DeletedSecretItem{
		SecretItem:   MapSecretToItem(&deleted.Secret, false),
		DeletionInfo: mapDeletion(deleted.DeletionProperties),
	}
}

func toUnix(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	seconds := t.Unix()
	return &seconds
}
