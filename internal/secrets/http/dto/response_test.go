package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

const testVersion = "0123456789abcdef0123456789abcdef"

func testSecret() *secretsDomain.Secret {
	created := time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)
	expires := created.Add(24 * time.Hour)
	return &secretsDomain.Secret{
		Name:        "db-pass",
		Version:     testVersion,
		Value:       "s3cr3t",
		ContentType: "text/plain",
		Tags:        map[string]string{"env": "dev"},
		ID:          "https://localhost:13000/secrets/db-pass/" + testVersion,
		Attributes: secretsDomain.Attributes{
			Enabled:         true,
			Created:         created,
			Updated:         created,
			Expires:         &expires,
			RecoveryLevel:   secretsDomain.RecoveryLevelRecoverablePurgeable,
			RecoverableDays: 90,
		},
	}
}

func TestMapSecretToBundle(t *testing.T) {
	data, err := json.Marshal(MapSecretToBundle(testSecret()))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"value": "s3cr3t",
		"id": "https://localhost:13000/secrets/db-pass/0123456789abcdef0123456789abcdef",
		"contentType": "text/plain",
		"tags": {"env": "dev"},
		"attributes": {
			"enabled": true,
			"exp": 1715416200,
			"created": 1715329800,
			"updated": 1715329800,
			"recoveryLevel": "Recoverable+Purgeable",
			"recoverableDays": 90
		}
	}`, string(data))
}

func TestMapDeletedSecretToBundle(t *testing.T) {
	deletedDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	deleted := &secretsDomain.DeletedSecret{
		Secret: *testSecret(),
		DeletionProperties: secretsDomain.DeletionProperties{
			DeletedDate:        deletedDate,
			ScheduledPurgeDate: deletedDate.AddDate(0, 0, 90),
			RecoveryID:         "https://localhost:13000/deletedsecrets/db-pass",
		},
	}

	bundle := MapDeletedSecretToBundle(deleted)

	assert.Equal(t, "s3cr3t", bundle.Value)
	assert.Equal(t, "https://localhost:13000/deletedsecrets/db-pass", bundle.RecoveryID)
	assert.Equal(t, deletedDate.Unix(), bundle.DeletedDate)
	assert.Equal(t, deletedDate.AddDate(0, 0, 90).Unix(), bundle.ScheduledPurgeDate)

	item := MapDeletedSecretToItem(deleted)
	assert.Equal(t, "https://localhost:13000/secrets/db-pass", item.ID)
	assert.Equal(t, bundle.DeletionInfo, item.DeletionInfo)
}

func TestMapSecretPage(t *testing.T) {
	next := "https://localhost:13000/secrets?api-version=7.4&$skiptoken=tok"
	page := &secretsDomain.SecretPage{Secrets: []*secretsDomain.Secret{testSecret()}}

	t.Run("SecretListingDropsVersion", func(t *testing.T) {
		result := MapSecretPage(page, false, &next)
		require.Len(t, result.Value, 1)
		assert.Equal(t, "https://localhost:13000/secrets/db-pass", result.Value[0].ID)
		assert.Equal(t, &next, result.NextLink)
	})

	t.Run("VersionListingKeepsVersion", func(t *testing.T) {
		result := MapSecretPage(page, true, nil)
		require.Len(t, result.Value, 1)
		assert.Equal(t, testSecret().ID, result.Value[0].ID)
	})

	t.Run("EmptyPageSerializesNullLink", func(t *testing.T) {
		data, err := json.Marshal(MapSecretPage(&secretsDomain.SecretPage{}, false, nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"value":[],"nextLink":null}`, string(data))
	})
}

func TestMapDeletedSecretPage(t *testing.T) {
	data, err := json.Marshal(MapDeletedSecretPage(&secretsDomain.DeletedSecretPage{}, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":[],"nextLink":null}`, string(data))
}
