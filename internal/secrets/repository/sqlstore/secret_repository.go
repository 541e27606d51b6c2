// Package sqlstore implements the secret store on PostgreSQL, MySQL and SQLite.
//
// A secret is a row in the secrets table; a non-null deleted_at moves it to the
// deleted namespace. Versions live in secret_versions and their auto-increment id
// breaks ties between versions created in the same millisecond. Names and versions
// are matched through lower-cased key columns compared with binary collation.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/allisson/volt/internal/database"
	apperrors "github.com/allisson/volt/internal/errors"
	"github.com/allisson/volt/internal/pagination"
	"github.com/allisson/volt/internal/requestctx"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

const versionColumns = `id, version, value, content_type, tags, enabled, created_at, updated_at, expires_at, not_before`

const (
	querySelectSecret = `SELECT id, name, deleted_at, scheduled_purge_at, recovery_id FROM secrets WHERE name_key = ?`

	queryInsertSecret = `INSERT INTO secrets (name, name_key) VALUES (?, ?)`

	queryInsertVersion = `INSERT INTO secret_versions ` +
		`(secret_id, version, value, content_type, tags, enabled, created_at, updated_at, expires_at, not_before) ` +
		`VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryCountVersion = `SELECT COUNT(*) FROM secret_versions WHERE secret_id = ? AND version = ?`

	querySelectLatestVersion = `SELECT ` + versionColumns + ` FROM secret_versions ` +
		`WHERE secret_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`

	querySelectVersion = `SELECT ` + versionColumns + ` FROM secret_versions WHERE secret_id = ? AND version = ?`

	queryListVersions = `SELECT ` + versionColumns + ` FROM secret_versions ` +
		`WHERE secret_id = ? AND version >= ? ORDER BY version LIMIT ?`

	queryUpdateVersion = `UPDATE secret_versions ` +
		`SET content_type = ?, tags = ?, enabled = ?, updated_at = ?, expires_at = ?, not_before = ? WHERE id = ?`

	queryListLiveSecrets = `SELECT id, name, deleted_at, scheduled_purge_at, recovery_id FROM secrets ` +
		`WHERE deleted_at IS NULL AND name_key >= ? ORDER BY name_key LIMIT ?`

	queryListDeletedSecrets = `SELECT id, name, deleted_at, scheduled_purge_at, recovery_id FROM secrets ` +
		`WHERE deleted_at IS NOT NULL AND name_key >= ? ORDER BY name_key LIMIT ?`

	querySelectExpiredSecrets = `SELECT id, name, deleted_at, scheduled_purge_at, recovery_id FROM secrets ` +
		`WHERE deleted_at IS NOT NULL AND scheduled_purge_at <= ?`

	queryMarkDeleted = `UPDATE secrets SET deleted_at = ?, scheduled_purge_at = ?, recovery_id = ? WHERE id = ?`

	queryMarkRecovered = `UPDATE secrets SET deleted_at = NULL, scheduled_purge_at = NULL, recovery_id = NULL WHERE id = ?`

	queryDeleteVersions = `DELETE FROM secret_versions WHERE secret_id = ?`

	queryDeleteSecret = `DELETE FROM secrets WHERE id = ?`
)

// secretRow is a row of the secrets table.
type secretRow struct {
	id               int64
	name             string
	deletedAt        sql.NullInt64
	scheduledPurgeAt sql.NullInt64
	recoveryID       sql.NullString
}

func (r *secretRow) deleted() bool {
	return r.deletedAt.Valid
}

func (r *secretRow) deletionProperties() secretsDomain.DeletionProperties {
	return secretsDomain.DeletionProperties{
		DeletedDate:        fromMillis(r.deletedAt.Int64),
		ScheduledPurgeDate: fromMillis(r.scheduledPurgeAt.Int64),
		RecoveryID:         r.recoveryID.String,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// SecretRepository implements the secret store on a SQL database.
type SecretRepository struct {
	db        *sql.DB
	dialect   Dialect
	txManager database.TxManager
}

// NewSecretRepository creates a SQL secret repository for the given dialect.
func NewSecretRepository(db *sql.DB, dialect Dialect) *SecretRepository {
	return &SecretRepository{
		db:        db,
		dialect:   dialect,
		txManager: database.NewTxManager(db),
	}
}

func key(value string) string {
	return strings.ToLower(value)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func timePtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

func encodeTags(tags map[string]string) (string, error) {
	if tags == nil {
		return "{}", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode tags")
	}
	return string(data), nil
}

func scanSecretRow(scanner rowScanner) (*secretRow, error) {
	var row secretRow
	err := scanner.Scan(&row.id, &row.name, &row.deletedAt, &row.scheduledPurgeAt, &row.recoveryID)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func scanVersion(scanner rowScanner, name string) (*secretsDomain.Secret, error) {
	var (
		secret    secretsDomain.Secret
		tags      string
		createdAt int64
		updatedAt int64
		expiresAt sql.NullInt64
		notBefore sql.NullInt64
	)

	err := scanner.Scan(
		&secret.Sequence,
		&secret.Version,
		&secret.Value,
		&secret.ContentType,
		&tags,
		&secret.Attributes.Enabled,
		&createdAt,
		&updatedAt,
		&expiresAt,
		&notBefore,
	)
	if err != nil {
		return nil, err
	}

	if tags != "" && tags != "{}" {
		if err := json.Unmarshal([]byte(tags), &secret.Tags); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode tags")
		}
	}

	secret.Name = name
	secret.Attributes.Created = fromMillis(createdAt)
	secret.Attributes.Updated = fromMillis(updatedAt)
	secret.Attributes.Expires = timePtr(expiresAt)
	secret.Attributes.NotBefore = timePtr(notBefore)

	return &secret, nil
}

// findSecret returns the row for name, or nil when no row exists.
func (r *SecretRepository) findSecret(ctx context.Context, name string) (*secretRow, error) {
	querier := database.GetTx(ctx, r.db)
	row, err := scanSecretRow(r.dialect.queryRow(ctx, querier, querySelectSecret, key(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get secret")
	}
	return row, nil
}

func (r *SecretRepository) findLive(ctx context.Context, name string) (*secretRow, error) {
	row, err := r.findSecret(ctx, name)
	if err != nil || row == nil || row.deleted() {
		return nil, err
	}
	return row, nil
}

func (r *SecretRepository) findDeleted(ctx context.Context, name string) (*secretRow, error) {
	row, err := r.findSecret(ctx, name)
	if err != nil || row == nil || !row.deleted() {
		return nil, err
	}
	return row, nil
}

func (r *SecretRepository) latestVersion(ctx context.Context, row *secretRow) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, r.db)
	secret, err := scanVersion(r.dialect.queryRow(ctx, querier, querySelectLatestVersion, row.id), row.name)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get latest secret version")
	}
	return secret, nil
}

// version returns the given version of the secret, or nil when it does not exist.
func (r *SecretRepository) version(ctx context.Context, row *secretRow, version string) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, r.db)
	secret, err := scanVersion(r.dialect.queryRow(ctx, querier, querySelectVersion, row.id, key(version)), row.name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get secret version")
	}
	return secret, nil
}

// SecretExists reports whether a live secret with the name exists.
func (r *SecretRepository) SecretExists(ctx context.Context, name string) (bool, error) {
	row, err := r.findLive(ctx, name)
	return row != nil, err
}

// DeletedSecretExists reports whether a deleted secret with the name exists.
func (r *SecretRepository) DeletedSecretExists(ctx context.Context, name string) (bool, error) {
	row, err := r.findDeleted(ctx, name)
	return row != nil, err
}

// SetSecret appends a new version, creating the secret row on first use.
func (r *SecretRepository) SetSecret(ctx context.Context, secret *secretsDomain.Secret) (*secretsDomain.Secret, error) {
	tags, err := encodeTags(secret.Tags)
	if err != nil {
		return nil, err
	}

	var stored *secretsDomain.Secret
	err = r.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, r.db)

		row, err := r.findSecret(ctx, secret.Name)
		if err != nil {
			return err
		}
		// One secrets row per name carries deleted_at, so a set on a soft-deleted name would
		// land on the deleted row. The document store keeps separate indexes and checks on delete.
		if row != nil && row.deleted() {
			return secretsDomain.NewSecretInDeletedStateError(requestctx.RequestID(ctx), row.name)
		}

		if row == nil {
			id, err := r.dialect.insertID(ctx, querier, queryInsertSecret, secret.Name, key(secret.Name))
			if err != nil {
				return apperrors.Wrap(err, "failed to create secret")
			}
			row = &secretRow{id: id, name: secret.Name}
		} else {
			var count int
			if err := r.dialect.queryRow(ctx, querier, queryCountVersion, row.id, key(secret.Version)).Scan(&count); err != nil {
				return apperrors.Wrap(err, "failed to check secret version")
			}
			if count > 0 {
				return ErrVersionExists
			}
		}

		sequence, err := r.dialect.insertID(ctx, querier, queryInsertVersion,
			row.id,
			key(secret.Version),
			secret.Value,
			secret.ContentType,
			tags,
			secret.Attributes.Enabled,
			toMillis(secret.Attributes.Created),
			toMillis(secret.Attributes.Updated),
			nullMillis(secret.Attributes.Expires),
			nullMillis(secret.Attributes.NotBefore),
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create secret version")
		}

		stored = secret.Clone()
		stored.Name = row.name
		stored.Version = key(secret.Version)
		stored.Sequence = sequence
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// UpdateSecret applies a partial update to the given version, or to the latest one.
func (r *SecretRepository) UpdateSecret(ctx context.Context, update *secretsDomain.SecretUpdate) (*secretsDomain.Secret, error) {
	var updated *secretsDomain.Secret
	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		requestID := requestctx.RequestID(ctx)

		row, err := r.findLive(ctx, update.Name)
		if err != nil {
			return err
		}
		if row == nil {
			return secretsDomain.NewSecretNotFoundError(requestID, update.Name, update.Version)
		}

		var target *secretsDomain.Secret
		if update.Version == "" {
			target, err = r.latestVersion(ctx, row)
		} else {
			target, err = r.version(ctx, row, update.Version)
		}
		if err != nil {
			return err
		}
		if target == nil {
			return secretsDomain.NewSecretNotFoundError(requestID, update.Name, update.Version)
		}

		target.Apply(update)

		tags, err := encodeTags(target.Tags)
		if err != nil {
			return err
		}

		_, err = r.dialect.exec(ctx, database.GetTx(ctx, r.db), queryUpdateVersion,
			target.ContentType,
			tags,
			target.Attributes.Enabled,
			toMillis(target.Attributes.Updated),
			nullMillis(target.Attributes.Expires),
			nullMillis(target.Attributes.NotBefore),
			target.Sequence,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to update secret version")
		}

		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// GetSecret returns the given version, or the latest one when version is empty.
func (r *SecretRepository) GetSecret(ctx context.Context, name, version string) (*secretsDomain.Secret, error) {
	requestID := requestctx.RequestID(ctx)

	row, err := r.findLive(ctx, name)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, secretsDomain.NewSecretNotFoundError(requestID, name, version)
	}

	var target *secretsDomain.Secret
	if version == "" {
		target, err = r.latestVersion(ctx, row)
	} else {
		target, err = r.version(ctx, row, version)
	}
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, secretsDomain.NewSecretNotFoundError(requestID, name, version)
	}

	if !target.Attributes.Enabled {
		return nil, secretsDomain.NewSecretDisabledError(requestID)
	}

	return target, nil
}

// listRows returns up to maxResults rows starting at marker, plus the first row of the next page.
func (r *SecretRepository) listRows(
	ctx context.Context,
	query string,
	maxResults int,
	marker *pagination.Marker,
) ([]*secretRow, *secretRow, error) {
	start := ""
	if marker != nil {
		start = key(marker.Identifier.Name)
	}

	rows, err := r.dialect.query(ctx, database.GetTx(ctx, r.db), query, start, maxResults+1)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to list secrets")
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*secretRow
	for rows.Next() {
		row, err := scanSecretRow(rows)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to scan secret")
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to iterate secrets")
	}

	if len(result) > maxResults {
		return result[:maxResults], result[maxResults], nil
	}
	return result, nil, nil
}

// GetSecrets lists the latest version of each live secret by ascending name.
func (r *SecretRepository) GetSecrets(
	ctx context.Context,
	maxResults int,
	marker *pagination.Marker,
) ([]*secretsDomain.Secret, *pagination.Marker, error) {
	rows, next, err := r.listRows(ctx, queryListLiveSecrets, maxResults, marker)
	if err != nil {
		return nil, nil, err
	}

	secrets := make([]*secretsDomain.Secret, 0, len(rows))
	for _, row := range rows {
		latest, err := r.latestVersion(ctx, row)
		if err != nil {
			return nil, nil, err
		}
		secrets = append(secrets, latest)
	}

	var nextMarker *pagination.Marker
	if next != nil {
		nextMarker = &pagination.Marker{
			Index:      next.id,
			Identifier: pagination.ItemIdentifier{Collection: pagination.CollectionSecret, Name: next.name},
		}
	}

	return secrets, nextMarker, nil
}

// GetSecretVersions lists the versions of a secret by ascending version id.
func (r *SecretRepository) GetSecretVersions(
	ctx context.Context,
	name string,
	maxResults int,
	marker *pagination.Marker,
) ([]*secretsDomain.Secret, *pagination.Marker, error) {
	row, err := r.findLive(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if row == nil {
		return nil, nil, secretsDomain.NewSecretNotFoundError(requestctx.RequestID(ctx), name, "")
	}

	start := ""
	if marker != nil {
		start = key(marker.Identifier.Version)
	}

	rows, err := r.dialect.query(ctx, database.GetTx(ctx, r.db), queryListVersions, row.id, start, maxResults+1)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to list secret versions")
	}
	defer func() {
		_ = rows.Close()
	}()

	var versions []*secretsDomain.Secret
	for rows.Next() {
		version, err := scanVersion(rows, row.name)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to scan secret version")
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to iterate secret versions")
	}

	if len(versions) <= maxResults {
		return versions, nil, nil
	}

	next := versions[maxResults]
	return versions[:maxResults], &pagination.Marker{
		Index: next.Sequence,
		Identifier: pagination.ItemIdentifier{
			Collection: pagination.CollectionSecret,
			Name:       row.name,
			Version:    next.Version,
		},
	}, nil
}

func (r *SecretRepository) purge(ctx context.Context, id int64) error {
	querier := database.GetTx(ctx, r.db)
	if _, err := r.dialect.exec(ctx, querier, queryDeleteVersions, id); err != nil {
		return apperrors.Wrap(err, "failed to delete secret versions")
	}
	if _, err := r.dialect.exec(ctx, querier, queryDeleteSecret, id); err != nil {
		return apperrors.Wrap(err, "failed to delete secret")
	}
	return nil
}

// DeleteSecret moves a live secret to the deleted namespace, or removes it when
// disableSoftDelete is set.
func (r *SecretRepository) DeleteSecret(
	ctx context.Context,
	name string,
	properties secretsDomain.DeletionProperties,
	disableSoftDelete bool,
) (*secretsDomain.DeletedSecret, error) {
	var deleted *secretsDomain.DeletedSecret
	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		row, err := r.findLive(ctx, name)
		if err != nil {
			return err
		}
		if row == nil {
			return secretsDomain.NewSecretNotFoundError(requestctx.RequestID(ctx), name, "")
		}

		latest, err := r.latestVersion(ctx, row)
		if err != nil {
			return err
		}

		properties = properties.ForName(name, row.name)
		if disableSoftDelete {
			err = r.purge(ctx, row.id)
		} else {
			_, err = r.dialect.exec(ctx, database.GetTx(ctx, r.db), queryMarkDeleted,
				toMillis(properties.DeletedDate),
				toMillis(properties.ScheduledPurgeDate),
				properties.RecoveryID,
				row.id,
			)
			if err != nil {
				err = apperrors.Wrap(err, "failed to mark secret as deleted")
			}
		}
		if err != nil {
			return err
		}

		deleted = &secretsDomain.DeletedSecret{Secret: *latest, DeletionProperties: properties}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// GetDeletedSecret returns the latest version of a deleted secret with its deletion properties.
func (r *SecretRepository) GetDeletedSecret(ctx context.Context, name string) (*secretsDomain.DeletedSecret, error) {
	requestID := requestctx.RequestID(ctx)

	row, err := r.findDeleted(ctx, name)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, secretsDomain.NewDeletedSecretNotFoundError(requestID, name)
	}

	latest, err := r.latestVersion(ctx, row)
	if err != nil {
		return nil, err
	}
	if !latest.Attributes.Enabled {
		return nil, secretsDomain.NewSecretDisabledError(requestID)
	}

	return &secretsDomain.DeletedSecret{Secret: *latest, DeletionProperties: row.deletionProperties()}, nil
}

// GetDeletedSecrets lists deleted secrets by ascending name.
func (r *SecretRepository) GetDeletedSecrets(
	ctx context.Context,
	maxResults int,
	marker *pagination.Marker,
) ([]*secretsDomain.DeletedSecret, *pagination.Marker, error) {
	rows, next, err := r.listRows(ctx, queryListDeletedSecrets, maxResults, marker)
	if err != nil {
		return nil, nil, err
	}

	deleted := make([]*secretsDomain.DeletedSecret, 0, len(rows))
	for _, row := range rows {
		latest, err := r.latestVersion(ctx, row)
		if err != nil {
			return nil, nil, err
		}
		deleted = append(deleted, &secretsDomain.DeletedSecret{
			Secret:             *latest,
			DeletionProperties: row.deletionProperties(),
		})
	}

	var nextMarker *pagination.Marker
	if next != nil {
		nextMarker = &pagination.Marker{
			Index:      next.id,
			Identifier: pagination.ItemIdentifier{Collection: pagination.CollectionDeletedSecret, Name: next.name},
		}
	}

	return deleted, nextMarker, nil
}

// PurgeDeletedSecret permanently removes a deleted secret.
func (r *SecretRepository) PurgeDeletedSecret(ctx context.Context, name string) error {
	return r.txManager.WithTx(ctx, func(ctx context.Context) error {
		row, err := r.findDeleted(ctx, name)
		if err != nil {
			return err
		}
		if row == nil {
			return secretsDomain.NewDeletedSecretNotFoundError(requestctx.RequestID(ctx), name)
		}
		return r.purge(ctx, row.id)
	})
}

// RecoverDeletedSecret moves a deleted secret back to the live namespace.
func (r *SecretRepository) RecoverDeletedSecret(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	var recovered *secretsDomain.Secret
	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		row, err := r.findDeleted(ctx, name)
		if err != nil {
			return err
		}
		if row == nil {
			return secretsDomain.NewDeletedSecretNotFoundError(requestctx.RequestID(ctx), name)
		}

		if _, err := r.dialect.exec(ctx, database.GetTx(ctx, r.db), queryMarkRecovered, row.id); err != nil {
			return apperrors.Wrap(err, "failed to recover secret")
		}

		recovered, err = r.latestVersion(ctx, row)
		return err
	})
	if err != nil {
		return nil, err
	}

	return recovered, nil
}

// PurgeExpiredDeletedSecrets purges deleted secrets scheduled for purge at or before the given instant.
func (r *SecretRepository) PurgeExpiredDeletedSecrets(ctx context.Context, before time.Time) ([]string, error) {
	var names []string
	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		rows, err := r.dialect.query(ctx, database.GetTx(ctx, r.db), querySelectExpiredSecrets, toMillis(before))
		if err != nil {
			return apperrors.Wrap(err, "failed to list expired secrets")
		}

		var expired []*secretRow
		for rows.Next() {
			row, err := scanSecretRow(rows)
			if err != nil {
				_ = rows.Close()
				return apperrors.Wrap(err, "failed to scan secret")
			}
			expired = append(expired, row)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return apperrors.Wrap(err, "failed to iterate expired secrets")
		}
		if err := rows.Close(); err != nil {
			return apperrors.Wrap(err, "failed to close rows")
		}

		names = make([]string, 0, len(expired))
		for _, row := range expired {
			if err := r.purge(ctx, row.id); err != nil {
				return err
			}
			names = append(names, row.name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}
