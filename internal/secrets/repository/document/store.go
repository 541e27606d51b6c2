// Package document implements the secret store on an in-process document index
// persisted as a JSON snapshot file.
//
// Live and deleted secrets are kept in two ordered maps keyed by the lower-cased
// secret name; each secret keeps its versions in an ordered map keyed by the
// lower-cased version id. Every operation runs as one critical section, and the
// snapshot is written to disk on a fixed interval and on Close.
package document

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/allisson/volt/internal/errors"
	"github.com/allisson/volt/internal/pagination"
	"github.com/allisson/volt/internal/requestctx"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

// DefaultFileName is the snapshot file created inside the store location.
const DefaultFileName = "__volt_db_secrets__.json"

// DefaultAutosaveInterval is the snapshot flush interval used when none is configured.
const DefaultAutosaveInterval = 5 * time.Second

// Store lifecycle errors.
var (
	// ErrStoreNotOpen indicates an operation on a store that is not initialized or already closed.
	ErrStoreNotOpen = errors.Wrap(errors.ErrUnavailable, "document store is not open")

	// ErrStoreNotClosed indicates a Clean call before Close completed.
	ErrStoreNotClosed = errors.New("document store must be closed before it is cleaned")

	// ErrVersionExists indicates a SetSecret call reusing an existing version id.
	ErrVersionExists = errors.Wrap(errors.ErrConflict, "secret version already exists")
)

// Sealer encrypts and decrypts the persisted snapshot.
type Sealer interface {
	Seal(ctx context.Context, plaintext []byte) ([]byte, error)
	Open(ctx context.Context, sealed []byte) ([]byte, error)
}

// Config holds document store settings.
type Config struct {
	// Path is the snapshot file path.
	Path string
	// AutosaveInterval controls periodic flushing; zero or negative disables it.
	AutosaveInterval time.Duration
	// Sealer optionally encrypts the snapshot at rest.
	Sealer Sealer
	// OnAutosaveError receives errors from background flushes.
	OnAutosaveError func(error)
}

type storeState int

const (
	stateNew storeState = iota
	stateOpen
	stateClosed
)

// secretRecord is a secret with all of its versions.
type secretRecord struct {
	id   int64
	name string
	// versions maps the lower-cased version id to *secretsDomain.Secret.
	versions *treemap.Map
	deletion *secretsDomain.DeletionProperties
}

func newSecretRecord(id int64, name string) *secretRecord {
	return &secretRecord{id: id, name: name, versions: treemap.NewWithStringComparator()}
}

// latest returns the most recently created version.
func (r *secretRecord) latest() *secretsDomain.Secret {
	var newest *secretsDomain.Secret
	it := r.versions.Iterator()
	for it.Next() {
		version := it.Value().(*secretsDomain.Secret)
		if newest == nil || version.IsNewerThan(newest) {
			newest = version
		}
	}
	return newest
}

func (r *secretRecord) version(version string) (*secretsDomain.Secret, bool) {
	value, found := r.versions.Get(strings.ToLower(version))
	if !found {
		return nil, false
	}
	return value.(*secretsDomain.Secret), true
}

// Store is the document backed secret store.
type Store struct {
	config Config

	mu       sync.RWMutex
	state    storeState
	live     *treemap.Map
	deleted  *treemap.Map
	sequence int64
	dirty    bool

	flushMu sync.Mutex
	stop    chan struct{}
	done    chan struct{}
}

// New creates a document store. Init must be called before use.
func New(config Config) *Store {
	return &Store{
		config:  config,
		live:    treemap.NewWithStringComparator(),
		deleted: treemap.NewWithStringComparator(),
	}
}

func key(name string) string {
	return strings.ToLower(name)
}

func (s *Store) nextSequence() int64 {
	s.sequence++
	return s.sequence
}

func (s *Store) checkOpen() error {
	if s.state != stateOpen {
		return ErrStoreNotOpen
	}
	return nil
}

func (s *Store) liveRecord(name string) (*secretRecord, bool) {
	value, found := s.live.Get(key(name))
	if !found {
		return nil, false
	}
	return value.(*secretRecord), true
}

func (s *Store) deletedRecord(name string) (*secretRecord, bool) {
	value, found := s.deleted.Get(key(name))
	if !found {
		return nil, false
	}
	return value.(*secretRecord), true
}

// view returns a copy of version reported under the record's display name.
func (r *secretRecord) view(version *secretsDomain.Secret) *secretsDomain.Secret {
	clone := version.Clone()
	clone.Name = r.name
	return clone
}

func (r *secretRecord) deletedView() *secretsDomain.DeletedSecret {
	deleted := &secretsDomain.DeletedSecret{Secret: *r.view(r.latest())}
	if r.deletion != nil {
		deleted.DeletionProperties = *r.deletion
	}
	return deleted
}

// SecretExists reports whether a live secret with the name exists.
func (s *Store) SecretExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkOpen(); err != nil {
		return false, err
	}

	_, found := s.liveRecord(name)
	return found, nil
}

// DeletedSecretExists reports whether a deleted secret with the name exists.
func (s *Store) DeletedSecretExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkOpen(); err != nil {
		return false, err
	}

	_, found := s.deletedRecord(name)
	return found, nil
}

// SetSecret appends a new version, creating the secret record on first use.
func (s *Store) SetSecret(ctx context.Context, secret *secretsDomain.Secret) (*secretsDomain.Secret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	record, found := s.liveRecord(secret.Name)
	if found {
		if _, exists := record.version(secret.Version); exists {
			return nil, ErrVersionExists
		}
	} else {
		record = newSecretRecord(s.nextSequence(), secret.Name)
		s.live.Put(key(secret.Name), record)
	}

	version := secret.Clone()
	version.Name = record.name
	version.Sequence = s.nextSequence()
	record.versions.Put(strings.ToLower(version.Version), version)
	s.dirty = true

	return record.view(version), nil
}

// UpdateSecret applies a partial update to the given version, or to the latest one.
func (s *Store) UpdateSecret(ctx context.Context, update *secretsDomain.SecretUpdate) (*secretsDomain.Secret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	requestID := requestctx.RequestID(ctx)
	record, found := s.liveRecord(update.Name)
	if !found {
		return nil, secretsDomain.NewSecretNotFoundError(requestID, update.Name, update.Version)
	}

	var target *secretsDomain.Secret
	if update.Version == "" {
		target = record.latest()
	} else {
		target, found = record.version(update.Version)
		if !found {
			return nil, secretsDomain.NewSecretNotFoundError(requestID, update.Name, update.Version)
		}
	}

	target.Apply(update)
	s.dirty = true

	return record.view(target), nil
}

// GetSecret returns the given version, or the latest one when version is empty.
// A disabled target is refused even when older versions are enabled.
func (s *Store) GetSecret(ctx context.Context, name, version string) (*secretsDomain.Secret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	requestID := requestctx.RequestID(ctx)
	record, found := s.liveRecord(name)
	if !found {
		return nil, secretsDomain.NewSecretNotFoundError(requestID, name, version)
	}

	var target *secretsDomain.Secret
	if version == "" {
		target = record.latest()
	} else {
		target, found = record.version(version)
		if !found {
			return nil, secretsDomain.NewSecretNotFoundError(requestID, name, version)
		}
	}

	if !target.Attributes.Enabled {
		return nil, secretsDomain.NewSecretDisabledError(requestID)
	}

	return record.view(target), nil
}

// page collects up to maxResults records from m starting at the given key.
// When more records exist the first record of the next page is returned too.
func page(m *treemap.Map, start string, maxResults int) ([]*secretRecord, *secretRecord) {
	records := make([]*secretRecord, 0, maxResults)
	it := m.Iterator()
	for it.Next() {
		if it.Key().(string) < start {
			continue
		}
		record := it.Value().(*secretRecord)
		if len(records) == maxResults {
			return records, record
		}
		records = append(records, record)
	}
	return records, nil
}

func markerName(marker *pagination.Marker) string {
	if marker == nil {
		return ""
	}
	return key(marker.Identifier.Name)
}

// GetSecrets lists the latest version of each live secret by ascending name.
func (s *Store) GetSecrets(
	ctx context.Context,
	maxResults int,
	marker *pagination.Marker,
) ([]*secretsDomain.Secret, *pagination.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkOpen(); err != nil {
		return nil, nil, err
	}

	records, next := page(s.live, markerName(marker), maxResults)

	secrets := make([]*secretsDomain.Secret, 0, len(records))
	for _, record := range records {
		secrets = append(secrets, record.view(record.latest()))
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
func (s *Store) GetSecretVersions(
	ctx context.Context,
	name string,
	maxResults int,
	marker *pagination.Marker,
) ([]*secretsDomain.Secret, *pagination.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkOpen(); err != nil {
		return nil, nil, err
	}

	record, found := s.liveRecord(name)
	if !found {
		return nil, nil, secretsDomain.NewSecretNotFoundError(requestctx.RequestID(ctx), name, "")
	}

	start := ""
	if marker != nil {
		start = strings.ToLower(marker.Identifier.Version)
	}

	versions := make([]*secretsDomain.Secret, 0, maxResults)
	var nextMarker *pagination.Marker

	it := record.versions.Iterator()
	for it.Next() {
		if it.Key().(string) < start {
			continue
		}
		version := it.Value().(*secretsDomain.Secret)
		if len(versions) == maxResults {
			nextMarker = &pagination.Marker{
				Index: version.Sequence,
				Identifier: pagination.ItemIdentifier{
					Collection: pagination.CollectionSecret,
					Name:       record.name,
					Version:    version.Version,
				},
			}
			break
		}
		versions = append(versions, record.view(version))
	}

	return versions, nextMarker, nil
}

// DeleteSecret removes a live secret and, unless disableSoftDelete is set, parks it
// with all of its versions in the deleted namespace.
func (s *Store) DeleteSecret(
	ctx context.Context,
	name string,
	properties secretsDomain.DeletionProperties,
	disableSoftDelete bool,
) (*secretsDomain.DeletedSecret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	requestID := requestctx.RequestID(ctx)
	record, found := s.liveRecord(name)
	if !found {
		return nil, secretsDomain.NewSecretNotFoundError(requestID, name, "")
	}
	// Live and deleted indexes are separate, so the name can exist in both until this check.
	if !disableSoftDelete {
		if _, exists := s.deletedRecord(name); exists {
			return nil, secretsDomain.NewSecretInDeletedStateError(requestID, record.name)
		}
	}

	s.live.Remove(key(name))
	properties = properties.ForName(name, record.name)
	record.deletion = &properties
	if !disableSoftDelete {
		s.deleted.Put(key(name), record)
	}
	s.dirty = true

	return record.deletedView(), nil
}

// GetDeletedSecret returns the latest version of a deleted secret with its deletion properties.
func (s *Store) GetDeletedSecret(ctx context.Context, name string) (*secretsDomain.DeletedSecret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	requestID := requestctx.RequestID(ctx)
	record, found := s.deletedRecord(name)
	if !found {
		return nil, secretsDomain.NewDeletedSecretNotFoundError(requestID, name)
	}

	deleted := record.deletedView()
	if !deleted.Attributes.Enabled {
		return nil, secretsDomain.NewSecretDisabledError(requestID)
	}

	return deleted, nil
}

// GetDeletedSecrets lists deleted secrets by ascending name.
func (s *Store) GetDeletedSecrets(
	ctx context.Context,
	maxResults int,
	marker *pagination.Marker,
) ([]*secretsDomain.DeletedSecret, *pagination.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkOpen(); err != nil {
		return nil, nil, err
	}

	records, next := page(s.deleted, markerName(marker), maxResults)

	deleted := make([]*secretsDomain.DeletedSecret, 0, len(records))
	for _, record := range records {
		deleted = append(deleted, record.deletedView())
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
func (s *Store) PurgeDeletedSecret(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return err
	}

	if _, found := s.deletedRecord(name); !found {
		return secretsDomain.NewDeletedSecretNotFoundError(requestctx.RequestID(ctx), name)
	}

	s.deleted.Remove(key(name))
	s.dirty = true

	return nil
}

// RecoverDeletedSecret moves a deleted secret back to the live namespace.
func (s *Store) RecoverDeletedSecret(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	requestID := requestctx.RequestID(ctx)
	record, found := s.deletedRecord(name)
	if !found {
		return nil, secretsDomain.NewDeletedSecretNotFoundError(requestID, name)
	}
	if _, exists := s.liveRecord(name); exists {
		return nil, secretsDomain.NewSecretAlreadyExistsError(requestID, record.name)
	}

	s.deleted.Remove(key(name))
	record.deletion = nil
	s.live.Put(key(name), record)
	s.dirty = true

	return record.view(record.latest()), nil
}

// PurgeExpiredDeletedSecrets purges deleted secrets scheduled for purge at or before the given instant.
func (s *Store) PurgeExpiredDeletedSecrets(ctx context.Context, before time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var expired []*secretRecord
	it := s.deleted.Iterator()
	for it.Next() {
		record := it.Value().(*secretRecord)
		if record.deletion != nil && !record.deletion.ScheduledPurgeDate.After(before) {
			expired = append(expired, record)
		}
	}

	names := make([]string, 0, len(expired))
	for _, record := range expired {
		s.deleted.Remove(key(record.name))
		names = append(names, record.name)
	}
	if len(names) > 0 {
		s.dirty = true
	}

	return names, nil
}
