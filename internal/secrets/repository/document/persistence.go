package document

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/volt/internal/errors"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

const snapshotFormat = 1

type snapshot struct {
	Format         int              `json:"format"`
	Sequence       int64            `json:"sequence"`
	Secrets        []snapshotSecret `json:"secrets"`
	DeletedSecrets []snapshotSecret `json:"deleted_secrets"`
}

type snapshotSecret struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Deletion *snapshotDeletion `json:"deletion,omitempty"`
	Versions []snapshotVersion `json:"versions"`
}

type snapshotDeletion struct {
	DeletedDate        time.Time `json:"deleted_date"`
	ScheduledPurgeDate time.Time `json:"scheduled_purge_date"`
	RecoveryID         string    `json:"recovery_id"`
}

type snapshotVersion struct {
	Version     string            `json:"version"`
	Value       string            `json:"value"`
	ContentType string            `json:"content_type,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Enabled     bool              `json:"enabled"`
	Created     time.Time         `json:"created"`
	Updated     time.Time         `json:"updated"`
	Expires     *time.Time        `json:"expires,omitempty"`
	NotBefore   *time.Time        `json:"not_before,omitempty"`
	Sequence    int64             `json:"sequence"`
}

// Init loads the snapshot file, if any, and starts the autosave loop.
// Calling Init on an open store is a no-op.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateOpen:
		return nil
	case stateClosed:
		return ErrStoreNotOpen
	}

	if err := os.MkdirAll(filepath.Dir(s.config.Path), 0o750); err != nil {
		return errors.Wrap(err, "failed to create store location")
	}

	data, err := os.ReadFile(s.config.Path)
	switch {
	case err == nil:
		if err := s.restore(ctx, data); err != nil {
			return err
		}
	case os.IsNotExist(err):
	default:
		return errors.Wrap(err, "failed to read store snapshot")
	}

	s.state = stateOpen
	if s.config.AutosaveInterval > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.autosave(s.stop, s.done)
	}

	return nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkOpen()
}

// Close stops the autosave loop and flushes pending changes.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case stateClosed:
		s.mu.Unlock()
		return nil
	case stateNew:
		s.state = stateClosed
		s.mu.Unlock()
		return nil
	}
	stop, done := s.stop, s.done
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	err := s.Flush(ctx)

	s.mu.Lock()
	s.state = stateClosed
	s.mu.Unlock()

	return err
}

// Clean deletes the snapshot file. The store must be closed first.
func (s *Store) Clean(ctx context.Context) error {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()

	if state != stateClosed {
		return ErrStoreNotClosed
	}

	if err := os.Remove(s.config.Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove store snapshot")
	}
	return nil
}

// Flush writes the snapshot file if the store changed since the last flush.
func (s *Store) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	data, err := json.Marshal(s.snapshot())
	if err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "failed to encode store snapshot")
	}
	s.dirty = false
	s.mu.Unlock()

	if err := s.write(ctx, data); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) autosave(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.AutosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.Flush(context.Background()); err != nil && s.config.OnAutosaveError != nil {
				s.config.OnAutosaveError(err)
			}
		}
	}
}

func (s *Store) write(ctx context.Context, data []byte) error {
	if s.config.Sealer != nil {
		sealed, err := s.config.Sealer.Seal(ctx, data)
		if err != nil {
			return errors.Wrap(err, "failed to seal store snapshot")
		}
		data = sealed
	}

	dir := filepath.Dir(s.config.Path)
	tmp, err := os.CreateTemp(dir, ".volt-snapshot-*")
	if err != nil {
		return errors.Wrap(err, "failed to create snapshot file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to write snapshot file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to sync snapshot file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to close snapshot file")
	}

	if err := os.Rename(tmpName, s.config.Path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to replace snapshot file")
	}
	return nil
}

func (s *Store) restore(ctx context.Context, data []byte) error {
	if s.config.Sealer != nil {
		opened, err := s.config.Sealer.Open(ctx, data)
		if err != nil {
			return errors.Wrap(err, "failed to open store snapshot")
		}
		data = opened
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errors.Wrap(err, "failed to decode store snapshot")
	}
	if snap.Format != snapshotFormat {
		return fmt.Errorf("unsupported store snapshot format %d", snap.Format)
	}

	s.sequence = snap.Sequence
	for _, secret := range snap.Secrets {
		s.live.Put(key(secret.Name), restoreRecord(secret))
	}
	for _, secret := range snap.DeletedSecrets {
		s.deleted.Put(key(secret.Name), restoreRecord(secret))
	}

	return nil
}

// snapshot must be called with s.mu held.
func (s *Store) snapshot() *snapshot {
	snap := &snapshot{
		Format:         snapshotFormat,
		Sequence:       s.sequence,
		Secrets:        make([]snapshotSecret, 0, s.live.Size()),
		DeletedSecrets: make([]snapshotSecret, 0, s.deleted.Size()),
	}

	for _, value := range s.live.Values() {
		snap.Secrets = append(snap.Secrets, snapshotRecord(value.(*secretRecord)))
	}
	for _, value := range s.deleted.Values() {
		snap.DeletedSecrets = append(snap.DeletedSecrets, snapshotRecord(value.(*secretRecord)))
	}

	return snap
}

func snapshotRecord(record *secretRecord) snapshotSecret {
	out := snapshotSecret{
		ID:       record.id,
		Name:     record.name,
		Versions: make([]snapshotVersion, 0, record.versions.Size()),
	}
	if record.deletion != nil {
		out.Deletion = &snapshotDeletion{
			DeletedDate:        record.deletion.DeletedDate,
			ScheduledPurgeDate: record.deletion.ScheduledPurgeDate,
			RecoveryID:         record.deletion.RecoveryID,
		}
	}

	for _, value := range record.versions.Values() {
		version := value.(*secretsDomain.Secret)
		out.Versions = append(out.Versions, snapshotVersion{
			Version:     version.Version,
			Value:       version.Value,
			ContentType: version.ContentType,
			Tags:        version.Tags,
			Enabled:     version.Attributes.Enabled,
			Created:     version.Attributes.Created,
			Updated:     version.Attributes.Updated,
			Expires:     version.Attributes.Expires,
			NotBefore:   version.Attributes.NotBefore,
			Sequence:    version.Sequence,
		})
	}

	return out
}

func restoreRecord(in snapshotSecret) *secretRecord {
	record := newSecretRecord(in.ID, in.Name)
	if in.Deletion != nil {
		record.deletion = &secretsDomain.DeletionProperties{
			DeletedDate:        in.Deletion.DeletedDate,
			ScheduledPurgeDate: in.Deletion.ScheduledPurgeDate,
			RecoveryID:         in.Deletion.RecoveryID,
		}
	}

	for _, version := range in.Versions {
		record.versions.Put(strings.ToLower(version.Version), &secretsDomain.Secret{
			Name:        in.Name,
			Version:     version.Version,
			Value:       version.Value,
			ContentType: version.ContentType,
			Tags:        version.Tags,
			Attributes: secretsDomain.Attributes{
				Enabled:   version.Enabled,
				Created:   version.Created,
				Updated:   version.Updated,
				Expires:   version.Expires,
				NotBefore: version.NotBefore,
			},
			Sequence: version.Sequence,
		})
	}

	return record
}
