package sqlstore

import (
	"context"
	"os"
	"sync"

	"github.com/allisson/volt/internal/database"
	"github.com/allisson/volt/internal/errors"
)

// DefaultSQLiteFileName is the database file created inside the store location.
const DefaultSQLiteFileName = "__volt_db_secrets__.db"

// Store lifecycle errors.
var (
	// ErrStoreNotOpen indicates a store that is not initialized or already closed.
	ErrStoreNotOpen = errors.Wrap(errors.ErrUnavailable, "sql store is not open")

	// ErrStoreNotClosed indicates a Clean call before Close completed.
	ErrStoreNotClosed = errors.New("sql store must be closed before it is cleaned")

	// ErrVersionExists indicates a SetSecret call reusing an existing version id.
	ErrVersionExists = errors.Wrap(errors.ErrConflict, "secret version already exists")
)

// Config holds SQL store settings. Database.Driver is derived from Dialect.
type Config struct {
	Dialect  Dialect
	Database database.Config
}

type storeState int

const (
	stateNew storeState = iota
	stateOpen
	stateClosed
)

// Store is a SecretRepository with a migration managed lifecycle.
type Store struct {
	*SecretRepository

	config Config

	mu    sync.Mutex
	state storeState
}

// NewStore creates the connection pool for a SQL store. Init must be called before use.
func NewStore(config Config) (*Store, error) {
	config.Database.Driver = config.Dialect.String()

	db, err := database.Open(config.Database)
	if err != nil {
		return nil, err
	}

	return &Store{
		SecretRepository: NewSecretRepository(db, config.Dialect),
		config:           config,
	}, nil
}

// Init applies pending migrations and checks connectivity.
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

	if err := database.Migrate(s.config.Database.Driver, s.config.Database.ConnectionString); err != nil {
		return err
	}

	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "failed to ping database")
	}

	s.state = stateOpen
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if state != stateOpen {
		return ErrStoreNotOpen
	}
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(errors.ErrUnavailable, err.Error())
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateClosed {
		return nil
	}
	s.state = stateClosed

	return s.db.Close()
}

// Clean removes the stored secrets. SQLite deletes the database file and the
// other dialects revert every migration. The store must be closed first.
func (s *Store) Clean(ctx context.Context) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if state != stateClosed {
		return ErrStoreNotClosed
	}

	if s.config.Dialect == SQLite {
		err := os.Remove(s.config.Database.ConnectionString)
		if err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "failed to remove sqlite database")
		}
		return nil
	}

	return database.MigrateDown(s.config.Database.Driver, s.config.Database.ConnectionString)
}
