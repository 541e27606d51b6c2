package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/allisson/volt/internal/config"
	cryptoDomain "github.com/allisson/volt/internal/crypto/domain"
	cryptoService "github.com/allisson/volt/internal/crypto/service"
	"github.com/allisson/volt/internal/database"
	"github.com/allisson/volt/internal/secrets/repository/document"
	"github.com/allisson/volt/internal/secrets/repository/sqlstore"
	secretsUseCase "github.com/allisson/volt/internal/secrets/usecase"
)

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// Store returns the secret store selected by STORE_DRIVER. The store is created but not
// initialized; callers run Init before serving requests. Shutdown closes it.
func (c *Container) Store(ctx context.Context) (secretsUseCase.Store, error) {
	var err error
	c.storeInit.Do(func() {
		c.store, err = c.initStore(ctx)
		if err != nil {
			c.initErrors["store"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["store"]; exists {
		return nil, storedErr
	}
	return c.store, nil
}

// initStore creates the secret store for the configured driver.
func (c *Container) initStore(ctx context.Context) (secretsUseCase.Store, error) {
	switch c.config.StoreDriver {
	case config.StoreDriverDocument, "":
		return c.initDocumentStore(ctx)
	case config.StoreDriverSQLite:
		return c.initSQLStore(sqlstore.SQLite, filepath.Join(c.config.StoreLocation, sqlstore.DefaultSQLiteFileName))
	case config.StoreDriverPostgres:
		return c.initSQLStore(sqlstore.PostgreSQL, c.config.DBConnectionString)
	case config.StoreDriverMySQL:
		return c.initSQLStore(sqlstore.MySQL, c.config.DBConnectionString)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", c.config.StoreDriver)
	}
}

// initDocumentStore creates the snapshot backed store, sealing the snapshot when a KMS key is configured.
func (c *Container) initDocumentStore(ctx context.Context) (secretsUseCase.Store, error) {
	logger := c.Logger()

	storeConfig := document.Config{
		Path:             filepath.Join(c.config.StoreLocation, document.DefaultFileName),
		AutosaveInterval: c.config.StoreAutosaveInterval,
		OnAutosaveError: func(err error) {
			logger.Error("failed to autosave store snapshot", slog.Any("error", err))
		},
	}

	if c.config.StoreKMSKeyURI != "" {
		sealer, err := c.initSnapshotSealer(ctx)
		if err != nil {
			return nil, err
		}
		storeConfig.Sealer = sealer
	}

	return document.New(storeConfig), nil
}

// initSnapshotSealer opens the KMS keeper and builds the snapshot sealer on top of it.
func (c *Container) initSnapshotSealer(ctx context.Context) (*cryptoService.SnapshotSealer, error) {
	algorithm, err := cryptoDomain.ParseAlgorithm(c.config.StoreEncryptionAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to parse store encryption algorithm: %w", err)
	}

	keeper, err := c.KMSService().OpenKeeper(ctx, c.config.StoreKMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open kms keeper for store: %w", err)
	}
	c.keeper = keeper

	return cryptoService.NewSnapshotSealer(keeper, c.AEADManager(), algorithm), nil
}

// initSQLStore creates a SQL store for the given dialect.
func (c *Container) initSQLStore(dialect sqlstore.Dialect, connectionString string) (secretsUseCase.Store, error) {
	store, err := sqlstore.NewStore(sqlstore.Config{
		Dialect: dialect,
		Database: database.Config{
			ConnectionString:   connectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s store: %w", dialect, err)
	}
	return store, nil
}
