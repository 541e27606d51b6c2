package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	secretsUseCase "github.com/allisson/volt/internal/secrets/usecase"
)

// RunMigrations opens the store, which applies pending SQL migrations. The document
// store has no schema and only loads its snapshot.
func RunMigrations(ctx context.Context, store secretsUseCase.Store, logger *slog.Logger, driver string) error {
	logger.Info("running store migrations", slog.String("driver", driver))

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully")
	return nil
}

// RunCleanStore closes the store and deletes its backing storage: the snapshot file,
// the SQLite file, or every migrated table.
func RunCleanStore(ctx context.Context, store secretsUseCase.Store, logger *slog.Logger, out io.Writer) error {
	logger.Info("cleaning store")

	if err := store.Close(ctx); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	if err := store.Clean(ctx); err != nil {
		return fmt.Errorf("failed to clean store: %w", err)
	}

	_, _ = fmt.Fprintln(out, "Store cleaned successfully")
	logger.Info("store cleaned")
	return nil
}
