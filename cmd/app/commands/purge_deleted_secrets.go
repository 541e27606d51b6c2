package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/volt/internal/metrics"
	secretsUseCase "github.com/allisson/volt/internal/secrets/usecase"
)

// RunPurgeDeletedSecrets purges the deleted secrets whose scheduled purge date has passed.
// Supports dry-run mode to preview the purge and both text/JSON output formats.
//
// Requirements: the store must be initialized.
func RunPurgeDeletedSecrets(
	ctx context.Context,
	useCase secretsUseCase.SecretUseCase,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
	out io.Writer,
	dryRun bool,
	format string,
) error {
	logger.Info("purging expired deleted secrets", slog.Bool("dry_run", dryRun))

	names, err := useCase.PurgeExpiredDeletedSecrets(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("failed to purge deleted secrets: %w", err)
	}

	if !dryRun && len(names) > 0 {
		businessMetrics.RecordPurged(ctx, len(names), metrics.PurgeTriggerCLI)
	}

	if format == "json" {
		if err := writeJSON(out, map[string]any{
			"count":   len(names),
			"dry_run": dryRun,
			"names":   names,
		}); err != nil {
			return err
		}
	} else {
		outputPurgeText(out, names, dryRun)
	}

	logger.Info("purge completed",
		slog.Int("count", len(names)),
		slog.Bool("dry_run", dryRun),
	)

	return nil
}

// outputPurgeText outputs the result in human-readable text format.
func outputPurgeText(out io.Writer, names []string, dryRun bool) {
	if dryRun {
		_, _ = fmt.Fprintf(out, "Dry-run mode: Would purge %d deleted secret(s)\n", len(names))
	} else {
		_, _ = fmt.Fprintf(out, "Successfully purged %d deleted secret(s)\n", len(names))
	}
	for _, name := range names {
		_, _ = fmt.Fprintf(out, "  - %s\n", name)
	}
}
