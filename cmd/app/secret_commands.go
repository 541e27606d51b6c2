package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/volt/cmd/app/commands"
	"github.com/allisson/volt/internal/app"
	"github.com/allisson/volt/internal/config"
	secretsUseCase "github.com/allisson/volt/internal/secrets/usecase"
)

func getSecretCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "import-secrets",
			Usage: "Seed the store with the secrets of a YAML file",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "file",
					Aliases:  []string{"f"},
					Required: true,
					Usage:    "YAML seed file",
				},
				&cli.StringFlag{
					Name:  "format",
					Value: "text",
					Usage: "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				file, err := os.Open(cmd.String("file"))
				if err != nil {
					return fmt.Errorf("failed to open seed file: %w", err)
				}
				defer func() { _ = file.Close() }()

				container := app.NewContainer(config.Load())
				defer commands.CloseContainer(container, container.Logger())

				useCase, err := openSecretUseCase(ctx, container)
				if err != nil {
					return err
				}

				return commands.RunImportSecrets(
					ctx,
					useCase,
					container.Logger(),
					commands.IOTuple{Reader: file, Writer: commands.DefaultIO().Writer},
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "purge-deleted-secrets",
			Usage: "Purge deleted secrets whose scheduled purge date has passed",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show which secrets would be purged without purging",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer commands.CloseContainer(container, container.Logger())

				useCase, err := openSecretUseCase(ctx, container)
				if err != nil {
					return err
				}

				businessMetrics, err := container.BusinessMetrics()
				if err != nil {
					return err
				}

				return commands.RunPurgeDeletedSecrets(
					ctx,
					useCase,
					businessMetrics,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
	}
}

// openSecretUseCase validates the configuration, initializes the store and returns the secret use case.
func openSecretUseCase(ctx context.Context, container *app.Container) (secretsUseCase.SecretUseCase, error) {
	if err := container.Config().Validate(); err != nil {
		return nil, err
	}

	store, err := container.Store(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	return container.SecretUseCase(ctx)
}
