package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/volt/cmd/app/commands"
	"github.com/allisson/volt/internal/app"
	"github.com/allisson/volt/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the vault HTTP server",
			Flags: serverFlags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				applyServerFlags(cfg, cmd)

				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container, container.Logger())

				return commands.RunServer(ctx, container, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply the SQL store migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container, container.Logger())

				store, err := container.Store(ctx)
				if err != nil {
					return err
				}

				return commands.RunMigrations(ctx, store, container.Logger(), cfg.StoreDriver)
			},
		},
		{
			Name:  "clean-store",
			Usage: "Close the store and delete its backing storage",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container, container.Logger())

				store, err := container.Store(ctx)
				if err != nil {
					return err
				}

				return commands.RunCleanStore(ctx, store, container.Logger(), commands.DefaultIO().Writer)
			},
		},
	}
}

// serverFlags are the server command flags. A flag that is set overrides its environment variable.
func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "Address to bind (SERVER_HOST)",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "Port to listen on (SERVER_PORT)",
		},
		&cli.StringFlag{
			Name:    "location",
			Aliases: []string{"l"},
			Usage:   "Directory of the store files (STORE_LOCATION)",
		},
		&cli.BoolFlag{
			Name:    "silent",
			Aliases: []string{"s"},
			Usage:   "Disable the access log (ACCESS_LOG_ENABLED=false)",
		},
		&cli.BoolFlag{
			Name:  "skip-api-version-check",
			Usage: "Accept requests without a supported api-version (SKIP_API_VERSION_CHECK)",
		},
		&cli.StringFlag{
			Name:  "oauth",
			Usage: "Bearer token authentication level: none or basic (OAUTH_LEVEL)",
		},
		&cli.StringFlag{
			Name:  "cert",
			Usage: "PEM certificate or PFX bundle (TLS_CERT_FILE)",
		},
		&cli.StringFlag{
			Name:  "key",
			Usage: "PEM private key (TLS_KEY_FILE)",
		},
		&cli.StringFlag{
			Name:  "pwd",
			Usage: "PFX bundle password (TLS_PFX_PASSWORD)",
		},
		&cli.StringFlag{
			Name:  "debug",
			Usage: "Enable debug logging and append every log line to this file (LOG_FILE)",
		},
		&cli.IntFlag{
			Name:  "recoverable-days",
			Usage: "Retention period of deleted secrets, 7 to 90 (RECOVERABLE_DAYS)",
		},
		&cli.BoolFlag{
			Name:  "purge-protection",
			Usage: "Forbid purging deleted secrets (PURGE_PROTECTION)",
		},
		&cli.BoolFlag{
			Name:  "disable-soft-delete",
			Usage: "Remove secrets immediately on delete (DISABLE_SOFT_DELETE)",
		},
		&cli.BoolFlag{
			Name:  "protected-subscription",
			Usage: "Report the subscription as protected (PROTECTED_SUBSCRIPTION)",
		},
	}
}

// applyServerFlags overrides cfg with the flags set on cmd.
func applyServerFlags(cfg *config.Config, cmd *cli.Command) {
	if cmd.IsSet("host") {
		cfg.ServerHost = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.ServerPort = int(cmd.Int("port"))
	}
	if cmd.IsSet("location") {
		cfg.StoreLocation = cmd.String("location")
	}
	if cmd.IsSet("silent") {
		cfg.AccessLogEnabled = !cmd.Bool("silent")
	}
	if cmd.IsSet("skip-api-version-check") {
		cfg.SkipAPIVersionCheck = cmd.Bool("skip-api-version-check")
	}
	if cmd.IsSet("oauth") {
		cfg.OAuthLevel = cmd.String("oauth")
	}
	if cmd.IsSet("cert") {
		cfg.TLSCertFile = cmd.String("cert")
	}
	if cmd.IsSet("key") {
		cfg.TLSKeyFile = cmd.String("key")
	}
	if cmd.IsSet("pwd") {
		cfg.TLSPFXPassword = cmd.String("pwd")
	}
	if cmd.IsSet("debug") {
		cfg.LogLevel = "debug"
		cfg.LogFile = cmd.String("debug")
	}
	if cmd.IsSet("recoverable-days") {
		cfg.RecoverableDays = int(cmd.Int("recoverable-days"))
	}
	if cmd.IsSet("purge-protection") {
		cfg.PurgeProtection = cmd.Bool("purge-protection")
	}
	if cmd.IsSet("disable-soft-delete") {
		cfg.DisableSoftDelete = cmd.Bool("disable-soft-delete")
	}
	if cmd.IsSet("protected-subscription") {
		cfg.ProtectedSubscription = cmd.Bool("protected-subscription")
	}
}
