package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
	secretsUseCase "github.com/allisson/volt/internal/secrets/usecase"
)

// SeedFile is the YAML document read by import-secrets.
//
//	secrets:
//	  - name: db-password
//	    value: s3cr3t
//	    contentType: text/plain
//	    tags: {env: dev}
//	    expires: 2030-01-01T00:00:00Z
type SeedFile struct {
	Secrets []SeedSecret `yaml:"secrets"`
}

// SeedSecret is one secret version of a seed file.
type SeedSecret struct {
	Name        string            `yaml:"name"`
	Value       string            `yaml:"value"`
	ContentType string            `yaml:"contentType"`
	Tags        map[string]string `yaml:"tags"`
	Enabled     *bool             `yaml:"enabled"`
	Expires     *time.Time        `yaml:"expires"`
	NotBefore   *time.Time        `yaml:"notBefore"`
}

// ParseSeedFile decodes a seed file, rejecting unknown fields.
func ParseSeedFile(in io.Reader) (*SeedFile, error) {
	decoder := yaml.NewDecoder(in)
	decoder.KnownFields(true)

	var seed SeedFile
	if err := decoder.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed file is empty")
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// RunImportSecrets sets every secret of a YAML seed file, in file order. A secret listed
// more than once gets one version per entry, the last entry being the latest.
//
// Requirements: the store must be initialized.
func RunImportSecrets(
	ctx context.Context,
	useCase secretsUseCase.SecretUseCase,
	logger *slog.Logger,
	stdio IOTuple,
	format string,
) error {
	seed, err := ParseSeedFile(stdio.Reader)
	if err != nil {
		return err
	}

	logger.Info("importing secrets", slog.Int("count", len(seed.Secrets)))

	imported := make([]string, 0, len(seed.Secrets))
	for i, entry := range seed.Secrets {
		secret, err := useCase.SetSecret(ctx, &secretsDomain.SetSecretParams{
			Name:        entry.Name,
			Value:       entry.Value,
			ContentType: entry.ContentType,
			Tags:        entry.Tags,
			Enabled:     entry.Enabled,
			Expires:     entry.Expires,
			NotBefore:   entry.NotBefore,
		})
		if err != nil {
			return fmt.Errorf("failed to import secret %d (%s): %w", i+1, entry.Name, err)
		}
		imported = append(imported, secret.Name+"/"+secret.Version)
	}

	if format == "json" {
		if err := writeJSON(stdio.Writer, map[string]any{
			"count":   len(imported),
			"secrets": imported,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(stdio.Writer, "Successfully imported %d secret(s)\n", len(imported))
		for _, ref := range imported {
			_, _ = fmt.Fprintf(stdio.Writer, "  - %s\n", ref)
		}
	}

	logger.Info("import completed", slog.Int("count", len(imported)))
	return nil
}
