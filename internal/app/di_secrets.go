package app

import (
	"context"
	"fmt"

	secretsHTTP "github.com/allisson/volt/internal/secrets/http"
	secretsUseCase "github.com/allisson/volt/internal/secrets/usecase"
	"github.com/allisson/volt/internal/secrets/worker"
)

// SecretUseCase returns the secret use case.
func (c *Container) SecretUseCase(ctx context.Context) (secretsUseCase.SecretUseCase, error) {
	var err error
	c.secretUseCaseInit.Do(func() {
		c.secretUseCase, err = c.initSecretUseCase(ctx)
		if err != nil {
			c.initErrors["secretUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretUseCase"]; exists {
		return nil, storedErr
	}
	return c.secretUseCase, nil
}

// SecretHandler returns the secret HTTP handler.
func (c *Container) SecretHandler(ctx context.Context) (*secretsHTTP.SecretHandler, error) {
	var err error
	c.secretHandlerInit.Do(func() {
		c.secretHandler, err = c.initSecretHandler(ctx)
		if err != nil {
			c.initErrors["secretHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretHandler"]; exists {
		return nil, storedErr
	}
	return c.secretHandler, nil
}

// PurgeWorker returns the expired deleted secret purge worker.
func (c *Container) PurgeWorker(ctx context.Context) (*worker.PurgeWorker, error) {
	var err error
	c.purgeWorkerInit.Do(func() {
		c.purgeWorker, err = c.initPurgeWorker(ctx)
		if err != nil {
			c.initErrors["purgeWorker"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["purgeWorker"]; exists {
		return nil, storedErr
	}
	return c.purgeWorker, nil
}

// initSecretUseCase creates the secret use case on top of the configured store.
func (c *Container) initSecretUseCase(ctx context.Context) (secretsUseCase.SecretUseCase, error) {
	store, err := c.Store(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get store for secret use case: %w", err)
	}

	policy, err := c.config.RecoveryPolicy()
	if err != nil {
		return nil, fmt.Errorf("failed to build recovery policy for secret use case: %w", err)
	}

	baseUseCase := secretsUseCase.NewSecretUseCase(store, policy, c.Logger())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for secret use case: %w", err)
		}
		return secretsUseCase.NewSecretUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initSecretHandler creates the secret HTTP handler with all its dependencies.
func (c *Container) initSecretHandler(ctx context.Context) (*secretsHTTP.SecretHandler, error) {
	useCase, err := c.SecretUseCase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get secret use case for secret handler: %w", err)
	}
	return secretsHTTP.NewSecretHandler(useCase, c.Logger()), nil
}

// initPurgeWorker creates the purge worker with all its dependencies.
func (c *Container) initPurgeWorker(ctx context.Context) (*worker.PurgeWorker, error) {
	useCase, err := c.SecretUseCase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get secret use case for purge worker: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for purge worker: %w", err)
	}

	return worker.NewPurgeWorker(useCase, businessMetrics, c.config.PurgeSchedule, c.Logger()), nil
}
