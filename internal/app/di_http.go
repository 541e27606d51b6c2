package app

import (
	"context"
	"fmt"

	authDomain "github.com/allisson/volt/internal/auth/domain"
	authService "github.com/allisson/volt/internal/auth/service"
	"github.com/allisson/volt/internal/http"
)

// HTTPServer returns the vault HTTP server with its router set up.
// ctx bounds the background work of the router middleware.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus scrape server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	store, err := c.Store(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get store for http server: %w", err)
	}

	secretHandler, err := c.SecretHandler(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get secret handler for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	opts := http.RouterOptions{
		AccessLogEnabled:        c.config.AccessLogEnabled,
		SkipAPIVersionCheck:     c.config.SkipAPIVersionCheck,
		OAuthLevel:              authDomain.OAuthLevel(c.config.OAuthLevel),
		TokenValidator:          authService.NewBasicTokenValidator(),
		CORSEnabled:             c.config.CORSEnabled,
		CORSAllowOrigins:        c.config.CORSAllowOrigins,
		RateLimitEnabled:        c.config.RateLimitEnabled,
		RateLimitRequestsPerSec: c.config.RateLimitRequestsPerSec,
		RateLimitBurst:          c.config.RateLimitBurst,
		MetricsNamespace:        c.config.MetricsNamespace,
	}
	if provider != nil {
		opts.MeterProvider = provider.MeterProvider()
	}

	server := http.NewServer(store, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(ctx, secretHandler, opts)

	if c.config.TLSEnabled() {
		tlsConfig, err := http.LoadTLSConfig(c.config.TLSCertFile, c.config.TLSKeyFile, c.config.TLSPFXPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to load tls config for http server: %w", err)
		}
		server.SetTLSConfig(tlsConfig)
	}

	return server, nil
}

// initMetricsServer creates the metrics server on the configured metrics port.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
