package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"

	authDomain "github.com/allisson/volt/internal/auth/domain"
	authHTTP "github.com/allisson/volt/internal/auth/http"
	authService "github.com/allisson/volt/internal/auth/service"
	"github.com/allisson/volt/internal/metrics"
	secretsHTTP "github.com/allisson/volt/internal/secrets/http"
)

// Pinger reports whether the secret store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterOptions selects the optional middleware of the vault routes.
type RouterOptions struct {
	AccessLogEnabled    bool
	SkipAPIVersionCheck bool

	OAuthLevel     authDomain.OAuthLevel
	TokenValidator authService.TokenValidator

	CORSEnabled      bool
	CORSAllowOrigins string

	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	// MeterProvider enables HTTP metrics when set.
	MeterProvider    metric.MeterProvider
	MetricsNamespace string
}

// Server represents the vault HTTP server.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
	store  Pinger
}

// NewServer creates a new vault HTTP server. Call SetupRouter before Start.
func NewServer(
	store Pinger,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		logger: logger,
		store:  store,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetTLSConfig makes Start serve HTTPS with the given configuration.
func (s *Server) SetTLSConfig(cfg *tls.Config) {
	s.server.TLSConfig = cfg
}

// SetupRouter builds the gin engine: health routes at the root and the vault routes behind
// the request id, request context, metrics, CORS, rate limit and OAuth middleware.
// ctx bounds background work started by the middleware.
func (s *Server) SetupRouter(
	ctx context.Context,
	secretHandler *secretsHTTP.SecretHandler,
	opts RouterOptions,
) {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.HandleMethodNotAllowed = false

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	if opts.AccessLogEnabled {
		router.Use(CustomLoggerMiddleware(s.logger))
	}
	if opts.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(opts.MeterProvider, opts.MetricsNamespace))
	}
	if corsMiddleware := createCORSMiddleware(opts.CORSEnabled, opts.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	vault := router.Group("/")
	vault.Use(RequestContextMiddleware(opts.SkipAPIVersionCheck, s.logger))
	if opts.RateLimitEnabled {
		vault.Use(RateLimitMiddleware(ctx, opts.RateLimitRequestsPerSec, opts.RateLimitBurst, s.logger))
	}
	if opts.OAuthLevel != "" && opts.OAuthLevel != authDomain.OAuthLevelNone {
		vault.Use(authHTTP.OAuthMiddleware(opts.OAuthLevel, opts.TokenValidator, s.logger))
	}
	secretHandler.RegisterRoutes(vault)

	s.router = router
}

// Handler returns the routed handler, ignoring trailing slashes.
func (s *Server) Handler() http.Handler {
	return StripTrailingSlash(s.router)
}

// healthHandler reports that the process is up.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the secret store answers a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.store == nil || s.store.Ping(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"store": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"store": "ok"},
	})
}

// Start serves HTTP, or HTTPS when a TLS configuration is set, until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.Handler()

	tlsEnabled := s.server.TLSConfig != nil
	s.logger.Info("starting http server",
		slog.String("addr", s.server.Addr),
		slog.Bool("tls_enabled", tlsEnabled))

	var err error
	if tlsEnabled {
		err = s.server.ListenAndServeTLS("", "")
	} else {
		err = s.server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
