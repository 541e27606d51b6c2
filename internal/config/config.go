// Package config provides application configuration through environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"

	apperrors "github.com/allisson/volt/internal/errors"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

// OAuth levels accepted by OAUTH_LEVEL.
const (
	OAuthLevelNone  = "none"
	OAuthLevelBasic = "basic"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverDocument = "document"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMySQL    = "mysql"
)

// Snapshot encryption algorithms accepted by STORE_ENCRYPTION_ALGORITHM.
const (
	EncryptionAESGCM           = "aes-gcm"
	EncryptionChaCha20Poly1305 = "chacha20-poly1305"
)

// ErrInvalidConfig is returned by Validate for settings the server cannot start with.
var ErrInvalidConfig = apperrors.New("invalid configuration")

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int
	// ServerShutdownTimeout bounds the graceful shutdown of the servers.
	ServerShutdownTimeout time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string
	// LogFile, when set, receives a copy of every log line.
	LogFile string
	// AccessLogEnabled toggles the per request access log.
	AccessLogEnabled bool

	// SkipAPIVersionCheck accepts requests without a supported api-version.
	SkipAPIVersionCheck bool
	// OAuthLevel selects bearer token authentication ("none" or "basic").
	OAuthLevel string

	// TLSCertFile is a PEM certificate or a PFX bundle (.pfx, .p12).
	TLSCertFile string
	// TLSKeyFile is the PEM private key; unused with a PFX bundle.
	TLSKeyFile string
	// TLSPFXPassword unlocks the PFX bundle.
	TLSPFXPassword string

	// RecoverableDays is the retention period of deleted secrets.
	RecoverableDays int
	// PurgeProtection forbids purging deleted secrets before their retention period ends.
	PurgeProtection bool
	// DisableSoftDelete removes secrets immediately on delete.
	DisableSoftDelete bool
	// ProtectedSubscription reports the vault subscription as protected.
	ProtectedSubscription bool

	// StoreDriver selects the secret store backend.
	StoreDriver string
	// StoreLocation is the directory holding the document snapshot or the SQLite file.
	StoreLocation string
	// StoreAutosaveInterval is the document store flush period.
	StoreAutosaveInterval time.Duration
	// StoreKMSKeyURI enables snapshot encryption with a gocloud secrets keeper.
	StoreKMSKeyURI string
	// StoreEncryptionAlgorithm is the AEAD used for snapshot encryption.
	StoreEncryptionAlgorithm string

	// DBConnectionString is the connection string for the postgres and mysql stores.
	DBConnectionString string
	// DBMaxOpenConnections is the maximum number of open connections to the database.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections in the database pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration

	// PurgeSchedule is the cron spec of the expired deleted secret purge; empty disables it.
	PurgeSchedule string

	// RateLimitEnabled indicates whether per client IP rate limiting is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per client IP.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size of the rate limiter.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost:            env.GetString("SERVER_HOST", "127.0.0.1"),
		ServerPort:            env.GetInt("SERVER_PORT", 13000),
		ServerShutdownTimeout: env.GetDuration("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10, time.Second),

		// Logging
		LogLevel:         env.GetString("LOG_LEVEL", "info"),
		LogFile:          env.GetString("LOG_FILE", ""),
		AccessLogEnabled: env.GetBool("ACCESS_LOG_ENABLED", true),

		// Protocol
		SkipAPIVersionCheck: env.GetBool("SKIP_API_VERSION_CHECK", false),
		OAuthLevel:          env.GetString("OAUTH_LEVEL", OAuthLevelNone),

		// TLS
		TLSCertFile:    env.GetString("TLS_CERT_FILE", ""),
		TLSKeyFile:     env.GetString("TLS_KEY_FILE", ""),
		TLSPFXPassword: env.GetString("TLS_PFX_PASSWORD", ""),

		// Deletion recovery
		RecoverableDays:       env.GetInt("RECOVERABLE_DAYS", secretsDomain.MaxRecoverableDays),
		PurgeProtection:       env.GetBool("PURGE_PROTECTION", false),
		DisableSoftDelete:     env.GetBool("DISABLE_SOFT_DELETE", false),
		ProtectedSubscription: env.GetBool("PROTECTED_SUBSCRIPTION", false),

		// Store
		StoreDriver:              env.GetString("STORE_DRIVER", StoreDriverDocument),
		StoreLocation:            env.GetString("STORE_LOCATION", "."),
		StoreAutosaveInterval:    env.GetDuration("STORE_AUTOSAVE_INTERVAL_SECONDS", 5, time.Second),
		StoreKMSKeyURI:           env.GetString("STORE_KMS_KEY_URI", ""),
		StoreEncryptionAlgorithm: env.GetString("STORE_ENCRYPTION_ALGORITHM", EncryptionAESGCM),

		// Database
		DBConnectionString:   env.GetString("DB_CONNECTION_STRING", ""),
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 25),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 5),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME_MINUTES", 5, time.Minute),

		// Purge worker
		PurgeSchedule: env.GetString("PURGE_SCHEDULE", "@every 1m"),

		// Rate Limiting
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", false),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 50.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 100),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "volt"),
		MetricsPort:      env.GetInt("METRICS_PORT", 13001),
	}
}

// Validate fails fast on settings the server cannot start with.
func (c *Config) Validate() error {
	if !c.DisableSoftDelete &&
		(c.RecoverableDays < secretsDomain.MinRecoverableDays || c.RecoverableDays > secretsDomain.MaxRecoverableDays) {
		return fmt.Errorf("%w: recoverable days must be between %d and %d, got %d",
			ErrInvalidConfig, secretsDomain.MinRecoverableDays, secretsDomain.MaxRecoverableDays, c.RecoverableDays)
	}

	if _, err := c.RecoveryPolicy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.OAuthLevel {
	case OAuthLevelNone, OAuthLevelBasic:
	default:
		return fmt.Errorf("%w: unknown oauth level %q", ErrInvalidConfig, c.OAuthLevel)
	}

	switch c.StoreDriver {
	case StoreDriverDocument, StoreDriverSQLite:
	case StoreDriverPostgres, StoreDriverMySQL:
		if c.DBConnectionString == "" {
			return fmt.Errorf("%w: store driver %s requires DB_CONNECTION_STRING", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	switch c.StoreEncryptionAlgorithm {
	case EncryptionAESGCM, EncryptionChaCha20Poly1305:
	default:
		return fmt.Errorf("%w: unknown store encryption algorithm %q", ErrInvalidConfig, c.StoreEncryptionAlgorithm)
	}

	if c.IsPFX() {
		if c.TLSKeyFile != "" {
			return fmt.Errorf("%w: a PFX certificate carries its own key, unset TLS_KEY_FILE", ErrInvalidConfig)
		}
	} else if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("%w: TLS certificate and key must be set together", ErrInvalidConfig)
	}

	if c.OAuthLevel == OAuthLevelBasic && !c.TLSEnabled() {
		return fmt.Errorf("%w: oauth level basic requires TLS", ErrInvalidConfig)
	}

	return nil
}

// RecoveryPolicy computes the deletion recovery policy from the recovery settings.
func (c *Config) RecoveryPolicy() (secretsDomain.RecoveryPolicy, error) {
	return secretsDomain.NewRecoveryPolicy(
		c.RecoverableDays,
		c.DisableSoftDelete,
		c.PurgeProtection,
		c.ProtectedSubscription,
	)
}

// TLSEnabled reports whether the server is configured for HTTPS.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != ""
}

// IsPFX reports whether the TLS certificate is a PKCS#12 bundle.
func (c *Config) IsPFX() bool {
	ext := strings.ToLower(filepath.Ext(c.TLSCertFile))
	return ext == ".pfx" || ext == ".p12"
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
