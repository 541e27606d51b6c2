// Package http provides the vault HTTP server, its middleware chain and the metrics server.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/volt/internal/httputil"
	"github.com/allisson/volt/internal/requestctx"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
)

// SupportedAPIVersions lists the accepted api-version values, oldest first.
var SupportedAPIVersions = []string{"7.0", "7.1", "7.2", "7.3", "7.4", "7.5", "7.6", "2025-07-01"}

// LatestAPIVersion is suggested to clients sending an unknown api-version.
var LatestAPIVersion = SupportedAPIVersions[len(SupportedAPIVersions)-1]

// RequestIDMiddleware assigns every request a UUIDv4 correlation id echoed in x-ms-request-id.
// An id sent by the client in the same header is kept.
func RequestIDMiddleware() gin.HandlerFunc {
	return requestid.New(
		requestid.WithGenerator(func() string {
			return uuid.NewString()
		}),
		requestid.WithCustomHeaderStrKey(requestid.HeaderStrKey(httputil.RequestIDHeader)),
	)
}

// CustomLoggerMiddleware writes one access log line per request.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		attrs := []any{
			slog.String("request_id", requestid.Get(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("route", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if query != "" {
			attrs = append(attrs, slog.String("query", query))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		logger.Info("http request", attrs...)
	}
}

// RequestContextMiddleware stores the request id, start time, endpoint and api-version in
// the request context and enforces the api-version check unless skipAPIVersionCheck is set.
func RequestContextMiddleware(skipAPIVersionCheck bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiVersion := c.Query(httputil.APIVersionParam)
		info := requestctx.Info{
			ID:         requestid.Get(c),
			StartTime:  time.Now().UTC(),
			Endpoint:   endpoint(c.Request),
			APIVersion: apiVersion,
		}
		c.Request = c.Request.WithContext(requestctx.WithInfo(c.Request.Context(), info))

		if !skipAPIVersionCheck {
			if err := checkAPIVersion(apiVersion, info.ID); err != nil {
				httputil.HandleErrorGin(c, err, logger)
				return
			}
		}

		c.Next()
	}
}

func checkAPIVersion(apiVersion, requestID string) error {
	if apiVersion == "" {
		return secretsDomain.NewBadParameterError(
			requestID,
			fmt.Sprintf("%s must be specified", httputil.APIVersionParam),
			nil,
		)
	}
	if !slices.Contains(SupportedAPIVersions, apiVersion) {
		return secretsDomain.NewBadParameterError(
			requestID,
			fmt.Sprintf(
				"The specified version (%s) is not recognized. Consider using the latest supported version (%s).",
				apiVersion, LatestAPIVersion,
			),
			nil,
		)
	}
	return nil
}

// endpoint returns the externally visible vault base URL of r.
func endpoint(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// StripTrailingSlash removes a trailing slash from the request path before routing.
func StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = strings.TrimRight(r.URL.Path, "/")
			if r.URL.Path == "" {
				r.URL.Path = "/"
			}
			if r.URL.RawPath != "" {
				r.URL.RawPath = strings.TrimRight(r.URL.RawPath, "/")
			}
		}
		next.ServeHTTP(w, r)
	})
}
