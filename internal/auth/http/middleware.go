// Package http provides the bearer token authentication middleware of the vault routes.
package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/volt/internal/auth/domain"
	authService "github.com/allisson/volt/internal/auth/service"
	apperrors "github.com/allisson/volt/internal/errors"
	"github.com/allisson/volt/internal/httputil"
	"github.com/allisson/volt/internal/requestctx"
)

// OAuthMiddleware authenticates requests according to level.
//
// OAuthLevelNone lets every request through. Any other level requires HTTPS
// (503 otherwise) and an "Authorization: Bearer <token>" header. A missing or
// malformed header and a rejected token produce 401 with a WWW-Authenticate
// challenge so SDK clients can fetch a token and retry.
//
// Usage:
//
//	vault := router.Group("/")
//	vault.Use(OAuthMiddleware(authDomain.OAuthLevelBasic, authService.NewBasicTokenValidator(), logger))
func OAuthMiddleware(
	level authDomain.OAuthLevel,
	validator authService.TokenValidator,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		if level == authDomain.OAuthLevelNone {
			c.Next()
			return
		}

		info, _ := requestctx.GetInfo(c.Request.Context())

		if !isHTTPS(c) {
			logger.Error("oauth requires https", slog.String("request_id", info.ID))
			httputil.HandleErrorGin(c, authDomain.NewHTTPSRequiredError(info.ID), logger)
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug("authentication failed: missing bearer token", slog.String("request_id", info.ID))
			challenge(c, authDomain.NewUnauthorizedError(info.ID), logger)
			return
		}

		now := info.StartTime
		if now.IsZero() {
			now = time.Now().UTC()
		}

		if err := validator.Validate(token, now, info.ID); err != nil {
			logger.Debug("authentication failed",
				slog.String("request_id", info.ID),
				slog.String("error", err.Error()))
			challenge(c, err, logger)
			return
		}

		c.Next()
	}
}

func challenge(c *gin.Context, err error, logger *slog.Logger) {
	if apperrors.Is(err, apperrors.ErrUnauthorized) {
		c.Header("WWW-Authenticate", authDomain.Challenge)
	}
	httputil.HandleErrorGin(c, err, logger)
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, authDomain.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(authDomain.BearerPrefix):])
	return token, token != ""
}

func isHTTPS(c *gin.Context) bool {
	return c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}
