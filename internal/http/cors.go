package http

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/allisson/volt/internal/httputil"
)

// vaultRequestHeaders are the headers Azure SDK clients send on every call.
var vaultRequestHeaders = []string{
	"Authorization",
	"Content-Type",
	"x-ms-client-request-id",
	"x-ms-return-client-request-id",
	"x-ms-useragent",
}

// createCORSMiddleware returns nil unless CORS is enabled with at least one origin.
// SDK clients never need CORS; browser tools pointed at the emulator do.
// The origin "*" allows every origin, in which case credentials are not allowed.
func createCORSMiddleware(enabled bool, allowOriginsStr string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := parseOrigins(allowOriginsStr)
	if len(origins) == 0 {
		logger.Warn("cors enabled without origins, cors disabled")
		return nil
	}

	config := cors.Config{
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowHeaders:  vaultRequestHeaders,
		ExposeHeaders: []string{httputil.RequestIDHeader, "WWW-Authenticate"},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}

	logger.Info("cors enabled", slog.Any("origins", origins))
	return cors.New(config)
}

func parseOrigins(originsStr string) []string {
	if originsStr == "" {
		return nil
	}

	origins := make([]string, 0)
	for part := range strings.SplitSeq(originsStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
