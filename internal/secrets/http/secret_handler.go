// Package http provides HTTP handlers for the vault secret operations.
// Handlers decode the wire format, delegate to the SecretUseCase and encode vault bundles.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/volt/internal/httputil"
	"github.com/allisson/volt/internal/requestctx"
	secretsDomain "github.com/allisson/volt/internal/secrets/domain"
	"github.com/allisson/volt/internal/secrets/http/dto"
	secretsUseCase "github.com/allisson/volt/internal/secrets/usecase"
)

// SecretHandler handles HTTP requests for secrets and deleted secrets.
type SecretHandler struct {
	secretUseCase secretsUseCase.SecretUseCase
	logger        *slog.Logger
}

// NewSecretHandler creates a new secret handler with required dependencies.
func NewSecretHandler(secretUseCase secretsUseCase.SecretUseCase, logger *slog.Logger) *SecretHandler {
	return &SecretHandler{
		secretUseCase: secretUseCase,
		logger:        logger,
	}
}

func (h *SecretHandler) badParameter(c *gin.Context, message string, err error) {
	httputil.HandleErrorGin(
		c,
		secretsDomain.NewBadParameterError(requestctx.RequestID(c.Request.Context()), message, err),
		h.logger,
	)
}

// listParams reads maxresults and $skiptoken, writing a BadParameter response on failure.
func (h *SecretHandler) listParams(c *gin.Context) (*int, string, bool) {
	maxResults, err := httputil.ParseMaxResults(c)
	if err != nil {
		h.badParameter(c, err.Error(), err)
		return nil, "", false
	}
	return maxResults, httputil.SkipToken(c), true
}

// SetSecretHandler stores a new version of a secret.
// PUT /secrets/:name - Returns 200 OK with the new secret bundle.
func (h *SecretHandler) SetSecretHandler(c *gin.Context) {
	var req dto.SetSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParameter(c, "The request body is not valid JSON: "+err.Error(), nil)
		return
	}
	if err := req.Validate(); err != nil {
		h.badParameter(c, err.Error(), nil)
		return
	}

	secret, err := h.secretUseCase.SetSecret(c.Request.Context(), req.ToParams(c.Param("name")))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretToBundle(secret))
}

// UpdateSecretHandler updates the attributes of a secret version.
// PATCH /secrets/:name[/:version] - Without a version the latest one is updated.
func (h *SecretHandler) UpdateSecretHandler(c *gin.Context) {
	var req dto.UpdateSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParameter(c, "The request body is not valid JSON: "+err.Error(), nil)
		return
	}
	if err := req.Validate(); err != nil {
		h.badParameter(c, err.Error(), nil)
		return
	}

	secret, err := h.secretUseCase.UpdateSecret(
		c.Request.Context(),
		req.ToUpdate(c.Param("name"), c.Param("version")),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretToBundle(secret))
}

// GetSecretHandler returns a secret version including its value.
// GET /secrets/:name[/:version]
func (h *SecretHandler) GetSecretHandler(c *gin.Context) {
	secret, err := h.secretUseCase.GetSecret(c.Request.Context(), c.Param("name"), c.Param("version"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretToBundle(secret))
}

// ListSecretsHandler pages through the live secrets.
// GET /secrets?maxresults=N&$skiptoken=T
func (h *SecretHandler) ListSecretsHandler(c *gin.Context) {
	maxResults, skipToken, ok := h.listParams(c)
	if !ok {
		return
	}

	page, err := h.secretUseCase.ListSecrets(c.Request.Context(), maxResults, skipToken)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	nextLink := httputil.NextLink(c, page.SkipToken, maxResults)
	c.JSON(http.StatusOK, dto.MapSecretPage(page, false, nextLink))
}

// ListSecretVersionsHandler pages through the versions of a secret.
// GET /secrets/:name/versions?maxresults=N&$skiptoken=T
func (h *SecretHandler) ListSecretVersionsHandler(c *gin.Context) {
	maxResults, skipToken, ok := h.listParams(c)
	if !ok {
		return
	}

	page, err := h.secretUseCase.ListSecretVersions(c.Request.Context(), c.Param("name"), maxResults, skipToken)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	nextLink := httputil.NextLink(c, page.SkipToken, maxResults)
	c.JSON(http.StatusOK, dto.MapSecretPage(page, true, nextLink))
}

// DeleteSecretHandler deletes a secret with all of its versions.
// DELETE /secrets/:name - Returns 200 OK with the deleted secret bundle.
func (h *SecretHandler) DeleteSecretHandler(c *gin.Context) {
	deleted, err := h.secretUseCase.DeleteSecret(c.Request.Context(), c.Param("name"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDeletedSecretToBundle(deleted))
}

// GetDeletedSecretHandler returns a secret from the deleted namespace.
// GET /deletedsecrets/:name
func (h *SecretHandler) GetDeletedSecretHandler(c *gin.Context) {
	deleted, err := h.secretUseCase.GetDeletedSecret(c.Request.Context(), c.Param("name"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDeletedSecretToBundle(deleted))
}

// ListDeletedSecretsHandler pages through the deleted namespace.
// GET /deletedsecrets?maxresults=N&$skiptoken=T
func (h *SecretHandler) ListDeletedSecretsHandler(c *gin.Context) {
	maxResults, skipToken, ok := h.listParams(c)
	if !ok {
		return
	}

	page, err := h.secretUseCase.ListDeletedSecrets(c.Request.Context(), maxResults, skipToken)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	nextLink := httputil.NextLink(c, page.SkipToken, maxResults)
	c.JSON(http.StatusOK, dto.MapDeletedSecretPage(page, nextLink))
}

// PurgeDeletedSecretHandler permanently removes a deleted secret.
// DELETE /deletedsecrets/:name - Returns 204 No Content.
func (h *SecretHandler) PurgeDeletedSecretHandler(c *gin.Context) {
	if err := h.secretUseCase.PurgeDeletedSecret(c.Request.Context(), c.Param("name")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// RecoverDeletedSecretHandler moves a deleted secret back to the live namespace.
// POST /deletedsecrets/:name/recover - Returns 200 OK with the latest version bundle.
func (h *SecretHandler) RecoverDeletedSecretHandler(c *gin.Context) {
	secret, err := h.secretUseCase.RecoverDeletedSecret(c.Request.Context(), c.Param("name"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretToBundle(secret))
}

// BackupSecretHandler is reserved. POST /secrets/:name/backup
func (h *SecretHandler) BackupSecretHandler(c *gin.Context) {
	httputil.HandleErrorGin(c, h.secretUseCase.BackupSecret(c.Request.Context(), c.Param("name")), h.logger)
}

// RestoreSecretHandler is reserved. POST /secrets/restore
func (h *SecretHandler) RestoreSecretHandler(c *gin.Context) {
	httputil.HandleErrorGin(c, h.secretUseCase.RestoreSecret(c.Request.Context()), h.logger)
}

// RegisterRoutes mounts the secret routes on the given router group.
func (h *SecretHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/secrets", h.ListSecretsHandler)
	router.POST("/secrets/restore", h.RestoreSecretHandler)
	router.PUT("/secrets/:name", h.SetSecretHandler)
	router.PATCH("/secrets/:name", h.UpdateSecretHandler)
	router.PATCH("/secrets/:name/:version", h.UpdateSecretHandler)
	router.GET("/secrets/:name", h.GetSecretHandler)
	router.GET("/secrets/:name/versions", h.ListSecretVersionsHandler)
	router.GET("/secrets/:name/:version", h.GetSecretHandler)
	router.DELETE("/secrets/:name", h.DeleteSecretHandler)
	router.POST("/secrets/:name/backup", h.BackupSecretHandler)

	router.GET("/deletedsecrets", h.ListDeletedSecretsHandler)
	router.GET("/deletedsecrets/:name", h.GetDeletedSecretHandler)
	router.DELETE("/deletedsecrets/:name", h.PurgeDeletedSecretHandler)
	router.POST("/deletedsecrets/:name/recover", h.RecoverDeletedSecretHandler)
}
