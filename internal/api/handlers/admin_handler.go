// internal/api/handlers/admin_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rental-admin-console/internal/apiclient"
	"rental-admin-console/internal/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserBackend interface {
	AdminUsers(ctx context.Context) (json.RawMessage, error)
	AdminBookings(ctx context.Context) (json.RawMessage, error)
	UserOverview(ctx context.Context, userID string) (*apiclient.UserOverview, error)
}

// AdminHandler serves the read-only user and booking views.
type AdminHandler struct {
	Backend     UserBackend
	Credentials apiclient.CredentialStore
	Logger      *zap.Logger
}

// GetSession describes the stored admin credentials without exposing the tokens.
func (h *AdminHandler) GetSession(c *gin.Context) {
	creds, err := h.Credentials.Load(c.Request.Context())
	if err != nil {
		if errors.Is(err, apiclient.ErrNoCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin session is not signed in"})
			return
		}
		respondError(c, h.Logger, err)
		return
	}

	resp := gin.H{
		"username":        creds.Username,
		"userAttributes":  creds.UserAttributes,
		"updatedAt":       creds.UpdatedAt,
		"hasRefreshToken": creds.RefreshToken != "",
	}
	if claims, err := auth.InspectToken(creds.AccessToken); err == nil {
		resp["tokenExpired"] = claims.ExpiredAt(time.Now())
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	raw, err := h.Backend.AdminUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	writeRaw(c, http.StatusOK, raw)
}

func (h *AdminHandler) ListBookings(c *gin.Context) {
	raw, err := h.Backend.AdminBookings(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	writeRaw(c, http.StatusOK, raw)
}

// GetUser returns profile and booking history. One half failing still yields
// 200 with the failure reported beside the other half.
func (h *AdminHandler) GetUser(c *gin.Context) {
	overview, err := h.Backend.UserOverview(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
