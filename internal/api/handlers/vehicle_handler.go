// internal/api/handlers/vehicle_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"rental-admin-console/internal/apiclient"
	"rental-admin-console/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VehicleBackend is the moderation surface of the marketplace API.
type VehicleBackend interface {
	AllVehicles(ctx context.Context) (json.RawMessage, error)
	Vehicle(ctx context.Context, id string) (json.RawMessage, error)
	DeleteVehicle(ctx context.Context, id string) (json.RawMessage, error)
	ApproveVehicle(ctx context.Context, id string) (json.RawMessage, error)
	DenyVehicle(ctx context.Context, id, reason string) (json.RawMessage, error)
	DownloadURL(ctx context.Context, vehicleID, key string) (string, error)
	PresignUpload(ctx context.Context, req apiclient.PresignRequest) (*models.PresignedUpload, error)
}

type VehicleHandler struct {
	Backend VehicleBackend
	Logger  *zap.Logger
}

func (h *VehicleHandler) passThrough(c *gin.Context, raw json.RawMessage, err error) {
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	writeRaw(c, http.StatusOK, raw)
}

func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	raw, err := h.Backend.AllVehicles(c.Request.Context())
	h.passThrough(c, raw, err)
}

func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	raw, err := h.Backend.Vehicle(c.Request.Context(), c.Param("id"))
	h.passThrough(c, raw, err)
}

func (h *VehicleHandler) ApproveVehicle(c *gin.Context) {
	raw, err := h.Backend.ApproveVehicle(c.Request.Context(), c.Param("id"))
	if err == nil {
		h.Logger.Info("vehicle approved", zap.String("vehicleID", c.Param("id")), zap.String("admin", c.GetString("admin_username")))
	}
	h.passThrough(c, raw, err)
}

type DenyVehiclePayload struct {
	Reason string `json:"reason"`
}

func (h *VehicleHandler) DenyVehicle(c *gin.Context) {
	var payload DenyVehiclePayload
	// The reason is optional; an empty body is accepted.
	_ = c.ShouldBindJSON(&payload)

	raw, err := h.Backend.DenyVehicle(c.Request.Context(), c.Param("id"), payload.Reason)
	if err == nil {
		h.Logger.Info("vehicle denied", zap.String("vehicleID", c.Param("id")), zap.String("admin", c.GetString("admin_username")))
	}
	h.passThrough(c, raw, err)
}

func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	raw, err := h.Backend.DeleteVehicle(c.Request.Context(), c.Param("id"))
	if err == nil {
		h.Logger.Info("vehicle deleted", zap.String("vehicleID", c.Param("id")), zap.String("admin", c.GetString("admin_username")))
	}
	h.passThrough(c, raw, err)
}

// DocumentDownloadURL returns a short-lived link to a vehicle document.
func (h *VehicleHandler) DocumentDownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'key' is required"})
		return
	}
	url, err := h.Backend.DownloadURL(c.Request.Context(), c.Param("id"), key)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

type PresignDocumentPayload struct {
	FileName string `json:"fileName" binding:"required"`
	FileType string `json:"fileType" binding:"required"`
}

// PresignDocument issues an admin upload URL for a document attached to an existing vehicle.
func (h *VehicleHandler) PresignDocument(c *gin.Context) {
	var payload PresignDocumentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	presigned, err := h.Backend.PresignUpload(c.Request.Context(), apiclient.PresignRequest{
		Operation:   apiclient.OpPresignedURLAdmin,
		VehicleID:   c.Param("id"),
		FileName:    payload.FileName,
		ContentType: payload.FileType,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, presigned)
}
