// internal/api/handlers/form_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"rental-admin-console/internal/models"
	"rental-admin-console/internal/upload"
	"rental-admin-console/internal/wizard"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FormHandler exposes the listing wizard: one form session per sessionID.
type FormHandler struct {
	Registry     *wizard.Registry
	MaxFileBytes int64
	Logger       *zap.Logger
}

type CreateFormPayload struct {
	// VehicleID opens the wizard on an existing vehicle instead of a new draft.
	VehicleID string `json:"vehicleId"`
}

// CreateForm starts a form session.
func (h *FormHandler) CreateForm(c *gin.Context) {
	var payload CreateFormPayload
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		ctrl *wizard.Controller
		err  error
	)
	if payload.VehicleID != "" {
		ctrl, err = h.Registry.CreateForVehicle(c.Request.Context(), payload.VehicleID)
	} else {
		ctrl, err = h.Registry.Create(c.Request.Context())
	}
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, ctrl.View())
}

func (h *FormHandler) controller(c *gin.Context) (*wizard.Controller, bool) {
	ctrl, err := h.Registry.Open(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondError(c, h.Logger, err)
		return nil, false
	}
	return ctrl, true
}

func (h *FormHandler) GetForm(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

// CloseForm tears the wizard down. Uploaded objects are kept.
func (h *FormHandler) CloseForm(c *gin.Context) {
	if err := h.Registry.Close(c.Request.Context(), c.Param("sessionID")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateDraft merges the JSON object in the body into the draft.
func (h *FormHandler) UpdateDraft(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var partial map[string]json.RawMessage
	if err := c.ShouldBindJSON(&partial); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctrl.Store().UpdateDraft(c.Request.Context(), partial); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

func (h *FormHandler) readFile(c *gin.Context) (upload.File, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart field 'file' is required"})
		return upload.File{}, false
	}
	if h.MaxFileBytes > 0 && fh.Size > h.MaxFileBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File exceeds %d bytes", h.MaxFileBytes)})
		return upload.File{}, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file"})
		return upload.File{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return upload.File{}, false
	}
	return upload.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, true
}

// UploadPhoto handles POST (new photo) and PUT (replace the photo at form field oldKey).
func (h *FormHandler) UploadPhoto(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	file, ok := h.readFile(c)
	if !ok {
		return
	}
	slot := models.PhotoSlot(c.Param("slot"))

	var (
		entry *models.PhotoEntry
		err   error
	)
	status := http.StatusCreated
	if c.Request.Method == http.MethodPut {
		entry, err = ctrl.Store().UpdatePhoto(c.Request.Context(), slot, c.PostForm("oldKey"), file)
		status = http.StatusOK
	} else {
		entry, err = ctrl.Store().UploadPhoto(c.Request.Context(), slot, file)
	}
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(status, gin.H{"slot": slot, "photo": entry})
}

func (h *FormHandler) DeletePhoto(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.Store().DeletePhoto(c.Request.Context(), models.PhotoSlot(c.Param("slot")), c.Query("key")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

// UploadDocument handles POST (new document) and PUT (replace oldKey).
func (h *FormHandler) UploadDocument(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	file, ok := h.readFile(c)
	if !ok {
		return
	}
	slot := models.DocumentSlot(c.Param("slot"))

	var (
		entry *models.DocumentEntry
		err   error
	)
	status := http.StatusCreated
	if c.Request.Method == http.MethodPut {
		entry, err = ctrl.Store().UpdateDocument(c.Request.Context(), slot, c.PostForm("oldKey"), file)
		status = http.StatusOK
	} else {
		entry, err = ctrl.Store().UploadDocument(c.Request.Context(), slot, file)
	}
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(status, gin.H{"slot": slot, "document": entry})
}

func (h *FormHandler) DeleteDocument(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.Store().DeleteDocument(c.Request.Context(), models.DocumentSlot(c.Param("slot")), c.Query("key")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

type AvailabilityPayload struct {
	Date string `json:"date"`
	From string `json:"from"`
	To   string `json:"to"`
}

// AddUnavailable blocks a single date or an inclusive from/to range.
func (h *FormHandler) AddUnavailable(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var payload AvailabilityPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var err error
	switch {
	case payload.Date != "":
		err = ctrl.MarkUnavailable(c.Request.Context(), payload.Date)
	case payload.From != "" && payload.To != "":
		err = ctrl.MarkUnavailableRange(c.Request.Context(), payload.From, payload.To)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either date or from and to are required"})
		return
	}
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

func (h *FormHandler) RemoveUnavailable(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.MarkAvailable(c.Request.Context(), c.Query("date")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

func (h *FormHandler) Next(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if _, err := ctrl.Next(c.Request.Context()); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

func (h *FormHandler) Prev(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if _, err := ctrl.Prev(); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

// Submit sends the listing. A successful submit closes the session.
func (h *FormHandler) Submit(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	resp, err := ctrl.Submit(c.Request.Context())
	if err != nil && !errors.Is(err, wizard.ErrResetAfterSubmit) {
		respondError(c, h.Logger, err)
		return
	}
	// Closing drops the persisted draft even when the reset failed.
	sessionID := c.Param("sessionID")
	if err := h.Registry.Close(c.Request.Context(), sessionID); err != nil {
		h.Logger.Warn("failed to close submitted form session", zap.String("sessionID", sessionID), zap.Error(err))
	}
	writeRaw(c, http.StatusOK, resp)
}

func (h *FormHandler) Reset(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.Reset(c.Request.Context()); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}
