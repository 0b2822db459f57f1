package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"rental-admin-console/internal/apperr"
	"rental-admin-console/internal/formstore"
	"rental-admin-console/internal/wizard"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		verr   *apperr.ValidationError
		authE  *apperr.AuthError
		upErr  *apperr.UploadError
		apiErr *apperr.APIError
	)
	_ = c.Error(err)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error(), "step": verr.Step, "fields": verr.Fields})
	case errors.As(err, &authE):
		c.JSON(http.StatusUnauthorized, gin.H{"error": authE.Error()})
	case errors.As(err, &upErr):
		c.JSON(uploadStatus(upErr.Stage), gin.H{"error": upErr.Error(), "slot": upErr.Slot, "stage": upErr.Stage})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Error(), "status": apiErr.Status, "body": apiErr.Body})
	case errors.Is(err, formstore.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, wizard.ErrNotAtSubmit), errors.Is(err, wizard.ErrFinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// uploadStatus blames the caller for files that cannot be encoded and the
// session for commits that lost a race; only storage failures are 502.
func uploadStatus(stage string) int {
	switch stage {
	case apperr.StageEncode:
		return http.StatusUnsupportedMediaType
	case apperr.StageCommit:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// writeRaw passes a backend payload through untouched.
func writeRaw(c *gin.Context, status int, raw json.RawMessage) {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	c.Data(status, "application/json; charset=utf-8", raw)
}
