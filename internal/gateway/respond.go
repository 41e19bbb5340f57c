package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lifelink/emergency-coordinator/internal/auth"
	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/lifelink/emergency-coordinator/internal/prediction"
	"github.com/lifelink/emergency-coordinator/internal/store"
	"go.uber.org/zap"
)

// statusClientClosed is logged when the caller went away before a prediction finished.
const statusClientClosed = 499

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{Error: message, Code: code})
}

func badRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, models.ErrCodeValidationFailed, message)
}

func notFound(c *gin.Context, message string) {
	respondError(c, http.StatusNotFound, models.ErrCodeNotFound, message)
}

// storeFailure maps a store error to a response. Internal details are logged, never returned.
func (h *Handler) storeFailure(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		notFound(c, what+" not found")
	case errors.Is(err, store.ErrDuplicate):
		respondError(c, http.StatusBadRequest, models.ErrCodeAlreadyExists, what+" already exists")
	default:
		h.logger.Error("store operation failed",
			zap.String("path", c.FullPath()),
			zap.String("entity", what),
			zap.Error(err),
		)
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, models.ErrCodeInternalError, "Internal server error")
	}
}

// predictionFailure maps a bridge error to a non-2xx response
func (h *Handler) predictionFailure(c *gin.Context, err error) {
	kind := prediction.KindOf(err)
	_ = c.Error(err)

	details := map[string]string{"kind": string(kind)}
	switch kind {
	case prediction.KindTimeout:
		respondError(c, http.StatusGatewayTimeout, models.ErrCodePredictionTimeout, "Prediction timed out")
	case prediction.KindUnavailable:
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: "Prediction service temporarily unavailable", Code: models.ErrCodeUnavailable, Details: details,
		})
	case prediction.KindCanceled:
		h.logger.Info("prediction abandoned by client", zap.String("path", c.FullPath()))
		c.AbortWithStatus(statusClientClosed)
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "AI processing failed", Code: models.ErrCodePredictionFailed, Details: details,
		})
	}
}

// currentUser returns the authenticated caller's id and role
func currentUser(c *gin.Context) (string, string) {
	return c.GetString(auth.ContextUserID), c.GetString(auth.ContextRole)
}

// canAccessUser lets public accounts reach only their own records.
// Hospital and government accounts may read any user's records.
func canAccessUser(c *gin.Context, userID string) bool {
	id, role := currentUser(c)
	return role != models.RolePublic || id == userID
}

func forbidOtherUser(c *gin.Context, userID string) bool {
	if canAccessUser(c, userID) {
		return false
	}
	respondError(c, http.StatusForbidden, models.ErrCodeForbidden, "Insufficient permissions")
	return true
}
