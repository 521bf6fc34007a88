package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/middleware"
)

// respondError translates service-layer error kinds into HTTP responses.
// Unrecognized errors are logged and reported as the fallback message so
// internal detail never leaks to callers.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	var periodErr *apperrors.PeriodClosedError
	var appErr *apperrors.AppError

	switch {
	case errors.As(err, &periodErr):
		logger.Warn("Rejected posting into closed period", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             err.Error(),
			"closedThroughDate": periodErr.ClosedThroughDate.Format(time.DateOnly),
		})
	case errors.As(err, &appErr):
		logger.Warn("Request failed", slog.Int("status", appErr.Code), slog.String("error", err.Error()))
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Conflicting request", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrResourceBusy):
		logger.Warn("Resource busy", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": "Resource busy, retry later"})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Forbidden", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	default:
		logger.Error("Request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// callerIdentity extracts the authenticated tenant and user from the request
// context, aborting with 401 when either is missing.
func callerIdentity(c *gin.Context) (tenantID, userID string, ok bool) {
	tenantID, tenantOK := middleware.GetTenantIDFromCtx(c.Request.Context())
	userID, userOK := middleware.GetUserIDFromCtx(c.Request.Context())
	if !tenantOK || !userOK {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Caller identity not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return tenantID, userID, true
}

// idempotencyKey reads the Idempotency-Key header required by command
// endpoints, aborting with 400 when it is absent.
func idempotencyKey(c *gin.Context) (string, bool) {
	key := c.GetHeader("Idempotency-Key")
	if key == "" {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Idempotency-Key header missing")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key header required"})
		return "", false
	}
	return key, true
}
