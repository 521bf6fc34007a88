package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/dto"
	"github.com/ledgera/ledgera_backend/internal/middleware"
)

// periodHandler handles HTTP requests for accounting period closes.
type periodHandler struct {
	periodService portssvc.PeriodSvcFacade
}

// newPeriodHandler creates a new periodHandler.
func newPeriodHandler(ps portssvc.PeriodSvcFacade) *periodHandler {
	return &periodHandler{
		periodService: ps,
	}
}

// registerPeriodRoutes registers routes related to period closes.
func registerPeriodRoutes(rg *gin.RouterGroup, periodService portssvc.PeriodSvcFacade) {
	h := newPeriodHandler(periodService)

	periods := rg.Group("/period-closes")
	{
		periods.POST("", h.closePeriod)
		periods.GET("", h.listCloses)
	}
}

// closePeriod godoc
// @Summary Close an accounting period
// @Description Freezes the books through the given date, inclusive; postings on or before it are rejected
// @Tags period-closes
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string true "Client-chosen command key"
// @Param   close body dto.ClosePeriodRequest true "Close boundary"
// @Success 201 {object} domain.PeriodClose
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Boundary not after the latest close"
// @Failure 500 {object} map[string]string "Failed to close period"
// @Security BearerAuth
// @Router /period-closes [post]
func (h *periodHandler) closePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.ClosePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for closePeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	pc, err := h.periodService.ClosePeriod(c.Request.Context(), tenantID, key, req.ToDate, req.Notes, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to close period")
		return
	}

	logger.Info("Period closed", slog.String("to_date", pc.ToDate.Format(time.DateOnly)))
	c.JSON(http.StatusCreated, pc)
}

// listCloses godoc
// @Summary List period closes
// @Tags period-closes
// @Produce  json
// @Success 200 {array} domain.PeriodClose
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list period closes"
// @Security BearerAuth
// @Router /period-closes [get]
func (h *periodHandler) listCloses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	closes, err := h.periodService.ListCloses(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, logger, err, "Failed to list period closes")
		return
	}

	c.JSON(http.StatusOK, closes)
}
