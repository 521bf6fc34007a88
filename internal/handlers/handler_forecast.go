package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/dto"
	"github.com/ledgera/ledgera_backend/internal/middleware"
)

// forecastHandler handles HTTP requests for the cashflow projection.
type forecastHandler struct {
	forecastService portssvc.ForecastSvcFacade
}

// newForecastHandler creates a new forecastHandler.
func newForecastHandler(fs portssvc.ForecastSvcFacade) *forecastHandler {
	return &forecastHandler{
		forecastService: fs,
	}
}

// registerForecastRoutes registers routes related to the cashflow forecast.
func registerForecastRoutes(rg *gin.RouterGroup, forecastService portssvc.ForecastSvcFacade) {
	h := newForecastHandler(forecastService)

	rg.GET("/forecast", h.getForecast)
}

// getForecast godoc
// @Summary Project weekly cashflow
// @Description Computes the scenario-based weekly cash projection from open items and recurring schedules
// @Tags forecast
// @Produce  json
// @Param   asOf query string false "Projection start date (RFC 3339), defaults to today"
// @Param   scenario query string false "base, conservative or optimistic"
// @Param   weeks query int false "Horizon in weeks"
// @Success 200 {object} domain.CashflowForecast
// @Failure 400 {object} map[string]string "Invalid scenario or parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to compute forecast"
// @Security BearerAuth
// @Router /forecast [get]
func (h *forecastHandler) getForecast(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req dto.ForecastRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Failed to bind query for getForecast", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	forecast, err := h.forecastService.Project(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to compute forecast")
		return
	}

	c.JSON(http.StatusOK, forecast)
}
