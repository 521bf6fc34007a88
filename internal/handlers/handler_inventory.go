package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/dto"
	"github.com/ledgera/ledgera_backend/internal/middleware"
)

// inventoryHandler handles HTTP requests for stock levels and value adjustments.
type inventoryHandler struct {
	inventoryService portssvc.InventorySvcFacade
}

// newInventoryHandler creates a new inventoryHandler.
func newInventoryHandler(is portssvc.InventorySvcFacade) *inventoryHandler {
	return &inventoryHandler{
		inventoryService: is,
	}
}

// registerInventoryRoutes registers routes related to inventory.
func registerInventoryRoutes(rg *gin.RouterGroup, inventoryService portssvc.InventorySvcFacade) {
	h := newInventoryHandler(inventoryService)

	inventory := rg.Group("/inventory")
	{
		inventory.POST("/value-adjustments", h.adjustValue)
		inventory.GET("/levels/:locationID/:itemID", h.getLevel)
	}
}

// adjustValue godoc
// @Summary Capitalize a value adjustment
// @Description Adds cost (e.g. freight) to on-hand inventory value without changing quantity
// @Tags inventory
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string true "Client-chosen command key"
// @Param   adjustment body dto.ValueAdjustmentRequest true "Adjustment details"
// @Success 200 {object} dto.StockLevelResponse
// @Failure 400 {object} map[string]string "Invalid input or zero on-hand quantity"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 422 {object} map[string]string "Dated in a closed period"
// @Failure 500 {object} map[string]string "Failed to adjust value"
// @Security BearerAuth
// @Router /inventory/value-adjustments [post]
func (h *inventoryHandler) adjustValue(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.ValueAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for adjustValue", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	level, err := h.inventoryService.AdjustValue(c.Request.Context(), tenantID, key, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to adjust value")
		return
	}

	logger.Info("Inventory value adjusted",
		slog.String("item_id", req.ItemID),
		slog.String("location_id", req.LocationID),
		slog.String("value_delta", req.ValueDelta.String()),
	)
	c.JSON(http.StatusOK, dto.ToStockLevelResponse(level))
}

// getLevel godoc
// @Summary Get a stock level
// @Description Retrieves on-hand quantity and weighted-average cost for an item at a location
// @Tags inventory
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   itemID path string true "Item ID"
// @Success 200 {object} dto.StockLevelResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to retrieve stock level"
// @Security BearerAuth
// @Router /inventory/levels/{locationID}/{itemID} [get]
func (h *inventoryHandler) getLevel(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	level, err := h.inventoryService.GetLevel(c.Request.Context(), tenantID, c.Param("locationID"), c.Param("itemID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve stock level")
		return
	}

	c.JSON(http.StatusOK, dto.ToStockLevelResponse(level))
}
