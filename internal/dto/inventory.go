package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// ValueAdjustmentRequest capitalizes additional cost (e.g. freight) into the
// inventory value of an item at a location without changing quantity.
type ValueAdjustmentRequest struct {
	ItemID     string          `json:"itemID" binding:"required"`
	LocationID string          `json:"locationID" binding:"required"`
	Date       time.Time       `json:"date" binding:"required"`
	ValueDelta decimal.Decimal `json:"valueDelta" binding:"required"`

	// InventoryAccountID is debited (credited for negative deltas) and
	// OffsetAccountID takes the other side, e.g. a GRNI or freight account.
	InventoryAccountID string `json:"inventoryAccountID" binding:"required"`
	OffsetAccountID    string `json:"offsetAccountID" binding:"required"`

	ReferenceID string `json:"referenceID"`
	Memo        string `json:"memo"`
}

// StockLevelResponse is the API shape of a stock level.
type StockLevelResponse struct {
	ItemID      string          `json:"itemID"`
	LocationID  string          `json:"locationID"`
	QtyOnHand   decimal.Decimal `json:"qtyOnHand"`
	AvgUnitCost decimal.Decimal `json:"avgUnitCost"`
	LastMoveAt  time.Time       `json:"lastMoveAt"`
}

// ToStockLevelResponse converts a domain stock level to its API shape.
func ToStockLevelResponse(l *domain.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ItemID:      l.ItemID,
		LocationID:  l.LocationID,
		QtyOnHand:   l.QtyOnHand,
		AvgUnitCost: l.AvgUnitCost,
		LastMoveAt:  l.LastMoveAt,
	}
}
