package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoveDirection is the direction of a stock move.
type MoveDirection string

const (
	MoveIn  MoveDirection = "IN"
	MoveOut MoveDirection = "OUT"
	// MoveValueAdj adjusts inventory value without changing quantity
	// (landed cost capitalization, write-downs).
	MoveValueAdj MoveDirection = "VALUE_ADJ"
)

// StockMove is one ordered step in the replayable timeline from which the
// weighted-average cost for an (item, location) pair is derived. Moves are
// append-only; corrections are expressed as new ADJUSTMENT-referenced moves.
type StockMove struct {
	MoveID           string          `json:"moveID"`
	TenantID         string          `json:"tenantID"`
	LocationID       string          `json:"locationID"`
	ItemID           string          `json:"itemID"`
	MoveDate         time.Time       `json:"moveDate"`
	Seq              int64           `json:"seq"` // Insertion sequence; tiebreak within a date
	Direction        MoveDirection   `json:"direction"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitCostApplied  decimal.Decimal `json:"unitCostApplied"`
	TotalCostApplied decimal.Decimal `json:"totalCostApplied"`
	ReferenceType    string          `json:"referenceType"` // Document type or ADJUSTMENT
	ReferenceID      string          `json:"referenceID"`
	CorrelationID    string          `json:"correlationID"`
	JournalEntryID   *string         `json:"journalEntryID,omitempty"`
	AuditFields
}

// StockLevel is the aggregate (tenant, location, item) quantity-on-hand and
// weighted-average unit cost derived from the move timeline.
type StockLevel struct {
	TenantID    string          `json:"tenantID"`
	LocationID  string          `json:"locationID"`
	ItemID      string          `json:"itemID"`
	QtyOnHand   decimal.Decimal `json:"qtyOnHand"`
	AvgUnitCost decimal.Decimal `json:"avgUnitCost"`
	LastMoveAt  time.Time       `json:"lastMoveAt"` // Date of latest move, backdating guard
	AuditFields
}

// MoveResult reports the outcome of applying a stock move. When the move was
// backdated relative to the latest existing move, RequiresRecalcFromDate is set
// and the caller must schedule a forward replay from that date.
type MoveResult struct {
	Move                   StockMove
	Level                  StockLevel
	RequiresRecalcFromDate *time.Time
}
