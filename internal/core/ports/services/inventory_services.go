package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
	"github.com/ledgera/ledgera_backend/internal/dto"
)

// ApplyMoveParams is the input of the inventory costing engine.
type ApplyMoveParams struct {
	TenantID      string
	LocationID    string
	ItemID        string
	Date          time.Time
	Direction     domain.MoveDirection
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal // IN moves: supplied cost. OUT moves: ignored.
	ValueDelta    decimal.Decimal // VALUE_ADJ moves: signed value change.
	ReferenceType string
	ReferenceID   string
	CorrelationID string
	UserID        string
}

// InventorySvcFacade maintains weighted-average cost state per
// (tenant, location, item).
type InventorySvcFacade interface {
	// ApplyMoveInTx applies a stock move under the stock level row lock.
	// A backdated move sets RequiresRecalcFromDate on the result; the caller
	// must invoke RecalculateFromInTx before committing.
	ApplyMoveInTx(ctx context.Context, tx pgx.Tx, params ApplyMoveParams) (*domain.MoveResult, error)

	// RecalculateFromInTx forward-replays the move timeline for the pair from
	// fromDate, rewriting applied costs and the aggregate level. Deterministic
	// and safe to re-run if interrupted.
	RecalculateFromInTx(ctx context.Context, tx pgx.Tx, tenantID, locationID, itemID string, fromDate time.Time, userID string) (*domain.StockLevel, error)

	// AdjustValue capitalizes a value-only adjustment (e.g. landed cost) as a
	// full locked command with its own journal posting.
	AdjustValue(ctx context.Context, tenantID, idempotencyKey string, req dto.ValueAdjustmentRequest, userID string) (*domain.StockLevel, error)

	GetLevel(ctx context.Context, tenantID, locationID, itemID string) (*domain.StockLevel, error)
}
