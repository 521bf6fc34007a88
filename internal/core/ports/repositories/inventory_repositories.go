package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// InventoryRepositoryFacade persists stock moves and per-(item, location)
// aggregate levels. Moves are append-only; levels and the applied costs on
// moves are rewritten only by the deterministic forward replay.
type InventoryRepositoryFacade interface {
	// FindLevelForUpdate locks (or initializes) the stock level row FOR UPDATE.
	FindLevelForUpdate(ctx context.Context, tx pgx.Tx, tenantID, locationID, itemID string) (*domain.StockLevel, error)

	SaveMoveInTx(ctx context.Context, tx pgx.Tx, move domain.StockMove) error
	SaveLevelInTx(ctx context.Context, tx pgx.Tx, level domain.StockLevel) error

	// ListMovesFrom returns all moves for (tenant, location, item) dated on or
	// after fromDate, ordered by (move_date, seq).
	ListMovesFrom(ctx context.Context, tx pgx.Tx, tenantID, locationID, itemID string, fromDate time.Time) ([]domain.StockMove, error)

	// UpdateMoveCostsInTx rewrites a move's applied costs during forward replay.
	UpdateMoveCostsInTx(ctx context.Context, tx pgx.Tx, moveID string, unitCost, totalCost decimal.Decimal) error

	ListMovesByReference(ctx context.Context, tenantID, referenceType, referenceID string) ([]domain.StockMove, error)

	// NextMoveSeq allocates the next insertion sequence for a tenant timeline.
	NextMoveSeq(ctx context.Context, tx pgx.Tx, tenantID string) (int64, error)
}
