package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
)

const stockMoveColumns = `move_id, tenant_id, location_id, item_id, move_date, seq, direction, quantity, unit_cost_applied, total_cost_applied, reference_type, reference_id, correlation_id, journal_entry_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxInventoryRepository struct {
	BaseRepository
}

func newPgxInventoryRepository(pool *pgxpool.Pool) portsrepo.InventoryRepositoryFacade {
	return &PgxInventoryRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.InventoryRepositoryFacade = (*PgxInventoryRepository)(nil)

func scanStockMove(row pgx.Row) (domain.StockMove, error) {
	var m domain.StockMove
	err := row.Scan(
		&m.MoveID,
		&m.TenantID,
		&m.LocationID,
		&m.ItemID,
		&m.MoveDate,
		&m.Seq,
		&m.Direction,
		&m.Quantity,
		&m.UnitCostApplied,
		&m.TotalCostApplied,
		&m.ReferenceType,
		&m.ReferenceID,
		&m.CorrelationID,
		&m.JournalEntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// FindLevelForUpdate locks the (tenant, location, item) level row for the rest
// of the transaction, returning a zero-valued level when none exists yet.
// Concurrent moves on the same pair serialize here.
func (r *PgxInventoryRepository) FindLevelForUpdate(ctx context.Context, tx pgx.Tx, tenantID, locationID, itemID string) (*domain.StockLevel, error) {
	query := `
		SELECT tenant_id, location_id, item_id, qty_on_hand, avg_unit_cost, last_move_at,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM stock_levels
		WHERE tenant_id = $1 AND location_id = $2 AND item_id = $3
		FOR UPDATE;
	`
	var l domain.StockLevel
	err := tx.QueryRow(ctx, query, tenantID, locationID, itemID).Scan(
		&l.TenantID, &l.LocationID, &l.ItemID, &l.QtyOnHand, &l.AvgUnitCost, &l.LastMoveAt,
		&l.CreatedAt, &l.CreatedBy, &l.LastUpdatedAt, &l.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.StockLevel{
				TenantID:    tenantID,
				LocationID:  locationID,
				ItemID:      itemID,
				QtyOnHand:   decimal.Zero,
				AvgUnitCost: decimal.Zero,
			}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to lock stock level for item "+itemID, err)
	}
	return &l, nil
}

func (r *PgxInventoryRepository) SaveMoveInTx(ctx context.Context, tx pgx.Tx, move domain.StockMove) error {
	query := `
		INSERT INTO stock_moves (` + stockMoveColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := tx.Exec(ctx, query,
		move.MoveID, move.TenantID, move.LocationID, move.ItemID, move.MoveDate, move.Seq,
		move.Direction, move.Quantity, move.UnitCostApplied, move.TotalCostApplied,
		move.ReferenceType, move.ReferenceID, move.CorrelationID, move.JournalEntryID,
		move.CreatedAt, move.CreatedBy, move.LastUpdatedAt, move.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert stock move "+move.MoveID, err)
	}
	return nil
}

// SaveLevelInTx upserts the aggregate level row.
func (r *PgxInventoryRepository) SaveLevelInTx(ctx context.Context, tx pgx.Tx, level domain.StockLevel) error {
	query := `
		INSERT INTO stock_levels (tenant_id, location_id, item_id, qty_on_hand, avg_unit_cost, last_move_at,
		                          created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, location_id, item_id) DO UPDATE
		SET qty_on_hand = EXCLUDED.qty_on_hand,
		    avg_unit_cost = EXCLUDED.avg_unit_cost,
		    last_move_at = EXCLUDED.last_move_at,
		    last_updated_at = EXCLUDED.last_updated_at,
		    last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := tx.Exec(ctx, query,
		level.TenantID, level.LocationID, level.ItemID,
		level.QtyOnHand, level.AvgUnitCost, level.LastMoveAt,
		level.CreatedAt, level.CreatedBy, level.LastUpdatedAt, level.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to upsert stock level for item "+level.ItemID, err)
	}
	return nil
}

// ListMovesFrom returns the replay slice: every move for the pair dated on or
// after fromDate, in (move_date, seq) order.
func (r *PgxInventoryRepository) ListMovesFrom(ctx context.Context, tx pgx.Tx, tenantID, locationID, itemID string, fromDate time.Time) ([]domain.StockMove, error) {
	query := `
		SELECT ` + stockMoveColumns + `
		FROM stock_moves
		WHERE tenant_id = $1 AND location_id = $2 AND item_id = $3 AND move_date >= $4
		ORDER BY move_date, seq;
	`
	rows, err := tx.Query(ctx, query, tenantID, locationID, itemID, fromDate)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query moves for item "+itemID, err)
	}
	defer rows.Close()

	var moves []domain.StockMove
	for rows.Next() {
		m, scanErr := scanStockMove(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan stock move row", scanErr)
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating stock move rows", err)
	}
	return moves, nil
}

func (r *PgxInventoryRepository) UpdateMoveCostsInTx(ctx context.Context, tx pgx.Tx, moveID string, unitCost, totalCost decimal.Decimal) error {
	query := `
		UPDATE stock_moves
		SET unit_cost_applied = $2, total_cost_applied = $3
		WHERE move_id = $1;
	`
	tag, err := tx.Exec(ctx, query, moveID, unitCost, totalCost)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update costs of move "+moveID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("stock move " + moveID + " not found")
	}
	return nil
}

func (r *PgxInventoryRepository) ListMovesByReference(ctx context.Context, tenantID, referenceType, referenceID string) ([]domain.StockMove, error) {
	query := `
		SELECT ` + stockMoveColumns + `
		FROM stock_moves
		WHERE tenant_id = $1 AND reference_type = $2 AND reference_id = $3
		ORDER BY move_date, seq;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, referenceType, referenceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query moves for reference "+referenceID, err)
	}
	defer rows.Close()

	var moves []domain.StockMove
	for rows.Next() {
		m, scanErr := scanStockMove(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan stock move row", scanErr)
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating stock move rows", err)
	}
	return moves, nil
}

// NextMoveSeq allocates the next per-tenant insertion sequence. The sequence
// orders same-date moves deterministically.
func (r *PgxInventoryRepository) NextMoveSeq(ctx context.Context, tx pgx.Tx, tenantID string) (int64, error) {
	query := `
		INSERT INTO stock_move_sequences (tenant_id, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (tenant_id) DO UPDATE SET last_seq = stock_move_sequences.last_seq + 1
		RETURNING last_seq;
	`
	var seq int64
	if err := tx.QueryRow(ctx, query, tenantID).Scan(&seq); err != nil {
		return 0, apperrors.NewAppError(500, "failed to allocate move sequence for tenant "+tenantID, err)
	}
	return seq, nil
}
