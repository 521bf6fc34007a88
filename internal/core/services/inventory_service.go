package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/dto"
	"github.com/ledgera/ledgera_backend/internal/middleware"
	"github.com/ledgera/ledgera_backend/internal/platform/locking"
)

// Sentinels wrap an apperrors kind so handlers map them to a status without
// knowing this package.
var (
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock on hand", apperrors.ErrConflict)
	ErrInvalidMove       = fmt.Errorf("%w: invalid stock move", apperrors.ErrValidation)
)

// Unit costs carry extra fractional digits so repeated averaging does not
// accumulate rounding drift; totals are rounded at posting time.
const unitCostPrecision = 6

const inventoryLockTTL = 10 * time.Second

// inventoryService maintains weighted-average cost state per
// (tenant, location, item) over an append-only, replayable move timeline.
type inventoryService struct {
	inventoryRepo  portsrepo.InventoryRepositoryFacade
	outboxRepo     portsrepo.OutboxRepositoryFacade
	txManager      portsrepo.TransactionManager
	periodSvc      portssvc.PeriodSvcFacade
	ledgerSvc      portssvc.LedgerWriterSvc
	idempotencySvc portssvc.IdempotencySvcFacade
	locker         locking.Locker
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(
	inventoryRepo portsrepo.InventoryRepositoryFacade,
	outboxRepo portsrepo.OutboxRepositoryFacade,
	txManager portsrepo.TransactionManager,
	periodSvc portssvc.PeriodSvcFacade,
	ledgerSvc portssvc.LedgerWriterSvc,
	idempotencySvc portssvc.IdempotencySvcFacade,
	locker locking.Locker,
) portssvc.InventorySvcFacade {
	return &inventoryService{
		inventoryRepo:  inventoryRepo,
		outboxRepo:     outboxRepo,
		txManager:      txManager,
		periodSvc:      periodSvc,
		ledgerSvc:      ledgerSvc,
		idempotencySvc: idempotencySvc,
		locker:         locker,
	}
}

var _ portssvc.InventorySvcFacade = (*inventoryService)(nil)

// applyCostStep computes one move's applied costs and the resulting level
// state from the level preceding it. Pure; no I/O.
func applyCostStep(qty, avgCost decimal.Decimal, move *domain.StockMove) (newQty, newAvgCost decimal.Decimal, err error) {
	switch move.Direction {
	case domain.MoveIn:
		if !move.Quantity.IsPositive() {
			return qty, avgCost, fmt.Errorf("%w: IN quantity must be positive", ErrInvalidMove)
		}
		move.TotalCostApplied = move.UnitCostApplied.Mul(move.Quantity)
		newQty = qty.Add(move.Quantity)
		if qty.IsZero() || qty.IsNegative() {
			newAvgCost = move.UnitCostApplied
		} else {
			newAvgCost = qty.Mul(avgCost).Add(move.TotalCostApplied).Div(newQty).Round(unitCostPrecision)
		}
		return newQty, newAvgCost, nil

	case domain.MoveOut:
		if !move.Quantity.IsPositive() {
			return qty, avgCost, fmt.Errorf("%w: OUT quantity must be positive", ErrInvalidMove)
		}
		if move.Quantity.GreaterThan(qty) {
			return qty, avgCost, fmt.Errorf("%w: requested %s, on hand %s", ErrInsufficientStock, move.Quantity.String(), qty.String())
		}
		// Cost follows the existing average, never the sale price.
		move.UnitCostApplied = avgCost
		move.TotalCostApplied = avgCost.Mul(move.Quantity)
		return qty.Sub(move.Quantity), avgCost, nil

	case domain.MoveValueAdj:
		if !move.Quantity.IsZero() {
			return qty, avgCost, fmt.Errorf("%w: VALUE_ADJ must not change quantity", ErrInvalidMove)
		}
		if qty.IsZero() {
			return qty, avgCost, fmt.Errorf("%w: cannot adjust value with zero quantity on hand", ErrInvalidMove)
		}
		// TotalCostApplied carries the signed value delta.
		newValue := qty.Mul(avgCost).Add(move.TotalCostApplied)
		move.UnitCostApplied = decimal.Zero
		return qty, newValue.Div(qty).Round(unitCostPrecision), nil

	default:
		return qty, avgCost, fmt.Errorf("%w: unknown direction %q", ErrInvalidMove, move.Direction)
	}
}

// ApplyMoveInTx applies a stock move under the stock level row lock. When the
// move is dated before the latest existing move, the in-place average update
// is invalid; the move is still recorded and RequiresRecalcFromDate tells the
// caller to run the forward replay before committing.
func (s *inventoryService) ApplyMoveInTx(ctx context.Context, tx pgx.Tx, params portssvc.ApplyMoveParams) (*domain.MoveResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// The boundary applies to the move's own date, not the command's date.
	if err := s.periodSvc.AssertOpen(ctx, params.TenantID, params.Date); err != nil {
		return nil, err
	}

	level, err := s.inventoryRepo.FindLevelForUpdate(ctx, tx, params.TenantID, params.LocationID, params.ItemID)
	if err != nil {
		return nil, err
	}

	seq, err := s.inventoryRepo.NextMoveSeq(ctx, tx, params.TenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	move := domain.StockMove{
		MoveID:        uuid.NewString(),
		TenantID:      params.TenantID,
		LocationID:    params.LocationID,
		ItemID:        params.ItemID,
		MoveDate:      params.Date,
		Seq:           seq,
		Direction:     params.Direction,
		Quantity:      params.Quantity,
		ReferenceType: params.ReferenceType,
		ReferenceID:   params.ReferenceID,
		CorrelationID: params.CorrelationID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     params.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: params.UserID,
		},
	}
	switch params.Direction {
	case domain.MoveIn:
		move.UnitCostApplied = params.UnitCost
	case domain.MoveValueAdj:
		move.TotalCostApplied = params.ValueDelta
	}

	backdated := !level.LastMoveAt.IsZero() && params.Date.Before(level.LastMoveAt)

	newQty, newAvgCost, err := applyCostStep(level.QtyOnHand, level.AvgUnitCost, &move)
	if err != nil {
		if !backdated {
			return nil, err
		}
		// With later moves in between, the current level is not the state at
		// the move's date; the replay below validates against the true state.
	}

	if err := s.inventoryRepo.SaveMoveInTx(ctx, tx, move); err != nil {
		return nil, err
	}

	result := &domain.MoveResult{Move: move}

	if backdated {
		recalcFrom := params.Date
		result.RequiresRecalcFromDate = &recalcFrom
		result.Level = *level
		logger.Info("Backdated stock move recorded, forward replay required",
			slog.String("move_id", move.MoveID),
			slog.String("item_id", params.ItemID),
			slog.Time("from_date", recalcFrom),
		)
		return result, nil
	}

	level.QtyOnHand = newQty
	level.AvgUnitCost = newAvgCost
	level.LastMoveAt = params.Date
	level.LastUpdatedAt = now
	level.LastUpdatedBy = params.UserID
	if level.CreatedAt.IsZero() {
		level.CreatedAt = now
		level.CreatedBy = params.UserID
	}
	if err := s.inventoryRepo.SaveLevelInTx(ctx, tx, *level); err != nil {
		return nil, err
	}

	result.Level = *level
	return result, nil
}

// RecalculateFromInTx forward-replays the whole move timeline for the pair,
// rewriting each move's applied costs and the aggregate level. Replaying from
// the zero state rather than a stored baseline makes the pass deterministic
// and safe to re-run if interrupted; fromDate only scopes which moves can have
// changed costs.
func (s *inventoryService) RecalculateFromInTx(ctx context.Context, tx pgx.Tx, tenantID, locationID, itemID string, fromDate time.Time, userID string) (*domain.StockLevel, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	level, err := s.inventoryRepo.FindLevelForUpdate(ctx, tx, tenantID, locationID, itemID)
	if err != nil {
		return nil, err
	}

	moves, err := s.inventoryRepo.ListMovesFrom(ctx, tx, tenantID, locationID, itemID, time.Time{})
	if err != nil {
		return nil, err
	}

	qty, avgCost := decimal.Zero, decimal.Zero
	lastMoveAt := time.Time{}
	rewritten := 0
	for i := range moves {
		move := moves[i]
		prevUnit, prevTotal := move.UnitCostApplied, move.TotalCostApplied
		qty, avgCost, err = applyCostStep(qty, avgCost, &move)
		if err != nil {
			return nil, fmt.Errorf("replay failed at move %s: %w", move.MoveID, err)
		}
		lastMoveAt = move.MoveDate
		if !move.UnitCostApplied.Equal(prevUnit) || !move.TotalCostApplied.Equal(prevTotal) {
			if err := s.inventoryRepo.UpdateMoveCostsInTx(ctx, tx, move.MoveID, move.UnitCostApplied, move.TotalCostApplied); err != nil {
				return nil, err
			}
			rewritten++
		}
	}

	now := time.Now().UTC()
	level.QtyOnHand = qty
	level.AvgUnitCost = avgCost
	level.LastMoveAt = lastMoveAt
	level.LastUpdatedAt = now
	level.LastUpdatedBy = userID
	if level.CreatedAt.IsZero() {
		level.CreatedAt = now
		level.CreatedBy = userID
	}
	if err := s.inventoryRepo.SaveLevelInTx(ctx, tx, *level); err != nil {
		return nil, err
	}

	logger.Info("Stock timeline recalculated",
		slog.String("item_id", itemID),
		slog.String("location_id", locationID),
		slog.Int("moves", len(moves)),
		slog.Int("rewritten", rewritten),
	)
	return level, nil
}

// AdjustValue capitalizes a value-only adjustment (e.g. landed cost) as a
// locked command: the VALUE_ADJ move, any required replay, the journal
// posting, and the outbox row share one transaction.
func (s *inventoryService) AdjustValue(ctx context.Context, tenantID, idempotencyKey string, req dto.ValueAdjustmentRequest, userID string) (*domain.StockLevel, error) {
	if req.ValueDelta.IsZero() {
		return nil, fmt.Errorf("%w: value delta must be nonzero", apperrors.ErrValidation)
	}

	lockKey := locking.Key("stock", "move", tenantID, req.LocationID, req.ItemID)
	correlationID := uuid.NewString()

	var level *domain.StockLevel
	var replayed bool
	err := s.locker.WithLock(ctx, lockKey, inventoryLockTTL, func(ctx context.Context) error {
		_, wasReplay, err := s.idempotencySvc.RunOnce(ctx, tenantID, idempotencyKey, "AdjustInventoryValue", func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
			result, err := s.ApplyMoveInTx(ctx, tx, portssvc.ApplyMoveParams{
				TenantID:      tenantID,
				LocationID:    req.LocationID,
				ItemID:        req.ItemID,
				Date:          req.Date,
				Direction:     domain.MoveValueAdj,
				Quantity:      decimal.Zero,
				ValueDelta:    req.ValueDelta,
				ReferenceType: "ADJUSTMENT",
				ReferenceID:   req.ReferenceID,
				CorrelationID: correlationID,
				UserID:        userID,
			})
			if err != nil {
				return nil, err
			}

			if result.RequiresRecalcFromDate != nil {
				if level, err = s.RecalculateFromInTx(ctx, tx, tenantID, req.LocationID, req.ItemID, *result.RequiresRecalcFromDate, userID); err != nil {
					return nil, err
				}
			} else {
				level = &result.Level
			}

			description := "Inventory value adjustment for item " + req.ItemID
			if req.Memo != "" {
				description += ": " + req.Memo
			}
			debitLine := domain.JournalLine{AccountID: req.InventoryAccountID, Debit: req.ValueDelta, Memo: req.Memo}
			creditLine := domain.JournalLine{AccountID: req.OffsetAccountID, Credit: req.ValueDelta, Memo: req.Memo}
			if req.ValueDelta.IsNegative() {
				debitLine = domain.JournalLine{AccountID: req.OffsetAccountID, Debit: req.ValueDelta.Neg(), Memo: req.Memo}
				creditLine = domain.JournalLine{AccountID: req.InventoryAccountID, Credit: req.ValueDelta.Neg(), Memo: req.Memo}
			}
			if _, err := s.ledgerSvc.PostEntryInTx(ctx, tx, domain.PostEntryParams{
				TenantID:    tenantID,
				Date:        req.Date,
				Description: description,
				Lines:       []domain.JournalLine{debitLine, creditLine},
				UserID:      userID,
			}); err != nil {
				return nil, err
			}

			event, err := newOutboxEvent(tenantID, domain.EventStockRecalculated, "StockLevel", req.ItemID, correlationID, nil, dto.ToStockLevelResponse(level))
			if err != nil {
				return nil, err
			}
			if err := s.outboxRepo.EmitInTx(ctx, tx, event); err != nil {
				return nil, err
			}
			return json.Marshal(dto.ToStockLevelResponse(level))
		})
		replayed = wasReplay
		return err
	})
	if err != nil {
		return nil, err
	}
	if replayed {
		return s.GetLevel(ctx, tenantID, req.LocationID, req.ItemID)
	}
	return level, nil
}

// GetLevel reads the current stock level for the pair.
func (s *inventoryService) GetLevel(ctx context.Context, tenantID, locationID, itemID string) (*domain.StockLevel, error) {
	var level *domain.StockLevel
	err := s.txManager.RunInTx(ctx, func(tx pgx.Tx) error {
		l, err := s.inventoryRepo.FindLevelForUpdate(ctx, tx, tenantID, locationID, itemID)
		if err != nil {
			return err
		}
		level = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}
