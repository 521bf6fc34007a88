package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/middleware"
)

// periodService enforces the tenant's period-close boundary.
type periodService struct {
	periodRepo     portsrepo.PeriodRepositoryFacade
	idempotencySvc portssvc.IdempotencySvcFacade
}

// NewPeriodService creates a new PeriodService.
func NewPeriodService(periodRepo portsrepo.PeriodRepositoryFacade, idempotencySvc portssvc.IdempotencySvcFacade) portssvc.PeriodSvcFacade {
	return &periodService{periodRepo: periodRepo, idempotencySvc: idempotencySvc}
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

// truncateToDay drops the time-of-day component; the boundary check is
// day-granular in UTC.
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AssertOpen rejects transactionDate when it falls on or before the latest
// closed boundary. A date exactly on the boundary is rejected; the day after
// is accepted.
func (s *periodService) AssertOpen(ctx context.Context, tenantID string, transactionDate time.Time) error {
	closedThrough, err := s.periodRepo.LatestCloseDate(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load period boundary for tenant %s: %w", tenantID, err)
	}
	if closedThrough == nil {
		return nil
	}
	if !truncateToDay(transactionDate).After(truncateToDay(*closedThrough)) {
		return &apperrors.PeriodClosedError{ClosedThroughDate: truncateToDay(*closedThrough)}
	}
	return nil
}

func (s *periodService) ClosePeriod(ctx context.Context, tenantID, idempotencyKey string, toDate time.Time, notes, userID string) (*domain.PeriodClose, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	toDate = truncateToDay(toDate)
	latest, err := s.periodRepo.LatestCloseDate(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load period boundary for tenant %s: %w", tenantID, err)
	}
	if latest != nil && !toDate.After(truncateToDay(*latest)) {
		return nil, fmt.Errorf("%w: period already closed through %s", apperrors.ErrValidation, latest.Format("2006-01-02"))
	}

	var saved domain.PeriodClose
	result, replayed, err := s.idempotencySvc.RunOnce(ctx, tenantID, idempotencyKey, "ClosePeriod", func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
		now := time.Now().UTC()
		close := domain.PeriodClose{
			PeriodCloseID: uuid.NewString(),
			TenantID:      tenantID,
			ToDate:        toDate,
			Notes:         notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.periodRepo.SavePeriodCloseInTx(ctx, tx, close); err != nil {
			logger.Error("Failed to save period close", slog.String("error", err.Error()), slog.String("tenant_id", tenantID))
			return nil, fmt.Errorf("failed to save period close: %w", err)
		}
		saved = close
		return json.Marshal(close)
	})
	if err != nil {
		return nil, err
	}
	if replayed {
		var close domain.PeriodClose
		if err := json.Unmarshal(result, &close); err != nil {
			return nil, fmt.Errorf("failed to decode stored period close result: %w", err)
		}
		return &close, nil
	}

	logger.Info("Period closed", slog.String("tenant_id", tenantID), slog.String("to_date", toDate.Format("2006-01-02")))
	return &saved, nil
}

func (s *periodService) ListCloses(ctx context.Context, tenantID string) ([]domain.PeriodClose, error) {
	return s.periodRepo.ListPeriodCloses(ctx, tenantID)
}
