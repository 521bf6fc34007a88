package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// PeriodRepositoryFacade stores period-close boundaries.
type PeriodRepositoryFacade interface {
	SavePeriodCloseInTx(ctx context.Context, tx pgx.Tx, close domain.PeriodClose) error

	// LatestCloseDate returns the latest toDate for the tenant, or nil when no
	// period has been closed.
	LatestCloseDate(ctx context.Context, tenantID string) (*time.Time, error)

	ListPeriodCloses(ctx context.Context, tenantID string) ([]domain.PeriodClose, error)
}
