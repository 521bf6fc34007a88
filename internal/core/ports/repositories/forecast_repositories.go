package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// ForecastRepositoryFacade supplies the read-side inputs of the cashflow
// projector.
type ForecastRepositoryFacade interface {
	// OpeningCash sums debit-credit across bank-flagged asset accounts.
	OpeningCash(ctx context.Context, tenantID string, asOf time.Time) (decimal.Decimal, error)

	ListRecurringItems(ctx context.Context, tenantID string) ([]domain.RecurringItem, error)
	SaveRecurringItem(ctx context.Context, item domain.RecurringItem) error
}
