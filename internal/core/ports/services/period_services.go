package services

import (
	"context"
	"time"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// PeriodSvcFacade enforces the period-close boundary every dated posting
// passes through.
type PeriodSvcFacade interface {
	// AssertOpen rejects transactionDate with a PeriodClosedError when it falls
	// on or before the tenant's latest closed boundary (day granularity).
	AssertOpen(ctx context.Context, tenantID string, transactionDate time.Time) error

	ClosePeriod(ctx context.Context, tenantID, idempotencyKey string, toDate time.Time, notes, userID string) (*domain.PeriodClose, error)
	ListCloses(ctx context.Context, tenantID string) ([]domain.PeriodClose, error)
}
