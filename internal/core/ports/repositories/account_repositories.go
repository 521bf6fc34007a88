package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// AccountRepositoryFacade provides access to tenant chart-of-accounts rows.
type AccountRepositoryFacade interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error)
	FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error)
	DeactivateAccount(ctx context.Context, tenantID, accountID, userID string, at time.Time) error

	// FindAccountsByIDsForUpdate locks the account rows FOR UPDATE. Must be
	// called within a transaction.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, accountIDs []string) (map[string]domain.Account, error)

	// UpdateAccountBalancesInTx applies signed balance deltas to locked accounts.
	UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, userID string, at time.Time) error
}
