package services

import (
	"context"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
	"github.com/ledgera/ledgera_backend/internal/dto"
)

// AccountSvcFacade manages the tenant chart of accounts.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error)
	GetAccountByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, tenantID string, limit, offset int) ([]domain.Account, error)
	DeactivateAccount(ctx context.Context, tenantID, accountID, userID string) error
}
