package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/dto"
	"github.com/ledgera/ledgera_backend/internal/middleware"
)

// accountService manages the tenant chart of accounts.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	currencySvc portssvc.CurrencySvcFacade
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, currencySvc portssvc.CurrencySvcFacade) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		currencySvc: currencySvc,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.currencySvc.GetCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, fmt.Errorf("failed to validate currency %s: %w", req.CurrencyCode, err)
	}

	accountType := domain.AccountType(req.AccountType)
	now := time.Now().UTC()
	account := domain.Account{
		AccountID:     uuid.NewString(),
		TenantID:      tenantID,
		Code:          req.Code,
		Name:          req.Name,
		AccountType:   accountType,
		NormalBalance: domain.NormalBalanceFor(accountType),
		CurrencyCode:  req.CurrencyCode,
		Description:   req.Description,
		IsBankAccount: req.IsBankAccount,
		IsActive:      true,
		Balance:       decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: account code %s already exists", apperrors.ErrDuplicate, req.Code)
		}
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("tenant_id", tenantID))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code), slog.String("tenant_id", tenantID))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
}

func (s *accountService) GetAccountByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	return s.accountRepo.FindAccountsByIDs(ctx, tenantID, accountIDs)
}

func (s *accountService) ListAccounts(ctx context.Context, tenantID string, limit, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.accountRepo.ListAccounts(ctx, tenantID, limit, offset)
}

func (s *accountService) DeactivateAccount(ctx context.Context, tenantID, accountID, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.accountRepo.DeactivateAccount(ctx, tenantID, accountID, userID, time.Now().UTC()); err != nil {
		return err
	}
	logger.Info("Account deactivated", slog.String("account_id", accountID), slog.String("tenant_id", tenantID))
	return nil
}
