package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// CreateAccountRequest creates a ledger account in the tenant's chart.
type CreateAccountRequest struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	AccountType   string `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	CurrencyCode  string `json:"currencyCode" binding:"required,len=3"`
	Description   string `json:"description"`
	IsBankAccount bool   `json:"isBankAccount"`
}

// AccountResponse is the API shape of an account.
type AccountResponse struct {
	AccountID     string          `json:"accountID"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	AccountType   string          `json:"accountType"`
	NormalBalance string          `json:"normalBalance"`
	CurrencyCode  string          `json:"currencyCode"`
	Description   string          `json:"description,omitempty"`
	IsBankAccount bool            `json:"isBankAccount"`
	IsActive      bool            `json:"isActive"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ToAccountResponse converts a domain account to its API shape.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     a.AccountID,
		Code:          a.Code,
		Name:          a.Name,
		AccountType:   string(a.AccountType),
		NormalBalance: string(a.NormalBalance),
		CurrencyCode:  a.CurrencyCode,
		Description:   a.Description,
		IsBankAccount: a.IsBankAccount,
		IsActive:      a.IsActive,
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
	}
}
