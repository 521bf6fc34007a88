package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// NormalBalance is the side on which an account naturally increases.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "DEBIT"
	NormalCredit NormalBalance = "CREDIT"
)

// NormalBalanceFor derives the normal balance side from the account type.
func NormalBalanceFor(t AccountType) NormalBalance {
	switch t {
	case Asset, Expense:
		return NormalDebit
	default:
		return NormalCredit
	}
}

// Account represents a ledger account within a tenant's chart of accounts.
// AccountType (and the derived NormalBalance) is immutable once journal lines
// reference the account.
type Account struct {
	AccountID     string          `json:"accountID"`
	TenantID      string          `json:"tenantID"`
	Code          string          `json:"code"` // User-facing account code, e.g. "1200"
	Name          string          `json:"name"`
	AccountType   AccountType     `json:"accountType"`
	NormalBalance NormalBalance   `json:"normalBalance"`
	CurrencyCode  string          `json:"currencyCode"` // Tenant base currency
	Description   string          `json:"description"`
	IsBankAccount bool            `json:"isBankAccount"` // Counts toward opening cash in forecasts
	IsActive      bool            `json:"isActive"`
	Balance       decimal.Decimal `json:"balance"` // Persisted running balance (debits positive)
	AuditFields
}
