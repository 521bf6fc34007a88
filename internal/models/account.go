package models

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

// Account is the database row shape for ledger accounts.
type Account struct {
	AccountID     string          `db:"account_id"`
	TenantID      string          `db:"tenant_id"`
	Code          string          `db:"code"`
	Name          string          `db:"name"`
	AccountType   AccountType     `db:"account_type"`
	NormalBalance string          `db:"normal_balance"`
	CurrencyCode  string          `db:"currency_code"`
	Description   string          `db:"description"`
	IsBankAccount bool            `db:"is_bank_account"`
	IsActive      bool            `db:"is_active"`
	Balance       decimal.Decimal `db:"balance"`
	AuditFields
}
