package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry row.
type EntryStatus string

const (
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// JournalEntry is the database row shape for journal entries.
type JournalEntry struct {
	EntryID               string      `db:"entry_id"`
	TenantID              string      `db:"tenant_id"`
	EntryNumber           string      `db:"entry_number"`
	EntryDate             time.Time   `db:"entry_date"`
	Description           string      `db:"description"`
	CurrencyCode          string      `db:"currency_code"`
	Status                EntryStatus `db:"status"`
	ReversalOfEntryID     *string     `db:"reversal_of_entry_id"`
	ReversedByEntryID     *string     `db:"reversed_by_entry_id"`
	LastAdjustmentEntryID *string     `db:"last_adjustment_entry_id"`
	VoidedAt              *time.Time  `db:"voided_at"`
	VoidReason            string      `db:"void_reason"`
	AuditFields
}

// JournalLine is the database row shape for journal lines.
type JournalLine struct {
	LineID    string          `db:"line_id"`
	EntryID   string          `db:"entry_id"`
	AccountID string          `db:"account_id"`
	Debit     decimal.Decimal `db:"debit"`
	Credit    decimal.Decimal `db:"credit"`
	Memo      string          `db:"memo"`
	AuditFields
}
