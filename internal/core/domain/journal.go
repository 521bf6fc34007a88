package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	EntryPosted   EntryStatus = "POSTED"
	EntryReversed EntryStatus = "REVERSED"
)

// JournalEntry is a single balanced financial event composed of journal lines.
// Once created it is immutable except for reversal/adjustment metadata; lines are
// never edited after creation.
type JournalEntry struct {
	EntryID               string      `json:"entryID"`
	TenantID              string      `json:"tenantID"`
	EntryNumber           string      `json:"entryNumber"` // e.g. JE-2026-0042
	EntryDate             time.Time   `json:"entryDate"`
	Description           string      `json:"description"`
	CurrencyCode          string      `json:"currencyCode"`
	Status                EntryStatus `json:"status"`
	ReversalOfEntryID     *string     `json:"reversalOfEntryID,omitempty"` // Set on reversing entries
	ReversedByEntryID     *string     `json:"reversedByEntryID,omitempty"` // Set on the original once reversed
	LastAdjustmentEntryID *string     `json:"lastAdjustmentEntryID,omitempty"`
	VoidedAt              *time.Time  `json:"voidedAt,omitempty"`
	VoidReason            string      `json:"voidReason,omitempty"`

	Lines []JournalLine `json:"lines,omitempty"` // Loaded separately for reads
	AuditFields
}

// IsReversal reports whether the entry itself reverses another entry.
func (e *JournalEntry) IsReversal() bool {
	return e.ReversalOfEntryID != nil
}

// JournalLine is a single line within a journal entry affecting one account.
// Exactly one of Debit/Credit is nonzero; both are rounded to the currency's
// minor-unit precision before the entry is balanced.
type JournalLine struct {
	LineID    string          `json:"lineID"`
	EntryID   string          `json:"entryID"`
	AccountID string          `json:"accountID"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo,omitempty"`
	AuditFields
}

// Net returns debit minus credit for the line.
func (l JournalLine) Net() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}
