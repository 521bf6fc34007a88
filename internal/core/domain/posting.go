package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostEntryParams is the input of the ledger poster's in-transaction write path.
type PostEntryParams struct {
	TenantID    string
	Date        time.Time
	Description string

	// CurrencyCode is the entry currency. When empty it is derived from the
	// accounts on the lines (which must all share one currency).
	CurrencyCode string

	Lines []JournalLine

	// ReversalOfEntryID tags the entry as a reversal of another entry.
	ReversalOfEntryID *string

	// TrustedLines skips account existence/type validation for internal callers
	// that already validated the accounts inside the same transaction. External
	// lines are always validated.
	TrustedLines bool

	UserID string
}

// AdjustEntryParams describes a desired end state for a document's postings.
// The adjustment engine computes delta = desired - current effective state and
// posts only the nonzero per-account deltas.
type AdjustEntryParams struct {
	TenantID        string
	OriginalEntryID string
	Date            time.Time
	Description     string

	// DesiredNets is the target net (debit - credit) per account.
	DesiredNets map[string]decimal.Decimal

	UserID string
}
