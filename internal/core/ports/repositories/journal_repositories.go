package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// JournalRepositoryFacade persists journal entries and lines. Entries and lines
// are append-only; only reversal/adjustment metadata is ever updated.
type JournalRepositoryFacade interface {
	TransactionManager

	// SaveEntryInTx inserts the entry and its lines in the caller's transaction.
	SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine) error

	FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error)
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)
	ListEntries(ctx context.Context, tenantID string, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error)
	ListLinesByAccountID(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error)

	// MarkEntryReversedInTx records reversal linkage on the original entry.
	MarkEntryReversedInTx(ctx context.Context, tx pgx.Tx, entryID, reversedByEntryID, userID string, at time.Time) error

	// SetLastAdjustmentInTx records the live adjustment entry for an original entry.
	SetLastAdjustmentInTx(ctx context.Context, tx pgx.Tx, entryID string, adjustmentEntryID *string, userID string, at time.Time) error

	// MarkEntryVoidedInTx stamps void metadata on the entry.
	MarkEntryVoidedInTx(ctx context.Context, tx pgx.Tx, entryID, reason, userID string, at time.Time) error
}
