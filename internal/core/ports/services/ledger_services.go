package services

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
	"github.com/ledgera/ledgera_backend/internal/dto"
)

// LedgerReaderSvc defines read operations over journal entries.
type LedgerReaderSvc interface {
	GetEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// LedgerWriterSvc is the single write path for all financial postings.
type LedgerWriterSvc interface {
	// CreateEntry posts a manual journal entry from an external request as an
	// idempotent command keyed by (tenant, idempotencyKey).
	CreateEntry(ctx context.Context, tenantID, idempotencyKey string, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error)

	// PostEntryInTx validates and persists a balanced entry inside the caller's
	// transaction. Trusted internal callers that already validated accounts in
	// the same transaction set trustedLines to skip re-validation.
	PostEntryInTx(ctx context.Context, tx pgx.Tx, params domain.PostEntryParams) (*domain.JournalEntry, error)

	// ReverseEntry creates a correcting entry with every line's debit/credit
	// swapped. Fails when the original is itself a reversal or already reversed.
	ReverseEntry(ctx context.Context, tenantID, idempotencyKey, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error)

	// ReverseEntryInTx is the in-transaction form used by void/adjust pipelines.
	ReverseEntryInTx(ctx context.Context, tx pgx.Tx, tenantID, entryID, reason string, userID string) (*domain.JournalEntry, error)

	// AdjustEntryInTx supersedes the live adjustment (if any) and posts the
	// per-account delta between desired postings and the current effective
	// state. Returns nil entry when the delta has fewer than two nonzero lines.
	AdjustEntryInTx(ctx context.Context, tx pgx.Tx, params domain.AdjustEntryParams) (*domain.JournalEntry, error)
}

// LedgerSvcFacade combines ledger read and write operations.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
