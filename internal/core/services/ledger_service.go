package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/dto"
	"github.com/ledgera/ledgera_backend/internal/middleware"
	"github.com/ledgera/ledgera_backend/internal/utils/accounting"
)

// Sentinels wrap an apperrors kind so handlers map them to a status without
// knowing this package.
var (
	ErrEntryUnbalanced    = fmt.Errorf("%w: journal entry does not balance", apperrors.ErrValidation)
	ErrEntryMinAccounts   = fmt.Errorf("%w: journal entry must affect at least two different accounts", apperrors.ErrValidation)
	ErrAccountNotFound    = fmt.Errorf("%w: account not found", apperrors.ErrValidation)
	ErrCurrencyMismatch   = fmt.Errorf("%w: account currency does not match entry currency", apperrors.ErrValidation)
	ErrAlreadyReversed    = fmt.Errorf("%w: journal entry is already reversed", apperrors.ErrConflict)
	ErrReversalOfReversal = fmt.Errorf("%w: cannot reverse a reversal entry", apperrors.ErrConflict)
	ErrDescriptionMissing = fmt.Errorf("%w: entry description is required", apperrors.ErrValidation)
)

// entrySequenceKey names the per-tenant journal entry number counter.
const entrySequenceKey = "JE"

// ledgerService is the single write path to the journal. Every financial
// posting, whether manual or produced by a document command, flows through
// PostEntryInTx.
type ledgerService struct {
	journalRepo    portsrepo.JournalRepositoryFacade
	accountRepo    portsrepo.AccountRepositoryFacade
	sequenceRepo   portsrepo.SequenceRepositoryFacade
	outboxRepo     portsrepo.OutboxRepositoryFacade
	currencySvc    portssvc.CurrencySvcFacade
	periodSvc      portssvc.PeriodSvcFacade
	idempotencySvc portssvc.IdempotencySvcFacade
	publisher      portssvc.OutboxPublisherSvc
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	journalRepo portsrepo.JournalRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	sequenceRepo portsrepo.SequenceRepositoryFacade,
	outboxRepo portsrepo.OutboxRepositoryFacade,
	currencySvc portssvc.CurrencySvcFacade,
	periodSvc portssvc.PeriodSvcFacade,
	idempotencySvc portssvc.IdempotencySvcFacade,
	publisher portssvc.OutboxPublisherSvc,
) portssvc.LedgerSvcFacade {
	return &ledgerService{
		journalRepo:    journalRepo,
		accountRepo:    accountRepo,
		sequenceRepo:   sequenceRepo,
		outboxRepo:     outboxRepo,
		currencySvc:    currencySvc,
		periodSvc:      periodSvc,
		idempotencySvc: idempotencySvc,
		publisher:      publisher,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// precisionFor resolves the minor-unit precision of a currency, defaulting to 2
// when the currency row is missing.
func (s *ledgerService) precisionFor(ctx context.Context, currencyCode string) int32 {
	currency, err := s.currencySvc.GetCurrencyByCode(ctx, currencyCode)
	if err != nil {
		return 2
	}
	return currency.Precision
}

// PostEntryInTx validates and persists a balanced journal entry inside the
// caller's transaction. Line amounts are rounded to minor-unit precision
// before balance is checked; caller-computed totals are never trusted.
func (s *ledgerService) PostEntryInTx(ctx context.Context, tx pgx.Tx, params domain.PostEntryParams) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if params.Description == "" {
		return nil, ErrDescriptionMissing
	}
	if err := s.periodSvc.AssertOpen(ctx, params.TenantID, params.Date); err != nil {
		return nil, err
	}
	if err := accounting.ValidateEntryLines(params.Lines); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	accountIDs := make([]string, 0, len(params.Lines))
	seen := make(map[string]bool, len(params.Lines))
	for _, l := range params.Lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			accountIDs = append(accountIDs, l.AccountID)
		}
	}
	if len(accountIDs) < 2 {
		return nil, ErrEntryMinAccounts
	}

	currencyCode := params.CurrencyCode
	accountTypes := make(map[string]domain.AccountType, len(accountIDs))

	if params.TrustedLines && currencyCode != "" {
		// Internal caller already validated and locked the accounts in this
		// transaction; types are still needed for balance updates.
		accounts, err := s.accountRepo.FindAccountsByIDs(ctx, params.TenantID, accountIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load accounts for entry: %w", err)
		}
		for id, acc := range accounts {
			accountTypes[id] = acc.AccountType
		}
	} else {
		// Lock account rows so concurrent postings serialize their balance
		// updates and deactivation cannot race the write.
		accounts, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, params.TenantID, accountIDs)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, err.Error())
			}
			return nil, fmt.Errorf("failed to lock accounts for entry: %w", err)
		}
		for _, id := range accountIDs {
			acc, found := accounts[id]
			if !found {
				return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
			}
			if !acc.IsActive {
				return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
			}
			if currencyCode == "" {
				currencyCode = acc.CurrencyCode
			}
			if acc.CurrencyCode != currencyCode {
				return nil, fmt.Errorf("%w: account %s is %s, entry is %s", ErrCurrencyMismatch, id, acc.CurrencyCode, currencyCode)
			}
			accountTypes[id] = acc.AccountType
		}
	}

	precision := s.precisionFor(ctx, currencyCode)

	now := time.Now().UTC()
	entryID := uuid.NewString()
	lines := make([]domain.JournalLine, len(params.Lines))
	for i, l := range params.Lines {
		lines[i] = domain.JournalLine{
			LineID:    uuid.NewString(),
			EntryID:   entryID,
			AccountID: l.AccountID,
			Debit:     accounting.RoundMinor(l.Debit, precision),
			Credit:    accounting.RoundMinor(l.Credit, precision),
			Memo:      l.Memo,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     params.UserID,
				LastUpdatedAt: now,
				LastUpdatedBy: params.UserID,
			},
		}
	}

	if err := accounting.ValidateEntryBalance(lines, precision); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryUnbalanced, err.Error())
	}

	seqNum, err := s.sequenceRepo.NextNumberInTx(ctx, tx, params.TenantID, entrySequenceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate entry number: %w", err)
	}

	entry := domain.JournalEntry{
		EntryID:           entryID,
		TenantID:          params.TenantID,
		EntryNumber:       fmt.Sprintf("%s-%d-%04d", entrySequenceKey, params.Date.Year(), seqNum),
		EntryDate:         params.Date,
		Description:       params.Description,
		CurrencyCode:      currencyCode,
		Status:            domain.EntryPosted,
		ReversalOfEntryID: params.ReversalOfEntryID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     params.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: params.UserID,
		},
	}

	if err := s.journalRepo.SaveEntryInTx(ctx, tx, entry, lines); err != nil {
		logger.Error("Failed to save journal entry", slog.String("error", err.Error()), slog.String("tenant_id", params.TenantID))
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	// Maintain persisted running balances in the same transaction.
	deltas := make(map[string]decimal.Decimal, len(accountTypes))
	for _, l := range lines {
		signed, err := accounting.SignedAmount(l, accountTypes[l.AccountID])
		if err != nil {
			return nil, fmt.Errorf("failed to compute balance delta: %w", err)
		}
		deltas[l.AccountID] = deltas[l.AccountID].Add(signed)
	}
	if err := s.accountRepo.UpdateAccountBalancesInTx(ctx, tx, deltas, params.UserID, now); err != nil {
		return nil, fmt.Errorf("failed to update account balances: %w", err)
	}

	logger.Info("Journal entry posted",
		slog.String("entry_id", entry.EntryID),
		slog.String("entry_number", entry.EntryNumber),
		slog.String("tenant_id", params.TenantID),
	)
	entry.Lines = lines
	return &entry, nil
}

// CreateEntry posts a manual journal entry as an idempotent command: the
// marker row, the entry, and the journal.posted outbox row share one
// transaction; delivery fires after commit.
func (s *ledgerService) CreateEntry(ctx context.Context, tenantID, idempotencyKey string, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error) {
	lines := make([]domain.JournalLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = domain.JournalLine{
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			Memo:      l.Memo,
		}
	}

	var entry *domain.JournalEntry
	var eventID string
	work := func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
		posted, err := s.PostEntryInTx(ctx, tx, domain.PostEntryParams{
			TenantID:    tenantID,
			Date:        req.Date,
			Description: req.Description,
			Lines:       lines,
			UserID:      userID,
		})
		if err != nil {
			return nil, err
		}
		entry = posted

		event, err := newOutboxEvent(tenantID, domain.EventJournalPosted, "JournalEntry", posted.EntryID, uuid.NewString(), nil, dto.ToEntryResponse(posted))
		if err != nil {
			return nil, err
		}
		if err := s.outboxRepo.EmitInTx(ctx, tx, event); err != nil {
			return nil, err
		}
		eventID = event.EventID

		return json.Marshal(dto.ToEntryResponse(posted))
	}

	result, replayed, err := s.idempotencySvc.RunOnce(ctx, tenantID, idempotencyKey, "CreateJournalEntry", work)
	if err != nil {
		return nil, err
	}
	if replayed {
		var resp dto.EntryResponse
		if err := json.Unmarshal(result, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode stored entry result: %w", err)
		}
		return s.GetEntryByID(ctx, tenantID, resp.EntryID)
	}

	s.publisher.PublishEvent(ctx, eventID)
	return entry, nil
}

// ReverseEntryInTx posts the mirror entry (debits and credits swapped) and
// marks the original reversed, all inside the caller's transaction.
func (s *ledgerService) ReverseEntryInTx(ctx context.Context, tx pgx.Tx, tenantID, entryID, reason string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.journalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	if original.IsReversal() {
		return nil, ErrReversalOfReversal
	}
	if original.Status == domain.EntryReversed || original.ReversedByEntryID != nil {
		return nil, fmt.Errorf("%w: entry %s", ErrAlreadyReversed, entryID)
	}

	originalLines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines of entry %s: %w", entryID, err)
	}

	mirrored := make([]domain.JournalLine, len(originalLines))
	for i, l := range originalLines {
		mirrored[i] = domain.JournalLine{
			AccountID: l.AccountID,
			Debit:     l.Credit,
			Credit:    l.Debit,
			Memo:      l.Memo,
		}
	}

	description := "Reversal of " + original.EntryNumber
	if reason != "" {
		description += ": " + reason
	}

	// The reversal is dated today; the original's date may fall in a closed
	// period and must stay untouched. The mirrored accounts were validated
	// when the original posted, so the lines are trusted.
	reversal, err := s.PostEntryInTx(ctx, tx, domain.PostEntryParams{
		TenantID:          tenantID,
		Date:              time.Now().UTC(),
		Description:       description,
		CurrencyCode:      original.CurrencyCode,
		Lines:             mirrored,
		ReversalOfEntryID: &original.EntryID,
		TrustedLines:      true,
		UserID:            userID,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.journalRepo.MarkEntryReversedInTx(ctx, tx, original.EntryID, reversal.EntryID, userID, now); err != nil {
		return nil, err
	}

	logger.Info("Journal entry reversed",
		slog.String("entry_id", original.EntryID),
		slog.String("reversal_entry_id", reversal.EntryID),
		slog.String("tenant_id", tenantID),
	)
	return reversal, nil
}

// ReverseEntry runs ReverseEntryInTx as an idempotent command, emitting
// journal.posted for the reversal entry.
func (s *ledgerService) ReverseEntry(ctx context.Context, tenantID, idempotencyKey, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error) {
	var reversal *domain.JournalEntry
	var eventID string
	work := func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
		r, err := s.ReverseEntryInTx(ctx, tx, tenantID, entryID, req.Reason, userID)
		if err != nil {
			return nil, err
		}
		reversal = r

		event, err := newOutboxEvent(tenantID, domain.EventJournalPosted, "JournalEntry", r.EntryID, uuid.NewString(), nil, dto.ToEntryResponse(r))
		if err != nil {
			return nil, err
		}
		if err := s.outboxRepo.EmitInTx(ctx, tx, event); err != nil {
			return nil, err
		}
		eventID = event.EventID

		return json.Marshal(dto.ToEntryResponse(r))
	}

	result, replayed, err := s.idempotencySvc.RunOnce(ctx, tenantID, idempotencyKey, "ReverseJournalEntry", work)
	if err != nil {
		return nil, err
	}
	if replayed {
		var resp dto.EntryResponse
		if err := json.Unmarshal(result, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode stored reversal result: %w", err)
		}
		return s.GetEntryByID(ctx, tenantID, resp.EntryID)
	}

	s.publisher.PublishEvent(ctx, eventID)
	return reversal, nil
}

// AdjustEntryInTx brings a document's postings to a desired end state by
// reversing the live adjustment (if any) and posting only the per-account
// delta between the desired nets and the current effective state. At most one
// adjustment entry is live per original entry at a time.
func (s *ledgerService) AdjustEntryInTx(ctx context.Context, tx pgx.Tx, params domain.AdjustEntryParams) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.journalRepo.FindEntryByID(ctx, params.TenantID, params.OriginalEntryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", params.OriginalEntryID, err)
	}
	if original.Status == domain.EntryReversed {
		return nil, fmt.Errorf("%w: cannot adjust a reversed entry", apperrors.ErrValidation)
	}

	// Effective state = original entry nets. A previous adjustment is reversed
	// first, so it contributes nothing afterwards.
	if original.LastAdjustmentEntryID != nil {
		if _, err := s.ReverseEntryInTx(ctx, tx, params.TenantID, *original.LastAdjustmentEntryID, "superseded by new adjustment", params.UserID); err != nil {
			return nil, fmt.Errorf("failed to supersede adjustment %s: %w", *original.LastAdjustmentEntryID, err)
		}
	}

	originalLines, err := s.journalRepo.FindLinesByEntryID(ctx, params.OriginalEntryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines of entry %s: %w", params.OriginalEntryID, err)
	}
	currentNets := accounting.NetPerAccount(originalLines)

	precision := s.precisionFor(ctx, original.CurrencyCode)

	// delta = desired - current, per account across both key sets.
	accountIDs := make(map[string]bool, len(params.DesiredNets)+len(currentNets))
	for id := range params.DesiredNets {
		accountIDs[id] = true
	}
	for id := range currentNets {
		accountIDs[id] = true
	}

	var deltaLines []domain.JournalLine
	for id := range accountIDs {
		delta := accounting.RoundMinor(params.DesiredNets[id].Sub(currentNets[id]), precision)
		if delta.IsZero() {
			continue
		}
		line := domain.JournalLine{AccountID: id}
		if delta.IsPositive() {
			line.Debit = delta
		} else {
			line.Credit = delta.Neg()
		}
		deltaLines = append(deltaLines, line)
	}

	if len(deltaLines) < 2 {
		// Desired state already holds. The superseded adjustment was reversed
		// above, so the link must be cleared or later adjustments and voids
		// would try to reverse it a second time.
		if original.LastAdjustmentEntryID != nil {
			if err := s.journalRepo.SetLastAdjustmentInTx(ctx, tx, params.OriginalEntryID, nil, params.UserID, time.Now().UTC()); err != nil {
				return nil, err
			}
		}
		logger.Debug("Adjustment delta is empty, nothing to post", slog.String("entry_id", params.OriginalEntryID))
		return nil, nil
	}

	adjustment, err := s.PostEntryInTx(ctx, tx, domain.PostEntryParams{
		TenantID:     params.TenantID,
		Date:         params.Date,
		Description:  params.Description,
		CurrencyCode: original.CurrencyCode,
		Lines:        deltaLines,
		UserID:       params.UserID,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.journalRepo.SetLastAdjustmentInTx(ctx, tx, params.OriginalEntryID, &adjustment.EntryID, params.UserID, now); err != nil {
		return nil, err
	}

	logger.Info("Adjustment entry posted",
		slog.String("original_entry_id", params.OriginalEntryID),
		slog.String("adjustment_entry_id", adjustment.EntryID),
		slog.String("tenant_id", params.TenantID),
	)
	return adjustment, nil
}

// GetEntryByID retrieves an entry with its lines.
func (s *ledgerService) GetEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	lines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines of entry %s: %w", entryID, err)
	}
	entry.Lines = lines
	return entry, nil
}

// ListEntries retrieves a page of entries for a tenant.
func (s *ledgerService) ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	entries, nextToken, err := s.journalRepo.ListEntries(ctx, tenantID, params.Limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		return nil, err
	}
	resp := &dto.ListEntriesResponse{NextToken: nextToken}
	for i := range entries {
		resp.Entries = append(resp.Entries, dto.ToEntryResponse(&entries[i]))
	}
	return resp, nil
}
