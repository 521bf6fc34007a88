package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
	"github.com/ledgera/ledgera_backend/internal/models"
	"github.com/ledgera/ledgera_backend/internal/utils/mapping"
	"github.com/ledgera/ledgera_backend/internal/utils/pagination"
)

const entryColumns = `entry_id, tenant_id, entry_number, entry_date, description, currency_code, status, reversal_of_entry_id, reversed_by_entry_id, last_adjustment_entry_id, voided_at, void_reason, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, entry_id, account_id, debit, credit, memo, created_at, created_by, last_updated_at, last_updated_by`

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entry data.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.TenantID,
		&m.EntryNumber,
		&m.EntryDate,
		&m.Description,
		&m.CurrencyCode,
		&m.Status,
		&m.ReversalOfEntryID,
		&m.ReversedByEntryID,
		&m.LastAdjustmentEntryID,
		&m.VoidedAt,
		&m.VoidReason,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func scanLine(row pgx.Row) (models.JournalLine, error) {
	var m models.JournalLine
	err := row.Scan(
		&m.LineID,
		&m.EntryID,
		&m.AccountID,
		&m.Debit,
		&m.Credit,
		&m.Memo,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveEntryInTx inserts the entry header and its lines inside the caller's
// transaction. Lines are batched; entries and lines are never updated after
// this insert.
func (r *PgxJournalRepository) SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine) error {
	m := mapping.ToModelJournalEntry(entry)
	entryQuery := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := tx.Exec(ctx, entryQuery,
		m.EntryID, m.TenantID, m.EntryNumber, m.EntryDate, m.Description,
		m.CurrencyCode, m.Status, m.ReversalOfEntryID, m.ReversedByEntryID,
		m.LastAdjustmentEntryID, m.VoidedAt, m.VoidReason,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert journal entry "+m.EntryID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	for _, line := range lines {
		lm := mapping.ToModelJournalLine(line)
		batch.Queue(lineQuery,
			lm.LineID, lm.EntryID, lm.AccountID, lm.Debit, lm.Credit, lm.Memo,
			lm.CreatedAt, lm.CreatedBy, lm.LastUpdatedAt, lm.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert journal lines for entry "+m.EntryID, err)
	}
	return nil
}

// FindEntryByID retrieves a journal entry header by tenant and id.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE tenant_id = $1 AND entry_id = $2;`
	m, err := scanEntry(r.Pool.QueryRow(ctx, query, tenantID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find journal entry "+entryID, err)
	}
	d := mapping.ToDomainJournalEntry(m)
	return &d, nil
}

// FindLinesByEntryID retrieves all lines of an entry in insertion order.
func (r *PgxJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `SELECT ` + lineColumns + ` FROM journal_lines WHERE entry_id = $1 ORDER BY line_id;`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for entry "+entryID, err)
	}
	defer rows.Close()

	var ms []models.JournalLine
	for rows.Next() {
		m, err := scanLine(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan journal line row", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating journal line rows", err)
	}
	return mapping.ToDomainJournalLineSlice(ms), nil
}

// ListEntries retrieves a page of entries for a tenant using token pagination,
// newest first.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, tenantID string, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + entryColumns + ` FROM journal_entries`
	filterClause := `WHERE tenant_id = $1`
	if !includeReversals {
		filterClause += ` AND status != 'REVERSED' AND reversal_of_entry_id IS NULL`
	}
	orderByClause := `ORDER BY entry_date DESC, created_at DESC`

	args := []interface{}{tenantID}
	query := baseQuery + " " + filterClause
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND (entry_date, created_at) < ($2, $3)`
		args = append(args, lastDate, lastCreatedAt)
	}
	query += " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query journal entries for tenant "+tenantID, err)
	}
	defer rows.Close()

	ms := make([]models.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal entry row", scanErr)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating journal entry rows", err)
	}

	var nextTokenVal *string
	results := ms
	if len(ms) > limit {
		last := ms[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		nextTokenVal = &token
		results = ms[:limit]
	}

	out := make([]domain.JournalEntry, len(results))
	for i, m := range results {
		out[i] = mapping.ToDomainJournalEntry(m)
	}
	return out, nextTokenVal, nil
}

// ListLinesByAccountID retrieves a page of lines touching one account, joined
// through non-reversed posted entries, newest first.
func (r *PgxJournalRepository) ListLinesByAccountID(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT l.line_id, l.entry_id, l.account_id, l.debit, l.credit, l.memo,
		       l.created_at, l.created_by, l.last_updated_at, l.last_updated_by,
		       e.entry_date
		FROM journal_lines l
		JOIN journal_entries e ON l.entry_id = e.entry_id
		WHERE l.account_id = $1 AND e.tenant_id = $2 AND e.status = 'POSTED'
	`
	orderByClause := `ORDER BY e.entry_date DESC, l.created_at DESC`

	args := []interface{}{accountID, tenantID}
	query := baseQuery
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND (e.entry_date, l.created_at) < ($3, $4)`
		args = append(args, lastDate, lastCreatedAt)
	}
	query += " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query lines for account "+accountID, err)
	}
	defer rows.Close()

	type lineWithDate struct {
		line models.JournalLine
		date time.Time
	}
	ms := make([]lineWithDate, 0, fetchLimit)
	for rows.Next() {
		var m models.JournalLine
		var entryDate time.Time
		if err := rows.Scan(
			&m.LineID, &m.EntryID, &m.AccountID, &m.Debit, &m.Credit, &m.Memo,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
			&entryDate,
		); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan line row for account "+accountID, err)
		}
		ms = append(ms, lineWithDate{line: m, date: entryDate})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating line rows for account "+accountID, err)
	}

	var nextTokenVal *string
	results := ms
	if len(ms) > limit {
		last := ms[limit-1]
		token := pagination.EncodeToken(last.date, last.line.CreatedAt)
		nextTokenVal = &token
		results = ms[:limit]
	}

	out := make([]domain.JournalLine, len(results))
	for i, lw := range results {
		out[i] = mapping.ToDomainJournalLine(lw.line)
	}
	return out, nextTokenVal, nil
}

// MarkEntryReversedInTx flips the original entry to REVERSED and links its
// reversing entry.
func (r *PgxJournalRepository) MarkEntryReversedInTx(ctx context.Context, tx pgx.Tx, entryID, reversedByEntryID, userID string, at time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = 'REVERSED', reversed_by_entry_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1 AND reversed_by_entry_id IS NULL;
	`
	tag, err := tx.Exec(ctx, query, entryID, reversedByEntryID, at, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark entry reversed "+entryID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either missing or already reversed by a concurrent command.
		return apperrors.NewAppError(409, "entry "+entryID+" already reversed", apperrors.ErrConflict)
	}
	return nil
}

// SetLastAdjustmentInTx records (or clears) the live adjustment entry id.
func (r *PgxJournalRepository) SetLastAdjustmentInTx(ctx context.Context, tx pgx.Tx, entryID string, adjustmentEntryID *string, userID string, at time.Time) error {
	query := `
		UPDATE journal_entries
		SET last_adjustment_entry_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1;
	`
	tag, err := tx.Exec(ctx, query, entryID, adjustmentEntryID, at, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to set adjustment link on entry "+entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("entry " + entryID + " not found")
	}
	return nil
}

// MarkEntryVoidedInTx stamps void metadata on an entry.
func (r *PgxJournalRepository) MarkEntryVoidedInTx(ctx context.Context, tx pgx.Tx, entryID, reason, userID string, at time.Time) error {
	query := `
		UPDATE journal_entries
		SET voided_at = $2, void_reason = $3, last_updated_at = $2, last_updated_by = $4
		WHERE entry_id = $1 AND voided_at IS NULL;
	`
	tag, err := tx.Exec(ctx, query, entryID, at, reason, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to void entry "+entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "entry "+entryID+" already voided", apperrors.ErrConflict)
	}
	return nil
}
