package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
	"github.com/ledgera/ledgera_backend/internal/utils/pagination"
)

const documentColumns = `document_id, tenant_id, document_type, document_number, status, document_date, due_date, party_id, currency_code, total_amount, paid_amount, journal_entry_id, counter_account_id, applies_to_document_id, void_reason, created_at, created_by, last_updated_at, last_updated_by`

const documentLineColumns = `line_id, document_id, item_id, location_id, account_id, quantity, unit_price, amount, memo`

type PgxDocumentRepository struct {
	BaseRepository
}

func newPgxDocumentRepository(pool *pgxpool.Pool) portsrepo.DocumentRepositoryFacade {
	return &PgxDocumentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.DocumentRepositoryFacade = (*PgxDocumentRepository)(nil)

func scanDocument(row pgx.Row) (domain.Document, error) {
	var d domain.Document
	err := row.Scan(
		&d.DocumentID,
		&d.TenantID,
		&d.DocumentType,
		&d.DocumentNumber,
		&d.Status,
		&d.DocumentDate,
		&d.DueDate,
		&d.PartyID,
		&d.CurrencyCode,
		&d.TotalAmount,
		&d.PaidAmount,
		&d.JournalEntryID,
		&d.CounterAccountID,
		&d.AppliesToDocumentID,
		&d.VoidReason,
		&d.CreatedAt,
		&d.CreatedBy,
		&d.LastUpdatedAt,
		&d.LastUpdatedBy,
	)
	return d, err
}

// SaveDocumentInTx inserts the document header and its lines in the caller's
// transaction.
func (r *PgxDocumentRepository) SaveDocumentInTx(ctx context.Context, tx pgx.Tx, doc domain.Document, lines []domain.DocumentLine) error {
	docQuery := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err := tx.Exec(ctx, docQuery,
		doc.DocumentID, doc.TenantID, doc.DocumentType, doc.DocumentNumber, doc.Status,
		doc.DocumentDate, doc.DueDate, doc.PartyID, doc.CurrencyCode,
		doc.TotalAmount, doc.PaidAmount, doc.JournalEntryID, doc.CounterAccountID,
		doc.AppliesToDocumentID, doc.VoidReason,
		doc.CreatedAt, doc.CreatedBy, doc.LastUpdatedAt, doc.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert document "+doc.DocumentID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO document_lines (` + documentLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	for _, line := range lines {
		batch.Queue(lineQuery,
			line.LineID, line.DocumentID, line.ItemID, line.LocationID, line.AccountID,
			line.Quantity, line.UnitPrice, line.Amount, line.Memo,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines for document "+doc.DocumentID, err)
	}
	return nil
}

func (r *PgxDocumentRepository) FindDocumentByID(ctx context.Context, tenantID, documentID string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE tenant_id = $1 AND document_id = $2;`
	d, err := scanDocument(r.Pool.QueryRow(ctx, query, tenantID, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find document "+documentID, err)
	}
	return &d, nil
}

func (r *PgxDocumentRepository) FindLinesByDocumentID(ctx context.Context, documentID string) ([]domain.DocumentLine, error) {
	query := `SELECT ` + documentLineColumns + ` FROM document_lines WHERE document_id = $1 ORDER BY line_id;`
	rows, err := r.Pool.Query(ctx, query, documentID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for document "+documentID, err)
	}
	defer rows.Close()

	var lines []domain.DocumentLine
	for rows.Next() {
		var l domain.DocumentLine
		if err := rows.Scan(
			&l.LineID, &l.DocumentID, &l.ItemID, &l.LocationID, &l.AccountID,
			&l.Quantity, &l.UnitPrice, &l.Amount, &l.Memo,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan document line row", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating document line rows", err)
	}
	return lines, nil
}

// ListDocuments retrieves a page of documents for a tenant, newest first,
// optionally filtered by type.
func (r *PgxDocumentRepository) ListDocuments(ctx context.Context, tenantID string, docType *domain.DocumentType, limit int, nextToken *string) ([]domain.Document, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + documentColumns + ` FROM documents WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if docType != nil {
		args = append(args, *docType)
		query += ` AND document_type = $` + strconv.Itoa(len(args))
	}
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND (document_date, created_at) < ($` + strconv.Itoa(len(args)+1) + `, $` + strconv.Itoa(len(args)+2) + `)`
		args = append(args, lastDate, lastCreatedAt)
	}
	query += ` ORDER BY document_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query documents for tenant "+tenantID, err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0, fetchLimit)
	for rows.Next() {
		d, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan document row", scanErr)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating document rows", err)
	}

	var nextTokenVal *string
	if len(docs) > limit {
		last := docs[limit-1]
		token := pagination.EncodeToken(last.DocumentDate, last.CreatedAt)
		nextTokenVal = &token
		docs = docs[:limit]
	}
	return docs, nextTokenVal, nil
}

// FindDocumentForUpdate locks the document row for the rest of the transaction.
// Concurrent payment applications against the same document serialize here.
func (r *PgxDocumentRepository) FindDocumentForUpdate(ctx context.Context, tx pgx.Tx, tenantID, documentID string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE tenant_id = $1 AND document_id = $2 FOR UPDATE;`
	d, err := scanDocument(tx.QueryRow(ctx, query, tenantID, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to lock document "+documentID, err)
	}
	return &d, nil
}

func (r *PgxDocumentRepository) UpdateDocumentStatusInTx(ctx context.Context, tx pgx.Tx, documentID string, status domain.DocumentStatus, paidAmount decimal.Decimal, userID string, at time.Time) error {
	query := `
		UPDATE documents
		SET status = $2, paid_amount = $3, last_updated_at = $4, last_updated_by = $5
		WHERE document_id = $1;
	`
	tag, err := tx.Exec(ctx, query, documentID, status, paidAmount, at, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of document "+documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("document " + documentID + " not found")
	}
	return nil
}

func (r *PgxDocumentRepository) LinkJournalEntryInTx(ctx context.Context, tx pgx.Tx, documentID, entryID string, userID string, at time.Time) error {
	query := `
		UPDATE documents
		SET journal_entry_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE document_id = $1;
	`
	tag, err := tx.Exec(ctx, query, documentID, entryID, at, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to link entry to document "+documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("document " + documentID + " not found")
	}
	return nil
}

// UpdateDocumentAmountsInTx replaces the document's lines and total after an
// amendment. The old lines are deleted; the ledger keeps the history.
func (r *PgxDocumentRepository) UpdateDocumentAmountsInTx(ctx context.Context, tx pgx.Tx, documentID string, total decimal.Decimal, lines []domain.DocumentLine, userID string, at time.Time) error {
	query := `
		UPDATE documents
		SET total_amount = $2, last_updated_at = $3, last_updated_by = $4
		WHERE document_id = $1;
	`
	tag, err := tx.Exec(ctx, query, documentID, total, at, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update total of document "+documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("document " + documentID + " not found")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1;`, documentID); err != nil {
		return apperrors.NewAppError(500, "failed to clear lines of document "+documentID, err)
	}
	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO document_lines (` + documentLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	for _, line := range lines {
		batch.Queue(lineQuery,
			line.LineID, line.DocumentID, line.ItemID, line.LocationID, line.AccountID,
			line.Quantity, line.UnitPrice, line.Amount, line.Memo,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert amended lines for document "+documentID, err)
	}
	return nil
}

func (r *PgxDocumentRepository) MarkDocumentVoidInTx(ctx context.Context, tx pgx.Tx, documentID, reason, userID string, at time.Time) error {
	query := `
		UPDATE documents
		SET status = 'VOID', void_reason = $2, last_updated_at = $3, last_updated_by = $4
		WHERE document_id = $1 AND status != 'VOID';
	`
	tag, err := tx.Exec(ctx, query, documentID, reason, at, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to void document "+documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "document "+documentID+" already void", apperrors.ErrConflict)
	}
	return nil
}

// ListOpenItems returns posted invoices and purchase bills with an unpaid
// remainder. Documents without a due date fall back to their document date.
func (r *PgxDocumentRepository) ListOpenItems(ctx context.Context, tenantID string, asOf time.Time) ([]domain.OpenItem, error) {
	query := `
		SELECT document_id, document_type, party_id,
		       COALESCE(due_date, document_date) AS effective_due,
		       total_amount - paid_amount AS remaining
		FROM documents
		WHERE tenant_id = $1
		  AND document_type IN ('INVOICE', 'PURCHASE_BILL')
		  AND status IN ('POSTED', 'PARTIAL')
		  AND total_amount > paid_amount
		ORDER BY effective_due;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query open items for tenant "+tenantID, err)
	}
	defer rows.Close()

	var items []domain.OpenItem
	for rows.Next() {
		var it domain.OpenItem
		if err := rows.Scan(&it.DocumentID, &it.DocumentType, &it.PartyID, &it.DueDate, &it.Amount); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan open item row", err)
		}
		it.Inflow = it.DocumentType == domain.DocInvoice
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating open item rows", err)
	}
	return items, nil
}
