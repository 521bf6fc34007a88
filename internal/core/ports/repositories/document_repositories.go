package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// DocumentRepositoryFacade persists business documents and their lines.
type DocumentRepositoryFacade interface {
	SaveDocumentInTx(ctx context.Context, tx pgx.Tx, doc domain.Document, lines []domain.DocumentLine) error
	FindDocumentByID(ctx context.Context, tenantID, documentID string) (*domain.Document, error)
	FindLinesByDocumentID(ctx context.Context, documentID string) ([]domain.DocumentLine, error)
	ListDocuments(ctx context.Context, tenantID string, docType *domain.DocumentType, limit int, nextToken *string) ([]domain.Document, *string, error)

	// FindDocumentForUpdate locks the document row FOR UPDATE; this is the
	// correctness backstop for concurrent payment application.
	FindDocumentForUpdate(ctx context.Context, tx pgx.Tx, tenantID, documentID string) (*domain.Document, error)

	UpdateDocumentStatusInTx(ctx context.Context, tx pgx.Tx, documentID string, status domain.DocumentStatus, paidAmount decimal.Decimal, userID string, at time.Time) error

	// UpdateDocumentAmountsInTx replaces the document's lines and total after
	// an amendment.
	UpdateDocumentAmountsInTx(ctx context.Context, tx pgx.Tx, documentID string, total decimal.Decimal, lines []domain.DocumentLine, userID string, at time.Time) error
	LinkJournalEntryInTx(ctx context.Context, tx pgx.Tx, documentID, entryID string, userID string, at time.Time) error
	MarkDocumentVoidInTx(ctx context.Context, tx pgx.Tx, documentID, reason, userID string, at time.Time) error

	// ListOpenItems returns unpaid posted receivables/payables for forecasting.
	ListOpenItems(ctx context.Context, tenantID string, asOf time.Time) ([]domain.OpenItem, error)
}
