package services

import (
	"context"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
	"github.com/ledgera/ledgera_backend/internal/dto"
)

// DocumentSvcFacade runs the full posting pipeline for business documents:
// lock coordination, idempotency guard, one database transaction calling the
// ledger poster (and inventory engine for stock-affecting documents), and
// outbox emission.
type DocumentSvcFacade interface {
	PostInvoice(ctx context.Context, tenantID, idempotencyKey string, req dto.PostInvoiceRequest, userID string) (*domain.Document, error)
	PostPurchaseBill(ctx context.Context, tenantID, idempotencyKey string, req dto.PostPurchaseBillRequest, userID string) (*domain.Document, error)
	PostGoodsReceipt(ctx context.Context, tenantID, idempotencyKey string, req dto.PostGoodsReceiptRequest, userID string) (*domain.Document, error)
	ApplyPayment(ctx context.Context, tenantID, idempotencyKey string, req dto.ApplyPaymentRequest, userID string) (*domain.Document, error)
	VoidDocument(ctx context.Context, tenantID, idempotencyKey, documentID string, req dto.VoidDocumentRequest, userID string) (*domain.Document, error)

	// ApproveDocument and PostDocument advance a draft through the status
	// machine; posting builds the journal entry and stock moves from the
	// stored lines.
	ApproveDocument(ctx context.Context, tenantID, idempotencyKey, documentID string, userID string) (*domain.Document, error)
	PostDocument(ctx context.Context, tenantID, idempotencyKey, documentID string, userID string) (*domain.Document, error)

	// AmendDocument replaces the lines of a posted, unpaid document and posts
	// the net change as an adjustment entry against the original.
	AmendDocument(ctx context.Context, tenantID, idempotencyKey, documentID string, req dto.AmendDocumentRequest, userID string) (*domain.Document, error)

	GetDocumentByID(ctx context.Context, tenantID, documentID string) (*domain.Document, error)
	ListDocuments(ctx context.Context, tenantID string, params dto.ListDocumentsParams) (*dto.ListDocumentsResponse, error)
}
