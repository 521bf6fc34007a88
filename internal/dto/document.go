package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// DocumentLineRequest is one item or service line on an invoice or bill.
type DocumentLineRequest struct {
	ItemID     string          `json:"itemID"`
	LocationID string          `json:"locationID"`
	AccountID  string          `json:"accountID" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice  decimal.Decimal `json:"unitPrice" binding:"required"`
	Memo       string          `json:"memo"`
}

// PostInvoiceRequest posts a customer invoice: AR debit, income credits.
// Draft saves the document without posting; approve and post it later.
type PostInvoiceRequest struct {
	CustomerID    string                `json:"customerID" binding:"required"`
	Date          time.Time             `json:"date" binding:"required"`
	DueDate       *time.Time            `json:"dueDate"`
	ARAccountID   string                `json:"arAccountID" binding:"required"`
	Lines         []DocumentLineRequest `json:"lines" binding:"required,min=1,dive"`
	Memo          string                `json:"memo"`
	Draft         bool                  `json:"draft"`
	CorrelationID string                `json:"correlationID"`
}

// PostPurchaseBillRequest posts a vendor bill: inventory/expense debits, AP credit.
// GoodsReceiptID links the bill to an already-posted goods receipt; the stock
// arrived with the receipt, so the bill clears the accrual instead of moving
// inventory again.
type PostPurchaseBillRequest struct {
	VendorID       string                `json:"vendorID" binding:"required"`
	Date           time.Time             `json:"date" binding:"required"`
	DueDate        *time.Time            `json:"dueDate"`
	APAccountID    string                `json:"apAccountID" binding:"required"`
	Lines          []DocumentLineRequest `json:"lines" binding:"required,min=1,dive"`
	Memo           string                `json:"memo"`
	Draft          bool                  `json:"draft"`
	GoodsReceiptID string                `json:"goodsReceiptID"`
	CorrelationID  string                `json:"correlationID"`
}

// PostGoodsReceiptRequest records stock received before the vendor bill
// arrives: inventory debits against a goods-received-not-invoiced accrual.
type PostGoodsReceiptRequest struct {
	VendorID      string                `json:"vendorID" binding:"required"`
	Date          time.Time             `json:"date" binding:"required"`
	GRNIAccountID string                `json:"grniAccountID" binding:"required"`
	Lines         []DocumentLineRequest `json:"lines" binding:"required,min=1,dive"`
	Memo          string                `json:"memo"`
	CorrelationID string                `json:"correlationID"`
}

// AmendDocumentRequest replaces the lines of a posted, unpaid document. The
// ledger records the change as a dated adjustment entry; the original entry is
// never modified.
type AmendDocumentRequest struct {
	Date  time.Time             `json:"date" binding:"required"`
	Lines []DocumentLineRequest `json:"lines" binding:"required,min=1,dive"`
	Memo  string                `json:"memo"`
}

// ApplyPaymentRequest applies a payment against a posted invoice or bill.
type ApplyPaymentRequest struct {
	DocumentID    string          `json:"documentID" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Date          time.Time       `json:"date" binding:"required"`
	BankAccountID string          `json:"bankAccountID" binding:"required"`
	Memo          string          `json:"memo"`
}

// VoidDocumentRequest voids a posted document.
type VoidDocumentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DocumentResponse is the API shape of a document.
type DocumentResponse struct {
	DocumentID          string          `json:"documentID"`
	DocumentType        string          `json:"documentType"`
	DocumentNumber      string          `json:"documentNumber"`
	Status              string          `json:"status"`
	Date                time.Time       `json:"date"`
	DueDate             *time.Time      `json:"dueDate,omitempty"`
	PartyID             string          `json:"partyID"`
	CurrencyCode        string          `json:"currencyCode"`
	TotalAmount         decimal.Decimal `json:"totalAmount"`
	PaidAmount          decimal.Decimal `json:"paidAmount"`
	JournalEntryID      *string         `json:"journalEntryID,omitempty"`
	AppliesToDocumentID *string         `json:"appliesToDocumentID,omitempty"`
}

// ListDocumentsParams carries filters and pagination for document listing.
type ListDocumentsParams struct {
	Type      *string `form:"type"`
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListDocumentsResponse is a page of documents.
type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	NextToken *string            `json:"nextToken,omitempty"`
}

// ToDocumentResponse converts a domain document to its API shape.
func ToDocumentResponse(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:          d.DocumentID,
		DocumentType:        string(d.DocumentType),
		DocumentNumber:      d.DocumentNumber,
		Status:              string(d.Status),
		Date:                d.DocumentDate,
		DueDate:             d.DueDate,
		PartyID:             d.PartyID,
		CurrencyCode:        d.CurrencyCode,
		TotalAmount:         d.TotalAmount,
		PaidAmount:          d.PaidAmount,
		JournalEntryID:      d.JournalEntryID,
		AppliesToDocumentID: d.AppliesToDocumentID,
	}
}
