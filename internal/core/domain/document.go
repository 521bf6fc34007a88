package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType discriminates business documents that post to the ledger.
type DocumentType string

const (
	DocInvoice      DocumentType = "INVOICE"
	DocPurchaseBill DocumentType = "PURCHASE_BILL"
	DocGoodsReceipt DocumentType = "GOODS_RECEIPT"
	DocPayment      DocumentType = "PAYMENT"
)

// DocumentStatus is the document state machine:
// DRAFT -> APPROVED -> POSTED -> {PARTIAL, PAID} / VOID.
type DocumentStatus string

const (
	DocDraft    DocumentStatus = "DRAFT"
	DocApproved DocumentStatus = "APPROVED"
	DocPosted   DocumentStatus = "POSTED"
	DocPartial  DocumentStatus = "PARTIAL"
	DocPaid     DocumentStatus = "PAID"
	DocVoid     DocumentStatus = "VOID"
)

// CanTransition reports whether a document may move from its current status to next.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	allowed, ok := documentTransitions[s]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == next {
			return true
		}
	}
	return false
}

// PAID and PARTIAL may step back down when a payment against the document is
// voided.
var documentTransitions = map[DocumentStatus][]DocumentStatus{
	DocDraft:    {DocApproved, DocVoid},
	DocApproved: {DocPosted, DocVoid},
	DocPosted:   {DocPartial, DocPaid, DocVoid},
	DocPartial:  {DocPartial, DocPosted, DocPaid, DocVoid},
	DocPaid:     {DocPartial, DocPosted, DocVoid},
}

// Document is a tenant-scoped business record (invoice, purchase bill, payment)
// with at most one non-void journal entry at a time. Voiding creates a reversal
// entry and flips the status to VOID without deleting history.
type Document struct {
	DocumentID     string          `json:"documentID"`
	TenantID       string          `json:"tenantID"`
	DocumentType   DocumentType    `json:"documentType"`
	DocumentNumber string          `json:"documentNumber"` // e.g. INV-000917, PB-000312
	Status         DocumentStatus  `json:"status"`
	DocumentDate   time.Time       `json:"documentDate"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	PartyID        string          `json:"partyID"` // Customer or vendor reference
	CurrencyCode   string          `json:"currencyCode"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	JournalEntryID *string         `json:"journalEntryID,omitempty"` // Primary posting entry
	// CounterAccountID is the AR/AP (or GRNI) account the total posts against.
	// Stored so a draft can be posted later without resupplying it.
	CounterAccountID string `json:"counterAccountID,omitempty"`
	// AppliesToDocumentID links a PAYMENT to the invoice or bill it settles.
	AppliesToDocumentID *string `json:"appliesToDocumentID,omitempty"`
	VoidReason          string  `json:"voidReason,omitempty"`
	Lines          []DocumentLine  `json:"lines,omitempty"`
	AuditFields
}

// RemainingAmount is the unpaid portion of a posted document.
func (d *Document) RemainingAmount() decimal.Decimal {
	return d.TotalAmount.Sub(d.PaidAmount)
}

// DocumentLine is a single item line on an invoice or purchase bill.
type DocumentLine struct {
	LineID     string          `json:"lineID"`
	DocumentID string          `json:"documentID"`
	ItemID     string          `json:"itemID,omitempty"` // Empty for service lines
	LocationID string          `json:"locationID,omitempty"`
	AccountID  string          `json:"accountID"` // Income or expense/inventory account
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Amount     decimal.Decimal `json:"amount"` // Quantity * UnitPrice, rounded
	Memo       string          `json:"memo,omitempty"`
}
