package services

import (
	"context"
	"encoding/json"
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
	"github.com/ledgera/ledgera_backend/internal/platform/locking"
	"github.com/ledgera/ledgera_backend/internal/utils/accounting"
)

// Sentinels wrap an apperrors kind so handlers map them to a status without
// knowing this package.
var (
	ErrDocumentNotPayable = fmt.Errorf("%w: document cannot accept payments in its current status", apperrors.ErrConflict)
	ErrPaymentExceeds     = fmt.Errorf("%w: payment exceeds remaining balance", apperrors.ErrValidation)
	ErrDocumentHasPayment = fmt.Errorf("%w: document with applied payments cannot be voided", apperrors.ErrConflict)
	ErrInvalidTransition  = fmt.Errorf("%w: invalid document status transition", apperrors.ErrConflict)
)

// Sequence keys for human-readable document numbers.
const (
	invoiceSequenceKey = "INV"
	billSequenceKey    = "PB"
	receiptSequenceKey = "GR"
	paymentSequenceKey = "PAY"
)

const documentLockTTL = 10 * time.Second

// documentService runs the posting pipeline for business documents: lock
// coordination outside, idempotency guard around one database transaction,
// ledger posting (and inventory moves for stock lines) inside, outbox rows in
// the same transaction, fire-and-forget publish after commit.
type documentService struct {
	documentRepo   portsrepo.DocumentRepositoryFacade
	accountRepo    portsrepo.AccountRepositoryFacade
	inventoryRepo  portsrepo.InventoryRepositoryFacade
	sequenceRepo   portsrepo.SequenceRepositoryFacade
	outboxRepo     portsrepo.OutboxRepositoryFacade
	journalRepo    portsrepo.JournalRepositoryFacade
	ledgerSvc      portssvc.LedgerSvcFacade
	inventorySvc   portssvc.InventorySvcFacade
	idempotencySvc portssvc.IdempotencySvcFacade
	currencySvc    portssvc.CurrencySvcFacade
	publisher      portssvc.OutboxPublisherSvc
	locker         locking.Locker
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(
	documentRepo portsrepo.DocumentRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	inventoryRepo portsrepo.InventoryRepositoryFacade,
	sequenceRepo portsrepo.SequenceRepositoryFacade,
	outboxRepo portsrepo.OutboxRepositoryFacade,
	journalRepo portsrepo.JournalRepositoryFacade,
	ledgerSvc portssvc.LedgerSvcFacade,
	inventorySvc portssvc.InventorySvcFacade,
	idempotencySvc portssvc.IdempotencySvcFacade,
	currencySvc portssvc.CurrencySvcFacade,
	publisher portssvc.OutboxPublisherSvc,
	locker locking.Locker,
) portssvc.DocumentSvcFacade {
	return &documentService{
		documentRepo:   documentRepo,
		accountRepo:    accountRepo,
		inventoryRepo:  inventoryRepo,
		sequenceRepo:   sequenceRepo,
		outboxRepo:     outboxRepo,
		journalRepo:    journalRepo,
		ledgerSvc:      ledgerSvc,
		inventorySvc:   inventorySvc,
		idempotencySvc: idempotencySvc,
		currencySvc:    currencySvc,
		publisher:      publisher,
		locker:         locker,
	}
}

var _ portssvc.DocumentSvcFacade = (*documentService)(nil)

// stockLockKeys builds the per-(location, item) lock keys of a document's
// inventory lines. WithLocks sorts them, so multi-item commands cannot
// deadlock each other.
func stockLockKeys(tenantID string, lines []dto.DocumentLineRequest) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, l := range lines {
		if l.ItemID == "" {
			continue
		}
		key := locking.Key("stock", "move", tenantID, l.LocationID, l.ItemID)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

// precisionFor resolves minor-unit precision with a fallback of 2.
func (s *documentService) precisionFor(ctx context.Context, currencyCode string) int32 {
	currency, err := s.currencySvc.GetCurrencyByCode(ctx, currencyCode)
	if err != nil {
		return 2
	}
	return currency.Precision
}

// runDocumentCommand wraps work in the lock + idempotency pipeline shared by
// every document command, then resolves the result into a document.
func (s *documentService) runDocumentCommand(ctx context.Context, tenantID, idempotencyKey, commandName string, lockKeys []string, work portssvc.IdempotentWork) (*domain.Document, error) {
	var result []byte
	runErr := s.locker.WithLocks(ctx, lockKeys, documentLockTTL, func(ctx context.Context) error {
		r, replayed, err := s.idempotencySvc.RunOnce(ctx, tenantID, idempotencyKey, commandName, work)
		if err != nil {
			return err
		}
		if replayed {
			middleware.GetLoggerFromCtx(ctx).Info("Idempotent replay of document command",
				slog.String("command", commandName),
				slog.String("key", idempotencyKey),
			)
		}
		result = r
		return nil
	})
	if runErr != nil {
		return nil, runErr
	}

	var resp dto.DocumentResponse
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode stored result for %s: %w", commandName, err)
	}
	return s.documentRepo.FindDocumentByID(ctx, tenantID, resp.DocumentID)
}

// journalLinesFor builds the double-sided posting for a document: the counter
// account carries the total on one side, each line posts on the other. Each
// amount rounds per line before the totals are summed.
func journalLinesFor(doc *domain.Document, docLines []domain.DocumentLine, memo string) []domain.JournalLine {
	lines := make([]domain.JournalLine, 0, len(docLines)+1)
	if doc.DocumentType == domain.DocInvoice {
		lines = append(lines, domain.JournalLine{AccountID: doc.CounterAccountID, Debit: doc.TotalAmount, Memo: memo})
		for _, l := range docLines {
			lines = append(lines, domain.JournalLine{AccountID: l.AccountID, Credit: l.Amount, Memo: l.Memo})
		}
		return lines
	}
	lines = append(lines, domain.JournalLine{AccountID: doc.CounterAccountID, Credit: doc.TotalAmount, Memo: memo})
	for _, l := range docLines {
		lines = append(lines, domain.JournalLine{AccountID: l.AccountID, Debit: l.Amount, Memo: l.Memo})
	}
	return lines
}

func postingDescription(doc *domain.Document) string {
	switch doc.DocumentType {
	case domain.DocInvoice:
		return "Invoice " + doc.DocumentNumber + " for customer " + doc.PartyID
	case domain.DocPurchaseBill:
		return "Purchase bill " + doc.DocumentNumber + " from vendor " + doc.PartyID
	case domain.DocGoodsReceipt:
		return "Goods receipt " + doc.DocumentNumber + " from vendor " + doc.PartyID
	default:
		return "Document " + doc.DocumentNumber
	}
}

func postedEventType(docType domain.DocumentType) string {
	switch docType {
	case domain.DocPurchaseBill:
		return domain.EventPurchaseBillPosted
	case domain.DocGoodsReceipt:
		return domain.EventGoodsReceiptPosted
	default:
		return domain.EventInvoicePosted
	}
}

// postToLedgerInTx writes the journal entry and stock moves of a document and
// sets doc.JournalEntryID. Invoices move stock out; bills and receipts move it
// in. A bill linked to a goods receipt skips stock moves: the inventory came
// in with the receipt and the bill only clears the accrual.
func (s *documentService) postToLedgerInTx(ctx context.Context, tx pgx.Tx, doc *domain.Document, docLines []domain.DocumentLine, memo, correlationID, userID string) error {
	entry, err := s.ledgerSvc.PostEntryInTx(ctx, tx, domain.PostEntryParams{
		TenantID:    doc.TenantID,
		Date:        doc.DocumentDate,
		Description: postingDescription(doc),
		Lines:       journalLinesFor(doc, docLines, memo),
		UserID:      userID,
	})
	if err != nil {
		return err
	}
	doc.JournalEntryID = &entry.EntryID

	direction := domain.MoveIn
	if doc.DocumentType == domain.DocInvoice {
		direction = domain.MoveOut
	}
	if doc.DocumentType == domain.DocPurchaseBill && doc.AppliesToDocumentID != nil {
		return nil
	}
	return s.applyStockMoves(ctx, tx, doc.TenantID, *doc, docLines, direction, correlationID, userID)
}

// PostInvoice posts a customer invoice: total AR debit against per-line income
// credits, OUT stock moves for item lines, invoice.posted on the outbox. With
// Draft set, the document is saved without touching the ledger.
func (s *documentService) PostInvoice(ctx context.Context, tenantID, idempotencyKey string, req dto.PostInvoiceRequest, userID string) (*domain.Document, error) {
	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	var eventID string

	work := func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
		arAccount, err := s.accountRepo.FindAccountByID(ctx, tenantID, req.ARAccountID)
		if err != nil {
			return nil, fmt.Errorf("%w: AR account %s", apperrors.ErrValidation, req.ARAccountID)
		}
		precision := s.precisionFor(ctx, arAccount.CurrencyCode)

		doc, docLines, _ := s.buildDocument(tenantID, domain.DocInvoice, req.CustomerID, req.Date, req.DueDate, arAccount.CurrencyCode, req.ARAccountID, precision, req.Lines, req.Draft, userID)

		seqNum, err := s.sequenceRepo.NextNumberInTx(ctx, tx, tenantID, invoiceSequenceKey)
		if err != nil {
			return nil, err
		}
		doc.DocumentNumber = fmt.Sprintf("%s-%06d", invoiceSequenceKey, seqNum)

		if !req.Draft {
			if err := s.postToLedgerInTx(ctx, tx, &doc, docLines, req.Memo, correlationID, userID); err != nil {
				return nil, err
			}
		}

		if err := s.documentRepo.SaveDocumentInTx(ctx, tx, doc, docLines); err != nil {
			return nil, err
		}

		resp := dto.ToDocumentResponse(&doc)
		if !req.Draft {
			event, err := newOutboxEvent(tenantID, domain.EventInvoicePosted, "Document", doc.DocumentID, correlationID, nil, resp)
			if err != nil {
				return nil, err
			}
			if err := s.outboxRepo.EmitInTx(ctx, tx, event); err != nil {
				return nil, err
			}
			eventID = event.EventID
		}

		return json.Marshal(resp)
	}

	doc, err := s.runDocumentCommand(ctx, tenantID, idempotencyKey, "PostInvoice", stockLockKeys(tenantID, req.Lines), work)
	if err != nil {
		return nil, err
	}
	if eventID != "" {
		s.publisher.PublishEvent(ctx, eventID)
	}
	return doc, nil
}

// PostPurchaseBill posts a vendor bill: per-line inventory/expense debits
// against a total AP credit, IN stock moves at line unit cost.
func (s *documentService) PostPurchaseBill(ctx context.Context, tenantID, idempotencyKey string, req dto.PostPurchaseBillRequest, userID string) (*domain.Document, error) {
	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	var eventID string

	work := func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
		apAccount, err := s.accountRepo.FindAccountByID(ctx, tenantID, req.APAccountID)
		if err != nil {
			return nil, fmt.Errorf("%w: AP account %s", apperrors.ErrValidation, req.APAccountID)
		}
		precision := s.precisionFor(ctx, apAccount.CurrencyCode)

		doc, docLines, _ := s.buildDocument(tenantID, domain.DocPurchaseBill, req.VendorID, req.Date, req.DueDate, apAccount.CurrencyCode, req.APAccountID, precision, req.Lines, req.Draft, userID)

		if req.GoodsReceiptID != "" {
			receipt, err := s.documentRepo.FindDocumentByID(ctx, tenantID, req.GoodsReceiptID)
			if err != nil {
				return nil, fmt.Errorf("%w: goods receipt %s", apperrors.ErrValidation, req.GoodsReceiptID)
			}
			if receipt.DocumentType != domain.DocGoodsReceipt || receipt.Status != domain.DocPosted {
				return nil, fmt.Errorf("%w: document %s is not a posted goods receipt", apperrors.ErrValidation, req.GoodsReceiptID)
			}
			doc.AppliesToDocumentID = &receipt.DocumentID
		}

		seqNum, err := s.sequenceRepo.NextNumberInTx(ctx, tx, tenantID, billSequenceKey)
		if err != nil {
			return nil, err
		}
		doc.DocumentNumber = fmt.Sprintf("%s-%06d", billSequenceKey, seqNum)

		if !req.Draft {
			if err := s.postToLedgerInTx(ctx, tx, &doc, docLines, req.Memo, correlationID, userID); err != nil {
				return nil, err
			}
		}

		if err := s.documentRepo.SaveDocumentInTx(ctx, tx, doc, docLines); err != nil {
			return nil, err
		}

		resp := dto.ToDocumentResponse(&doc)
		if !req.Draft {
			event, err := newOutboxEvent(tenantID, domain.EventPurchaseBillPosted, "Document", doc.DocumentID, correlationID, nil, resp)
			if err != nil {
				return nil, err
			}
			if err := s.outboxRepo.EmitInTx(ctx, tx, event); err != nil {
				return nil, err
			}
			eventID = event.EventID
		}

		return json.Marshal(resp)
	}

	doc, err := s.runDocumentCommand(ctx, tenantID, idempotencyKey, "PostPurchaseBill", stockLockKeys(tenantID, req.Lines), work)
	if err != nil {
		return nil, err
	}
	if eventID != "" {
		s.publisher.PublishEvent(ctx, eventID)
	}
	return doc, nil
}

// PostGoodsReceipt records stock that arrived ahead of the vendor bill:
// per-line inventory debits against a goods-received-not-invoiced credit, with
// IN stock moves at line unit cost. The later bill references the receipt and
// clears the accrual without moving stock again.
func (s *documentService) PostGoodsReceipt(ctx context.Context, tenantID, idempotencyKey string, req dto.PostGoodsReceiptRequest, userID string) (*domain.Document, error) {
	for _, l := range req.Lines {
		if l.ItemID == "" || l.LocationID == "" {
			return nil, fmt.Errorf("%w: every goods receipt line needs an item and location", apperrors.ErrValidation)
		}
	}
	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	var eventID string

	work := func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
		grniAccount, err := s.accountRepo.FindAccountByID(ctx, tenantID, req.GRNIAccountID)
		if err != nil {
			return nil, fmt.Errorf("%w: GRNI account %s", apperrors.ErrValidation, req.GRNIAccountID)
		}
		precision := s.precisionFor(ctx, grniAccount.CurrencyCode)

		doc, docLines, _ := s.buildDocument(tenantID, domain.DocGoodsReceipt, req.VendorID, req.Date, nil, grniAccount.CurrencyCode, req.GRNIAccountID, precision, req.Lines, false, userID)

		seqNum, err := s.sequenceRepo.NextNumberInTx(ctx, tx, tenantID, receiptSequenceKey)
		if err != nil {
			return nil, err
		}
		doc.DocumentNumber = fmt.Sprintf("%s-%06d", receiptSequenceKey, seqNum)

		if err := s.postToLedgerInTx(ctx, tx, &doc, docLines, req.Memo, correlationID, userID); err != nil {
			return nil, err
		}

		if err := s.documentRepo.SaveDocumentInTx(ctx, tx, doc, docLines); err != nil {
			return nil, err
		}

		resp := dto.ToDocumentResponse(&doc)
		event, err := newOutboxEvent(tenantID, domain.EventGoodsReceiptPosted, "Document", doc.DocumentID, correlationID, nil, resp)
		if err != nil {
			return nil, err
		}
		if err := s.outboxRepo.EmitInTx(ctx, tx, event); err != nil {
			return nil, err
		}
		eventID = event.EventID

		return json.Marshal(resp)
	}

	doc, err := s.runDocumentCommand(ctx, tenantID, idempotencyKey, "PostGoodsReceipt", stockLockKeys(tenantID, req.Lines), work)
	if err != nil {
		return nil, err
	}
	if eventID != "" {
		s.publisher.PublishEvent(ctx, eventID)
	}
	return doc, nil
}

// ApproveDocument moves a draft to APPROVED. No ledger effect yet.
func (s *documentService) ApproveDocument(ctx context.Context, tenantID, idempotencyKey, documentID string, userID string) (*domain.Document, error) {
	work := func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
		target, err := s.documentRepo.FindDocumentForUpdate(ctx, tx, tenantID, documentID)
		if err != nil {
			return nil, err
		}
		if target.Status != domain.DocDraft || !target.Status.CanTransition(domain.DocApproved) {
			return nil, fmt.Errorf("%w: %s -> APPROVED", ErrInvalidTransition, target.Status)
		}
		now := time.Now().UTC()
		if err := s.documentRepo.UpdateDocumentStatusInTx(ctx, tx, documentID, domain.DocApproved, target.PaidAmount, userID, now); err != nil {
			return nil, err
		}
		target.Status = domain.DocApproved
		return json.Marshal(dto.ToDocumentResponse(target))
	}

	lockKey := locking.Key("document", "status", tenantID, documentID)
	return s.runDocumentCommand(ctx, tenantID, idempotencyKey, "ApproveDocument", []string{lockKey}, work)
}

// PostDocument posts an approved draft from its stored lines and counter
// account: the journal entry, stock moves, and posted event happen now.
func (s *documentService) PostDocument(ctx context.Context, tenantID, idempotencyKey, documentID string, userID string) (*domain.Document, error) {
	correlationID := uuid.NewString()
	var eventID string

	// Stored item lines decide the stock locks, so read them before locking.
	storedLines, err := s.documentRepo.FindLinesByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	lockKeys := []string{locking.Key("document", "status", tenantID, documentID)}
	seen := make(map[string]bool)
	for _, l := range storedLines {
		if l.ItemID == "" {
			continue
		}
		key := locking.Key("stock", "move", tenantID, l.LocationID, l.ItemID)
		if !seen[key] {
			seen[key] = true
			lockKeys = append(lockKeys, key)
		}
	}

	work := func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
		target, err := s.documentRepo.FindDocumentForUpdate(ctx, tx, tenantID, documentID)
		if err != nil {
			return nil, err
		}
		if target.Status != domain.DocApproved || !target.Status.CanTransition(domain.DocPosted) {
			return nil, fmt.Errorf("%w: %s -> POSTED", ErrInvalidTransition, target.Status)
		}
		if target.CounterAccountID == "" {
			return nil, fmt.Errorf("%w: document %s has no counter account", apperrors.ErrInternal, documentID)
		}

		docLines, err := s.documentRepo.FindLinesByDocumentID(ctx, documentID)
		if err != nil {
			return nil, err
		}

		if err := s.postToLedgerInTx(ctx, tx, target, docLines, "", correlationID, userID); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		if err := s.documentRepo.LinkJournalEntryInTx(ctx, tx, documentID, *target.JournalEntryID, userID, now); err != nil {
			return nil, err
		}
		if err := s.documentRepo.UpdateDocumentStatusInTx(ctx, tx, documentID, domain.DocPosted, target.PaidAmount, userID, now); err != nil {
			return nil, err
		}
		target.Status = domain.DocPosted

		resp := dto.ToDocumentResponse(target)
		event, err := newOutboxEvent(tenantID, postedEventType(target.DocumentType), "Document", documentID, correlationID, nil, resp)
		if err != nil {
			return nil, err
		}
		if err := s.outboxRepo.EmitInTx(ctx, tx, event); err != nil {
			return nil, err
		}
		eventID = event.EventID

		return json.Marshal(resp)
	}

	doc, err := s.runDocumentCommand(ctx, tenantID, idempotencyKey, "PostDocument", lockKeys, work)
	if err != nil {
		return nil, err
	}
	if eventID != "" {
		s.publisher.PublishEvent(ctx, eventID)
	}
	return doc, nil
}

// AmendDocument replaces the lines of a posted, unpaid invoice or bill. The
// net change posts as a dated adjustment entry against the original posting;
// historical lines are never rewritten. Stock-affecting documents cannot be
// amended: void and repost instead, so the move timeline stays truthful.
func (s *documentService) AmendDocument(ctx context.Context, tenantID, idempotencyKey, documentID string, req dto.AmendDocumentRequest, userID string) (*domain.Document, error) {
	for _, l := range req.Lines {
		if l.ItemID != "" {
			return nil, fmt.Errorf("%w: amended lines cannot carry items; void and repost stock documents", apperrors.ErrValidation)
		}
	}
	correlationID := uuid.NewString()
	var eventID string

	work := func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
		target, err := s.documentRepo.FindDocumentForUpdate(ctx, tx, tenantID, documentID)
		if err != nil {
			return nil, err
		}
		if target.DocumentType != domain.DocInvoice && target.DocumentType != domain.DocPurchaseBill {
			return nil, fmt.Errorf("%w: %s documents cannot be amended", apperrors.ErrValidation, target.DocumentType)
		}
		if target.Status != domain.DocPosted {
			return nil, fmt.Errorf("%w: only posted documents can be amended, status is %s", ErrInvalidTransition, target.Status)
		}
		if target.PaidAmount.IsPositive() {
			return nil, fmt.Errorf("%w: document %s has %s applied", ErrDocumentHasPayment, documentID, target.PaidAmount.String())
		}
		if target.JournalEntryID == nil {
			return nil, fmt.Errorf("%w: document %s has no posting entry", apperrors.ErrInternal, documentID)
		}
		oldLines, err := s.documentRepo.FindLinesByDocumentID(ctx, documentID)
		if err != nil {
			return nil, err
		}
		for _, l := range oldLines {
			if l.ItemID != "" {
				return nil, fmt.Errorf("%w: document %s moved stock; void and repost instead", apperrors.ErrValidation, documentID)
			}
		}

		precision := s.precisionFor(ctx, target.CurrencyCode)
		newLines, newTotal := buildDocumentLines(documentID, req.Lines, precision)

		counterID := target.CounterAccountID
		if counterID == "" {
			entry, err := s.ledgerSvc.GetEntryByID(ctx, tenantID, *target.JournalEntryID)
			if err != nil {
				return nil, err
			}
			if counterID, err = counterAccountID(target.DocumentType, entry.Lines); err != nil {
				return nil, err
			}
		}

		// Desired net (debit - credit) per account for the whole document.
		desired := make(map[string]decimal.Decimal)
		if target.DocumentType == domain.DocInvoice {
			desired[counterID] = desired[counterID].Add(newTotal)
			for _, l := range newLines {
				desired[l.AccountID] = desired[l.AccountID].Sub(l.Amount)
			}
		} else {
			desired[counterID] = desired[counterID].Sub(newTotal)
			for _, l := range newLines {
				desired[l.AccountID] = desired[l.AccountID].Add(l.Amount)
			}
		}

		adjustment, err := s.ledgerSvc.AdjustEntryInTx(ctx, tx, domain.AdjustEntryParams{
			TenantID:        tenantID,
			OriginalEntryID: *target.JournalEntryID,
			Date:            req.Date,
			Description:     "Amendment of " + target.DocumentNumber,
			DesiredNets:     desired,
			UserID:          userID,
		})
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		if err := s.documentRepo.UpdateDocumentAmountsInTx(ctx, tx, documentID, newTotal, newLines, userID, now); err != nil {
			return nil, err
		}
		target.TotalAmount = newTotal

		resp := dto.ToDocumentResponse(target)
		payload := map[string]any{
			"documentID": documentID,
			"newTotal":   newTotal,
		}
		if adjustment != nil {
			payload["adjustmentEntryID"] = adjustment.EntryID
		}
		event, err := newOutboxEvent(tenantID, domain.EventDocumentAmended, "Document", documentID, correlationID, nil, payload)
		if err != nil {
			return nil, err
		}
		if err := s.outboxRepo.EmitInTx(ctx, tx, event); err != nil {
			return nil, err
		}
		eventID = event.EventID

		return json.Marshal(resp)
	}

	lockKey := locking.Key("document", "amend", tenantID, documentID)
	doc, err := s.runDocumentCommand(ctx, tenantID, idempotencyKey, "AmendDocument", []string{lockKey}, work)
	if err != nil {
		return nil, err
	}
	if eventID != "" {
		s.publisher.PublishEvent(ctx, eventID)
	}
	return doc, nil
}

// buildDocumentLines converts request lines to domain lines with per-line
// rounded amounts and returns the sum of the rounded amounts.
func buildDocumentLines(documentID string, reqLines []dto.DocumentLineRequest, precision int32) ([]domain.DocumentLine, decimal.Decimal) {
	total := decimal.Zero
	lines := make([]domain.DocumentLine, len(reqLines))
	for i, l := range reqLines {
		amount := accounting.RoundMinor(l.Quantity.Mul(l.UnitPrice), precision)
		lines[i] = domain.DocumentLine{
			LineID:     uuid.NewString(),
			DocumentID: documentID,
			ItemID:     l.ItemID,
			LocationID: l.LocationID,
			AccountID:  l.AccountID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Amount:     amount,
			Memo:       l.Memo,
		}
		total = total.Add(amount)
	}
	return lines, total
}

// buildDocument assembles the document header and lines with per-line rounded
// amounts. The total is the sum of the rounded line amounts.
func (s *documentService) buildDocument(tenantID string, docType domain.DocumentType, partyID string, date time.Time, dueDate *time.Time, currencyCode, counterAccountID string, precision int32, reqLines []dto.DocumentLineRequest, draft bool, userID string) (domain.Document, []domain.DocumentLine, decimal.Decimal) {
	now := time.Now().UTC()
	documentID := uuid.NewString()

	lines, total := buildDocumentLines(documentID, reqLines, precision)

	status := domain.DocPosted
	if draft {
		status = domain.DocDraft
	}
	doc := domain.Document{
		DocumentID:       documentID,
		TenantID:         tenantID,
		DocumentType:     docType,
		Status:           status,
		DocumentDate:     date,
		DueDate:          dueDate,
		PartyID:          partyID,
		CurrencyCode:     currencyCode,
		TotalAmount:      total,
		PaidAmount:       decimal.Zero,
		CounterAccountID: counterAccountID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	return doc, lines, total
}

// applyStockMoves records one stock move per inventory line and runs the
// forward replay when a move lands before the latest existing one.
func (s *documentService) applyStockMoves(ctx context.Context, tx pgx.Tx, tenantID string, doc domain.Document, lines []domain.DocumentLine, direction domain.MoveDirection, correlationID, userID string) error {
	for _, l := range lines {
		if l.ItemID == "" {
			continue
		}
		result, err := s.inventorySvc.ApplyMoveInTx(ctx, tx, portssvc.ApplyMoveParams{
			TenantID:      tenantID,
			LocationID:    l.LocationID,
			ItemID:        l.ItemID,
			Date:          doc.DocumentDate,
			Direction:     direction,
			Quantity:      l.Quantity,
			UnitCost:      l.UnitPrice,
			ReferenceType: string(doc.DocumentType),
			ReferenceID:   doc.DocumentID,
			CorrelationID: correlationID,
			UserID:        userID,
		})
		if err != nil {
			return err
		}
		if result.RequiresRecalcFromDate != nil {
			if _, err := s.inventorySvc.RecalculateFromInTx(ctx, tx, tenantID, l.LocationID, l.ItemID, *result.RequiresRecalcFromDate, userID); err != nil {
				return err
			}
		}
	}
	return nil
}

// counterAccountID finds the AR (invoice) or AP (bill) account on the
// document's posting entry: the single line on the total side.
func counterAccountID(docType domain.DocumentType, lines []domain.JournalLine) (string, error) {
	for _, l := range lines {
		switch docType {
		case domain.DocInvoice:
			if l.Debit.IsPositive() {
				return l.AccountID, nil
			}
		case domain.DocPurchaseBill:
			if l.Credit.IsPositive() {
				return l.AccountID, nil
			}
		}
	}
	return "", fmt.Errorf("%w: posting entry has no counter account", apperrors.ErrInternal)
}

// ApplyPayment applies a payment against a posted invoice or bill. The target
// document row is locked FOR UPDATE, so concurrent payments serialize and the
// remaining-balance cap holds no matter how many requests race.
func (s *documentService) ApplyPayment(ctx context.Context, tenantID, idempotencyKey string, req dto.ApplyPaymentRequest, userID string) (*domain.Document, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	correlationID := uuid.NewString()
	var eventID string

	work := func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
		target, err := s.documentRepo.FindDocumentForUpdate(ctx, tx, tenantID, req.DocumentID)
		if err != nil {
			return nil, err
		}
		if target.DocumentType != domain.DocInvoice && target.DocumentType != domain.DocPurchaseBill {
			return nil, fmt.Errorf("%w: %s documents do not carry a balance", ErrDocumentNotPayable, target.DocumentType)
		}
		if target.Status != domain.DocPosted && target.Status != domain.DocPartial {
			return nil, fmt.Errorf("%w: status %s", ErrDocumentNotPayable, target.Status)
		}
		if target.JournalEntryID == nil {
			return nil, fmt.Errorf("%w: document %s has no posting entry", apperrors.ErrInternal, target.DocumentID)
		}

		precision := s.precisionFor(ctx, target.CurrencyCode)
		amount := accounting.RoundMinor(req.Amount, precision)
		remaining := target.RemainingAmount()
		if amount.GreaterThan(remaining) {
			return nil, fmt.Errorf("%w: remaining %s, requested %s", ErrPaymentExceeds, remaining.String(), amount.String())
		}

		entryLines, err := s.ledgerSvc.GetEntryByID(ctx, tenantID, *target.JournalEntryID)
		if err != nil {
			return nil, err
		}
		counterID, err := counterAccountID(target.DocumentType, entryLines.Lines)
		if err != nil {
			return nil, err
		}

		// Invoice payment: bank in, AR settled. Bill payment: AP settled, bank out.
		var journalLines []domain.JournalLine
		if target.DocumentType == domain.DocInvoice {
			journalLines = []domain.JournalLine{
				{AccountID: req.BankAccountID, Debit: amount, Memo: req.Memo},
				{AccountID: counterID, Credit: amount, Memo: req.Memo},
			}
		} else {
			journalLines = []domain.JournalLine{
				{AccountID: counterID, Debit: amount, Memo: req.Memo},
				{AccountID: req.BankAccountID, Credit: amount, Memo: req.Memo},
			}
		}

		seqNum, err := s.sequenceRepo.NextNumberInTx(ctx, tx, tenantID, paymentSequenceKey)
		if err != nil {
			return nil, err
		}
		paymentNumber := fmt.Sprintf("%s-%06d", paymentSequenceKey, seqNum)

		entry, err := s.ledgerSvc.PostEntryInTx(ctx, tx, domain.PostEntryParams{
			TenantID:    tenantID,
			Date:        req.Date,
			Description: "Payment " + paymentNumber + " against " + target.DocumentNumber,
			Lines:       journalLines,
			UserID:      userID,
		})
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		payment := domain.Document{
			DocumentID:          uuid.NewString(),
			TenantID:            tenantID,
			DocumentType:        domain.DocPayment,
			DocumentNumber:      paymentNumber,
			Status:              domain.DocPosted,
			DocumentDate:        req.Date,
			PartyID:             target.PartyID,
			CurrencyCode:        target.CurrencyCode,
			TotalAmount:         amount,
			PaidAmount:          amount,
			JournalEntryID:      &entry.EntryID,
			CounterAccountID:    counterID,
			AppliesToDocumentID: &target.DocumentID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.documentRepo.SaveDocumentInTx(ctx, tx, payment, nil); err != nil {
			return nil, err
		}

		newPaid := target.PaidAmount.Add(amount)
		newStatus := domain.DocPartial
		if newPaid.Equal(target.TotalAmount) {
			newStatus = domain.DocPaid
		}
		if !target.Status.CanTransition(newStatus) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, target.Status, newStatus)
		}
		if err := s.documentRepo.UpdateDocumentStatusInTx(ctx, tx, target.DocumentID, newStatus, newPaid, userID, now); err != nil {
			return nil, err
		}

		payload := map[string]any{
			"paymentID":  payment.DocumentID,
			"documentID": target.DocumentID,
			"amount":     amount,
			"newStatus":  newStatus,
		}
		event, err := newOutboxEvent(tenantID, domain.EventPaymentApplied, "Document", target.DocumentID, correlationID, nil, payload)
		if err != nil {
			return nil, err
		}
		if err := s.outboxRepo.EmitInTx(ctx, tx, event); err != nil {
			return nil, err
		}
		eventID = event.EventID

		return json.Marshal(dto.ToDocumentResponse(&payment))
	}

	lockKey := locking.Key("document", "pay", tenantID, req.DocumentID)
	doc, err := s.runDocumentCommand(ctx, tenantID, idempotencyKey, "ApplyPayment", []string{lockKey}, work)
	if err != nil {
		return nil, err
	}
	if eventID != "" {
		s.publisher.PublishEvent(ctx, eventID)
	}
	return doc, nil
}

// VoidDocument voids a document without deleting history: the posting entry
// (and its live adjustment, if any) is reversed, inventory moves are
// compensated with opposite moves, and the status flips to VOID. Invoices and
// bills with payments applied cannot be voided; the payment itself can, which
// rolls the settled document's paid amount and status back.
func (s *documentService) VoidDocument(ctx context.Context, tenantID, idempotencyKey, documentID string, req dto.VoidDocumentRequest, userID string) (*domain.Document, error) {
	correlationID := uuid.NewString()
	var eventID string

	lockKeys := []string{locking.Key("document", "void", tenantID, documentID)}
	// Voiding a payment touches the settled document too, so both locks are
	// taken up front.
	if preload, err := s.documentRepo.FindDocumentByID(ctx, tenantID, documentID); err == nil &&
		preload.DocumentType == domain.DocPayment && preload.AppliesToDocumentID != nil {
		lockKeys = append(lockKeys, locking.Key("document", "pay", tenantID, *preload.AppliesToDocumentID))
	}

	work := func(ctx context.Context, tx pgx.Tx) ([]byte, error) {
		logger := middleware.GetLoggerFromCtx(ctx)

		target, err := s.documentRepo.FindDocumentForUpdate(ctx, tx, tenantID, documentID)
		if err != nil {
			return nil, err
		}
		if !target.Status.CanTransition(domain.DocVoid) {
			return nil, fmt.Errorf("%w: %s -> VOID", ErrInvalidTransition, target.Status)
		}
		// A payment's PaidAmount mirrors its own total; the guard is for
		// invoices and bills that were settled by someone else's money.
		if target.DocumentType != domain.DocPayment && target.PaidAmount.IsPositive() {
			return nil, fmt.Errorf("%w: document %s has %s applied", ErrDocumentHasPayment, documentID, target.PaidAmount.String())
		}

		if target.JournalEntryID != nil {
			entry, err := s.ledgerSvc.GetEntryByID(ctx, tenantID, *target.JournalEntryID)
			if err != nil {
				return nil, err
			}
			// The live adjustment goes first so the original reversal restores
			// a clean zero state.
			if entry.LastAdjustmentEntryID != nil {
				if _, err := s.ledgerSvc.ReverseEntryInTx(ctx, tx, tenantID, *entry.LastAdjustmentEntryID, "void of "+target.DocumentNumber, userID); err != nil {
					return nil, err
				}
			}
			if _, err := s.ledgerSvc.ReverseEntryInTx(ctx, tx, tenantID, entry.EntryID, req.Reason, userID); err != nil {
				return nil, err
			}
			if err := s.journalRepo.MarkEntryVoidedInTx(ctx, tx, entry.EntryID, req.Reason, userID, time.Now().UTC()); err != nil {
				return nil, err
			}
		}

		// Rolling back a payment restores the settled document's balance.
		if target.DocumentType == domain.DocPayment && target.AppliesToDocumentID != nil {
			settled, err := s.documentRepo.FindDocumentForUpdate(ctx, tx, tenantID, *target.AppliesToDocumentID)
			if err != nil {
				return nil, err
			}
			newPaid := settled.PaidAmount.Sub(target.TotalAmount)
			if newPaid.IsNegative() {
				newPaid = decimal.Zero
			}
			newStatus := domain.DocPartial
			if newPaid.IsZero() {
				newStatus = domain.DocPosted
			}
			if !settled.Status.CanTransition(newStatus) {
				return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, settled.Status, newStatus)
			}
			if err := s.documentRepo.UpdateDocumentStatusInTx(ctx, tx, settled.DocumentID, newStatus, newPaid, userID, time.Now().UTC()); err != nil {
				return nil, err
			}
		}

		// Compensate inventory with opposite moves dated today; the original
		// moves stay in the timeline untouched.
		moves, err := s.inventoryRepo.ListMovesByReference(ctx, tenantID, string(target.DocumentType), documentID)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		for _, m := range moves {
			params := portssvc.ApplyMoveParams{
				TenantID:      tenantID,
				LocationID:    m.LocationID,
				ItemID:        m.ItemID,
				Date:          now,
				ReferenceType: "ADJUSTMENT",
				ReferenceID:   documentID,
				CorrelationID: correlationID,
				UserID:        userID,
			}
			switch m.Direction {
			case domain.MoveIn:
				params.Direction = domain.MoveOut
				params.Quantity = m.Quantity
			case domain.MoveOut:
				params.Direction = domain.MoveIn
				params.Quantity = m.Quantity
				params.UnitCost = m.UnitCostApplied
			case domain.MoveValueAdj:
				params.Direction = domain.MoveValueAdj
				params.ValueDelta = m.TotalCostApplied.Neg()
			}
			result, err := s.inventorySvc.ApplyMoveInTx(ctx, tx, params)
			if err != nil {
				return nil, err
			}
			if result.RequiresRecalcFromDate != nil {
				if _, err := s.inventorySvc.RecalculateFromInTx(ctx, tx, tenantID, m.LocationID, m.ItemID, *result.RequiresRecalcFromDate, userID); err != nil {
					return nil, err
				}
			}
		}
		logger.Debug("Voiding document", slog.String("document_id", documentID), slog.Int("compensating_moves", len(moves)))

		if err := s.documentRepo.MarkDocumentVoidInTx(ctx, tx, documentID, req.Reason, userID, now); err != nil {
			return nil, err
		}

		target.Status = domain.DocVoid
		target.VoidReason = req.Reason
		resp := dto.ToDocumentResponse(target)

		payload := map[string]any{
			"documentID": documentID,
			"reason":     req.Reason,
		}
		event, err := newOutboxEvent(tenantID, domain.EventDocumentVoided, "Document", documentID, correlationID, nil, payload)
		if err != nil {
			return nil, err
		}
		if err := s.outboxRepo.EmitInTx(ctx, tx, event); err != nil {
			return nil, err
		}
		eventID = event.EventID

		return json.Marshal(resp)
	}

	doc, err := s.runDocumentCommand(ctx, tenantID, idempotencyKey, "VoidDocument", lockKeys, work)
	if err != nil {
		return nil, err
	}
	if eventID != "" {
		s.publisher.PublishEvent(ctx, eventID)
	}
	return doc, nil
}

// GetDocumentByID retrieves a document with its lines.
func (s *documentService) GetDocumentByID(ctx context.Context, tenantID, documentID string) (*domain.Document, error) {
	doc, err := s.documentRepo.FindDocumentByID(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	lines, err := s.documentRepo.FindLinesByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return doc, nil
}

// ListDocuments retrieves a page of documents.
func (s *documentService) ListDocuments(ctx context.Context, tenantID string, params dto.ListDocumentsParams) (*dto.ListDocumentsResponse, error) {
	var docType *domain.DocumentType
	if params.Type != nil && *params.Type != "" {
		t := domain.DocumentType(*params.Type)
		docType = &t
	}
	docs, nextToken, err := s.documentRepo.ListDocuments(ctx, tenantID, docType, params.Limit, params.NextToken)
	if err != nil {
		return nil, err
	}
	resp := &dto.ListDocumentsResponse{NextToken: nextToken}
	for i := range docs {
		resp.Documents = append(resp.Documents, dto.ToDocumentResponse(&docs[i]))
	}
	return resp, nil
}
