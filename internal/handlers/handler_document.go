package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/dto"
	"github.com/ledgera/ledgera_backend/internal/middleware"
)

// documentHandler handles HTTP requests for business documents. Every command
// endpoint requires an Idempotency-Key header; retries with the same key
// replay the stored result instead of re-executing.
type documentHandler struct {
	documentService portssvc.DocumentSvcFacade
}

// newDocumentHandler creates a new documentHandler.
func newDocumentHandler(ds portssvc.DocumentSvcFacade) *documentHandler {
	return &documentHandler{
		documentService: ds,
	}
}

// registerDocumentRoutes registers routes related to documents.
func registerDocumentRoutes(rg *gin.RouterGroup, documentService portssvc.DocumentSvcFacade) {
	h := newDocumentHandler(documentService)

	documents := rg.Group("/documents")
	{
		documents.POST("/invoices", h.postInvoice)
		documents.POST("/purchase-bills", h.postPurchaseBill)
		documents.POST("/goods-receipts", h.postGoodsReceipt)
		documents.POST("/payments", h.applyPayment)
		documents.POST("/:id/approve", h.approveDocument)
		documents.POST("/:id/post", h.postDocument)
		documents.POST("/:id/amend", h.amendDocument)
		documents.POST("/:id/void", h.voidDocument)
		documents.GET("", h.listDocuments)
		documents.GET("/:id", h.getDocument)
	}
}

// postInvoice godoc
// @Summary Post a customer invoice
// @Description Posts an invoice: journal entry, stock OUT moves for item lines, outbox event
// @Tags documents
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string true "Idempotency key"
// @Param   invoice body dto.PostInvoiceRequest true "Invoice details"
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Insufficient stock or resource busy"
// @Failure 422 {object} map[string]string "Dated in a closed period"
// @Failure 500 {object} map[string]string "Failed to post invoice"
// @Security BearerAuth
// @Router /documents/invoices [post]
func (h *documentHandler) postInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.PostInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for postInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	doc, err := h.documentService.PostInvoice(c.Request.Context(), tenantID, key, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to post invoice")
		return
	}

	logger.Info("Invoice posted", slog.String("document_id", doc.DocumentID), slog.String("document_number", doc.DocumentNumber))
	c.JSON(http.StatusCreated, dto.ToDocumentResponse(doc))
}

// postPurchaseBill godoc
// @Summary Post a purchase bill
// @Description Posts a vendor bill: journal entry, stock IN moves for item lines, outbox event
// @Tags documents
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string true "Idempotency key"
// @Param   bill body dto.PostPurchaseBillRequest true "Bill details"
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 422 {object} map[string]string "Dated in a closed period"
// @Failure 500 {object} map[string]string "Failed to post purchase bill"
// @Security BearerAuth
// @Router /documents/purchase-bills [post]
func (h *documentHandler) postPurchaseBill(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.PostPurchaseBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for postPurchaseBill", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	doc, err := h.documentService.PostPurchaseBill(c.Request.Context(), tenantID, key, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to post purchase bill")
		return
	}

	logger.Info("Purchase bill posted", slog.String("document_id", doc.DocumentID), slog.String("document_number", doc.DocumentNumber))
	c.JSON(http.StatusCreated, dto.ToDocumentResponse(doc))
}

// postGoodsReceipt godoc
// @Summary Post a goods receipt
// @Description Records stock received before the vendor bill: inventory debits against a GRNI accrual
// @Tags documents
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string true "Idempotency key"
// @Param   receipt body dto.PostGoodsReceiptRequest true "Receipt details"
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 422 {object} map[string]string "Dated in a closed period"
// @Failure 500 {object} map[string]string "Failed to post goods receipt"
// @Security BearerAuth
// @Router /documents/goods-receipts [post]
func (h *documentHandler) postGoodsReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.PostGoodsReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for postGoodsReceipt", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	doc, err := h.documentService.PostGoodsReceipt(c.Request.Context(), tenantID, key, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to post goods receipt")
		return
	}

	logger.Info("Goods receipt posted", slog.String("document_id", doc.DocumentID), slog.String("document_number", doc.DocumentNumber))
	c.JSON(http.StatusCreated, dto.ToDocumentResponse(doc))
}

// approveDocument godoc
// @Summary Approve a draft document
// @Tags documents
// @Produce  json
// @Param   Idempotency-Key header string true "Idempotency key"
// @Param   id path string true "Document ID"
// @Success 200 {object} dto.DocumentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Document not found"
// @Failure 409 {object} map[string]string "Document is not a draft"
// @Failure 500 {object} map[string]string "Failed to approve document"
// @Security BearerAuth
// @Router /documents/{id}/approve [post]
func (h *documentHandler) approveDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	doc, err := h.documentService.ApproveDocument(c.Request.Context(), tenantID, key, c.Param("id"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to approve document")
		return
	}

	logger.Info("Document approved", slog.String("document_id", doc.DocumentID))
	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// postDocument godoc
// @Summary Post an approved document
// @Description Posts an approved draft from its stored lines: journal entry, stock moves, outbox event
// @Tags documents
// @Produce  json
// @Param   Idempotency-Key header string true "Idempotency key"
// @Param   id path string true "Document ID"
// @Success 200 {object} dto.DocumentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Document not found"
// @Failure 409 {object} map[string]string "Document is not approved"
// @Failure 422 {object} map[string]string "Dated in a closed period"
// @Failure 500 {object} map[string]string "Failed to post document"
// @Security BearerAuth
// @Router /documents/{id}/post [post]
func (h *documentHandler) postDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	doc, err := h.documentService.PostDocument(c.Request.Context(), tenantID, key, c.Param("id"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to post document")
		return
	}

	logger.Info("Document posted", slog.String("document_id", doc.DocumentID), slog.String("document_number", doc.DocumentNumber))
	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// amendDocument godoc
// @Summary Amend a posted document
// @Description Replaces the lines of a posted, unpaid document; the net change posts as an adjustment entry
// @Tags documents
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string true "Idempotency key"
// @Param   id path string true "Document ID"
// @Param   amendment body dto.AmendDocumentRequest true "Amended lines"
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string "Invalid input or stock-affecting document"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Document not found"
// @Failure 409 {object} map[string]string "Document not posted or has payments"
// @Failure 422 {object} map[string]string "Dated in a closed period"
// @Failure 500 {object} map[string]string "Failed to amend document"
// @Security BearerAuth
// @Router /documents/{id}/amend [post]
func (h *documentHandler) amendDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.AmendDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for amendDocument", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	doc, err := h.documentService.AmendDocument(c.Request.Context(), tenantID, key, c.Param("id"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to amend document")
		return
	}

	logger.Info("Document amended", slog.String("document_id", doc.DocumentID), slog.String("total_amount", doc.TotalAmount.String()))
	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// applyPayment godoc
// @Summary Apply a payment to a document
// @Description Applies a payment against a posted invoice or bill, updating its paid state
// @Tags documents
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string true "Idempotency key"
// @Param   payment body dto.ApplyPaymentRequest true "Payment details"
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string "Invalid input or payment exceeds remaining amount"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Document not found"
// @Failure 409 {object} map[string]string "Document not payable"
// @Failure 500 {object} map[string]string "Failed to apply payment"
// @Security BearerAuth
// @Router /documents/payments [post]
func (h *documentHandler) applyPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for applyPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	doc, err := h.documentService.ApplyPayment(c.Request.Context(), tenantID, key, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to apply payment")
		return
	}

	logger.Info("Payment applied", slog.String("document_id", req.DocumentID), slog.String("status", string(doc.Status)))
	c.JSON(http.StatusCreated, dto.ToDocumentResponse(doc))
}

// voidDocument godoc
// @Summary Void a document
// @Description Voids a posted document: reverses its postings and compensates its stock moves
// @Tags documents
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string true "Idempotency key"
// @Param   id path string true "Document ID"
// @Param   void body dto.VoidDocumentRequest true "Void reason"
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Document not found"
// @Failure 409 {object} map[string]string "Document already void or has payments"
// @Failure 500 {object} map[string]string "Failed to void document"
// @Security BearerAuth
// @Router /documents/{id}/void [post]
func (h *documentHandler) voidDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.VoidDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for voidDocument", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	doc, err := h.documentService.VoidDocument(c.Request.Context(), tenantID, key, c.Param("id"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to void document")
		return
	}

	logger.Info("Document voided", slog.String("document_id", doc.DocumentID))
	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// getDocument godoc
// @Summary Get a document by ID
// @Tags documents
// @Produce  json
// @Param   id path string true "Document ID"
// @Success 200 {object} dto.DocumentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Document not found"
// @Failure 500 {object} map[string]string "Failed to retrieve document"
// @Security BearerAuth
// @Router /documents/{id} [get]
func (h *documentHandler) getDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	doc, err := h.documentService.GetDocumentByID(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve document")
		return
	}

	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// listDocuments godoc
// @Summary List documents
// @Description Lists documents newest first with token pagination, optionally filtered by type
// @Tags documents
// @Produce  json
// @Param   type query string false "Document type filter (INVOICE, PURCHASE_BILL, PAYMENT)"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListDocumentsResponse
// @Failure 400 {object} map[string]string "Invalid pagination token"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list documents"
// @Security BearerAuth
// @Router /documents [get]
func (h *documentHandler) listDocuments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	var params dto.ListDocumentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for listDocuments", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.documentService.ListDocuments(c.Request.Context(), tenantID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list documents")
		return
	}

	c.JSON(http.StatusOK, page)
}
