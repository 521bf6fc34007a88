package domain

import (
	"encoding/json"
	"time"
)

// Event types emitted by the posting pipeline.
const (
	EventInvoicePosted      = "invoice.posted"
	EventPurchaseBillPosted = "purchase_bill.posted"
	EventGoodsReceiptPosted = "goods_receipt.posted"
	EventPaymentApplied     = "payment.applied"
	EventDocumentAmended    = "document.amended"
	EventDocumentVoided     = "document.voided"
	EventJournalPosted      = "journal.posted"
	EventStockRecalculated  = "stock.recalculated"
)

// EventSource identifies this service in outgoing envelopes.
const EventSource = "ledgera-backend"

// OutboxEvent is a domain event recorded transactionally with the business write
// (transactional-outbox pattern) and delivered to the bus after commit.
// PublishedAt stays nil until delivery succeeds; failed deliveries roll
// NextPublishAttemptAt forward for the redelivery sweep.
type OutboxEvent struct {
	EventID              string          `json:"eventId"`
	EventType            string          `json:"eventType"`
	SchemaVersion        int             `json:"schemaVersion"`
	OccurredAt           time.Time       `json:"occurredAt"`
	TenantID             string          `json:"tenantId"`
	PartitionKey         string          `json:"partitionKey"` // Tenant id: per-tenant ordering on the bus
	CorrelationID        string          `json:"correlationId"`
	CausationID          *string         `json:"causationId,omitempty"`
	AggregateType        string          `json:"aggregateType"`
	AggregateID          string          `json:"aggregateId"`
	Source               string          `json:"source"`
	Payload              json.RawMessage `json:"payload"`
	PublishAttempts      int             `json:"-"`
	PublishedAt          *time.Time      `json:"-"`
	NextPublishAttemptAt time.Time       `json:"-"`
	LastPublishError     string          `json:"-"`
}
