package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// newOutboxEvent builds a v1 event envelope ready for EmitInTx. The partition
// key is the tenant id so consumers see per-tenant ordering.
func newOutboxEvent(tenantID, eventType, aggregateType, aggregateID, correlationID string, causationID *string, payload any) (domain.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.OutboxEvent{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	now := time.Now().UTC()
	return domain.OutboxEvent{
		EventID:              uuid.NewString(),
		EventType:            eventType,
		SchemaVersion:        1,
		OccurredAt:           now,
		TenantID:             tenantID,
		PartitionKey:         tenantID,
		CorrelationID:        correlationID,
		CausationID:          causationID,
		AggregateType:        aggregateType,
		AggregateID:          aggregateID,
		Source:               domain.EventSource,
		Payload:              body,
		NextPublishAttemptAt: now,
	}, nil
}
