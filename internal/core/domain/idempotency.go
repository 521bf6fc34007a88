package domain

import "time"

// IdempotencyRecord is the authoritative "already executed" marker for a
// (tenant, key) command. It is inserted in the same transaction as the
// command's side effects and is never deleted.
type IdempotencyRecord struct {
	TenantID    string    `json:"tenantID"`
	Key         string    `json:"key"`
	CommandName string    `json:"commandName"`
	Result      []byte    `json:"result"` // Serialized original response, replayed on retry
	ProcessedAt time.Time `json:"processedAt"`
}
