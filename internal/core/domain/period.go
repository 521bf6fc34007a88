package domain

import "time"

// PeriodClose marks an accounting boundary: postings dated on or before ToDate
// are rejected. The latest row per tenant is the effective boundary.
type PeriodClose struct {
	PeriodCloseID string    `json:"periodCloseID"`
	TenantID      string    `json:"tenantID"`
	ToDate        time.Time `json:"toDate"` // Inclusive, day granularity
	Notes         string    `json:"notes,omitempty"`
	AuditFields
}
