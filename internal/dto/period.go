package dto

import "time"

// ClosePeriodRequest closes the tenant's books through ToDate, inclusive.
type ClosePeriodRequest struct {
	ToDate time.Time `json:"toDate" binding:"required"`
	Notes  string    `json:"notes"`
}
