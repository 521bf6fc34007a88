package dto

import "time"

// ForecastRequest parameterizes the cashflow projection.
type ForecastRequest struct {
	AsOf     *time.Time `form:"asOf"`
	Scenario string     `form:"scenario" binding:"omitempty,oneof=base conservative optimistic"`
	Weeks    int        `form:"weeks"`
}
