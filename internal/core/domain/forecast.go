package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ForecastScenario selects the timing assumptions applied to open items.
type ForecastScenario string

const (
	ScenarioBase         ForecastScenario = "base"
	ScenarioConservative ForecastScenario = "conservative"
	ScenarioOptimistic   ForecastScenario = "optimistic"
)

// ForecastAlert flags raised while bucketing the projection.
const (
	AlertCashNegative = "CASH_NEGATIVE"
	AlertBufferBreach = "BUFFER_BREACH"
)

// RecurrenceFrequency is how often a scheduled item repeats.
type RecurrenceFrequency string

const (
	FreqWeekly  RecurrenceFrequency = "WEEKLY"
	FreqMonthly RecurrenceFrequency = "MONTHLY"
)

// OpenItem is an unpaid receivable or payable feeding the projection.
type OpenItem struct {
	DocumentID   string          `json:"documentID"`
	DocumentType DocumentType    `json:"documentType"`
	PartyID      string          `json:"partyID"`
	DueDate      time.Time       `json:"dueDate"`
	Amount       decimal.Decimal `json:"amount"` // Remaining unpaid amount
	Inflow       bool            `json:"inflow"` // True for receivables
}

// RecurringItem is a scheduled repeating cash movement (rent, payroll, subscriptions).
type RecurringItem struct {
	RecurringItemID string              `json:"recurringItemID"`
	TenantID        string              `json:"tenantID"`
	Name            string              `json:"name"`
	Amount          decimal.Decimal     `json:"amount"`
	Inflow          bool                `json:"inflow"`
	Frequency       RecurrenceFrequency `json:"frequency"`
	Interval        int                 `json:"interval"` // Every N weeks/months
	StartDate       time.Time           `json:"startDate"`
	EndDate         *time.Time          `json:"endDate,omitempty"`
	AuditFields
}

// ForecastDriver is one of the top contributors to a week's flow, by absolute amount.
type ForecastDriver struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Inflow bool            `json:"inflow"`
}

// ForecastWeek is a single weekly bucket of the projection.
type ForecastWeek struct {
	WeekStart   time.Time       `json:"weekStart"`
	WeekEnd     time.Time       `json:"weekEnd"`
	Inflow      decimal.Decimal `json:"inflow"`
	Outflow     decimal.Decimal `json:"outflow"`
	NetFlow     decimal.Decimal `json:"netFlow"`
	RunningCash decimal.Decimal `json:"runningCash"`
}

// CashflowForecast is the scenario-based weekly cash projection.
type CashflowForecast struct {
	TenantID    string           `json:"tenantID"`
	AsOf        time.Time        `json:"asOf"`
	Scenario    ForecastScenario `json:"scenario"`
	OpeningCash decimal.Decimal  `json:"openingCash"`
	Weeks       []ForecastWeek   `json:"weeks"`
	LowestCash  decimal.Decimal  `json:"lowestCash"`
	LowestWeek  *time.Time       `json:"lowestWeek,omitempty"`
	Alerts      []string         `json:"alerts"`
	TopInflows  []ForecastDriver `json:"topInflows"`
	TopOutflows []ForecastDriver `json:"topOutflows"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
