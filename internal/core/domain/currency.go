package domain

// Currency describes a currency supported as a tenant base currency.
// Precision is the number of minor-unit fractional digits (2 for most, up to 4).
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // ISO 4217 code, e.g. "USD"
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Precision    int32  `json:"precision"`
	AuditFields
}
