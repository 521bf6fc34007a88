package models

// Currency is the database row shape for supported currencies.
type Currency struct {
	CurrencyCode string `db:"currency_code"` // Primary key, e.g. "USD"
	Symbol       string `db:"symbol"`
	Name         string `db:"name"`
	Precision    int32  `db:"precision"` // Minor-unit fractional digits
	AuditFields
}
