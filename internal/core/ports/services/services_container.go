package services

// ServiceContainer holds all the service facades the handlers depend on.
// It is assembled once at startup by the services package.
type ServiceContainer struct {
	Account     AccountSvcFacade
	Currency    CurrencySvcFacade
	Ledger      LedgerSvcFacade
	Inventory   InventorySvcFacade
	Document    DocumentSvcFacade
	Period      PeriodSvcFacade
	Forecast    ForecastSvcFacade
	Idempotency IdempotencySvcFacade
	Outbox      OutboxPublisherSvc
}
