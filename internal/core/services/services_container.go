package services

import (
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/platform/config"
	"github.com/ledgera/ledgera_backend/internal/platform/eventbus"
	"github.com/ledgera/ledgera_backend/internal/platform/locking"
	"github.com/redis/go-redis/v9"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// redisClient may be nil; the idempotency guard then runs database-only.
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	redisClient *redis.Client,
	bus eventbus.Bus,
	locker locking.Locker,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Any pgsql repository can serve as the transaction manager; they all
	// share the same pool.
	txManager := repos.JournalRepo

	// Leaf services first; the posting pipeline layers on top of them.
	container.Idempotency = NewIdempotencyService(txManager, repos.IdempotencyRepo, redisClient)
	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.Period = NewPeriodService(repos.PeriodRepo, container.Idempotency)
	container.Account = NewAccountService(repos.AccountRepo, container.Currency)

	container.Outbox = NewOutboxPublisher(
		repos.OutboxRepo,
		txManager,
		bus,
		cfg.OutboxSweepInterval,
		cfg.OutboxSweepBatchSize,
	)

	container.Ledger = NewLedgerService(
		repos.JournalRepo,
		repos.AccountRepo,
		repos.SequenceRepo,
		repos.OutboxRepo,
		container.Currency,
		container.Period,
		container.Idempotency,
		container.Outbox,
	)

	container.Inventory = NewInventoryService(
		repos.InventoryRepo,
		repos.OutboxRepo,
		txManager,
		container.Period,
		container.Ledger,
		container.Idempotency,
		locker,
	)

	container.Document = NewDocumentService(
		repos.DocumentRepo,
		repos.AccountRepo,
		repos.InventoryRepo,
		repos.SequenceRepo,
		repos.OutboxRepo,
		repos.JournalRepo,
		container.Ledger,
		container.Inventory,
		container.Idempotency,
		container.Currency,
		container.Outbox,
		locker,
	)

	forecastCfg := DefaultForecastConfig()
	forecastCfg.DefaultWeeks = cfg.ForecastDefaultWeeks
	forecastCfg.CashBuffer = cfg.ForecastCashBuffer
	container.Forecast = NewForecastService(repos.ForecastRepo, repos.DocumentRepo, forecastCfg)

	return container
}
