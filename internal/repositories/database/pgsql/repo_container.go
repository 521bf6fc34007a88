package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     newPgxAccountRepository(dbPool),
		CurrencyRepo:    newPgxCurrencyRepository(dbPool),
		JournalRepo:     newPgxJournalRepository(dbPool),
		DocumentRepo:    newPgxDocumentRepository(dbPool),
		InventoryRepo:   newPgxInventoryRepository(dbPool),
		OutboxRepo:      newPgxOutboxRepository(dbPool),
		IdempotencyRepo: newPgxIdempotencyRepository(dbPool),
		PeriodRepo:      newPgxPeriodRepository(dbPool),
		SequenceRepo:    newPgxSequenceRepository(dbPool),
		ForecastRepo:    newPgxForecastRepository(dbPool),
	}
}
