package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager defines methods for database transaction management.
// Repositories expose methods that accept a pgx.Tx so a single command can
// thread one transaction through every write it performs.
type TransactionManager interface {
	// Begin starts a new database transaction
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits a transaction
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls back a transaction
	Rollback(ctx context.Context, tx pgx.Tx) error

	// RunInTx begins a transaction, runs fn, and commits; any error rolls back.
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// RepositoryProvider holds all repository implementations for injection into
// the service layer.
type RepositoryProvider struct {
	AccountRepo     AccountRepositoryFacade
	CurrencyRepo    CurrencyRepositoryFacade
	JournalRepo     JournalRepositoryFacade
	DocumentRepo    DocumentRepositoryFacade
	InventoryRepo   InventoryRepositoryFacade
	OutboxRepo      OutboxRepositoryFacade
	IdempotencyRepo IdempotencyRepositoryFacade
	PeriodRepo      PeriodRepositoryFacade
	SequenceRepo    SequenceRepositoryFacade
	ForecastRepo    ForecastRepositoryFacade
}
