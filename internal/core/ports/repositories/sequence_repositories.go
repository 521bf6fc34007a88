package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// SequenceRepositoryFacade allocates gapless human-readable document numbers.
// Allocation locks the (tenant, key) counter row inside the caller's
// transaction, so numbers are gapless on success and may show small gaps only
// on true aborted transactions.
type SequenceRepositoryFacade interface {
	// NextNumberInTx increments and returns the counter for (tenant, key),
	// creating it at 1 on first use.
	NextNumberInTx(ctx context.Context, tx pgx.Tx, tenantID, key string) (int64, error)
}
