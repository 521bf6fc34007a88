package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
)

type PgxSequenceRepository struct {
	BaseRepository
}

func newPgxSequenceRepository(pool *pgxpool.Pool) portsrepo.SequenceRepositoryFacade {
	return &PgxSequenceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.SequenceRepositoryFacade = (*PgxSequenceRepository)(nil)

// NextNumberInTx allocates the next value of a named per-tenant counter. The
// upsert takes a row lock, so concurrent allocations of the same counter
// serialize for the rest of the transaction; numbers stay gapless unless the
// surrounding transaction aborts.
func (r *PgxSequenceRepository) NextNumberInTx(ctx context.Context, tx pgx.Tx, tenantID, key string) (int64, error) {
	query := `
		INSERT INTO document_sequences (tenant_id, sequence_key, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, sequence_key) DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value;
	`
	var value int64
	if err := tx.QueryRow(ctx, query, tenantID, key).Scan(&value); err != nil {
		return 0, apperrors.NewAppError(500, "failed to allocate sequence "+key+" for tenant "+tenantID, err)
	}
	return value, nil
}
