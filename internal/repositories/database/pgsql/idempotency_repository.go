package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
)

type PgxIdempotencyRepository struct {
	BaseRepository
}

func newPgxIdempotencyRepository(pool *pgxpool.Pool) portsrepo.IdempotencyRepositoryFacade {
	return &PgxIdempotencyRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.IdempotencyRepositoryFacade = (*PgxIdempotencyRepository)(nil)

// InsertRecordInTx inserts the execution marker. The (tenant_id, key) primary
// key is what makes retried commands collide: a duplicate insert surfaces as
// apperrors.ErrDuplicate and the transaction rolls back untouched.
func (r *PgxIdempotencyRepository) InsertRecordInTx(ctx context.Context, tx pgx.Tx, record domain.IdempotencyRecord) error {
	query := `
		INSERT INTO idempotency_records (tenant_id, key, command_name, result, processed_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := tx.Exec(ctx, query,
		record.TenantID, record.Key, record.CommandName, record.Result, record.ProcessedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert idempotency record "+record.Key, err)
	}
	return nil
}

func (r *PgxIdempotencyRepository) StoreResultInTx(ctx context.Context, tx pgx.Tx, tenantID, key string, result []byte) error {
	query := `UPDATE idempotency_records SET result = $3 WHERE tenant_id = $1 AND key = $2;`
	tag, err := tx.Exec(ctx, query, tenantID, key, result)
	if err != nil {
		return apperrors.NewAppError(500, "failed to store result for idempotency key "+key, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("idempotency record " + key + " not found")
	}
	return nil
}

func (r *PgxIdempotencyRepository) FindRecord(ctx context.Context, tenantID, key string) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT tenant_id, key, command_name, result, processed_at
		FROM idempotency_records
		WHERE tenant_id = $1 AND key = $2;
	`
	var rec domain.IdempotencyRecord
	err := r.Pool.QueryRow(ctx, query, tenantID, key).Scan(
		&rec.TenantID, &rec.Key, &rec.CommandName, &rec.Result, &rec.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find idempotency record "+key, err)
	}
	return &rec, nil
}
