package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
)

type PgxPeriodRepository struct {
	BaseRepository
}

func newPgxPeriodRepository(pool *pgxpool.Pool) portsrepo.PeriodRepositoryFacade {
	return &PgxPeriodRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

func (r *PgxPeriodRepository) SavePeriodCloseInTx(ctx context.Context, tx pgx.Tx, close domain.PeriodClose) error {
	query := `
		INSERT INTO period_closes (period_close_id, tenant_id, to_date, notes, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := tx.Exec(ctx, query,
		close.PeriodCloseID, close.TenantID, close.ToDate, close.Notes,
		close.CreatedAt, close.CreatedBy, close.LastUpdatedAt, close.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert period close "+close.PeriodCloseID, err)
	}
	return nil
}

func (r *PgxPeriodRepository) LatestCloseDate(ctx context.Context, tenantID string) (*time.Time, error) {
	query := `SELECT MAX(to_date) FROM period_closes WHERE tenant_id = $1;`
	var toDate *time.Time
	if err := r.Pool.QueryRow(ctx, query, tenantID).Scan(&toDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewAppError(500, "failed to query latest close date for tenant "+tenantID, err)
	}
	return toDate, nil
}

func (r *PgxPeriodRepository) ListPeriodCloses(ctx context.Context, tenantID string) ([]domain.PeriodClose, error) {
	query := `
		SELECT period_close_id, tenant_id, to_date, notes, created_at, created_by, last_updated_at, last_updated_by
		FROM period_closes
		WHERE tenant_id = $1
		ORDER BY to_date DESC;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query period closes for tenant "+tenantID, err)
	}
	defer rows.Close()

	var closes []domain.PeriodClose
	for rows.Next() {
		var c domain.PeriodClose
		if err := rows.Scan(
			&c.PeriodCloseID, &c.TenantID, &c.ToDate, &c.Notes,
			&c.CreatedAt, &c.CreatedBy, &c.LastUpdatedAt, &c.LastUpdatedBy,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan period close row", err)
		}
		closes = append(closes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating period close rows", err)
	}
	return closes, nil
}
