package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
)

type PgxForecastRepository struct {
	BaseRepository
}

func newPgxForecastRepository(pool *pgxpool.Pool) portsrepo.ForecastRepositoryFacade {
	return &PgxForecastRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.ForecastRepositoryFacade = (*PgxForecastRepository)(nil)

// OpeningCash sums debit-credit over bank-flagged asset accounts across posted
// entries dated on or before asOf.
func (r *PgxForecastRepository) OpeningCash(ctx context.Context, tenantID string, asOf time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(l.debit - l.credit), 0)
		FROM journal_lines l
		JOIN journal_entries e ON l.entry_id = e.entry_id
		JOIN accounts a ON l.account_id = a.account_id
		WHERE e.tenant_id = $1
		  AND e.status = 'POSTED'
		  AND e.entry_date <= $2
		  AND a.is_bank_account = TRUE;
	`
	var cash decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, tenantID, asOf).Scan(&cash); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to compute opening cash for tenant "+tenantID, err)
	}
	return cash, nil
}

func (r *PgxForecastRepository) ListRecurringItems(ctx context.Context, tenantID string) ([]domain.RecurringItem, error) {
	query := `
		SELECT recurring_item_id, tenant_id, name, amount, inflow, frequency, interval, start_date, end_date,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM recurring_items
		WHERE tenant_id = $1
		ORDER BY name;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query recurring items for tenant "+tenantID, err)
	}
	defer rows.Close()

	var items []domain.RecurringItem
	for rows.Next() {
		var it domain.RecurringItem
		if err := rows.Scan(
			&it.RecurringItemID, &it.TenantID, &it.Name, &it.Amount, &it.Inflow,
			&it.Frequency, &it.Interval, &it.StartDate, &it.EndDate,
			&it.CreatedAt, &it.CreatedBy, &it.LastUpdatedAt, &it.LastUpdatedBy,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan recurring item row", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating recurring item rows", err)
	}
	return items, nil
}

func (r *PgxForecastRepository) SaveRecurringItem(ctx context.Context, item domain.RecurringItem) error {
	query := `
		INSERT INTO recurring_items (recurring_item_id, tenant_id, name, amount, inflow, frequency, interval, start_date, end_date,
		                             created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (recurring_item_id) DO UPDATE
		SET name = EXCLUDED.name,
		    amount = EXCLUDED.amount,
		    inflow = EXCLUDED.inflow,
		    frequency = EXCLUDED.frequency,
		    interval = EXCLUDED.interval,
		    start_date = EXCLUDED.start_date,
		    end_date = EXCLUDED.end_date,
		    last_updated_at = EXCLUDED.last_updated_at,
		    last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.Pool.Exec(ctx, query,
		item.RecurringItemID, item.TenantID, item.Name, item.Amount, item.Inflow,
		item.Frequency, item.Interval, item.StartDate, item.EndDate,
		item.CreatedAt, item.CreatedBy, item.LastUpdatedAt, item.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to upsert recurring item "+item.RecurringItemID, err)
	}
	return nil
}
