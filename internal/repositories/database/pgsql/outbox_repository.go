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

const outboxColumns = `event_id, event_type, schema_version, occurred_at, tenant_id, partition_key, correlation_id, causation_id, aggregate_type, aggregate_id, source, payload, publish_attempts, published_at, next_publish_attempt_at, last_publish_error`

type PgxOutboxRepository struct {
	BaseRepository
}

func newPgxOutboxRepository(pool *pgxpool.Pool) portsrepo.OutboxRepositoryFacade {
	return &PgxOutboxRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.OutboxRepositoryFacade = (*PgxOutboxRepository)(nil)

func scanOutboxEvent(row pgx.Row) (domain.OutboxEvent, error) {
	var e domain.OutboxEvent
	err := row.Scan(
		&e.EventID,
		&e.EventType,
		&e.SchemaVersion,
		&e.OccurredAt,
		&e.TenantID,
		&e.PartitionKey,
		&e.CorrelationID,
		&e.CausationID,
		&e.AggregateType,
		&e.AggregateID,
		&e.Source,
		&e.Payload,
		&e.PublishAttempts,
		&e.PublishedAt,
		&e.NextPublishAttemptAt,
		&e.LastPublishError,
	)
	return e, err
}

// EmitInTx records events in the same transaction as the business write that
// produced them. If the transaction rolls back, the events vanish with it.
func (r *PgxOutboxRepository) EmitInTx(ctx context.Context, tx pgx.Tx, events ...domain.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	query := `
		INSERT INTO outbox_events (` + outboxColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(query,
			e.EventID, e.EventType, e.SchemaVersion, e.OccurredAt, e.TenantID,
			e.PartitionKey, e.CorrelationID, e.CausationID, e.AggregateType,
			e.AggregateID, e.Source, e.Payload,
			e.PublishAttempts, e.PublishedAt, e.NextPublishAttemptAt, e.LastPublishError,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to emit outbox events", err)
	}
	return nil
}

// ClaimDue locks up to limit due unpublished events for this sweep. SKIP LOCKED
// lets concurrent sweepers claim disjoint batches; per-partition publish order
// is preserved by ordering on occurred_at within the claim.
func (r *PgxOutboxRepository) ClaimDue(ctx context.Context, tx pgx.Tx, due time.Time, limit int) ([]domain.OutboxEvent, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM outbox_events
		WHERE published_at IS NULL AND next_publish_attempt_at <= $1
		ORDER BY occurred_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED;
	`
	rows, err := tx.Query(ctx, query, due, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to claim due outbox events", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		e, scanErr := scanOutboxEvent(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan outbox event row", scanErr)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating outbox event rows", err)
	}
	return events, nil
}

func (r *PgxOutboxRepository) MarkPublishedInTx(ctx context.Context, tx pgx.Tx, eventID string, at time.Time) error {
	query := `UPDATE outbox_events SET published_at = $2 WHERE event_id = $1 AND published_at IS NULL;`
	tag, err := tx.Exec(ctx, query, eventID, at)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark outbox event published "+eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("outbox event " + eventID + " not found or already published")
	}
	return nil
}

func (r *PgxOutboxRepository) MarkFailedInTx(ctx context.Context, tx pgx.Tx, eventID string, attempt int, nextAttemptAt time.Time, publishErr string) error {
	query := `
		UPDATE outbox_events
		SET publish_attempts = $2, next_publish_attempt_at = $3, last_publish_error = $4
		WHERE event_id = $1 AND published_at IS NULL;
	`
	tag, err := tx.Exec(ctx, query, eventID, attempt, nextAttemptAt, publishErr)
	if err != nil {
		return apperrors.NewAppError(500, "failed to record outbox failure for "+eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("outbox event " + eventID + " not found or already published")
	}
	return nil
}

func (r *PgxOutboxRepository) FindByID(ctx context.Context, eventID string) (*domain.OutboxEvent, error) {
	query := `SELECT ` + outboxColumns + ` FROM outbox_events WHERE event_id = $1;`
	e, err := scanOutboxEvent(r.Pool.QueryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find outbox event "+eventID, err)
	}
	return &e, nil
}
