package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// OutboxRepositoryFacade persists outbox events. Emit happens inside the same
// transaction as the business write; the publisher sweep claims due rows with
// FOR UPDATE SKIP LOCKED.
type OutboxRepositoryFacade interface {
	EmitInTx(ctx context.Context, tx pgx.Tx, events ...domain.OutboxEvent) error

	// ClaimDue locks and returns up to limit unpublished events whose next
	// attempt time has passed.
	ClaimDue(ctx context.Context, tx pgx.Tx, due time.Time, limit int) ([]domain.OutboxEvent, error)

	MarkPublishedInTx(ctx context.Context, tx pgx.Tx, eventID string, at time.Time) error
	MarkFailedInTx(ctx context.Context, tx pgx.Tx, eventID string, attempt int, nextAttemptAt time.Time, publishErr string) error
	FindByID(ctx context.Context, eventID string) (*domain.OutboxEvent, error)
}
