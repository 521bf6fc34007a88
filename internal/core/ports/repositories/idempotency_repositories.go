package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// IdempotencyRepositoryFacade stores the authoritative (tenant, key) execution
// markers. Rows are permanent audit markers and are never deleted.
type IdempotencyRepositoryFacade interface {
	// InsertRecordInTx inserts the marker; returns apperrors.ErrDuplicate when
	// the (tenant, key) pair already exists.
	InsertRecordInTx(ctx context.Context, tx pgx.Tx, record domain.IdempotencyRecord) error

	// StoreResultInTx attaches the serialized command result to the marker.
	StoreResultInTx(ctx context.Context, tx pgx.Tx, tenantID, key string, result []byte) error

	FindRecord(ctx context.Context, tenantID, key string) (*domain.IdempotencyRecord, error)
}
