package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/middleware"
)

const (
	idempotencyCacheTTL    = 24 * time.Hour
	idempotencyInflightTTL = 30 * time.Second
)

// idempotencyService guarantees at-most-once execution per (tenant, key).
// The database marker row inserted in the command's own transaction is the
// authority; redis carries two advisory layers on top, a result cache for
// fast replays and a SET NX in-flight entry marking commands mid-execution.
// Both are skipped entirely when redis is unavailable.
type idempotencyService struct {
	txManager       portsrepo.TransactionManager
	idempotencyRepo portsrepo.IdempotencyRepositoryFacade
	redisClient     *redis.Client // Optional; nil disables the cache
}

// NewIdempotencyService creates a new IdempotencyService. redisClient may be
// nil.
func NewIdempotencyService(txManager portsrepo.TransactionManager, idempotencyRepo portsrepo.IdempotencyRepositoryFacade, redisClient *redis.Client) portssvc.IdempotencySvcFacade {
	return &idempotencyService{
		txManager:       txManager,
		idempotencyRepo: idempotencyRepo,
		redisClient:     redisClient,
	}
}

var _ portssvc.IdempotencySvcFacade = (*idempotencyService)(nil)

func idempotencyCacheKey(tenantID, key string) string {
	return "idem:" + tenantID + ":" + key
}

func idempotencyInflightKey(tenantID, key string) string {
	return "idem-inflight:" + tenantID + ":" + key
}

// markInflight claims the advisory in-flight entry with SET NX and a TTL.
// A redis failure degrades silently; the database marker stays authoritative.
func (s *idempotencyService) markInflight(ctx context.Context, tenantID, key string) bool {
	if s.redisClient == nil {
		return false
	}
	ok, err := s.redisClient.SetNX(ctx, idempotencyInflightKey(tenantID, key), 1, idempotencyInflightTTL).Result()
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Idempotency in-flight guard unavailable", slog.String("error", err.Error()))
		return false
	}
	if !ok {
		// A duplicate is executing right now. Fall through to the database
		// marker, which blocks on the unique index until the first command
		// resolves and then replays its result.
		middleware.GetLoggerFromCtx(ctx).Debug("Duplicate command in flight, deferring to database marker",
			slog.String("tenant_id", tenantID),
			slog.String("key", key),
		)
		return false
	}
	return true
}

// clearInflight releases the advisory entry. Called when work fails so a retry
// does not wait out the TTL, and after success once the result is durable.
func (s *idempotencyService) clearInflight(ctx context.Context, tenantID, key string) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, idempotencyInflightKey(tenantID, key)).Err(); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to release in-flight entry", slog.String("error", err.Error()))
	}
}

// RunOnce executes work exactly once for (tenant, key).
//
// The marker row is inserted before work runs, inside the same transaction as
// work's side effects. A concurrent duplicate blocks on the unique index until
// the first transaction resolves: if the first commits, the duplicate insert
// fails, the second transaction rolls back untouched, and the stored result is
// replayed. If the first aborts, the marker vanishes with it and the retry
// executes normally.
func (s *idempotencyService) RunOnce(ctx context.Context, tenantID, key, commandName string, work portssvc.IdempotentWork) ([]byte, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if key == "" {
		return nil, false, fmt.Errorf("%w: idempotency key is required", apperrors.ErrValidation)
	}

	// Advisory fast path. A cache miss proves nothing.
	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, idempotencyCacheKey(tenantID, key)).Bytes()
		if err == nil {
			logger.Debug("Idempotency cache hit", slog.String("key", key))
			return cached, true, nil
		}
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Idempotency cache unavailable, falling back to database", slog.String("error", err.Error()))
		}
	}

	inflight := s.markInflight(ctx, tenantID, key)

	var result []byte
	err := s.txManager.RunInTx(ctx, func(tx pgx.Tx) error {
		record := domain.IdempotencyRecord{
			TenantID:    tenantID,
			Key:         key,
			CommandName: commandName,
			ProcessedAt: time.Now().UTC(),
		}
		if err := s.idempotencyRepo.InsertRecordInTx(ctx, tx, record); err != nil {
			return err
		}

		workResult, err := work(ctx, tx)
		if err != nil {
			return err
		}
		result = workResult

		if len(result) > 0 {
			return s.idempotencyRepo.StoreResultInTx(ctx, tx, tenantID, key, result)
		}
		return nil
	})

	if inflight {
		s.clearInflight(ctx, tenantID, key)
	}

	if errors.Is(err, apperrors.ErrDuplicate) {
		return s.replay(ctx, tenantID, key)
	}
	if err != nil {
		return nil, false, err
	}

	s.cacheResult(ctx, tenantID, key, result)
	return result, false, nil
}

// replay returns the result stored by the original execution.
func (s *idempotencyService) replay(ctx context.Context, tenantID, key string) ([]byte, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	record, err := s.idempotencyRepo.FindRecord(ctx, tenantID, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Marker existed a moment ago; the original transaction must have
			// aborted between our insert attempt and this read.
			return nil, false, fmt.Errorf("%w: concurrent command aborted, retry", apperrors.ErrConflict)
		}
		return nil, false, fmt.Errorf("failed to load idempotency record %s: %w", key, err)
	}

	logger.Info("Replaying idempotent command result",
		slog.String("tenant_id", tenantID),
		slog.String("key", key),
		slog.String("command", record.CommandName),
	)
	s.cacheResult(ctx, tenantID, key, record.Result)
	return record.Result, true, nil
}

// cacheResult best-effort stores the result in redis.
func (s *idempotencyService) cacheResult(ctx context.Context, tenantID, key string, result []byte) {
	if s.redisClient == nil || len(result) == 0 {
		return
	}
	if err := s.redisClient.Set(ctx, idempotencyCacheKey(tenantID, key), result, idempotencyCacheTTL).Err(); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to cache idempotency result", slog.String("error", err.Error()))
	}
}

// RunOnceForEvent is RunOnce keyed by an inbound event id. Validation failures
// are acknowledged rather than surfaced so the delivery layer never retries a
// poison message; genuine infrastructure errors still propagate for retry.
func (s *idempotencyService) RunOnceForEvent(ctx context.Context, tenantID, eventID, handlerName string, work portssvc.IdempotentWork) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	_, replayed, err := s.RunOnce(ctx, tenantID, "event:"+eventID, handlerName, work)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Error("Dropping malformed event",
				slog.String("event_id", eventID),
				slog.String("handler", handlerName),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return err
	}
	if replayed {
		logger.Debug("Duplicate event delivery ignored", slog.String("event_id", eventID), slog.String("handler", handlerName))
	}
	return nil
}
