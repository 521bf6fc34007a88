package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
	"github.com/ledgera/ledgera_backend/internal/core/domain"
	portsrepo "github.com/ledgera/ledgera_backend/internal/core/ports/repositories"
	portssvc "github.com/ledgera/ledgera_backend/internal/core/ports/services"
	"github.com/ledgera/ledgera_backend/internal/middleware"
	"github.com/ledgera/ledgera_backend/internal/platform/eventbus"
)

const (
	defaultSweepInterval  = 5 * time.Second
	defaultSweepBatchSize = 100
	publishBackoffBase    = 10 * time.Second
	publishBackoffMax     = 10 * time.Minute
)

// outboxPublisher delivers committed outbox rows to the bus. Immediate
// fire-and-forget publishes after commit keep latency low; the periodic sweep
// is the at-least-once safety net for anything they miss.
type outboxPublisher struct {
	outboxRepo    portsrepo.OutboxRepositoryFacade
	txManager     portsrepo.TransactionManager
	bus           eventbus.Bus
	sweepInterval time.Duration
	batchSize     int
}

// NewOutboxPublisher creates a new publisher. Zero interval/batchSize pick
// defaults.
func NewOutboxPublisher(outboxRepo portsrepo.OutboxRepositoryFacade, txManager portsrepo.TransactionManager, bus eventbus.Bus, sweepInterval time.Duration, batchSize int) portssvc.OutboxPublisherSvc {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	return &outboxPublisher{
		outboxRepo:    outboxRepo,
		txManager:     txManager,
		bus:           bus,
		sweepInterval: sweepInterval,
		batchSize:     batchSize,
	}
}

var _ portssvc.OutboxPublisherSvc = (*outboxPublisher)(nil)

// backoffFor grows the redelivery delay exponentially with the attempt count.
func backoffFor(attempt int) time.Duration {
	delay := publishBackoffBase
	for i := 1; i < attempt && delay < publishBackoffMax; i++ {
		delay *= 2
	}
	if delay > publishBackoffMax {
		delay = publishBackoffMax
	}
	return delay
}

// PublishEvent attempts immediate delivery of one committed event. Any failure
// is logged and left for the sweep; the caller's request never fails because
// of it.
func (p *outboxPublisher) PublishEvent(ctx context.Context, eventID string) {
	logger := middleware.GetLoggerFromCtx(ctx)

	event, err := p.outboxRepo.FindByID(ctx, eventID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Failed to load outbox event for immediate publish", slog.String("event_id", eventID), slog.String("error", err.Error()))
		}
		return
	}
	if event.PublishedAt != nil {
		return
	}

	err = p.txManager.RunInTx(ctx, func(tx pgx.Tx) error {
		_, err := p.deliverInTx(ctx, tx, *event)
		return err
	})
	if err != nil {
		logger.Warn("Immediate publish failed, leaving event for sweep",
			slog.String("event_id", eventID),
			slog.String("event_type", event.EventType),
			slog.String("error", err.Error()),
		)
	}
}

// deliverInTx publishes one event and records the outcome in the caller's
// transaction. A bus failure does not abort the transaction; the failure marker
// must commit so the backoff advances.
func (p *outboxPublisher) deliverInTx(ctx context.Context, tx pgx.Tx, event domain.OutboxEvent) (bool, error) {
	now := time.Now().UTC()
	if err := p.bus.Publish(ctx, event); err != nil {
		attempt := event.PublishAttempts + 1
		nextAttempt := now.Add(backoffFor(attempt))
		if markErr := p.outboxRepo.MarkFailedInTx(ctx, tx, event.EventID, attempt, nextAttempt, err.Error()); markErr != nil {
			return false, markErr
		}
		return false, nil
	}
	if err := p.outboxRepo.MarkPublishedInTx(ctx, tx, event.EventID, now); err != nil {
		return false, err
	}
	return true, nil
}

// Sweep claims due unpublished events with FOR UPDATE SKIP LOCKED and delivers
// them while the claim locks are held, so concurrent sweepers work disjoint
// batches. A delivery failure rolls the row's next attempt forward instead of
// failing the sweep.
func (p *outboxPublisher) Sweep(ctx context.Context) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	published := 0
	err := p.txManager.RunInTx(ctx, func(tx pgx.Tx) error {
		claimed, err := p.outboxRepo.ClaimDue(ctx, tx, time.Now().UTC(), p.batchSize)
		if err != nil {
			return err
		}
		for _, event := range claimed {
			ok, err := p.deliverInTx(ctx, tx, event)
			if err != nil {
				return err
			}
			if ok {
				published++
			}
		}
		if published > 0 {
			logger.Info("Outbox sweep published events", slog.Int("published", published), slog.Int("claimed", len(claimed)))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}

// Run loops Sweep until ctx is cancelled.
func (p *outboxPublisher) Run(ctx context.Context) {
	logger := middleware.GetLoggerFromCtx(ctx)
	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()

	logger.Info("Outbox publisher started", slog.Duration("interval", p.sweepInterval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Outbox publisher stopped")
			return
		case <-ticker.C:
			if _, err := p.Sweep(ctx); err != nil {
				logger.Error("Outbox sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
