package services

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// IdempotentWork is the side-effecting body of a command. It runs inside the
// single database transaction and returns the serialized response to store for
// replays.
type IdempotentWork func(ctx context.Context, tx pgx.Tx) ([]byte, error)

// IdempotencySvcFacade guarantees a (tenant, key) command executes at most once.
type IdempotencySvcFacade interface {
	// RunOnce executes work exactly once for (tenant, key). On replay it
	// returns the originally stored result and replayed=true without executing
	// work again.
	RunOnce(ctx context.Context, tenantID, key, commandName string, work IdempotentWork) (result []byte, replayed bool, err error)

	// RunOnceForEvent is RunOnce keyed by an inbound event id. Malformed input
	// is logged and acknowledged rather than returned as an error, so the
	// delivery layer never retries a poison message.
	RunOnceForEvent(ctx context.Context, tenantID, eventID, handlerName string, work IdempotentWork) error
}
