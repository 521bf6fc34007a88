package locking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ledgera/ledgera_backend/internal/apperrors"
)

// releaseScript deletes the lock key only if it still holds our token, so a
// lock that expired and was re-acquired by another worker is never released
// by the original holder.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker implements Locker on top of redis SET NX PX. If redis is
// unreachable the locker degrades silently and runs fn without the lock.
type RedisLocker struct {
	client        *redis.Client
	keyPrefix     string
	acquireRetry  time.Duration
	acquireBudget time.Duration
	logger        *slog.Logger
}

// NewRedisLocker creates a redis-backed locker. acquireBudget bounds how long
// WithLock waits for a contended lock before failing with ErrResourceBusy.
func NewRedisLocker(client *redis.Client, acquireBudget time.Duration, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client:        client,
		keyPrefix:     "lock:",
		acquireRetry:  50 * time.Millisecond,
		acquireBudget: acquireBudget,
		logger:        logger,
	}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	return l.WithLocks(ctx, []string{key}, ttl, fn)
}

func (l *RedisLocker) WithLocks(ctx context.Context, keys []string, ttl time.Duration, fn func(ctx context.Context) error) error {
	ordered := sortedCopy(keys)
	token := uuid.NewString()

	acquired := make([]string, 0, len(ordered))
	defer func() {
		// Release in reverse acquisition order.
		for i := len(acquired) - 1; i >= 0; i-- {
			l.release(acquired[i], token)
		}
	}()

	for _, key := range ordered {
		ok, degraded := l.acquire(ctx, key, token, ttl)
		if degraded {
			// Backend unavailable: proceed without the lock, the row-level
			// FOR UPDATE inside the transaction still serializes writers.
			l.logger.Warn("lock backend unavailable, proceeding unlocked", slog.String("key", key))
			continue
		}
		if !ok {
			return apperrors.NewAppError(409, "could not acquire lock "+key, apperrors.ErrResourceBusy)
		}
		acquired = append(acquired, key)
	}

	return fn(ctx)
}

// acquire polls SET NX until success, budget exhaustion, or ctx cancellation.
// degraded=true means the backend errored and the caller should proceed unlocked.
func (l *RedisLocker) acquire(ctx context.Context, key, token string, ttl time.Duration) (ok bool, degraded bool) {
	deadline := time.Now().Add(l.acquireBudget)
	for {
		set, err := l.client.SetNX(ctx, l.keyPrefix+key, token, ttl).Result()
		if err != nil {
			return false, true
		}
		if set {
			return true, false
		}
		if time.Now().After(deadline) {
			return false, false
		}
		select {
		case <-ctx.Done():
			return false, false
		case <-time.After(l.acquireRetry):
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.client.Eval(ctx, releaseScript, []string{l.keyPrefix + key}, token).Err(); err != nil && err != redis.Nil {
		l.logger.Warn("failed to release lock", slog.String("key", key), slog.String("error", err.Error()))
	}
}

var _ Locker = (*RedisLocker)(nil)
