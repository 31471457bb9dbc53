package roles

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atrium-hq/atrium/internal/authz"
)

// Enqueuer submits a role backfill for asynchronous processing.
type Enqueuer interface {
	EnqueueRoleBackfill(ctx context.Context, userID string, role authz.Role) error
}

// Backfiller queues a one-time default-role backfill for users that have
// no recorded role. It is an auxiliary convenience, not a security
// boundary: every failure is logged and swallowed, and the request that
// triggered it is never blocked.
type Backfiller struct {
	enqueuer Enqueuer
	guard    *redis.Client
	guardTTL time.Duration
	logger   *slog.Logger
}

// NewBackfiller constructs a Backfiller. The redis client deduplicates
// enqueues per user within the TTL.
func NewBackfiller(enqueuer Enqueuer, guard *redis.Client, guardTTL time.Duration, logger *slog.Logger) *Backfiller {
	if guardTTL <= 0 {
		guardTTL = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Backfiller{enqueuer: enqueuer, guard: guard, guardTTL: guardTTL, logger: logger}
}

// Request queues a backfill of the default role for the user unless one
// was already queued recently.
func (b *Backfiller) Request(ctx context.Context, userID string) {
	if b == nil || b.enqueuer == nil || userID == "" {
		return
	}
	if b.guard != nil {
		ok, err := b.guard.SetNX(ctx, "role_backfill:"+userID, 1, b.guardTTL).Result()
		if err != nil {
			b.logger.Warn("backfill guard", slog.Any("error", err))
			return
		}
		if !ok {
			return
		}
	}
	if err := b.enqueuer.EnqueueRoleBackfill(ctx, userID, authz.RoleUser); err != nil {
		b.logger.Warn("enqueue role backfill", slog.String("user_id", userID), slog.Any("error", err))
	}
}
