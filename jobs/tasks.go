// Package jobs defines background task types and the Asynq worker
// harness.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/atrium-hq/atrium/internal/authz"
	"github.com/atrium-hq/atrium/internal/roles"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeRoleBackfill is the task type for backfilling a default
	// role onto a user that has none recorded.
	TaskTypeRoleBackfill = "roles:backfill"
)

// RoleBackfillPayload describes a pending role backfill.
type RoleBackfillPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// NewRoleBackfillTask constructs an Asynq task.
func NewRoleBackfillTask(payload RoleBackfillPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRoleBackfill, data), nil
}

// NewRoleBackfillHandler builds the handler processing TaskTypeRoleBackfill
// tasks. The store insert never overwrites an explicit assignment, so a
// backfill racing an admin role change loses cleanly.
func NewRoleBackfillHandler(store roles.Store, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RoleBackfillPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.UserID == "" {
			return asynq.SkipRetry
		}
		role := authz.ParseRole(payload.Role)
		if err := store.SetRole(ctx, payload.UserID, role); err != nil {
			logger.Warn("role backfill", slog.String("user_id", payload.UserID), slog.Any("error", err))
			return err
		}
		return nil
	}
}
