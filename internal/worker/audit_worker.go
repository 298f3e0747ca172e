package worker

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/users-service/internal/events"
	"github.com/spec-kit/users-service/internal/persistence"
)

const activityKey = "users:activity"

// AuditWorker records user lifecycle events as a capped activity trail in
// Redis. It is best-effort: a missing or unreachable Redis never fails the
// originating request.
type AuditWorker struct {
	redis  *persistence.Redis
	logger *zap.Logger
	keep   int64
}

// NewAuditWorker constructs the worker. keep bounds the trail length.
func NewAuditWorker(redis *persistence.Redis, logger *zap.Logger, keep int64) *AuditWorker {
	if keep <= 0 {
		keep = 1000
	}
	return &AuditWorker{redis: redis, logger: logger, keep: keep}
}

// Register subscribes the worker to all user lifecycle events.
func (w *AuditWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventUserCreated, w.record)
	dispatcher.Subscribe(events.EventUserUpdated, w.record)
	dispatcher.Subscribe(events.EventUserDeleted, w.record)
}

func (w *AuditWorker) record(ctx context.Context, event events.Event) error {
	if w.redis == nil || w.redis.Client == nil {
		return nil
	}

	entry, err := json.Marshal(event)
	if err != nil {
		w.logger.Warn("audit entry marshal failed", zap.Error(err))
		return err
	}

	pipe := w.redis.Client.Pipeline()
	pipe.LPush(ctx, activityKey, entry)
	pipe.LTrim(ctx, activityKey, 0, w.keep-1)
	if _, err := pipe.Exec(ctx); err != nil {
		w.logger.Warn("audit entry write failed", zap.Error(err))
		return err
	}
	return nil
}

// Recent returns up to n most recent activity entries, newest first.
func (w *AuditWorker) Recent(ctx context.Context, n int64) ([]string, error) {
	if w.redis == nil || w.redis.Client == nil {
		return nil, nil
	}
	return w.redis.Client.LRange(ctx, activityKey, 0, n-1).Result()
}
