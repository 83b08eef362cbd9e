package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/wayfarer-labs/wayfarer/internal/jobs"
)

// SessionStore removes expired session rows.
type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// SessionPruner handles sessions:prune tasks.
type SessionPruner struct {
	store   SessionStore
	metrics *jobmetrics.Metrics
	logger  *slog.Logger
}

// NewSessionPruner builds a SessionPruner instance.
func NewSessionPruner(store SessionStore, metrics *jobmetrics.Metrics, logger *slog.Logger) *SessionPruner {
	return &SessionPruner{store: store, metrics: metrics, logger: logger}
}

// Handle deletes sessions past their expiry.
func (p *SessionPruner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SessionPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := p.metrics.Track(TaskTypeSessionPrune)
	removed, err := p.store.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		p.logger.Error("session prune", slog.Any("error", err))
		return tracker.End(err)
	}
	p.metrics.AddPrunedSessions(removed)
	p.logger.Info("session prune", slog.Int64("removed", removed))
	return tracker.End(nil)
}
