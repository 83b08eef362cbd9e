package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/wayfarer-labs/wayfarer/internal/jobs"
)

// Resizer produces a thumbnail rendition for a stored media object and
// returns the key of the rendition.
type Resizer interface {
	Resize(ctx context.Context, mediaKey string) (string, error)
}

// ThumbnailStore records the generated thumbnail key against the post.
type ThumbnailStore interface {
	SetThumbnailKey(ctx context.Context, postID int64, thumbnailKey string) error
}

// ThumbnailProcessor handles media:thumbnail tasks.
type ThumbnailProcessor struct {
	resizer Resizer
	store   ThumbnailStore
	metrics *jobmetrics.Metrics
	logger  *slog.Logger
}

// NewThumbnailProcessor builds a ThumbnailProcessor instance.
func NewThumbnailProcessor(resizer Resizer, store ThumbnailStore, metrics *jobmetrics.Metrics, logger *slog.Logger) *ThumbnailProcessor {
	return &ThumbnailProcessor{resizer: resizer, store: store, metrics: metrics, logger: logger}
}

// Handle resizes the media object and stores the rendition key. A payload
// that does not decode is dropped rather than retried.
func (p *ThumbnailProcessor) Handle(ctx context.Context, t *asynq.Task) error {
	var payload MediaThumbnailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := p.metrics.Track(TaskTypeMediaThumbnail)
	thumbKey, err := p.resizer.Resize(ctx, payload.MediaKey)
	if err != nil {
		p.logger.Error("thumbnail resize",
			slog.Int64("post_id", payload.PostID),
			slog.String("media_key", payload.MediaKey),
			slog.Any("error", err))
		return tracker.End(err)
	}
	if err := p.store.SetThumbnailKey(ctx, payload.PostID, thumbKey); err != nil {
		return tracker.End(err)
	}
	p.logger.Info("thumbnail generated",
		slog.Int64("post_id", payload.PostID),
		slog.String("thumbnail_key", thumbKey))
	return tracker.End(nil)
}
