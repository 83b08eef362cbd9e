package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeMediaThumbnail resizes an uploaded media object.
	TaskTypeMediaThumbnail = "media:thumbnail"
	// TaskTypeSessionPrune removes expired session rows.
	TaskTypeSessionPrune = "sessions:prune"
)

// MediaThumbnailPayload identifies the post and media object to resize.
type MediaThumbnailPayload struct {
	PostID   int64  `json:"post_id"`
	MediaKey string `json:"media_key"`
}

// NewMediaThumbnailTask constructs an Asynq task for thumbnail generation.
func NewMediaThumbnailTask(payload MediaThumbnailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeMediaThumbnail, data, asynq.Queue(QueueDefault)), nil
}

// SessionPrunePayload carries scheduling metadata for the cleanup run.
type SessionPrunePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSessionPruneTask constructs an Asynq task for expired-session cleanup.
func NewSessionPruneTask(at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(SessionPrunePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSessionPrune, data, asynq.Queue(QueueDefault)), nil
}
