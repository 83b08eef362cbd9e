package posts

import "time"

// Post is a single journal entry inside a journey. Every post belongs to
// exactly one journey and keeps the id of its author, which may differ
// from the journey owner when collaborators write.
type Post struct {
	ID        int64     `json:"id"`
	JourneyID int64     `json:"journey_id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	MediaKey  *string   `json:"media_key,omitempty"`
	// ThumbnailKey is filled in asynchronously by the resize job.
	ThumbnailKey *string `json:"thumbnail_key,omitempty"`
	IsDraft      bool    `json:"is_draft"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatePostRequest carries input for creating a post. New posts start as
// drafts until published onto the journey.
type CreatePostRequest struct {
	Title     string   `json:"title" validate:"required,max=200"`
	Body      string   `json:"body" validate:"max=20000"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// UpdatePostRequest carries partial updates for a post.
type UpdatePostRequest struct {
	Title     *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Body      *string  `json:"body,omitempty" validate:"omitempty,max=20000"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// AttachMediaRequest references an already-uploaded media object. The
// upload and resize pipeline lives outside this service.
type AttachMediaRequest struct {
	MediaKey string `json:"media_key" validate:"required,max=500"`
}
