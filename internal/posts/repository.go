package posts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the post does not exist.
var ErrNotFound = errors.New("posts: not found")

// RepositoryPort defines data access methods for posts.
type RepositoryPort interface {
	Create(ctx context.Context, post *Post) (*Post, error)
	GetByID(ctx context.Context, id int64) (*Post, error)
	ListByJourney(ctx context.Context, journeyID int64, includeDrafts bool) ([]Post, error)
	Update(ctx context.Context, id int64, req UpdatePostRequest) (*Post, error)
	SetDraft(ctx context.Context, id int64, draft bool) (*Post, error)
	SetMediaKey(ctx context.Context, id int64, mediaKey string) (*Post, error)
	SetThumbnailKey(ctx context.Context, id int64, thumbnailKey string) error
	Delete(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const postColumns = `id, journey_id, author_id, title, body, latitude, longitude, media_key, thumbnail_key, is_draft, created_at, updated_at`

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.JourneyID, &p.AuthorID, &p.Title, &p.Body, &p.Latitude, &p.Longitude,
		&p.MediaKey, &p.ThumbnailKey, &p.IsDraft, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a post.
func (r *Repository) Create(ctx context.Context, post *Post) (*Post, error) {
	return scanPost(r.pool.QueryRow(ctx,
		`INSERT INTO posts (journey_id, author_id, title, body, latitude, longitude, is_draft)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+postColumns,
		post.JourneyID, post.AuthorID, post.Title, post.Body, post.Latitude, post.Longitude, post.IsDraft))
}

// GetByID fetches a post by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Post, error) {
	return scanPost(r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
}

// ListByJourney returns the posts of a journey in creation order. Drafts
// are filtered out unless requested.
func (r *Repository) ListByJourney(ctx context.Context, journeyID int64, includeDrafts bool) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE journey_id = $1`
	if !includeDrafts {
		query += ` AND is_draft = false`
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.JourneyID, &p.AuthorID, &p.Title, &p.Body, &p.Latitude, &p.Longitude,
			&p.MediaKey, &p.ThumbnailKey, &p.IsDraft, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies partial field changes.
func (r *Repository) Update(ctx context.Context, id int64, req UpdatePostRequest) (*Post, error) {
	return scanPost(r.pool.QueryRow(ctx,
		`UPDATE posts
		 SET title = COALESCE($2, title),
		     body = COALESCE($3, body),
		     latitude = COALESCE($4, latitude),
		     longitude = COALESCE($5, longitude),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+postColumns,
		id, req.Title, req.Body, req.Latitude, req.Longitude))
}

// SetDraft flips the draft flag.
func (r *Repository) SetDraft(ctx context.Context, id int64, draft bool) (*Post, error) {
	return scanPost(r.pool.QueryRow(ctx,
		`UPDATE posts SET is_draft = $2, updated_at = now() WHERE id = $1 RETURNING `+postColumns, id, draft))
}

// SetMediaKey records the media object attached to the post.
func (r *Repository) SetMediaKey(ctx context.Context, id int64, mediaKey string) (*Post, error) {
	return scanPost(r.pool.QueryRow(ctx,
		`UPDATE posts SET media_key = $2, thumbnail_key = NULL, updated_at = now() WHERE id = $1 RETURNING `+postColumns, id, mediaKey))
}

// SetThumbnailKey records the generated rendition for the post's media.
func (r *Repository) SetThumbnailKey(ctx context.Context, id int64, thumbnailKey string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts SET thumbnail_key = $2, updated_at = now() WHERE id = $1`, id, thumbnailKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a post.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
