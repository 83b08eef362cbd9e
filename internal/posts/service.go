package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

// ErrValidation indicates invalid post input.
var ErrValidation = errors.New("posts: validation failed")

// ThumbnailEnqueuer hands media keys to the background resize pipeline.
// The pipeline itself is an external collaborator.
type ThumbnailEnqueuer interface {
	EnqueueThumbnail(ctx context.Context, postID int64, mediaKey string) error
}

// Service handles post business logic. Each operation resolves the post,
// builds a fully resolved reference and asks the engine before acting.
type Service struct {
	logger     *slog.Logger
	repo       RepositoryPort
	engine     *authz.Engine
	thumbnails ThumbnailEnqueuer
}

// NewService builds a Service instance. thumbnails may be nil when no
// worker is wired (tests, CLI tooling).
func NewService(logger *slog.Logger, repo RepositoryPort, engine *authz.Engine, thumbnails ThumbnailEnqueuer) *Service {
	return &Service{logger: logger, repo: repo, engine: engine, thumbnails: thumbnails}
}

// Create inserts a draft post authored by the actor.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, journeyID int64, req CreatePostRequest) (*Post, error) {
	if err := s.decide(ctx, actor, authz.JourneyRef{ID: journeyID}, authz.PermCreatePost); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}
	return s.repo.Create(ctx, &Post{
		JourneyID: journeyID,
		AuthorID:  actor.ID,
		Title:     title,
		Body:      req.Body,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		IsDraft:   true,
	})
}

// Get fetches a post the actor may read.
func (s *Service) Get(ctx context.Context, actor *authz.Principal, id int64) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decide(ctx, actor, s.ref(post), authz.PermReadPosts); err != nil {
		return nil, err
	}
	return post, nil
}

// ListByJourney returns a journey's posts. Drafts are included for
// readers; the anonymous surface filters them separately.
func (s *Service) ListByJourney(ctx context.Context, actor *authz.Principal, journeyID int64) ([]Post, error) {
	if err := s.decide(ctx, actor, authz.JourneyRef{ID: journeyID}, authz.PermReadPosts); err != nil {
		return nil, err
	}
	return s.repo.ListByJourney(ctx, journeyID, true)
}

// Update applies partial changes to a post.
func (s *Service) Update(ctx context.Context, actor *authz.Principal, id int64, req UpdatePostRequest) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decide(ctx, actor, s.ref(post), authz.PermEditPost); err != nil {
		return nil, err
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: title required", ErrValidation)
		}
		req.Title = &trimmed
	}
	return s.repo.Update(ctx, id, req)
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, actor *authz.Principal, id int64) error {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.decide(ctx, actor, s.ref(post), authz.PermDeletePost); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Publish makes a draft post visible on its journey.
func (s *Service) Publish(ctx context.Context, actor *authz.Principal, id int64) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decide(ctx, actor, s.ref(post), authz.PermPublishPostOnJourney); err != nil {
		return nil, err
	}
	return s.repo.SetDraft(ctx, id, false)
}

// Unpublish moves a post back to draft.
func (s *Service) Unpublish(ctx context.Context, actor *authz.Principal, id int64) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decide(ctx, actor, s.ref(post), authz.PermPublishPostOnJourney); err != nil {
		return nil, err
	}
	return s.repo.SetDraft(ctx, id, true)
}

// AttachMedia records an uploaded media object on the post and enqueues
// thumbnail generation.
func (s *Service) AttachMedia(ctx context.Context, actor *authz.Principal, id int64, mediaKey string) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decide(ctx, actor, s.ref(post), authz.PermEditPost); err != nil {
		return nil, err
	}
	updated, err := s.repo.SetMediaKey(ctx, id, mediaKey)
	if err != nil {
		return nil, err
	}
	if s.thumbnails != nil {
		if err := s.thumbnails.EnqueueThumbnail(ctx, id, mediaKey); err != nil {
			// The post is saved; the thumbnail stays missing until the
			// media key is attached again.
			s.logger.Warn("thumbnail enqueue failed",
				slog.Int64("post_id", id),
				slog.String("media_key", mediaKey),
				slog.Any("error", err))
		}
	}
	return updated, nil
}

func (s *Service) ref(post *Post) authz.PostRef {
	return authz.PostRef{ID: post.ID, JourneyID: post.JourneyID, AuthorID: post.AuthorID}
}

func (s *Service) decide(ctx context.Context, actor *authz.Principal, res authz.Resource, perm authz.Permission) error {
	decision, err := s.engine.Decide(ctx, actor, res, perm, nil)
	if err != nil {
		return err
	}
	return decision.Err()
}
