package journeys

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

// ErrValidation indicates invalid journey input or an illegal visibility
// transition.
var ErrValidation = errors.New("journeys: validation failed")

// minPassphraseLength is the shortest accepted plaintext passphrase.
const minPassphraseLength = 6

// PassphraseHasher produces the salted hash stored for protected journeys.
type PassphraseHasher interface {
	Hash(plaintext string) (string, error)
}

// Service handles journey business logic, including the public access
// gate transitions. Every operation re-invokes the decision engine before
// acting; nothing here caches decisions.
type Service struct {
	repo   RepositoryPort
	engine *authz.Engine
	hasher PassphraseHasher
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, engine *authz.Engine, hasher PassphraseHasher) *Service {
	return &Service{repo: repo, engine: engine, hasher: hasher}
}

// Create inserts a new private journey owned by the actor.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, req CreateJourneyRequest) (*Journey, error) {
	if err := s.decide(ctx, actor, nil, authz.PermCreateJourney); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}
	return s.repo.Create(ctx, &Journey{
		OwnerID:     actor.ID,
		Title:       title,
		Description: req.Description,
	})
}

// Get fetches a journey the actor may read.
func (s *Service) Get(ctx context.Context, actor *authz.Principal, id int64) (*Journey, error) {
	if err := s.decide(ctx, actor, authz.JourneyRef{ID: id}, authz.PermReadPosts); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// List returns the actor's own journeys plus those shared with them.
func (s *Service) List(ctx context.Context, actor *authz.Principal) (owned, shared []Journey, err error) {
	owned, err = s.repo.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	shared, err = s.repo.ListSharedWith(ctx, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	return owned, shared, nil
}

// Update applies partial changes to a journey.
func (s *Service) Update(ctx context.Context, actor *authz.Principal, id int64, req UpdateJourneyRequest) (*Journey, error) {
	if err := s.decide(ctx, actor, authz.JourneyRef{ID: id}, authz.PermEditJourney); err != nil {
		return nil, err
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: title required", ErrValidation)
		}
		req.Title = &trimmed
	}
	return s.repo.Update(ctx, id, req.Title, req.Description)
}

// Delete removes a journey together with its posts and grants.
func (s *Service) Delete(ctx context.Context, actor *authz.Principal, id int64) error {
	if err := s.decide(ctx, actor, authz.JourneyRef{ID: id}, authz.PermDeleteJourney); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Publish transitions a private journey to public_open and mints a fresh
// opaque link id. Publishing an already-public journey is a no-op so the
// existing link keeps working.
func (s *Service) Publish(ctx context.Context, actor *authz.Principal, id int64) (*Journey, error) {
	if err := s.decide(ctx, actor, authz.JourneyRef{ID: id}, authz.PermEditJourney); err != nil {
		return nil, err
	}
	journey, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if journey.Visibility.Public() {
		return journey, nil
	}
	linkID := uuid.NewString()
	return s.repo.SetSharingState(ctx, id, authz.VisibilityPublicOpen, &linkID, nil)
}

// Unpublish returns a journey to private, clearing the public link and
// any passphrase hash together.
func (s *Service) Unpublish(ctx context.Context, actor *authz.Principal, id int64) (*Journey, error) {
	if err := s.decide(ctx, actor, authz.JourneyRef{ID: id}, authz.PermEditJourney); err != nil {
		return nil, err
	}
	return s.repo.SetSharingState(ctx, id, authz.VisibilityPrivate, nil, nil)
}

// SetPassphrase protects a public journey with a passphrase, moving it to
// public_protected. Private journeys cannot take a passphrase.
func (s *Service) SetPassphrase(ctx context.Context, actor *authz.Principal, id int64, plaintext string) (*Journey, error) {
	if err := s.decide(ctx, actor, authz.JourneyRef{ID: id}, authz.PermEditJourney); err != nil {
		return nil, err
	}
	if len(plaintext) < minPassphraseLength {
		return nil, fmt.Errorf("%w: passphrase must be at least %d characters", ErrValidation, minPassphraseLength)
	}
	journey, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !journey.Visibility.Public() {
		return nil, fmt.Errorf("%w: journey is not published", ErrValidation)
	}
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("journeys: hash passphrase: %w", err)
	}
	return s.repo.SetSharingState(ctx, id, authz.VisibilityPublicProtected, journey.PublicLinkID, &hash)
}

// ClearPassphrase drops the passphrase from a protected journey, moving
// it back to public_open.
func (s *Service) ClearPassphrase(ctx context.Context, actor *authz.Principal, id int64) (*Journey, error) {
	if err := s.decide(ctx, actor, authz.JourneyRef{ID: id}, authz.PermEditJourney); err != nil {
		return nil, err
	}
	journey, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !journey.Visibility.Public() {
		return nil, fmt.Errorf("%w: journey is not published", ErrValidation)
	}
	return s.repo.SetSharingState(ctx, id, authz.VisibilityPublicOpen, journey.PublicLinkID, nil)
}

func (s *Service) decide(ctx context.Context, actor *authz.Principal, res authz.Resource, perm authz.Permission) error {
	decision, err := s.engine.Decide(ctx, actor, res, perm, nil)
	if err != nil {
		return err
	}
	return decision.Err()
}

var titleFolder = cases.Fold()

// titleKey is the case-folded form of a title used for stable ordering.
func titleKey(title string) string {
	return titleFolder.String(strings.TrimSpace(title))
}
