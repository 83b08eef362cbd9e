package collab

import (
	"context"
	"errors"
	"fmt"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

var (
	// ErrOwnerCollaborator indicates an attempt to grant the owner a
	// collaborator role on their own journey.
	ErrOwnerCollaborator = errors.New("collab: owner cannot be a collaborator")
	// ErrValidation indicates invalid grant input.
	ErrValidation = errors.New("collab: validation failed")
)

// Service manages collaborator grants. Every mutation is gated by a
// manage_journey_access decision against the target journey, then
// validated, then applied; the store's uniqueness constraint remains the
// final arbiter under concurrency.
type Service struct {
	repo     RepositoryPort
	journeys authz.JourneyStore
	engine   *authz.Engine
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, journeys authz.JourneyStore, engine *authz.Engine) *Service {
	return &Service{repo: repo, journeys: journeys, engine: engine}
}

// List returns the grants of a journey, visible to anyone who may manage
// its access.
func (s *Service) List(ctx context.Context, actor *authz.Principal, journeyID int64) ([]Grant, error) {
	if err := s.decide(ctx, actor, journeyID); err != nil {
		return nil, err
	}
	return s.repo.ListByJourney(ctx, journeyID)
}

// Add creates a grant for a new collaborator.
func (s *Service) Add(ctx context.Context, actor *authz.Principal, journeyID int64, req AddCollaboratorRequest) (*Grant, error) {
	if err := s.decide(ctx, actor, journeyID); err != nil {
		return nil, err
	}
	perms, err := resolvePermissions(req.Permissions, req.Flags)
	if err != nil {
		return nil, err
	}
	journey, err := s.journeys.JourneyAccess(ctx, journeyID)
	if err != nil {
		if errors.Is(err, authz.ErrNotFound) {
			return nil, &authz.DeniedError{Reason: authz.ReasonResourceNotFound}
		}
		return nil, err
	}
	if req.UserID == journey.OwnerID {
		return nil, ErrOwnerCollaborator
	}
	// Advisory duplicate check; the unique constraint catches races.
	existing, err := s.repo.Get(ctx, journeyID, req.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateGrant
	}
	return s.repo.Insert(ctx, &Grant{
		JourneyID:   journeyID,
		UserID:      req.UserID,
		Permissions: perms,
	})
}

// UpdatePermissions fully replaces a collaborator's permission set.
func (s *Service) UpdatePermissions(ctx context.Context, actor *authz.Principal, journeyID, userID int64, req UpdateCollaboratorRequest) (*Grant, error) {
	if err := s.decide(ctx, actor, journeyID); err != nil {
		return nil, err
	}
	perms, err := resolvePermissions(req.Permissions, req.Flags)
	if err != nil {
		return nil, err
	}
	return s.repo.Replace(ctx, journeyID, userID, perms)
}

// Remove deletes a collaborator's grant. Removing a grant that never
// existed reports not-found.
func (s *Service) Remove(ctx context.Context, actor *authz.Principal, journeyID, userID int64) error {
	if err := s.decide(ctx, actor, journeyID); err != nil {
		return err
	}
	rows, err := s.repo.Delete(ctx, journeyID, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) decide(ctx context.Context, actor *authz.Principal, journeyID int64) error {
	decision, err := s.engine.Decide(ctx, actor, authz.JourneyRef{ID: journeyID}, authz.PermManageJourneyAccess, nil)
	if err != nil {
		return err
	}
	return decision.Err()
}

// resolvePermissions validates the requested permission set. Grants may
// only hold resource-scoped permissions; admin-wide names are rejected at
// this boundary.
func resolvePermissions(names []string, flags *LegacyFlags) (authz.PermissionSet, error) {
	var set authz.PermissionSet
	if len(names) > 0 {
		parsed, err := authz.ParsePermissionSet(names)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		set = parsed
	} else if flags != nil {
		set = flags.Permissions()
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: at least one permission required", ErrValidation)
	}
	for perm := range set {
		if perm.AdminScoped() {
			return nil, fmt.Errorf("%w: %s is not grantable per journey", ErrValidation, perm)
		}
	}
	return set, nil
}
