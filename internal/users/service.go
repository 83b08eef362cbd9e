package users

import (
	"context"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

// PasswordHasher hashes plaintext passwords for storage.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// Service handles account management. Every operation is gated by a
// manage_users decision; the engine resolves super-admin and role
// permissions uniformly, so no extra role checks live here.
type Service struct {
	repo   RepositoryPort
	hasher PasswordHasher
	engine *authz.Engine
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, hasher PasswordHasher, engine *authz.Engine) *Service {
	return &Service{repo: repo, hasher: hasher, engine: engine}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context, actor *authz.Principal) ([]User, error) {
	if err := s.decide(ctx, actor); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, actor *authz.Principal, id int64) (*User, error) {
	if err := s.decide(ctx, actor); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Create provisions a new active account.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, req CreateUserRequest) (*User, error) {
	if err := s.decide(ctx, actor); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, req.Email, hash, req.RoleID)
}

// Update applies a partial account update.
func (s *Service) Update(ctx context.Context, actor *authz.Principal, id int64, req UpdateUserRequest) (*User, error) {
	if err := s.decide(ctx, actor); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, req.Email, req.RoleID, req.IsActive)
}

// Deactivate disables an account. Existing sessions stop resolving a
// principal on the next request.
func (s *Service) Deactivate(ctx context.Context, actor *authz.Principal, id int64) (*User, error) {
	if err := s.decide(ctx, actor); err != nil {
		return nil, err
	}
	inactive := false
	return s.repo.Update(ctx, id, nil, nil, &inactive)
}

func (s *Service) decide(ctx context.Context, actor *authz.Principal) error {
	decision, err := s.engine.Decide(ctx, actor, nil, authz.PermManageUsers, nil)
	if err != nil {
		return err
	}
	return decision.Err()
}
