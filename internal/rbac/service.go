package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrReservedRole indicates an attempt to delete or rename a built-in role.
	ErrReservedRole = errors.New("rbac: reserved role cannot be modified")
	// ErrValidation indicates invalid role input.
	ErrValidation = errors.New("rbac: validation failed")
)

// Service orchestrates role and permission management. Every mutating
// operation is gated by a manage_roles decision before acting.
type Service struct {
	repo   RepositoryPort
	engine *authz.Engine
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, engine *authz.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by id.
func (s *Service) GetRole(ctx context.Context, id int64) (*Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, actor *authz.Principal, name, description string) (*Role, error) {
	if err := s.requireManageRoles(ctx, actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", ErrValidation)
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// UpdateRole updates an existing role. Reserved roles keep their name.
func (s *Service) UpdateRole(ctx context.Context, actor *authz.Principal, id int64, name, description string) (*Role, error) {
	if err := s.requireManageRoles(ctx, actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", ErrValidation)
	}
	existing, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Reserved() && name != existing.Name {
		return nil, ErrReservedRole
	}
	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
}

// DeleteRole removes a role. Reserved roles always survive.
func (s *Service) DeleteRole(ctx context.Context, actor *authz.Principal, id int64) error {
	if err := s.requireManageRoles(ctx, actor); err != nil {
		return err
	}
	existing, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if existing.Reserved() {
		return ErrReservedRole
	}
	rows, err := s.repo.DeleteRole(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// RolePermissions returns the validated permission set of a role.
func (s *Service) RolePermissions(ctx context.Context, roleID int64) (authz.PermissionSet, error) {
	names, err := s.repo.RolePermissions(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return authz.ParsePermissionSet(names)
}

// SetRolePermissions replaces the permission set of a role. Names are
// validated against the closed catalog at this boundary, and the admin
// role can never lose manage_roles.
func (s *Service) SetRolePermissions(ctx context.Context, actor *authz.Principal, roleID int64, names []string) error {
	if err := s.requireManageRoles(ctx, actor); err != nil {
		return err
	}
	set, err := authz.ParsePermissionSet(names)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.Name == RoleAdmin && !set.Has(authz.PermManageRoles) {
		return fmt.Errorf("%w: admin role requires manage_roles", ErrValidation)
	}
	return s.repo.ReplaceRolePermissions(ctx, roleID, set.Names())
}

// AssignRole moves a user onto a role.
func (s *Service) AssignRole(ctx context.Context, actor *authz.Principal, userID, roleID int64) error {
	if err := s.requireManageRoles(ctx, actor); err != nil {
		return err
	}
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	return s.repo.AssignRole(ctx, userID, roleID)
}

// EffectivePermissions returns the validated global permission set for a
// user. Unknown names stored before a catalog change are dropped rather
// than silently matching nothing.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) (authz.PermissionSet, error) {
	names, err := s.repo.UserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(authz.PermissionSet, len(names))
	for _, name := range names {
		perm, err := authz.ParsePermission(name)
		if err != nil {
			continue
		}
		set.Add(perm)
	}
	return set, nil
}

func (s *Service) requireManageRoles(ctx context.Context, actor *authz.Principal) error {
	decision, err := s.engine.Decide(ctx, actor, nil, authz.PermManageRoles, nil)
	if err != nil {
		return err
	}
	return decision.Err()
}
