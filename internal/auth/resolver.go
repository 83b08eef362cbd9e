package auth

import (
	"context"
	"fmt"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

// RolePermissionSource resolves the effective global permission set for a
// user through their assigned role.
type RolePermissionSource interface {
	EffectivePermissions(ctx context.Context, userID int64) (authz.PermissionSet, error)
}

// Resolver turns a session user id into a fully resolved principal. The
// principal is built once per request; nothing downstream re-reads the
// role tables.
type Resolver struct {
	repo  Repository
	roles RolePermissionSource
}

// NewResolver constructs a Resolver.
func NewResolver(repo Repository, roles RolePermissionSource) *Resolver {
	return &Resolver{repo: repo, roles: roles}
}

// Resolve loads the user and its global permission set. Inactive users
// resolve to an error so a disabled account cannot keep acting on a live
// session.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (*authz.Principal, error) {
	user, err := r.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth: resolve user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("auth: user %d is inactive", userID)
	}
	perms, err := r.roles.EffectivePermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth: resolve permissions: %w", err)
	}
	return &authz.Principal{
		ID:           user.ID,
		RoleID:       user.RoleID,
		IsSuperAdmin: perms.Has(authz.PermManageRoles),
		Global:       perms,
	}, nil
}
