package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

type memoryRoleRepo struct {
	roles     map[int64]*Role
	rolePerms map[int64][]string
	userRoles map[int64]int64
	nextID    int64
}

func newMemoryRoleRepo() *memoryRoleRepo {
	repo := &memoryRoleRepo{
		roles:     make(map[int64]*Role),
		rolePerms: make(map[int64][]string),
		userRoles: make(map[int64]int64),
		nextID:    1,
	}
	admin, _ := repo.CreateRole(context.Background(), RoleAdmin, "Full access")
	user, _ := repo.CreateRole(context.Background(), RoleUser, "Regular member")
	perms := make([]string, 0, len(authz.Catalog()))
	for _, p := range authz.Catalog() {
		perms = append(perms, string(p))
	}
	repo.rolePerms[admin.ID] = perms
	repo.rolePerms[user.ID] = []string{"create_journey"}
	return repo
}

func (m *memoryRoleRepo) ListRoles(_ context.Context) ([]Role, error) {
	var out []Role
	for _, r := range m.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memoryRoleRepo) GetRole(_ context.Context, id int64) (*Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *memoryRoleRepo) GetRoleByName(_ context.Context, name string) (*Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			out := *r
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryRoleRepo) CreateRole(_ context.Context, name, description string) (*Role, error) {
	r := &Role{ID: m.nextID, Name: name, Description: description}
	m.nextID++
	m.roles[r.ID] = r
	out := *r
	return &out, nil
}

func (m *memoryRoleRepo) UpdateRole(_ context.Context, id int64, name, description string) (*Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Name = name
	r.Description = description
	out := *r
	return &out, nil
}

func (m *memoryRoleRepo) DeleteRole(_ context.Context, id int64) (int64, error) {
	if _, ok := m.roles[id]; !ok {
		return 0, nil
	}
	delete(m.roles, id)
	delete(m.rolePerms, id)
	return 1, nil
}

func (m *memoryRoleRepo) RolePermissions(_ context.Context, roleID int64) ([]string, error) {
	return m.rolePerms[roleID], nil
}

func (m *memoryRoleRepo) ReplaceRolePermissions(_ context.Context, roleID int64, names []string) error {
	m.rolePerms[roleID] = names
	return nil
}

func (m *memoryRoleRepo) UserPermissions(_ context.Context, userID int64) ([]string, error) {
	roleID, ok := m.userRoles[userID]
	if !ok {
		return nil, nil
	}
	return m.rolePerms[roleID], nil
}

func (m *memoryRoleRepo) AssignRole(_ context.Context, userID, roleID int64) error {
	m.userRoles[userID] = roleID
	return nil
}

type noJourneys struct{}

func (noJourneys) JourneyAccess(_ context.Context, _ int64) (*authz.JourneyAccess, error) {
	return nil, authz.ErrNotFound
}

type noGrants struct{}

func (noGrants) Grant(_ context.Context, _, _ int64) (*authz.Grant, error) { return nil, nil }

type neverComparer struct{}

func (neverComparer) Compare(_, _ string) bool { return false }

func newTestService() (*Service, *memoryRoleRepo) {
	repo := newMemoryRoleRepo()
	engine := authz.NewEngine(noJourneys{}, noGrants{}, neverComparer{})
	return NewService(repo, engine), repo
}

func roleManager() *authz.Principal {
	return &authz.Principal{ID: 1, Global: authz.NewPermissionSet(authz.PermManageRoles)}
}

func TestCreateRole(t *testing.T) {
	svc, _ := newTestService()

	role, err := svc.CreateRole(context.Background(), roleManager(), "  editor  ", "Can edit journeys")
	require.NoError(t, err)
	require.Equal(t, "editor", role.Name)
	require.False(t, role.Reserved())
}

func TestCreateRoleRequiresManageRoles(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateRole(context.Background(), &authz.Principal{ID: 2}, "editor", "")
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	require.Equal(t, authz.ReasonInsufficientPermission, denied.Reason)
}

func TestReservedRolesProtected(t *testing.T) {
	svc, repo := newTestService()
	actor := roleManager()
	ctx := context.Background()

	admin, err := repo.GetRoleByName(ctx, RoleAdmin)
	require.NoError(t, err)

	err = svc.DeleteRole(ctx, actor, admin.ID)
	require.ErrorIs(t, err, ErrReservedRole)

	_, err = svc.UpdateRole(ctx, actor, admin.ID, "superadmin", "")
	require.ErrorIs(t, err, ErrReservedRole)

	// Updating the description without touching the name is fine.
	updated, err := svc.UpdateRole(ctx, actor, admin.ID, RoleAdmin, "All permissions")
	require.NoError(t, err)
	require.Equal(t, "All permissions", updated.Description)
}

func TestDeleteCustomRole(t *testing.T) {
	svc, _ := newTestService()
	actor := roleManager()
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, actor, "editor", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRole(ctx, actor, role.ID))
	require.ErrorIs(t, svc.DeleteRole(ctx, actor, role.ID), ErrNotFound)
}

func TestSetRolePermissions(t *testing.T) {
	svc, _ := newTestService()
	actor := roleManager()
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, actor, "editor", "")
	require.NoError(t, err)

	err = svc.SetRolePermissions(ctx, actor, role.ID, []string{"edit_any_journey", "edit_any_post"})
	require.NoError(t, err)

	perms, err := svc.RolePermissions(ctx, role.ID)
	require.NoError(t, err)
	require.True(t, perms.Has(authz.PermEditAnyJourney))

	err = svc.SetRolePermissions(ctx, actor, role.ID, []string{"teleport"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAdminKeepsManageRoles(t *testing.T) {
	svc, repo := newTestService()
	actor := roleManager()
	ctx := context.Background()

	admin, err := repo.GetRoleByName(ctx, RoleAdmin)
	require.NoError(t, err)

	err = svc.SetRolePermissions(ctx, actor, admin.ID, []string{"manage_users"})
	require.ErrorIs(t, err, ErrValidation)

	err = svc.SetRolePermissions(ctx, actor, admin.ID, []string{"manage_users", "manage_roles"})
	require.NoError(t, err)
}

func TestAssignRoleAndEffectivePermissions(t *testing.T) {
	svc, repo := newTestService()
	actor := roleManager()
	ctx := context.Background()

	user, err := repo.GetRoleByName(ctx, RoleUser)
	require.NoError(t, err)

	require.NoError(t, svc.AssignRole(ctx, actor, 7, user.ID))
	require.ErrorIs(t, svc.AssignRole(ctx, actor, 7, 404), ErrNotFound)

	perms, err := svc.EffectivePermissions(ctx, 7)
	require.NoError(t, err)
	require.True(t, perms.Has(authz.PermCreateJourney))
	require.False(t, perms.Has(authz.PermManageRoles))
}

func TestEffectivePermissionsDropsUnknownNames(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	role, err := repo.CreateRole(ctx, "legacy", "")
	require.NoError(t, err)
	repo.rolePerms[role.ID] = []string{"create_journey", "retired_permission"}
	require.NoError(t, repo.AssignRole(ctx, 9, role.ID))

	perms, err := svc.EffectivePermissions(ctx, 9)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	require.True(t, perms.Has(authz.PermCreateJourney))
}
