package collab

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

type memoryGrantRepo struct {
	grants map[[2]int64]*Grant
}

func newMemoryGrantRepo() *memoryGrantRepo {
	return &memoryGrantRepo{grants: make(map[[2]int64]*Grant)}
}

func (m *memoryGrantRepo) Get(_ context.Context, journeyID, userID int64) (*Grant, error) {
	g, ok := m.grants[[2]int64{journeyID, userID}]
	if !ok {
		return nil, ErrNotFound
	}
	out := *g
	return &out, nil
}

func (m *memoryGrantRepo) ListByJourney(_ context.Context, journeyID int64) ([]Grant, error) {
	var out []Grant
	for _, g := range m.grants {
		if g.JourneyID == journeyID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *memoryGrantRepo) Insert(_ context.Context, grant *Grant) (*Grant, error) {
	key := [2]int64{grant.JourneyID, grant.UserID}
	if _, ok := m.grants[key]; ok {
		return nil, ErrDuplicateGrant
	}
	g := *grant
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	m.grants[key] = &g
	out := g
	return &out, nil
}

func (m *memoryGrantRepo) Replace(_ context.Context, journeyID, userID int64, permissions authz.PermissionSet) (*Grant, error) {
	g, ok := m.grants[[2]int64{journeyID, userID}]
	if !ok {
		return nil, ErrNotFound
	}
	g.Permissions = permissions
	g.UpdatedAt = time.Now()
	out := *g
	return &out, nil
}

func (m *memoryGrantRepo) Delete(_ context.Context, journeyID, userID int64) (int64, error) {
	key := [2]int64{journeyID, userID}
	if _, ok := m.grants[key]; !ok {
		return 0, nil
	}
	delete(m.grants, key)
	return 1, nil
}

func (m *memoryGrantRepo) Grant(_ context.Context, journeyID, userID int64) (*authz.Grant, error) {
	g, ok := m.grants[[2]int64{journeyID, userID}]
	if !ok {
		return nil, nil
	}
	return &authz.Grant{JourneyID: g.JourneyID, UserID: g.UserID, Permissions: g.Permissions}, nil
}

type memoryJourneys map[int64]*authz.JourneyAccess

func (m memoryJourneys) JourneyAccess(_ context.Context, journeyID int64) (*authz.JourneyAccess, error) {
	j, ok := m[journeyID]
	if !ok {
		return nil, authz.ErrNotFound
	}
	return j, nil
}

type neverComparer struct{}

func (neverComparer) Compare(_, _ string) bool { return false }

func newTestService() (*Service, *memoryGrantRepo) {
	repo := newMemoryGrantRepo()
	journeys := memoryJourneys{
		5: {ID: 5, OwnerID: 1, Visibility: authz.VisibilityPrivate},
	}
	engine := authz.NewEngine(journeys, repo, neverComparer{})
	return NewService(repo, journeys, engine), repo
}

func TestAddCollaborator(t *testing.T) {
	svc, repo := newTestService()
	owner := &authz.Principal{ID: 1}

	grant, err := svc.Add(context.Background(), owner, 5, AddCollaboratorRequest{
		UserID:      3,
		Permissions: []string{"read_posts", "create_post"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), grant.UserID)
	require.True(t, grant.Permissions.Has(authz.PermCreatePost))
	require.Contains(t, repo.grants, [2]int64{5, 3})
}

func TestAddCollaboratorRejectsOwner(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Add(context.Background(), &authz.Principal{ID: 1}, 5, AddCollaboratorRequest{
		UserID:      1,
		Permissions: []string{"read_posts"},
	})
	require.ErrorIs(t, err, ErrOwnerCollaborator)
}

func TestAddCollaboratorDuplicate(t *testing.T) {
	svc, _ := newTestService()
	owner := &authz.Principal{ID: 1}
	ctx := context.Background()

	req := AddCollaboratorRequest{UserID: 3, Permissions: []string{"read_posts"}}
	_, err := svc.Add(ctx, owner, 5, req)
	require.NoError(t, err)

	_, err = svc.Add(ctx, owner, 5, req)
	require.ErrorIs(t, err, ErrDuplicateGrant)
}

func TestAddCollaboratorRejectsAdminScoped(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Add(context.Background(), &authz.Principal{ID: 1}, 5, AddCollaboratorRequest{
		UserID:      3,
		Permissions: []string{"read_posts", "manage_users"},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAddCollaboratorRequiresPermissions(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Add(context.Background(), &authz.Principal{ID: 1}, 5, AddCollaboratorRequest{UserID: 3})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAddCollaboratorLegacyFlags(t *testing.T) {
	svc, _ := newTestService()

	grant, err := svc.Add(context.Background(), &authz.Principal{ID: 1}, 5, AddCollaboratorRequest{
		UserID: 3,
		Flags:  &LegacyFlags{CanReadPosts: true, CanPublishPosts: true},
	})
	require.NoError(t, err)
	require.True(t, grant.Permissions.Has(authz.PermReadPosts))
	require.True(t, grant.Permissions.Has(authz.PermCreatePost))
	require.True(t, grant.Permissions.Has(authz.PermPublishPostOnJourney))
	require.False(t, grant.Permissions.Has(authz.PermEditPost))
}

func TestAddCollaboratorMissingJourney(t *testing.T) {
	svc, _ := newTestService()

	// The manage_journey_access decision already fails when the journey
	// does not exist.
	_, err := svc.Add(context.Background(), &authz.Principal{ID: 1}, 404, AddCollaboratorRequest{
		UserID:      3,
		Permissions: []string{"read_posts"},
	})
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	require.Equal(t, authz.ReasonResourceNotFound, denied.Reason)
}

func TestUpdatePermissionsReplacesSet(t *testing.T) {
	svc, _ := newTestService()
	owner := &authz.Principal{ID: 1}
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, 5, AddCollaboratorRequest{
		UserID:      3,
		Permissions: []string{"read_posts", "create_post"},
	})
	require.NoError(t, err)

	updated, err := svc.UpdatePermissions(ctx, owner, 5, 3, UpdateCollaboratorRequest{
		Permissions: []string{"read_posts"},
	})
	require.NoError(t, err)
	require.True(t, updated.Permissions.Has(authz.PermReadPosts))
	require.False(t, updated.Permissions.Has(authz.PermCreatePost))
}

func TestRemoveCollaborator(t *testing.T) {
	svc, repo := newTestService()
	owner := &authz.Principal{ID: 1}
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, 5, AddCollaboratorRequest{
		UserID:      3,
		Permissions: []string{"read_posts"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, owner, 5, 3))
	require.NotContains(t, repo.grants, [2]int64{5, 3})

	require.ErrorIs(t, svc.Remove(ctx, owner, 5, 3), ErrNotFound)
}

func TestGrantMutationsGated(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// A collaborator without manage_journey_access cannot touch grants,
	// even their own.
	collaborator := &authz.Principal{ID: 3}
	_, err := svc.Add(ctx, &authz.Principal{ID: 1}, 5, AddCollaboratorRequest{
		UserID:      3,
		Permissions: []string{"read_posts"},
	})
	require.NoError(t, err)

	var denied *authz.DeniedError
	_, err = svc.List(ctx, collaborator, 5)
	require.ErrorAs(t, err, &denied)
	require.Equal(t, authz.ReasonInsufficientPermission, denied.Reason)

	err = svc.Remove(ctx, collaborator, 5, 3)
	require.ErrorAs(t, err, &denied)

	// Anonymous callers are turned away before any store access.
	_, err = svc.List(ctx, nil, 5)
	require.ErrorAs(t, err, &denied)
	require.Equal(t, authz.ReasonAuthenticationRequired, denied.Reason)
}
