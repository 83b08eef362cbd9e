package journeys

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

type memoryJourneyRepo struct {
	journeys map[int64]*Journey
	nextID   int64
}

func newMemoryJourneyRepo() *memoryJourneyRepo {
	return &memoryJourneyRepo{journeys: make(map[int64]*Journey), nextID: 1}
}

func (m *memoryJourneyRepo) Create(_ context.Context, journey *Journey) (*Journey, error) {
	j := *journey
	j.ID = m.nextID
	m.nextID++
	j.Visibility = authz.VisibilityPrivate
	j.CreatedAt = time.Now()
	j.UpdatedAt = j.CreatedAt
	m.journeys[j.ID] = &j
	out := j
	return &out, nil
}

func (m *memoryJourneyRepo) GetByID(_ context.Context, id int64) (*Journey, error) {
	j, ok := m.journeys[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *j
	return &out, nil
}

func (m *memoryJourneyRepo) GetByPublicLink(_ context.Context, linkID string) (*Journey, error) {
	for _, j := range m.journeys {
		if j.PublicLinkID != nil && *j.PublicLinkID == linkID {
			out := *j
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryJourneyRepo) ListByOwner(_ context.Context, ownerID int64) ([]Journey, error) {
	var out []Journey
	for _, j := range m.journeys {
		if j.OwnerID == ownerID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (m *memoryJourneyRepo) ListSharedWith(_ context.Context, _ int64) ([]Journey, error) {
	return nil, nil
}

func (m *memoryJourneyRepo) Update(_ context.Context, id int64, title, description *string) (*Journey, error) {
	j, ok := m.journeys[id]
	if !ok {
		return nil, ErrNotFound
	}
	if title != nil {
		j.Title = *title
	}
	if description != nil {
		j.Description = description
	}
	j.UpdatedAt = time.Now()
	out := *j
	return &out, nil
}

func (m *memoryJourneyRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.journeys[id]; !ok {
		return ErrNotFound
	}
	delete(m.journeys, id)
	return nil
}

func (m *memoryJourneyRepo) SetSharingState(_ context.Context, id int64, visibility authz.Visibility, publicLinkID, passphraseHash *string) (*Journey, error) {
	j, ok := m.journeys[id]
	if !ok {
		return nil, ErrNotFound
	}
	j.Visibility = visibility
	j.PublicLinkID = publicLinkID
	j.PassphraseHash = passphraseHash
	j.UpdatedAt = time.Now()
	out := *j
	return &out, nil
}

func (m *memoryJourneyRepo) JourneyAccess(_ context.Context, journeyID int64) (*authz.JourneyAccess, error) {
	j, ok := m.journeys[journeyID]
	if !ok {
		return nil, authz.ErrNotFound
	}
	return &authz.JourneyAccess{
		ID:             j.ID,
		OwnerID:        j.OwnerID,
		Visibility:     j.Visibility,
		PassphraseHash: j.PassphraseHash,
	}, nil
}

type emptyGrants struct{}

func (emptyGrants) Grant(_ context.Context, _, _ int64) (*authz.Grant, error) { return nil, nil }

// fakeHasher prefixes plaintext so tests can assert the stored value is the
// hash, not the passphrase itself.
type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func (fakeHasher) Compare(plaintext, hash string) bool { return "hashed:"+plaintext == hash }

func newTestService() (*Service, *memoryJourneyRepo) {
	repo := newMemoryJourneyRepo()
	engine := authz.NewEngine(repo, emptyGrants{}, fakeHasher{})
	return NewService(repo, engine, fakeHasher{}), repo
}

func TestCreateJourneyStartsPrivate(t *testing.T) {
	svc, _ := newTestService()
	actor := &authz.Principal{ID: 1}

	journey, err := svc.Create(context.Background(), actor, CreateJourneyRequest{Title: "  Crossing the Alps  "})
	require.NoError(t, err)
	require.Equal(t, "Crossing the Alps", journey.Title)
	require.Equal(t, int64(1), journey.OwnerID)
	require.Equal(t, authz.VisibilityPrivate, journey.Visibility)
	require.Nil(t, journey.PublicLinkID)
}

func TestCreateJourneyRequiresTitle(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), &authz.Principal{ID: 1}, CreateJourneyRequest{Title: "   "})
	require.ErrorIs(t, err, ErrValidation)
}

func TestPublishMintsLink(t *testing.T) {
	svc, _ := newTestService()
	owner := &authz.Principal{ID: 1}
	ctx := context.Background()

	journey, err := svc.Create(ctx, owner, CreateJourneyRequest{Title: "Kyoto Notebooks"})
	require.NoError(t, err)

	published, err := svc.Publish(ctx, owner, journey.ID)
	require.NoError(t, err)
	require.Equal(t, authz.VisibilityPublicOpen, published.Visibility)
	require.NotNil(t, published.PublicLinkID)
	require.NotEmpty(t, *published.PublicLinkID)

	// Publishing again keeps the existing link working.
	again, err := svc.Publish(ctx, owner, journey.ID)
	require.NoError(t, err)
	require.Equal(t, *published.PublicLinkID, *again.PublicLinkID)
}

func TestUnpublishClearsLinkAndPassphrase(t *testing.T) {
	svc, repo := newTestService()
	owner := &authz.Principal{ID: 1}
	ctx := context.Background()

	journey, err := svc.Create(ctx, owner, CreateJourneyRequest{Title: "Patagonia by Bus"})
	require.NoError(t, err)
	_, err = svc.Publish(ctx, owner, journey.ID)
	require.NoError(t, err)
	_, err = svc.SetPassphrase(ctx, owner, journey.ID, "sesame-street")
	require.NoError(t, err)

	private, err := svc.Unpublish(ctx, owner, journey.ID)
	require.NoError(t, err)
	require.Equal(t, authz.VisibilityPrivate, private.Visibility)
	require.Nil(t, private.PublicLinkID)
	require.Nil(t, private.PassphraseHash)

	// Republishing mints a fresh link, the old one is dead for good.
	republished, err := svc.Publish(ctx, owner, journey.ID)
	require.NoError(t, err)
	require.NotNil(t, republished.PublicLinkID)

	stored := repo.journeys[journey.ID]
	require.Equal(t, *republished.PublicLinkID, *stored.PublicLinkID)
}

func TestSetPassphrase(t *testing.T) {
	svc, repo := newTestService()
	owner := &authz.Principal{ID: 1}
	ctx := context.Background()

	journey, err := svc.Create(ctx, owner, CreateJourneyRequest{Title: "Silk Road"})
	require.NoError(t, err)

	// Private journeys cannot take a passphrase.
	_, err = svc.SetPassphrase(ctx, owner, journey.ID, "sesame-street")
	require.ErrorIs(t, err, ErrValidation)

	published, err := svc.Publish(ctx, owner, journey.ID)
	require.NoError(t, err)

	_, err = svc.SetPassphrase(ctx, owner, journey.ID, "short")
	require.ErrorIs(t, err, ErrValidation)

	protected, err := svc.SetPassphrase(ctx, owner, journey.ID, "sesame-street")
	require.NoError(t, err)
	require.Equal(t, authz.VisibilityPublicProtected, protected.Visibility)
	require.Equal(t, *published.PublicLinkID, *protected.PublicLinkID)

	// Only the hash is stored.
	stored := repo.journeys[journey.ID]
	require.NotNil(t, stored.PassphraseHash)
	require.Equal(t, "hashed:sesame-street", *stored.PassphraseHash)
}

func TestClearPassphrase(t *testing.T) {
	svc, _ := newTestService()
	owner := &authz.Principal{ID: 1}
	ctx := context.Background()

	journey, err := svc.Create(ctx, owner, CreateJourneyRequest{Title: "Trans-Siberian"})
	require.NoError(t, err)
	published, err := svc.Publish(ctx, owner, journey.ID)
	require.NoError(t, err)
	_, err = svc.SetPassphrase(ctx, owner, journey.ID, "sesame-street")
	require.NoError(t, err)

	open, err := svc.ClearPassphrase(ctx, owner, journey.ID)
	require.NoError(t, err)
	require.Equal(t, authz.VisibilityPublicOpen, open.Visibility)
	require.Nil(t, open.PassphraseHash)
	require.Equal(t, *published.PublicLinkID, *open.PublicLinkID)
}

func TestSharingRequiresEditPermission(t *testing.T) {
	svc, _ := newTestService()
	owner := &authz.Principal{ID: 1}
	stranger := &authz.Principal{ID: 2}
	ctx := context.Background()

	journey, err := svc.Create(ctx, owner, CreateJourneyRequest{Title: "Sahara Crossing"})
	require.NoError(t, err)

	_, err = svc.Publish(ctx, stranger, journey.ID)
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	require.Equal(t, authz.ReasonInsufficientPermission, denied.Reason)

	_, err = svc.Unpublish(ctx, stranger, journey.ID)
	require.ErrorAs(t, err, &denied)
}

func TestUpdateJourney(t *testing.T) {
	svc, _ := newTestService()
	owner := &authz.Principal{ID: 1}
	ctx := context.Background()

	journey, err := svc.Create(ctx, owner, CreateJourneyRequest{Title: "Draft Title"})
	require.NoError(t, err)

	title := "  Final Title  "
	updated, err := svc.Update(ctx, owner, journey.ID, UpdateJourneyRequest{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Final Title", updated.Title)

	empty := "   "
	_, err = svc.Update(ctx, owner, journey.ID, UpdateJourneyRequest{Title: &empty})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteJourneyDenied(t *testing.T) {
	svc, repo := newTestService()
	owner := &authz.Principal{ID: 1}
	stranger := &authz.Principal{ID: 2}
	ctx := context.Background()

	journey, err := svc.Create(ctx, owner, CreateJourneyRequest{Title: "Andes on Foot"})
	require.NoError(t, err)

	err = svc.Delete(ctx, stranger, journey.ID)
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	require.Contains(t, repo.journeys, journey.ID)

	require.NoError(t, svc.Delete(ctx, owner, journey.ID))
	require.NotContains(t, repo.journeys, journey.ID)
}
