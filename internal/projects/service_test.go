package projects

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/internal/workspace"
	"github.com/forgecloud/backend/pkg/apperr"
)

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUsers) SetActiveOrganization(_ context.Context, userID uuid.UUID, orgID *uuid.UUID) error {
	f.users[userID].ActiveOrganizationID = orgID
	return nil
}

func (f *fakeUsers) ClaimActiveOrganization(_ context.Context, userID, orgID uuid.UUID) (uuid.UUID, error) {
	u := f.users[userID]
	if u.ActiveOrganizationID != nil {
		return *u.ActiveOrganizationID, nil
	}
	u.ActiveOrganizationID = &orgID
	return orgID, nil
}

type fakeMemberships struct {
	byUser map[uuid.UUID][]models.Membership
}

func (f *fakeMemberships) ActiveForUser(_ context.Context, userID uuid.UUID) ([]models.Membership, error) {
	return f.byUser[userID], nil
}

func (f *fakeMemberships) ActiveForUserInOrg(_ context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	for _, m := range f.byUser[userID] {
		if m.OrganizationID == orgID {
			return &m, nil
		}
	}
	return nil, nil
}

type fakeStore struct {
	projects map[uuid.UUID]*models.Project
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: map[uuid.UUID]*models.Project{}}
}

func (f *fakeStore) ListByOrg(_ context.Context, orgID uuid.UUID) ([]models.Project, error) {
	var list []models.Project
	for _, p := range f.projects {
		if p.OrganizationID == orgID {
			list = append(list, *p)
		}
	}
	return list, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	return f.projects[id], nil
}

func (f *fakeStore) FindByOrgAndKey(_ context.Context, orgID uuid.UUID, key string) (*models.Project, error) {
	for _, p := range f.projects {
		if p.OrganizationID == orgID && p.Key == key {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Create(_ context.Context, p *models.Project) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.projects[p.ID] = p
	return nil
}

func (f *fakeStore) Save(_ context.Context, p *models.Project) error {
	f.projects[p.ID] = p
	return nil
}

// fixture wires the real resolver over in-memory stores. Each user is an
// active member of the orgs listed for them, earliest first.
func fixture(t *testing.T, members map[uuid.UUID][]uuid.UUID) (*Service, *fakeStore, *fakeUsers) {
	t.Helper()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{}}
	memberships := &fakeMemberships{byUser: map[uuid.UUID][]models.Membership{}}
	joined := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for userID, orgs := range members {
		users.users[userID] = &models.User{ID: userID, IsActive: true}
		for _, orgID := range orgs {
			joined = joined.Add(time.Minute)
			at := joined
			memberships.byUser[userID] = append(memberships.byUser[userID], models.Membership{
				UserID:         userID,
				OrganizationID: orgID,
				Role:           models.RoleOwner,
				Status:         models.MembershipActive,
				JoinedAt:       &at,
			})
		}
	}
	store := newFakeStore()
	svc := NewService(store, workspace.NewResolver(users, memberships), nil)
	return svc, store, users
}

func TestCreateResolvesActiveOrganization(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	svc, _, users := fixture(t, map[uuid.UUID][]uuid.UUID{userID: {orgID}})

	p, err := svc.Create(context.Background(), userID, CreateInput{Name: "Core Platform", Key: "core"})
	require.NoError(t, err)
	assert.Equal(t, orgID, p.OrganizationID)
	assert.Equal(t, "CORE", p.Key, "key is normalized to uppercase")
	assert.Equal(t, models.ProjectActive, p.Status)
	assert.Equal(t, models.VisibilityPrivate, p.Visibility)

	// The resolve persisted the auto-selected default.
	require.NotNil(t, users.users[userID].ActiveOrganizationID)
	assert.Equal(t, orgID, *users.users[userID].ActiveOrganizationID)
}

func TestCreateDuplicateKeySameOrg(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	svc, _, _ := fixture(t, map[uuid.UUID][]uuid.UUID{userID: {orgID}})

	_, err := svc.Create(context.Background(), userID, CreateInput{Name: "First", Key: "CORE"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), userID, CreateInput{Name: "Second", Key: "CORE"})
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Details, "key")
}

func TestSameKeyAcrossOrganizations(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	orgA := uuid.New()
	orgB := uuid.New()
	svc, _, _ := fixture(t, map[uuid.UUID][]uuid.UUID{alice: {orgA}, bob: {orgB}})

	pa, err := svc.Create(context.Background(), alice, CreateInput{Name: "Core", Key: "CORE"})
	require.NoError(t, err)
	pb, err := svc.Create(context.Background(), bob, CreateInput{Name: "Core", Key: "CORE"})
	require.NoError(t, err)

	assert.Equal(t, orgA, pa.OrganizationID)
	assert.Equal(t, orgB, pb.OrganizationID)
	assert.NotEqual(t, pa.ID, pb.ID)
}

func TestGetHidesCrossTenantProjects(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	orgA := uuid.New()
	orgB := uuid.New()
	svc, _, _ := fixture(t, map[uuid.UUID][]uuid.UUID{alice: {orgA}, bob: {orgB}})

	p, err := svc.Create(context.Background(), alice, CreateInput{Name: "Secret", Key: "SEC"})
	require.NoError(t, err)

	_, errCross := svc.Get(context.Background(), bob, p.ID)
	_, errMissing := svc.Get(context.Background(), bob, uuid.New())

	// Cross-tenant and nonexistent are the same failure.
	require.Error(t, errCross)
	require.Error(t, errMissing)
	assert.Equal(t, errMissing.Error(), errCross.Error())
	assert.True(t, apperr.IsKind(errCross, apperr.KindValidation))
}

func TestListScopedToActiveOrganization(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	orgA := uuid.New()
	orgB := uuid.New()
	svc, _, _ := fixture(t, map[uuid.UUID][]uuid.UUID{alice: {orgA}, bob: {orgB}})

	_, err := svc.Create(context.Background(), alice, CreateInput{Name: "A1", Key: "AONE"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), bob, CreateInput{Name: "B1", Key: "BONE"})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "AONE", list[0].Key)
}

func TestListFailsWithoutAnyMembership(t *testing.T) {
	loner := uuid.New()
	svc, _, _ := fixture(t, map[uuid.UUID][]uuid.UUID{loner: {}})

	_, err := svc.List(context.Background(), loner)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateRejectsBadKey(t *testing.T) {
	userID := uuid.New()
	svc, _, _ := fixture(t, map[uuid.UUID][]uuid.UUID{userID: {uuid.New()}})

	for _, key := range []string{"", "X", "1ABC", "TOOLONGKEY1", "has space"} {
		_, err := svc.Create(context.Background(), userID, CreateInput{Name: "P", Key: key})
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), "key %q", key)
	}
}

func TestUpdateCrossTenantDenied(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	orgA := uuid.New()
	orgB := uuid.New()
	svc, _, _ := fixture(t, map[uuid.UUID][]uuid.UUID{alice: {orgA}, bob: {orgB}})

	p, err := svc.Create(context.Background(), alice, CreateInput{Name: "Mine", Key: "MINE"})
	require.NoError(t, err)

	name := "Hijacked"
	_, err = svc.Update(context.Background(), bob, p.ID, UpdateInput{Name: &name})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	got, err := svc.Get(context.Background(), alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Name)
}

func TestUpdateStampsLastUpdatedBy(t *testing.T) {
	userID := uuid.New()
	svc, _, _ := fixture(t, map[uuid.UUID][]uuid.UUID{userID: {uuid.New()}})

	p, err := svc.Create(context.Background(), userID, CreateInput{Name: "P", Key: "PX"})
	require.NoError(t, err)
	require.Nil(t, p.LastUpdatedByUserID)

	status := models.ProjectArchived
	updated, err := svc.Update(context.Background(), userID, p.ID, UpdateInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectArchived, updated.Status)
	require.NotNil(t, updated.LastUpdatedByUserID)
	assert.Equal(t, userID, *updated.LastUpdatedByUserID)
}
