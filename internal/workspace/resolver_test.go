package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/pkg/apperr"
)

type fakeUserStore struct {
	users map[uuid.UUID]*models.User
	// clearedClaims simulates a concurrent clear landing between a losing
	// claim and its read-back for the next N claim calls.
	clearedClaims int
	claimCalls    int
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUserStore) SetActiveOrganization(_ context.Context, userID uuid.UUID, orgID *uuid.UUID) error {
	f.users[userID].ActiveOrganizationID = orgID
	return nil
}

func (f *fakeUserStore) ClaimActiveOrganization(_ context.Context, userID, orgID uuid.UUID) (uuid.UUID, error) {
	f.claimCalls++
	if f.clearedClaims > 0 {
		f.clearedClaims--
		return uuid.Nil, nil
	}
	u := f.users[userID]
	if u.ActiveOrganizationID != nil {
		return *u.ActiveOrganizationID, nil
	}
	u.ActiveOrganizationID = &orgID
	return orgID, nil
}

type fakeMembershipStore struct {
	byUser map[uuid.UUID][]models.Membership
}

func (f *fakeMembershipStore) ActiveForUser(_ context.Context, userID uuid.UUID) ([]models.Membership, error) {
	return f.byUser[userID], nil
}

func (f *fakeMembershipStore) ActiveForUserInOrg(_ context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	for _, m := range f.byUser[userID] {
		if m.OrganizationID == orgID {
			return &m, nil
		}
	}
	return nil, nil
}

func membership(userID, orgID uuid.UUID, role models.OrganizationRole, joined time.Time) models.Membership {
	return models.Membership{
		ID:             uuid.New(),
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		Status:         models.MembershipActive,
		JoinedAt:       &joined,
	}
}

func TestResolveUnknownUser(t *testing.T) {
	r := NewResolver(&fakeUserStore{users: map[uuid.UUID]*models.User{}}, &fakeMembershipStore{})

	_, err := r.Resolve(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestResolveReturnsExistingPointerWithoutRevalidation(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	users := &fakeUserStore{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, ActiveOrganizationID: &orgID},
	}}
	// No memberships at all: a set pointer is trusted as-is.
	r := NewResolver(users, &fakeMembershipStore{byUser: map[uuid.UUID][]models.Membership{}})

	got, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, orgID, got)
}

func TestResolveNoMembershipsFailsEveryTime(t *testing.T) {
	userID := uuid.New()
	users := &fakeUserStore{users: map[uuid.UUID]*models.User{userID: {ID: userID}}}
	r := NewResolver(users, &fakeMembershipStore{byUser: map[uuid.UUID][]models.Membership{}})

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), userID)
		require.Error(t, err)
		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindValidation, appErr.Kind)
		assert.Contains(t, appErr.Details, "active_organization_id")
	}
	assert.Nil(t, users.users[userID].ActiveOrganizationID)
}

func TestResolveAutoSelectsEarliestJoinedAndPersists(t *testing.T) {
	userID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	users := &fakeUserStore{users: map[uuid.UUID]*models.User{userID: {ID: userID}}}
	memberships := &fakeMembershipStore{byUser: map[uuid.UUID][]models.Membership{
		userID: {
			membership(userID, first, models.RoleOwner, time.Now().Add(-48*time.Hour)),
			membership(userID, second, models.RoleMember, time.Now().Add(-1*time.Hour)),
		},
	}}
	r := NewResolver(users, memberships)

	got, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	// The auto-selected default is persisted, not re-derived.
	require.NotNil(t, users.users[userID].ActiveOrganizationID)
	assert.Equal(t, first, *users.users[userID].ActiveOrganizationID)

	again, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestResolveConvergesOnConcurrentClaimWinner(t *testing.T) {
	userID := uuid.New()
	won := uuid.New()
	candidate := uuid.New()
	// Another resolution already claimed a different organization.
	users := &fakeUserStore{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, ActiveOrganizationID: nil},
	}}
	users.users[userID].ActiveOrganizationID = &won

	memberships := &fakeMembershipStore{byUser: map[uuid.UUID][]models.Membership{
		userID: {membership(userID, candidate, models.RoleMember, time.Now())},
	}}
	r := NewResolver(users, memberships)

	got, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, won, got)
}

func TestResolveRetriesClaimAfterConcurrentClear(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	users := &fakeUserStore{
		users:         map[uuid.UUID]*models.User{userID: {ID: userID}},
		clearedClaims: 1,
	}
	memberships := &fakeMembershipStore{byUser: map[uuid.UUID][]models.Membership{
		userID: {membership(userID, orgID, models.RoleMember, time.Now())},
	}}
	r := NewResolver(users, memberships)

	got, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, orgID, got)
	assert.Equal(t, 2, users.claimCalls)
	require.NotNil(t, users.users[userID].ActiveOrganizationID)
	assert.Equal(t, orgID, *users.users[userID].ActiveOrganizationID)
}

func TestResolveFailsWhenClaimNeverSettles(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	users := &fakeUserStore{
		users:         map[uuid.UUID]*models.User{userID: {ID: userID}},
		clearedClaims: 100,
	}
	memberships := &fakeMembershipStore{byUser: map[uuid.UUID][]models.Membership{
		userID: {membership(userID, orgID, models.RoleMember, time.Now())},
	}}
	r := NewResolver(users, memberships)

	got, err := r.Resolve(context.Background(), userID)
	require.Error(t, err)
	assert.Equal(t, uuid.Nil, got)
	// A pathological race is an internal failure, not a caller mistake.
	_, classified := apperr.As(err)
	assert.False(t, classified)
}

func TestSetActiveClearsUnconditionally(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	users := &fakeUserStore{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, ActiveOrganizationID: &orgID},
	}}
	r := NewResolver(users, &fakeMembershipStore{byUser: map[uuid.UUID][]models.Membership{}})

	require.NoError(t, r.SetActive(context.Background(), userID, nil))
	assert.Nil(t, users.users[userID].ActiveOrganizationID)
}

func TestSetActiveDeniedWithoutMembership(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	users := &fakeUserStore{users: map[uuid.UUID]*models.User{userID: {ID: userID}}}
	r := NewResolver(users, &fakeMembershipStore{byUser: map[uuid.UUID][]models.Membership{}})

	err := r.SetActive(context.Background(), userID, &orgID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	// The denial never mutates the pointer.
	assert.Nil(t, users.users[userID].ActiveOrganizationID)
}

func TestSetActivePersistsForMember(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	users := &fakeUserStore{users: map[uuid.UUID]*models.User{userID: {ID: userID}}}
	memberships := &fakeMembershipStore{byUser: map[uuid.UUID][]models.Membership{
		userID: {membership(userID, orgID, models.RoleMember, time.Now())},
	}}
	r := NewResolver(users, memberships)

	require.NoError(t, r.SetActive(context.Background(), userID, &orgID))
	require.NotNil(t, users.users[userID].ActiveOrganizationID)
	assert.Equal(t, orgID, *users.users[userID].ActiveOrganizationID)
}
