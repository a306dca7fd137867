// Package workspace resolves which organization a request operates against.
// Every org-scoped service goes through the Resolver instead of re-deriving
// the active organization itself.
package workspace

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/pkg/apperr"
)

// UserStore is the user lookup and active-organization persistence the
// resolver needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// SetActiveOrganization unconditionally writes the pointer (nil clears it).
	SetActiveOrganization(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID) error
	// ClaimActiveOrganization sets the pointer only if it is currently unset
	// and returns the pointer's resulting value, so concurrent auto-selections
	// converge on a single winner. A uuid.Nil result means the pointer was
	// cleared again between the losing claim and the read-back.
	ClaimActiveOrganization(ctx context.Context, userID, orgID uuid.UUID) (uuid.UUID, error)
}

// MembershipStore is the membership lookup the resolver needs.
type MembershipStore interface {
	// ActiveForUser returns the user's ACTIVE memberships ordered by join
	// time ascending.
	ActiveForUser(ctx context.Context, userID uuid.UUID) ([]models.Membership, error)
	// ActiveForUserInOrg returns the ACTIVE membership for (user, org), or
	// nil when there is none.
	ActiveForUserInOrg(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error)
}

// claimAttempts bounds the auto-selection retry when a concurrent clear keeps
// racing the claim.
const claimAttempts = 3

// Resolver maps an authenticated user to exactly one organization id.
type Resolver struct {
	users       UserStore
	memberships MembershipStore
}

// NewResolver creates a workspace resolver.
func NewResolver(users UserStore, memberships MembershipStore) *Resolver {
	return &Resolver{users: users, memberships: memberships}
}

// Resolve returns the user's active organization id. When the pointer is
// unset it auto-selects the earliest-joined ACTIVE membership and persists
// that default, a deliberate write side effect that makes the choice sticky.
// A pointer that is already set is returned as-is without re-validating the
// membership.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	if user == nil {
		// Authenticated identity without a stored user is an upstream
		// inconsistency, not a membership problem.
		return uuid.Nil, apperr.NotFound("user not found")
	}

	if user.ActiveOrganizationID != nil {
		return *user.ActiveOrganizationID, nil
	}

	memberships, err := r.memberships.ActiveForUser(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	if len(memberships) == 0 {
		return uuid.Nil, apperr.Validation(map[string]string{
			"active_organization_id": "user is not a member of any organization",
		})
	}

	// Concurrent first resolutions race here; the claim is atomic so both
	// callers end up with whichever default won. A uuid.Nil result means the
	// pointer was cleared again before the losing read, so the claim retries.
	for attempt := 0; attempt < claimAttempts; attempt++ {
		claimed, err := r.users.ClaimActiveOrganization(ctx, userID, memberships[0].OrganizationID)
		if err != nil {
			return uuid.Nil, err
		}
		if claimed != uuid.Nil {
			return claimed, nil
		}
	}
	return uuid.Nil, fmt.Errorf("active organization for user %s did not settle after %d claim attempts", userID, claimAttempts)
}

// SetActive switches the user's active organization. A nil orgID clears the
// pointer unconditionally. A non-nil orgID requires an ACTIVE membership in
// that organization; absent membership is denied without revealing whether
// the organization exists.
func (r *Resolver) SetActive(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID) error {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("user not found")
	}

	if orgID != nil {
		membership, err := r.memberships.ActiveForUserInOrg(ctx, userID, *orgID)
		if err != nil {
			return err
		}
		if membership == nil {
			return apperr.Forbidden("organization not found or access denied")
		}
	}

	return r.users.SetActiveOrganization(ctx, userID, orgID)
}
