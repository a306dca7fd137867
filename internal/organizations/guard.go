package organizations

import (
	"context"

	"github.com/google/uuid"

	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/pkg/apperr"
)

// MembershipLookup is the membership check the guard needs.
type MembershipLookup interface {
	ActiveForUserInOrg(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error)
}

// Guard evaluates whether a caller's role in an organization permits an
// action. Every denial is the same access-denied error, so organizations the
// caller cannot see are indistinguishable from ones that do not exist.
type Guard struct {
	memberships MembershipLookup
}

// NewGuard creates an authorization guard.
func NewGuard(memberships MembershipLookup) *Guard {
	return &Guard{memberships: memberships}
}

func errAccessDenied() error {
	return apperr.Forbidden("organization not found or access denied")
}

// RequireMember allows any ACTIVE membership regardless of role and returns
// it.
func (g *Guard) RequireMember(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	membership, err := g.memberships.ActiveForUserInOrg(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, errAccessDenied()
	}
	return membership, nil
}

// RequireRole allows an ACTIVE membership whose role is at least min.
func (g *Guard) RequireRole(ctx context.Context, userID, orgID uuid.UUID, min models.OrganizationRole) (*models.Membership, error) {
	membership, err := g.RequireMember(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if !membership.Role.AtLeast(min) {
		return nil, errAccessDenied()
	}
	return membership, nil
}
