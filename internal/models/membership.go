package models

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationRole is a privilege level within one organization. Roles form a
// total order MEMBER < ADMIN < OWNER; compare with Level or AtLeast.
type OrganizationRole string

const (
	RoleOwner  OrganizationRole = "OWNER"
	RoleAdmin  OrganizationRole = "ADMIN"
	RoleMember OrganizationRole = "MEMBER"
)

// Level returns the role's position in the privilege order. Unknown roles
// rank below MEMBER.
func (r OrganizationRole) Level() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	}
	return 0
}

// AtLeast reports whether r grants at least the privilege of min.
func (r OrganizationRole) AtLeast(min OrganizationRole) bool {
	return r.Level() >= min.Level()
}

// MembershipStatus is the lifecycle state of a membership. Only ACTIVE
// memberships grant any privilege.
type MembershipStatus string

const (
	MembershipInvited   MembershipStatus = "INVITED"
	MembershipActive    MembershipStatus = "ACTIVE"
	MembershipSuspended MembershipStatus = "SUSPENDED"
)

// Membership links a user to an organization with a role and status. At most
// one membership exists per (user, organization) pair.
type Membership struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	OrganizationID  uuid.UUID        `json:"organization_id"`
	Role            OrganizationRole `json:"role"`
	Status          MembershipStatus `json:"status"`
	InvitedByUserID *uuid.UUID       `json:"invited_by_user_id,omitempty"`
	InvitedAt       *time.Time       `json:"invited_at,omitempty"`
	JoinedAt        *time.Time       `json:"joined_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Member is a membership joined with the member's identity, for member
// listings.
type Member struct {
	UserID   uuid.UUID        `json:"user_id"`
	Email    string           `json:"email"`
	FullName *string          `json:"full_name"`
	Role     OrganizationRole `json:"role"`
	JoinedAt *time.Time       `json:"joined_at"`
}
