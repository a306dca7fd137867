package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the organization's subscription tier. Plans are not enforced
// anywhere yet; the field is carried for display and future billing.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// ValidPlan reports whether p is a known plan tier.
func ValidPlan(p Plan) bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// Organization represents a tenant: the isolation boundary for all scoped
// resources. OwnerUserID is a denormalized display hint set at creation time;
// the authoritative notion of ownership is the OWNER role on a membership.
type Organization struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Slug            string     `json:"slug"`
	Plan            Plan       `json:"plan"`
	IsActive        bool       `json:"is_active"`
	OwnerUserID     *uuid.UUID `json:"owner_user_id"`
	CreatedByUserID uuid.UUID  `json:"created_by_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// OrganizationSummary is an organization plus the caller's role in it, as
// returned by membership listings and the session snapshot.
type OrganizationSummary struct {
	ID   uuid.UUID        `json:"id"`
	Name string           `json:"name"`
	Slug string           `json:"slug"`
	Plan Plan             `json:"plan"`
	Role OrganizationRole `json:"role"`
}
