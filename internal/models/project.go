package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "ACTIVE"
	ProjectArchived ProjectStatus = "ARCHIVED"
)

// ProjectVisibility controls who inside the organization can see a project.
type ProjectVisibility string

const (
	VisibilityPrivate  ProjectVisibility = "PRIVATE"
	VisibilityInternal ProjectVisibility = "INTERNAL"
	VisibilityPublic   ProjectVisibility = "PUBLIC"
)

// ValidVisibility reports whether v is a known visibility.
func ValidVisibility(v ProjectVisibility) bool {
	switch v {
	case VisibilityPrivate, VisibilityInternal, VisibilityPublic:
		return true
	}
	return false
}

// Project is an organization-scoped resource. Key is a short identifier like
// "CORE", unique within the organization but reusable across organizations.
type Project struct {
	ID                  uuid.UUID         `json:"id"`
	OrganizationID      uuid.UUID         `json:"organization_id"`
	Name                string            `json:"name"`
	Key                 string            `json:"key"`
	Description         *string           `json:"description"`
	Status              ProjectStatus     `json:"status"`
	Visibility          ProjectVisibility `json:"visibility"`
	CreatedByUserID     uuid.UUID         `json:"created_by_user_id"`
	LastUpdatedByUserID *uuid.UUID        `json:"last_updated_by_user_id"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}
