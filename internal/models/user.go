package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a platform account. ActiveOrganizationID is the sticky
// pointer to the organization the user is currently operating in; it is set
// by explicit workspace switches and by the workspace resolver's
// auto-selection.
type User struct {
	ID                   uuid.UUID  `json:"id"`
	Email                string     `json:"email"`
	Password             string     `json:"-"`
	FullName             *string    `json:"full_name"`
	AvatarURL            *string    `json:"avatar_url"`
	IsActive             bool       `json:"is_active"`
	ActiveOrganizationID *uuid.UUID `json:"active_organization_id"`
	LastLoginAt          *time.Time `json:"last_login_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID                   uuid.UUID  `json:"id"`
	Email                string     `json:"email"`
	FullName             *string    `json:"full_name"`
	AvatarURL            *string    `json:"avatar_url"`
	IsActive             bool       `json:"is_active"`
	ActiveOrganizationID *uuid.UUID `json:"active_organization_id"`
	CreatedAt            time.Time  `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:                   u.ID,
		Email:                u.Email,
		FullName:             u.FullName,
		AvatarURL:            u.AvatarURL,
		IsActive:             u.IsActive,
		ActiveOrganizationID: u.ActiveOrganizationID,
		CreatedAt:            u.CreatedAt,
	}
}
