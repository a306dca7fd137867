package models

import (
	"time"

	"github.com/google/uuid"
)

// LogSourceType categorizes where a source's entries come from.
type LogSourceType string

const (
	SourceService LogSourceType = "service"
	SourceAudit   LogSourceType = "audit"
	SourceJob     LogSourceType = "job"
	SourceOther   LogSourceType = "other"
)

// ValidLogSourceType reports whether t is a known source type.
func ValidLogSourceType(t LogSourceType) bool {
	switch t {
	case SourceService, SourceAudit, SourceJob, SourceOther:
		return true
	}
	return false
}

// LogSourceStatus is whether a source currently accepts entries.
type LogSourceStatus string

const (
	SourceActive   LogSourceStatus = "active"
	SourceInactive LogSourceStatus = "inactive"
)

// LogSource is an organization-scoped origin of log entries, optionally tied
// to a project. IngestKey is reserved for future key-based ingestion auth.
type LogSource struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	ProjectID      *uuid.UUID      `json:"project_id"`
	Name           string          `json:"name"`
	Type           LogSourceType   `json:"type"`
	Status         LogSourceStatus `json:"status"`
	Description    *string         `json:"description"`
	Environment    *string         `json:"environment"`
	IngestKey      *string         `json:"ingest_key,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
