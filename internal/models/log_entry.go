package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LogLevel is the severity of a log entry.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// ValidLogLevel reports whether l is a known level.
func ValidLogLevel(l LogLevel) bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true
	}
	return false
}

// LogEntry is a single ingested log line, scoped to an organization and a
// source. Context and Metadata are arbitrary JSON documents.
type LogEntry struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	ProjectID      *uuid.UUID      `json:"project_id"`
	SourceID       uuid.UUID       `json:"source_id"`
	Timestamp      time.Time       `json:"timestamp"`
	Level          LogLevel        `json:"level"`
	Message        string          `json:"message"`
	Context        json.RawMessage `json:"context,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
