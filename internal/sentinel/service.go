package sentinel

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/internal/workspace"
	"github.com/forgecloud/backend/pkg/apperr"
)

// SourceStore is the log source persistence the service depends on.
type SourceStore interface {
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.LogSource, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.LogSource, error)
	FindByOrgAndName(ctx context.Context, orgID uuid.UUID, name string) (*models.LogSource, error)
	Create(ctx context.Context, s *models.LogSource) error
}

// EntryStore is the log entry persistence the service depends on.
type EntryStore interface {
	Create(ctx context.Context, e *models.LogEntry) error
	ListByOrg(ctx context.Context, orgID uuid.UUID, f EntryFilter) ([]models.LogEntry, int, error)
}

// ProjectStore checks project existence for source-to-project links.
type ProjectStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// Service implements organization-scoped log sources and ingestion. Every
// operation resolves the caller's active workspace first.
type Service struct {
	sources  SourceStore
	entries  EntryStore
	projects ProjectStore
	resolver *workspace.Resolver
	logger   *zap.Logger
}

// NewService creates a sentinel service.
func NewService(sources SourceStore, entries EntryStore, projects ProjectStore, resolver *workspace.Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sources: sources, entries: entries, projects: projects, resolver: resolver, logger: logger}
}

// ListSources returns the log sources in the caller's active organization.
func (s *Service) ListSources(ctx context.Context, userID uuid.UUID) ([]models.LogSource, error) {
	orgID, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.sources.ListByOrg(ctx, orgID)
}

// CreateSourceInput is the input for CreateSource.
type CreateSourceInput struct {
	Name        string
	Type        *models.LogSourceType
	ProjectID   *uuid.UUID
	Description *string
	Environment *string
}

// CreateSource adds a log source to the caller's active organization. The
// name must be unique within the organization; a linked project must belong
// to the same organization.
func (s *Service) CreateSource(ctx context.Context, userID uuid.UUID, input CreateSourceInput) (*models.LogSource, error) {
	orgID, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 191 {
		return nil, apperr.Validation(map[string]string{"name": "name must be 1-191 characters"})
	}
	sourceType := models.SourceService
	if input.Type != nil {
		if !models.ValidLogSourceType(*input.Type) {
			return nil, apperr.Validation(map[string]string{"type": "unknown source type"})
		}
		sourceType = *input.Type
	}

	if input.ProjectID != nil {
		p, err := s.projects.GetByID(ctx, *input.ProjectID)
		if err != nil {
			return nil, err
		}
		if p == nil || p.OrganizationID != orgID {
			return nil, apperr.Validation(map[string]string{"project": "not found"})
		}
	}

	existing, err := s.sources.FindByOrgAndName(ctx, orgID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation(map[string]string{"name": "source name already in use in this organization"})
	}

	ingestKey := newIngestKey()
	src := &models.LogSource{
		OrganizationID: orgID,
		ProjectID:      input.ProjectID,
		Name:           name,
		Type:           sourceType,
		Status:         models.SourceActive,
		Description:    input.Description,
		Environment:    input.Environment,
		IngestKey:      &ingestKey,
	}
	if err := s.sources.Create(ctx, src); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Validation(map[string]string{"name": "source name already in use in this organization"})
		}
		return nil, err
	}

	s.logger.Info("log source created",
		zap.String("source_id", src.ID.String()),
		zap.String("organization_id", orgID.String()),
		zap.String("name", src.Name))
	return src, nil
}

// IngestInput is the input for Ingest. Timestamp is an optional ISO-8601
// string; when empty the ingestion time is used.
type IngestInput struct {
	SourceID  uuid.UUID
	Level     *models.LogLevel
	Message   string
	Timestamp string
	Context   json.RawMessage
	Metadata  json.RawMessage
}

// Ingest stores a log entry against a source in the caller's active
// organization. A source outside that organization is reported exactly like
// one that does not exist.
func (s *Service) Ingest(ctx context.Context, userID uuid.UUID, input IngestInput) (*models.LogEntry, error) {
	orgID, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	src, err := s.sources.GetByID(ctx, input.SourceID)
	if err != nil {
		return nil, err
	}
	if src == nil || src.OrganizationID != orgID {
		return nil, apperr.Validation(map[string]string{"source": "not found"})
	}

	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, apperr.Validation(map[string]string{"message": "message is required"})
	}
	level := models.LevelInfo
	if input.Level != nil {
		if !models.ValidLogLevel(*input.Level) {
			return nil, apperr.Validation(map[string]string{"level": "unknown level"})
		}
		level = *input.Level
	}

	ts, err := normalizeTimestamp(input.Timestamp)
	if err != nil {
		return nil, err
	}

	entry := &models.LogEntry{
		OrganizationID: orgID,
		ProjectID:      src.ProjectID,
		SourceID:       src.ID,
		Timestamp:      ts,
		Level:          level,
		Message:        message,
		Context:        input.Context,
		Metadata:       input.Metadata,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// LogPage is a paginated log listing.
type LogPage struct {
	Entries []models.LogEntry `json:"entries"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

// ListLogs returns entries in the caller's active organization, newest first.
// A cross-tenant source filter matches nothing rather than erroring.
func (s *Service) ListLogs(ctx context.Context, userID uuid.UUID, f EntryFilter) (*LogPage, error) {
	orgID, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if f.Level != "" && !models.ValidLogLevel(f.Level) {
		return nil, apperr.Validation(map[string]string{"level": "unknown level"})
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	entries, total, err := s.entries.ListByOrg(ctx, orgID, f)
	if err != nil {
		return nil, err
	}
	return &LogPage{Entries: entries, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// normalizeTimestamp parses an optional ISO-8601 timestamp. Empty means now.
func normalizeTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, apperr.Validation(map[string]string{"timestamp": "invalid timestamp format"})
}

func newIngestKey() string {
	buf := make([]byte, 24)
	_, _ = rand.Read(buf)
	return "fcs_" + hex.EncodeToString(buf)
}
