package projects

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/internal/workspace"
	"github.com/forgecloud/backend/pkg/apperr"
)

// Project key is a short uppercase identifier like "CORE", 2-10 chars.
var keyRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)

// Store is the project persistence the service depends on.
type Store interface {
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	FindByOrgAndKey(ctx context.Context, orgID uuid.UUID, key string) (*models.Project, error)
	Create(ctx context.Context, p *models.Project) error
	Save(ctx context.Context, p *models.Project) error
}

// Service implements organization-scoped project operations. Every operation
// resolves the caller's active workspace first and never touches projects
// outside it.
type Service struct {
	store    Store
	resolver *workspace.Resolver
	logger   *zap.Logger
}

// NewService creates a projects service.
func NewService(store Store, resolver *workspace.Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, resolver: resolver, logger: logger}
}

// List returns the projects in the caller's active organization.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	orgID, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListByOrg(ctx, orgID)
}

// Get returns a project by ID. A project outside the caller's active
// organization is reported exactly like one that does not exist.
func (s *Service) Get(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	orgID, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.OrganizationID != orgID {
		return nil, apperr.Validation(map[string]string{"project": "not found"})
	}
	return p, nil
}

// CreateInput is the input for Create.
type CreateInput struct {
	Name        string
	Key         string
	Description *string
	Visibility  *models.ProjectVisibility
}

// Create adds a project to the caller's active organization. The key is
// normalized to uppercase and must be unique within the organization; the
// same key in a different organization is legal.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Project, error) {
	orgID, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 255 {
		return nil, apperr.Validation(map[string]string{"name": "name must be 1-255 characters"})
	}
	key := strings.ToUpper(strings.TrimSpace(input.Key))
	if !keyRegex.MatchString(key) {
		return nil, apperr.Validation(map[string]string{"key": "key must be 2-10 uppercase letters or digits, starting with a letter"})
	}
	visibility := models.VisibilityPrivate
	if input.Visibility != nil {
		if !models.ValidVisibility(*input.Visibility) {
			return nil, apperr.Validation(map[string]string{"visibility": "unknown visibility"})
		}
		visibility = *input.Visibility
	}

	existing, err := s.store.FindByOrgAndKey(ctx, orgID, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation(map[string]string{"key": "key already in use in this organization"})
	}

	p := &models.Project{
		OrganizationID:  orgID,
		Name:            name,
		Key:             key,
		Description:     input.Description,
		Status:          models.ProjectActive,
		Visibility:      visibility,
		CreatedByUserID: userID,
	}
	if err := s.store.Create(ctx, p); err != nil {
		// The pre-check races with concurrent creates; the unique index is
		// authoritative.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Validation(map[string]string{"key": "key already in use in this organization"})
		}
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("project_id", p.ID.String()),
		zap.String("organization_id", orgID.String()),
		zap.String("key", p.Key))
	return p, nil
}

// UpdateInput is the input for Update. Nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
	Visibility  *models.ProjectVisibility
}

// Update changes mutable fields of a project in the caller's active
// organization.
func (s *Service) Update(ctx context.Context, userID, projectID uuid.UUID, input UpdateInput) (*models.Project, error) {
	p, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 255 {
			return nil, apperr.Validation(map[string]string{"name": "name must be 1-255 characters"})
		}
		p.Name = name
	}
	if input.Description != nil {
		p.Description = input.Description
	}
	if input.Status != nil {
		if *input.Status != models.ProjectActive && *input.Status != models.ProjectArchived {
			return nil, apperr.Validation(map[string]string{"status": "unknown status"})
		}
		p.Status = *input.Status
	}
	if input.Visibility != nil {
		if !models.ValidVisibility(*input.Visibility) {
			return nil, apperr.Validation(map[string]string{"visibility": "unknown visibility"})
		}
		p.Visibility = *input.Visibility
	}
	p.LastUpdatedByUserID = &userID

	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
