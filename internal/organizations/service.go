package organizations

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/pkg/apperr"
	"github.com/forgecloud/backend/pkg/queue"
)

// Slug must be lowercase alphanumeric and hyphens only, 2–64 chars.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// Directory is the organization directory the service depends on.
type Directory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	FindBySlug(ctx context.Context, slug string) (*models.Organization, error)
	ListAll(ctx context.Context) ([]models.Organization, error)
	CreateWithOwner(ctx context.Context, org *models.Organization) error
	Save(ctx context.Context, org *models.Organization) error
	DeleteByID(ctx context.Context, id uuid.UUID) (bool, error)
}

// MembershipStore is the membership access the service depends on.
type MembershipStore interface {
	MembershipLookup
	ActiveMembersForOrg(ctx context.Context, orgID uuid.UUID) ([]models.Member, error)
	SummariesForUser(ctx context.Context, userID uuid.UUID) ([]models.OrganizationSummary, error)
}

// Inviter delivers organization invitations. The only implementation today
// performs no delivery; the interface exists so the admin-or-owner gating is
// in place before a real flow lands.
type Inviter interface {
	Invite(ctx context.Context, orgID, invitedByUserID uuid.UUID, email string) error
}

// NoopInviter accepts every invitation without delivering or recording
// anything.
type NoopInviter struct{}

// Invite is a no-op.
func (NoopInviter) Invite(ctx context.Context, orgID, invitedByUserID uuid.UUID, email string) error {
	return nil
}

// AuditPublisher records audit events asynchronously. May be nil.
type AuditPublisher interface {
	Publish(ctx context.Context, payload queue.AuditEventPayload)
}

// Service implements the organization lifecycle: creation with the founding
// owner membership, updates, owner-gated deletion, member listing, and the
// invitation placeholder.
type Service struct {
	directory   Directory
	memberships MembershipStore
	guard       *Guard
	inviter     Inviter
	audit       AuditPublisher
	logger      *zap.Logger
}

// NewService creates an organization lifecycle service. audit may be nil.
func NewService(directory Directory, memberships MembershipStore, guard *Guard, inviter Inviter, audit AuditPublisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if inviter == nil {
		inviter = NoopInviter{}
	}
	return &Service{
		directory:   directory,
		memberships: memberships,
		guard:       guard,
		inviter:     inviter,
		audit:       audit,
		logger:      logger,
	}
}

// CreateInput is the input for Create.
type CreateInput struct {
	Name string
	Slug string
}

// Create validates the slug, creates the organization and the creator's
// OWNER/ACTIVE membership. Both writes succeed before the operation reports
// success.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 255 {
		return nil, apperr.Validation(map[string]string{"name": "name must be 1-255 characters"})
	}
	slug := strings.TrimSpace(input.Slug)
	if !slugRegex.MatchString(slug) {
		return nil, apperr.Validation(map[string]string{"slug": "slug must be 2-64 chars, lowercase letters, numbers, hyphens only"})
	}

	existing, err := s.directory.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation(map[string]string{"slug": "slug already taken"})
	}

	org := &models.Organization{
		Name:            name,
		Slug:            slug,
		Plan:            models.PlanFree,
		OwnerUserID:     &userID,
		CreatedByUserID: userID,
	}
	if err := s.directory.CreateWithOwner(ctx, org); err != nil {
		return nil, err
	}

	s.publishAudit(ctx, userID, &org.ID, "organization.created", "organization "+org.Slug+" created", map[string]string{
		"slug": org.Slug,
	})
	s.logger.Info("organization created",
		zap.String("organization_id", org.ID.String()),
		zap.String("slug", org.Slug),
		zap.String("created_by", userID.String()))
	return org, nil
}

// UpdateInput is the input for Update. Nil fields are left unchanged.
type UpdateInput struct {
	Name *string
	Plan *models.Plan
}

// Update changes name and/or plan. No role check is enforced at this layer.
func (s *Service) Update(ctx context.Context, orgID uuid.UUID, input UpdateInput) (*models.Organization, error) {
	org, err := s.directory.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, apperr.Validation(map[string]string{"organization": "not found"})
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 255 {
			return nil, apperr.Validation(map[string]string{"name": "name must be 1-255 characters"})
		}
		org.Name = name
	}
	if input.Plan != nil {
		if !models.ValidPlan(*input.Plan) {
			return nil, apperr.Validation(map[string]string{"plan": "unknown plan"})
		}
		org.Plan = *input.Plan
	}

	if err := s.directory.Save(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Delete removes an organization. Owner-only: deletion is irreversible and
// must not be delegable to admins. A delete that finds nothing to remove is
// reported the same way as an organization that never existed.
func (s *Service) Delete(ctx context.Context, userID, orgID uuid.UUID) error {
	if _, err := s.guard.RequireRole(ctx, userID, orgID, models.RoleOwner); err != nil {
		return err
	}

	deleted, err := s.directory.DeleteByID(ctx, orgID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.Validation(map[string]string{"organization": "not found"})
	}

	s.publishAudit(ctx, userID, nil, "organization.deleted", "organization deleted", map[string]string{
		"organization_id": orgID.String(),
	})
	s.logger.Info("organization deleted",
		zap.String("organization_id", orgID.String()),
		zap.String("deleted_by", userID.String()))
	return nil
}

// GetForUser returns a single organization, gated on any ACTIVE membership.
func (s *Service) GetForUser(ctx context.Context, userID, orgID uuid.UUID) (*models.Organization, error) {
	if _, err := s.guard.RequireMember(ctx, userID, orgID); err != nil {
		return nil, err
	}
	org, err := s.directory.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, apperr.Validation(map[string]string{"organization": "not found"})
	}
	return org, nil
}

// Members returns the organization's ACTIVE members ordered by join time
// ascending, gated on any ACTIVE membership.
func (s *Service) Members(ctx context.Context, userID, orgID uuid.UUID) ([]models.Member, error) {
	if _, err := s.guard.RequireMember(ctx, userID, orgID); err != nil {
		return nil, err
	}
	return s.memberships.ActiveMembersForOrg(ctx, orgID)
}

// ListForUser returns the caller's organizations with roles.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.OrganizationSummary, error) {
	return s.memberships.SummariesForUser(ctx, userID)
}

// ListAll returns every organization.
func (s *Service) ListAll(ctx context.Context) ([]models.Organization, error) {
	return s.directory.ListAll(ctx)
}

// Invite reserves the authorization contract for a future invitation flow:
// admin-or-owner gating is enforced, then the inviter (a no-op today) takes
// over. No membership record is created.
func (s *Service) Invite(ctx context.Context, userID, orgID uuid.UUID, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation(map[string]string{"email": "email is required"})
	}
	if _, err := s.guard.RequireRole(ctx, userID, orgID, models.RoleAdmin); err != nil {
		return err
	}
	return s.inviter.Invite(ctx, orgID, userID, email)
}

func (s *Service) publishAudit(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID, event, message string, context map[string]string) {
	if s.audit == nil {
		return
	}
	s.audit.Publish(ctx, queue.AuditEventPayload{
		UserID:         userID,
		OrganizationID: orgID,
		Event:          event,
		Message:        message,
		Context:        context,
	})
}
