package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/internal/workspace"
	"github.com/forgecloud/backend/pkg/apperr"
	"github.com/forgecloud/backend/pkg/queue"
	"github.com/forgecloud/backend/pkg/utils"
)

// UserStore is the user persistence the service depends on.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash string, fullName *string) (*models.User, error)
	List(ctx context.Context) ([]models.UserPublic, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName, avatarURL *string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// SummaryStore lists the organizations a user belongs to.
type SummaryStore interface {
	SummariesForUser(ctx context.Context, userID uuid.UUID) ([]models.OrganizationSummary, error)
}

// AuditPublisher emits audit events for later processing. Publishing never
// fails the request.
type AuditPublisher interface {
	Publish(ctx context.Context, payload queue.AuditEventPayload)
}

// Session is the session snapshot returned after login and from GET /auth/me.
type Session struct {
	User                 models.UserPublic            `json:"user"`
	Organizations        []models.OrganizationSummary `json:"organizations"`
	ActiveOrganizationID *uuid.UUID                   `json:"active_organization_id"`
}

// Service implements registration, login, and the session snapshot.
type Service struct {
	users     UserStore
	summaries SummaryStore
	resolver  *workspace.Resolver
	jwt       *JWTService
	audit     AuditPublisher
	logger    *zap.Logger
}

// NewService creates an auth service.
func NewService(users UserStore, summaries SummaryStore, resolver *workspace.Resolver, jwt *JWTService, audit AuditPublisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, summaries: summaries, resolver: resolver, jwt: jwt, audit: audit, logger: logger}
}

// Register creates a user and returns it with a signed token.
func (s *Service) Register(ctx context.Context, email, password string, fullName *string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", apperr.Conflict("email already registered")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.Create(ctx, email, hash, fullName)
	if err != nil {
		return nil, "", err
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

// Login verifies credentials and returns the user with a signed token.
// Unknown email, deactivated account, and wrong password are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !user.IsActive || !utils.CheckPassword(password, user.Password) {
		return nil, "", apperr.Auth("invalid email or password")
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("update last login", zap.Error(err))
	}
	return user, token, nil
}

// Snapshot builds the session snapshot: the user, their organizations with
// roles, and the resolved active workspace. A user with no memberships gets
// a nil active workspace rather than an error.
func (s *Service) Snapshot(ctx context.Context, userID uuid.UUID) (*Session, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	orgs, err := s.summaries.SummariesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var active *uuid.UUID
	orgID, err := s.resolver.Resolve(ctx, userID)
	switch {
	case err == nil:
		active = &orgID
	case apperr.IsKind(err, apperr.KindValidation):
		// no memberships; the snapshot reports that as a nil workspace
	default:
		return nil, err
	}

	return &Session{User: user.ToPublic(), Organizations: orgs, ActiveOrganizationID: active}, nil
}

// UpdateProfile changes full name and/or avatar URL.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, avatarURL *string) (*models.User, error) {
	user, err := s.users.UpdateProfile(ctx, userID, fullName, avatarURL)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// ListUsers returns all platform users.
func (s *Service) ListUsers(ctx context.Context) ([]models.UserPublic, error) {
	return s.users.List(ctx)
}

// SetActiveOrganization switches (or clears) the caller's active workspace.
func (s *Service) SetActiveOrganization(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID) error {
	if err := s.resolver.SetActive(ctx, userID, orgID); err != nil {
		return err
	}
	if s.audit != nil {
		payload := queue.AuditEventPayload{
			UserID:         userID,
			OrganizationID: orgID,
			Event:          "workspace.switched",
			Message:        "Active workspace switched",
		}
		if orgID == nil {
			payload.Message = "Active workspace cleared"
		}
		s.audit.Publish(ctx, payload)
	}
	return nil
}
