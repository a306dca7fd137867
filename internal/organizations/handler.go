package organizations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forgecloud/backend/internal/middleware"
	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/pkg/response"
)

// Handler handles organization HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an organizations handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateOrganizationRequest is the body for POST /organizations.
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// UpdateOrganizationRequest is the body for PATCH /organizations/:id.
type UpdateOrganizationRequest struct {
	Name *string      `json:"name"`
	Plan *models.Plan `json:"plan"`
}

// InviteRequest is the body for POST /organizations/:id/invitations.
type InviteRequest struct {
	Email string `json:"email" binding:"required"`
}

// CreateOrganization handles POST /organizations. Creates the org and adds
// the current user as OWNER.
func (h *Handler) CreateOrganization(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body CreateOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name and slug required")
		return
	}
	org, err := h.svc.Create(c.Request.Context(), userID, CreateInput{Name: body.Name, Slug: body.Slug})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, org)
}

// ListMyOrganizations handles GET /organizations. Returns orgs the current
// user is an active member of, with their role in each.
func (h *Handler) ListMyOrganizations(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	orgs, err := h.svc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, orgs)
}

// ListAllOrganizations handles GET /organizations/all. Returns the full
// directory regardless of membership.
func (h *Handler) ListAllOrganizations(c *gin.Context) {
	orgs, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, orgs)
}

// GetOrganization handles GET /organizations/:id.
func (h *Handler) GetOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	org, err := h.svc.GetForUser(c.Request.Context(), userID, orgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, org)
}

// UpdateOrganization handles PATCH /organizations/:id.
func (h *Handler) UpdateOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	var body UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	org, err := h.svc.Update(c.Request.Context(), orgID, UpdateInput{Name: body.Name, Plan: body.Plan})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, org)
}

// DeleteOrganization handles DELETE /organizations/:id. Owner only.
func (h *Handler) DeleteOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.svc.Delete(c.Request.Context(), userID, orgID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMembers handles GET /organizations/:id/members. Requires an active
// membership in the organization.
func (h *Handler) ListMembers(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	members, err := h.svc.Members(c.Request.Context(), userID, orgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, members)
}

// Invite handles POST /organizations/:id/invitations. Admin or owner only.
func (h *Handler) Invite(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	var body InviteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "email required")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.svc.Invite(c.Request.Context(), userID, orgID, body.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"status": "accepted"})
}
