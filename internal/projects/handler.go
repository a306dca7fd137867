package projects

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forgecloud/backend/internal/middleware"
	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/pkg/response"
)

// Handler handles project HTTP endpoints. All routes operate on the caller's
// active organization.
type Handler struct {
	svc *Service
}

// NewHandler creates a projects handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateProjectRequest is the body for POST /projects.
type CreateProjectRequest struct {
	Name        string                    `json:"name" binding:"required"`
	Key         string                    `json:"key" binding:"required"`
	Description *string                   `json:"description"`
	Visibility  *models.ProjectVisibility `json:"visibility"`
}

// UpdateProjectRequest is the body for PATCH /projects/:id.
type UpdateProjectRequest struct {
	Name        *string                   `json:"name"`
	Description *string                   `json:"description"`
	Status      *models.ProjectStatus     `json:"status"`
	Visibility  *models.ProjectVisibility `json:"visibility"`
}

// List handles GET /projects.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /projects/:id.
func (h *Handler) Get(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	p, err := h.svc.Get(c.Request.Context(), userID, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Create handles POST /projects.
func (h *Handler) Create(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name and key required")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	p, err := h.svc.Create(c.Request.Context(), userID, CreateInput{
		Name:        req.Name,
		Key:         req.Key,
		Description: req.Description,
		Visibility:  req.Visibility,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// Update handles PATCH /projects/:id.
func (h *Handler) Update(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	p, err := h.svc.Update(c.Request.Context(), userID, projectID, UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Visibility:  req.Visibility,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}
