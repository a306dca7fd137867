package sentinel

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forgecloud/backend/internal/middleware"
	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/pkg/response"
)

// Handler handles log source and log entry HTTP endpoints. All routes operate
// on the caller's active organization.
type Handler struct {
	svc *Service
}

// NewHandler creates a sentinel handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateSourceRequest is the body for POST /sentinel/sources.
type CreateSourceRequest struct {
	Name        string                `json:"name" binding:"required"`
	Type        *models.LogSourceType `json:"type"`
	ProjectID   *uuid.UUID            `json:"project_id"`
	Description *string               `json:"description"`
	Environment *string               `json:"environment"`
}

// IngestRequest is the body for POST /sentinel/logs.
type IngestRequest struct {
	SourceID  uuid.UUID        `json:"source_id" binding:"required"`
	Level     *models.LogLevel `json:"level"`
	Message   string           `json:"message" binding:"required"`
	Timestamp string           `json:"timestamp"`
	Context   json.RawMessage  `json:"context"`
	Metadata  json.RawMessage  `json:"metadata"`
}

// ListSources handles GET /sentinel/sources.
func (h *Handler) ListSources(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.ListSources(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// CreateSource handles POST /sentinel/sources.
func (h *Handler) CreateSource(c *gin.Context) {
	var req CreateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	src, err := h.svc.CreateSource(c.Request.Context(), userID, CreateSourceInput{
		Name:        req.Name,
		Type:        req.Type,
		ProjectID:   req.ProjectID,
		Description: req.Description,
		Environment: req.Environment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, src)
}

// Ingest handles POST /sentinel/logs.
func (h *Handler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "source_id and message required")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	entry, err := h.svc.Ingest(c.Request.Context(), userID, IngestInput{
		SourceID:  req.SourceID,
		Level:     req.Level,
		Message:   req.Message,
		Timestamp: req.Timestamp,
		Context:   req.Context,
		Metadata:  req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// ListLogs handles GET /sentinel/logs with optional source_id, level, limit,
// offset query params.
func (h *Handler) ListLogs(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var filter EntryFilter
	if raw := c.Query("source_id"); raw != "" {
		sourceID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid source_id")
			return
		}
		filter.SourceID = &sourceID
	}
	filter.Level = models.LogLevel(c.Query("level"))
	if raw := c.Query("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("offset"); raw != "" {
		filter.Offset, _ = strconv.Atoi(raw)
	}

	page, err := h.svc.ListLogs(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}
