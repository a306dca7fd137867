package auth

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/pkg/response"
	"github.com/forgecloud/backend/pkg/storage"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName *string `json:"full_name"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// UpdateMeRequest is the body for PATCH /auth/me.
type UpdateMeRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// SetActiveOrganizationRequest is the body for PUT /auth/active-organization.
// A null organization_id clears the active workspace.
type SetActiveOrganizationRequest struct {
	OrganizationID *uuid.UUID `json:"organization_id"`
}

// AvatarUploadURLRequest is the body for POST /auth/avatar/upload-url.
type AvatarUploadURLRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"required,gt=0"`
}

// contextUserID is the gin context key the JWT middleware stores the verified
// caller id under. Spelled out here because middleware itself depends on this
// package for token validation.
const contextUserID = "user_id"

// Handler handles auth HTTP endpoints.
type Handler struct {
	svc    *Service
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an auth handler. s3 may be nil when avatar storage is
// not configured.
func NewHandler(svc *Service, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, s3: s3, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, token, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Body{Success: true, Data: TokenResponse{Token: token, User: user.ToPublic()}})
}

// Me handles GET /auth/me. Returns the session snapshot with the resolved
// active workspace.
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet(contextUserID).(uuid.UUID)
	session, err := h.svc.Snapshot(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// UpdateMe handles PATCH /auth/me.
func (h *Handler) UpdateMe(c *gin.Context) {
	userID := c.MustGet(contextUserID).(uuid.UUID)
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), userID, req.FullName, req.AvatarURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user.ToPublic())
}

// SetActiveOrganization handles PUT /auth/active-organization.
func (h *Handler) SetActiveOrganization(c *gin.Context) {
	userID := c.MustGet(contextUserID).(uuid.UUID)
	var req SetActiveOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.SetActiveOrganization(c.Request.Context(), userID, req.OrganizationID); err != nil {
		response.Error(c, err)
		return
	}
	session, err := h.svc.Snapshot(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// List handles GET /users. Returns platform users for member pickers.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// GenerateAvatarUploadURL handles POST /auth/avatar/upload-url. Returns a
// pre-signed PUT URL; the client uploads directly then saves the returned
// avatar_url via PATCH /auth/me.
func (h *Handler) GenerateAvatarUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "avatar storage not configured")
		return
	}
	userID := c.MustGet(contextUserID).(uuid.UUID)

	var req AvatarUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.FileSize > storage.MaxAvatarFileSize {
		response.BadRequest(c, "file size exceeds 5MB limit")
		return
	}
	ext, ok := storage.AllowedAvatarTypes[req.ContentType]
	if !ok {
		response.BadRequest(c, "invalid file type: only jpg, png, webp allowed")
		return
	}

	key := storage.AvatarKey(userID.String(), ext)
	expire := h.s3.PresignExpire()
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), h.s3.AvatarsBucket(), key, req.ContentType, expire)
	if err != nil {
		h.logger.Error("generate presigned upload URL failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "avatar upload unavailable")
		return
	}

	response.OK(c, gin.H{
		"upload_url": url,
		"avatar_url": h.s3.ObjectURL(h.s3.AvatarsBucket(), key),
		"expires_in": int(expire.Seconds()),
	})
}

// UploadAvatar handles POST /auth/avatar (multipart). Server-side upload for
// clients that cannot use presigned URLs, then saves the avatar_url.
func (h *Handler) UploadAvatar(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "avatar storage not configured")
		return
	}
	userID := c.MustGet(contextUserID).(uuid.UUID)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > storage.MaxAvatarFileSize {
		response.BadRequest(c, "file size exceeds 5MB limit")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	ext, ok := storage.AllowedAvatarTypes[contentType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(fileHeader.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
			response.BadRequest(c, "invalid file type: only jpg, png, webp allowed")
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer file.Close()

	key := storage.AvatarKey(userID.String(), ext)
	url, err := h.s3.Upload(c.Request.Context(), h.s3.AvatarsBucket(), key, contentType, file)
	if err != nil {
		h.logger.Error("avatar upload failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "avatar upload failed")
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), userID, nil, &url)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user.ToPublic())
}
