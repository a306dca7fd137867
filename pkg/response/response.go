package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forgecloud/backend/pkg/apperr"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// Error maps a service error to its HTTP representation. Classified errors
// (apperr.Error) carry their own status; anything else is a 500 with a
// generic message so internal failures never leak details to clients.
func Error(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		Internal(c, "internal server error")
		return
	}
	body := Body{Success: false, Error: e.Message, Details: e.Details}
	switch e.Kind {
	case apperr.KindAuth:
		c.JSON(http.StatusUnauthorized, body)
	case apperr.KindForbidden:
		c.JSON(http.StatusForbidden, body)
	case apperr.KindValidation:
		c.JSON(http.StatusBadRequest, body)
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, body)
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}
