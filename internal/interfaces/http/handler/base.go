package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/bidhouse/backend/internal/interfaces/http/dto"
	"github.com/bidhouse/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var errNoCaller = errors.New("user ID not found in context")

// BaseHandler carries the envelope helpers shared by every handler
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return middleware.GetRequestID(c)
}

// getUserID reads the caller ID stored by the JWT middleware
func getUserID(c *gin.Context) (uuid.UUID, error) {
	raw := middleware.GetJWTUserID(c)
	if raw == "" {
		return uuid.Nil, errNoCaller
	}
	return uuid.Parse(raw)
}

// optionalUserID returns the caller when a valid token was presented
func optionalUserID(c *gin.Context) *uuid.UUID {
	if id, err := getUserID(c); err == nil {
		return &id
	}
	return nil
}

// parseUUIDParam parses a path parameter, writing a 400 on failure
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// currentUser resolves the authenticated caller, writing a 401 on failure
func (h *BaseHandler) currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BaseHandler) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// pageParams reads page and page_size. Bad values fall back to the
// defaults and page_size is capped at 100.
func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.Query("page_size"))
	switch {
	case err != nil || size < 1:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}
	return page, size
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes one page with its meta block; a nil page encodes as []
func Paginated[T any](h *BaseHandler, c *gin.Context, p shared.Paginated[T]) {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(items, p.Total, p.Page, p.PageSize))
}

func (h *BaseHandler) fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.fail(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.fail(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// HandleError writes the envelope for err. Domain errors keep their code and
// message; anything else is a 500 with a generic message. The error is
// attached to the context for the access log.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		h.fail(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
		return
	}
	code := dto.NormalizeErrorCode(domainErr.Code)
	h.fail(c, dto.DomainErrorStatus(code), code, domainErr.Message)
}
