// Package handler exposes the billing services over HTTP.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfinance "github.com/synexa/sis/internal/application/finance"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/infrastructure/logger"
	"github.com/synexa/sis/internal/interfaces/http/dto"
	"github.com/synexa/sis/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

const (
	defaultPageSize = shared.DefaultPageSize
	maxPageSize     = shared.MaxPageSize
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Page sends a paginated 200 built with dto.NewPageResponse
func (h *BaseHandler) Page(c *gin.Context, resp dto.Response) {
	c.JSON(http.StatusOK, resp)
}

// Error sends an error envelope with the status implied by code
func (h *BaseHandler) Error(c *gin.Context, code, message string, details map[string]any) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, middleware.GetRequestID(c), details))
}

// BadRequest sends a 400 for input that could not be parsed
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message, nil)
}

// InvalidField sends a VALIDATION_ERROR naming one field
func (h *BaseHandler) InvalidField(c *gin.Context, field, message string) {
	h.Error(c, shared.CodeValidation, message, map[string]any{"field": field})
}

// BindError reports a ShouldBind failure: per-field details for validation
// failures, a plain 400 for malformed bodies
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); len(details) > 0 {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(shared.ErrInvalidInput.Message, middleware.GetRequestID(c), details))
		return
	}
	h.BadRequest(c, "Pedido mal formado: "+err.Error())
}

// HandleError maps service errors to responses. Domain errors keep their
// code, message and details; anything else is logged and hidden behind 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, domainErr.Code, domainErr.Message, domainErr.Details)
		return
	}
	logger.L(c.Request.Context()).Error("Request failed",
		zap.String("route", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	h.Error(c, dto.ErrCodeInternal, "Ocorreu um erro inesperado", nil)
}

// requestContext returns the caller set by the auth middleware or writes 401
func (h *BaseHandler) requestContext(c *gin.Context) (finance.RequestContext, bool) {
	rc, ok := middleware.GetRequestContext(c)
	if !ok {
		h.Error(c, shared.CodeUnauthorized, shared.ErrUnauthorized.Message, nil)
		return finance.RequestContext{}, false
	}
	return rc, true
}

// pathID parses the :id parameter or writes 400
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.InvalidField(c, "id", "Identificador inválido")
		return uuid.Nil, false
	}
	return id, true
}

// parseDate parses an optional YYYY-MM-DD value. Empty yields the zero time.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(appfinance.DateLayout, value)
}

// optionalUUID parses an optional uuid string
func optionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// optionalInt parses an optional integer string
func optionalInt(value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// pageParams normalises page and page_size
func pageParams(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
