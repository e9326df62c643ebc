// Package middleware provides the gin middleware of the billing API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/synexa/sis/internal/interfaces/http/dto"
)

// RequestIDKey is the header and gin context key carrying the request id
const RequestIDKey = "X-Request-ID"

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

// abortWithError ends the chain with the standard error envelope
func abortWithError(c *gin.Context, code, message string, details map[string]any) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, GetRequestID(c), details))
}

// AbortInternal answers with the generic 500 envelope, for panic recovery
func AbortInternal(c *gin.Context) {
	abortWithError(c, dto.ErrCodeInternal, "Ocorreu um erro inesperado", nil)
}
