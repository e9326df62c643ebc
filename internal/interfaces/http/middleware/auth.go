package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	appfinance "github.com/synexa/sis/internal/application/finance"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/infrastructure/auth"
	"github.com/synexa/sis/internal/infrastructure/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Gin context keys set by JWTAuth
const (
	PrincipalKey      = "auth_principal"
	RequestContextKey = "finance_request_context"
	BearerPrefix      = "Bearer "
)

// TokenValidator turns a bearer token into a caller
type TokenValidator interface {
	Validate(token string) (*auth.Principal, error)
}

// JWTAuthConfig holds JWTAuth dependencies
type JWTAuthConfig struct {
	Validator TokenValidator
	Clock     appfinance.Clock
	Logger    *zap.Logger
}

// JWTAuth authenticates the bearer token and stores the caller's
// finance.RequestContext, stamped with the request's current time
func JWTAuth(cfg JWTAuthConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, BearerPrefix) || strings.TrimSpace(header[len(BearerPrefix):]) == "" {
			abortWithError(c, shared.CodeUnauthorized, shared.ErrUnauthorized.Message, nil)
			return
		}

		principal, err := cfg.Validator.Validate(strings.TrimSpace(header[len(BearerPrefix):]))
		if err != nil {
			logger.For(c.Request.Context(), cfg.Logger).Warn("JWT authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			message := shared.ErrUnauthorized.Message
			if errors.Is(err, auth.ErrExpiredToken) {
				message = "A sessão expirou, inicie sessão novamente"
			}
			abortWithError(c, shared.CodeUnauthorized, message, nil)
			return
		}

		rc := finance.RequestContext{
			TenantID:     principal.TenantID,
			UserID:       principal.UserID,
			Role:         principal.Role,
			Now:          cfg.Clock.Now(),
			AcademicYear: principal.AcademicYear,
		}
		c.Set(PrincipalKey, principal)
		c.Set(RequestContextKey, rc)

		ctx := logger.WithCaller(c.Request.Context(), principal.TenantID, principal.UserID)
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(
				attribute.String("tenant.id", principal.TenantID.String()),
				attribute.String("user.id", principal.UserID.String()),
				attribute.String("user.role", string(principal.Role)),
			)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetRequestContext returns the caller stored by JWTAuth
func GetRequestContext(c *gin.Context) (finance.RequestContext, bool) {
	v, ok := c.Get(RequestContextKey)
	if !ok {
		return finance.RequestContext{}, false
	}
	rc, ok := v.(finance.RequestContext)
	return rc, ok
}

// GetPrincipal returns the validated token subject
func GetPrincipal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

// RequireRoles lets the request through only for callers holding one of
// roles. Services check roles again; this rejects early and uniformly.
func RequireRoles(roles ...finance.Role) gin.HandlerFunc {
	allowed := finance.RoleStrings(roles)
	return func(c *gin.Context) {
		rc, ok := GetRequestContext(c)
		if !ok {
			abortWithError(c, shared.CodeUnauthorized, shared.ErrUnauthorized.Message, nil)
			return
		}
		if !rc.HasAnyRole(roles...) {
			abortWithError(c, shared.CodeForbidden, shared.ErrForbidden.Message, map[string]any{
				"role":     string(rc.Role),
				"required": allowed,
			})
			return
		}
		c.Next()
	}
}
