package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/infrastructure/auth"
	"github.com/synexa/sis/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2024, time.February, 1, 9, 30, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

type stubValidator struct {
	principal *auth.Principal
	err       error
	tokens    []string
}

func (v *stubValidator) Validate(token string) (*auth.Principal, error) {
	v.tokens = append(v.tokens, token)
	return v.principal, v.err
}

func principal(role finance.Role) *auth.Principal {
	return &auth.Principal{
		TenantID:     uuid.New(),
		UserID:       uuid.New(),
		Username:     "maria",
		Role:         role,
		AcademicYear: "2023/2024",
	}
}

// withCaller injects a RequestContext the way JWTAuth does
func withCaller(rc finance.RequestContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(RequestContextKey, rc)
		c.Next()
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return *resp.Error
}
