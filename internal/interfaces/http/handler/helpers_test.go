package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/interfaces/http/dto"
	"github.com/synexa/sis/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := middleware.RegisterValidations(v); err != nil {
			panic(err)
		}
	}
}

func testCaller(role finance.Role) finance.RequestContext {
	return finance.RequestContext{
		TenantID:     uuid.New(),
		UserID:       uuid.New(),
		Role:         role,
		AcademicYear: "2023/2024",
	}
}

// newTestRouter mounts register under a router that injects rc the way
// JWTAuth would
func newTestRouter(rc *finance.RequestContext, register func(r gin.IRoutes)) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	if rc != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.RequestContextKey, *rc)
			c.Next()
		})
	}
	register(r)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	resp := decodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return *resp.Error
}
