package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/interfaces/http/dto"
)

func TestRateLimiter(t *testing.T) {
	now := testNow
	limiter := NewRateLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.Equal(t, 0, limiter.Remaining("a"))

	assert.True(t, limiter.Allow("b"), "keys are independent")
	assert.Equal(t, 2, limiter.Remaining("c"))

	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow("a"), "new window")
	assert.Equal(t, 1, limiter.Remaining("a"))

	now = now.Add(5 * time.Minute)
	limiter.Allow("a")
	limiter.mu.Lock()
	_, stale := limiter.clients["b"]
	limiter.mu.Unlock()
	assert.False(t, stale, "old windows are evicted")
}

func TestRateLimit_PerTenant(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	limiter.now = func() time.Time { return testNow }

	tenantA := finance.RequestContext{TenantID: uuid.New()}
	tenantB := finance.RequestContext{TenantID: uuid.New()}
	serve := func(rc finance.RequestContext) *httptest.ResponseRecorder {
		r := gin.New()
		r.Use(withCaller(rc), RateLimit(limiter))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		return w
	}

	first := serve(tenantA)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	limited := serve(tenantA)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrCodeRateLimited, decodeError(t, limited).Code)

	assert.Equal(t, http.StatusOK, serve(tenantB).Code)
}
