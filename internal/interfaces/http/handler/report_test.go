package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	appfinance "github.com/synexa/sis/internal/application/finance"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
)

func reportRouter(rc *finance.RequestContext, reports *mockReportService) *gin.Engine {
	h := NewReportHandler(reports)
	return newTestRouter(rc, func(r gin.IRoutes) {
		r.GET("/financial/defaulters", h.ListDefaulters)
		r.POST("/financial/defaulters/export", h.ExportDefaulters)
		r.GET("/financial/summary", h.RevenueSummary)
	})
}

func TestReportHandler_ListDefaulters(t *testing.T) {
	rc := testCaller(finance.RoleDiretor)
	reports := new(mockReportService)
	r := reportRouter(&rc, reports)

	asOf := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	reports.On("ListDefaulters", mock.Anything, rc, asOf).Return(&appfinance.DefaulterListResponse{AsOf: "2024-03-01", Count: 2}, nil).Once()
	reports.On("ListDefaulters", mock.Anything, rc, time.Time{}).Return(&appfinance.DefaulterListResponse{}, nil).Once()

	w := doJSON(r, http.MethodGet, "/financial/defaulters?as_of=2024-03-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeResponse(t, w).Data.(map[string]any)["count"])

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/financial/defaulters", nil).Code)

	bad := doJSON(r, http.MethodGet, "/financial/defaulters?as_of=01-03-2024", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "as_of", decodeError(t, bad).Details["field"])
	reports.AssertExpectations(t)
}

func TestReportHandler_RevenueSummary(t *testing.T) {
	rc := testCaller(finance.RoleAdmin)
	reports := new(mockReportService)
	r := reportRouter(&rc, reports)

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	reports.On("RevenueSummary", mock.Anything, rc, from, to).Return(&appfinance.RevenueSummaryResponse{CollectionRate: "0.75"}, nil).Once()

	w := doJSON(r, http.MethodGet, "/financial/summary?from=2024-01-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0.75", decodeResponse(t, w).Data.(map[string]any)["collection_rate"])

	inverted := doJSON(r, http.MethodGet, "/financial/summary?from=2024-03-31&to=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, inverted.Code)
	assert.Equal(t, shared.CodeValidation, decodeError(t, inverted).Code)
	reports.AssertExpectations(t)
}

func TestReportHandler_ExportDefaulters(t *testing.T) {
	rc := testCaller(finance.RoleFinanceiro)

	t.Run("returns the link", func(t *testing.T) {
		reports := new(mockReportService)
		r := reportRouter(&rc, reports)
		reports.On("ExportDefaulters", mock.Anything, rc, time.Time{}).
			Return(&appfinance.ExportResult{Key: "reports/x.csv", URL: "http://minio/x", Rows: 3}, nil).Once()

		w := doJSON(r, http.MethodPost, "/financial/defaulters/export", nil)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "http://minio/x", decodeResponse(t, w).Data.(map[string]any)["url"])
	})

	t.Run("storage not configured", func(t *testing.T) {
		reports := new(mockReportService)
		r := reportRouter(&rc, reports)
		reports.On("ExportDefaulters", mock.Anything, rc, mock.Anything).Return(nil, appfinance.ErrStorageUnavailable).Once()

		w := doJSON(r, http.MethodPost, "/financial/defaulters/export", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, appfinance.CodeStorageUnavailable, decodeError(t, w).Code)
	})
}
