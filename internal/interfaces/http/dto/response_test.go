package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeInvalidState, http.StatusUnprocessableEntity},
		{finance.CodeAlreadyCancelled, http.StatusUnprocessableEntity},
		{finance.CodeOverpayment, http.StatusUnprocessableEntity},
		{finance.CodePlanInactive, http.StatusUnprocessableEntity},
		{shared.CodeConcurrencyConflict, http.StatusConflict},
		{shared.CodeDuplicateRequest, http.StatusConflict},
		{shared.CodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{shared.CodeForbidden, http.StatusForbidden},
		{ErrCodeStorageUnavailable, http.StatusServiceUnavailable},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponse_JSON(t *testing.T) {
	resp := NewErrorResponse(finance.CodeOverpayment, "O valor excede o saldo em dívida", "req-1",
		map[string]any{"balance": "6000.00"})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "OVERPAYMENT",
			"message": "O valor excede o saldo em dívida",
			"request_id": "req-1",
			"details": {"balance": "6000.00"}
		}
	}`, string(raw))
}

func TestNewPageResponse(t *testing.T) {
	page := shared.NewPaginated([]string{"a", "b"}, 5, 1, 2)
	resp := NewPageResponse(&page)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"a", "b"}, resp.Data)
	assert.Equal(t, &Meta{Total: 5, Page: 1, PageSize: 2, TotalPages: 3}, resp.Meta)

	empty := shared.NewPaginated[string](nil, 0, 1, 20)
	raw, err := json.Marshal(NewPageResponse(&empty))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[]`)
}
