package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	appfinance "github.com/synexa/sis/internal/application/finance"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
)

func planRouter(rc *finance.RequestContext, plans *mockPlanService) *gin.Engine {
	h := NewPlanHandler(plans)
	return newTestRouter(rc, func(r gin.IRoutes) {
		r.POST("/payment-plans", h.CreatePlan)
		r.GET("/payment-plans", h.ListPlans)
		r.GET("/payment-plans/:id", h.GetPlan)
		r.PUT("/payment-plans/:id", h.UpdatePlan)
		r.POST("/payment-plans/:id/activate", h.ActivatePlan)
		r.POST("/payment-plans/:id/deactivate", h.DeactivatePlan)
		r.POST("/payment-plans/:id/generate", h.GenerateInvoices)
	})
}

func TestPlanHandler_CreateAndUpdate(t *testing.T) {
	rc := testCaller(finance.RoleAdmin)
	classID := uuid.New()
	body := map[string]any{
		"name":                "Propinas 10.ª classe",
		"academic_year":       "2023/2024",
		"class_id":            classID.String(),
		"monthly_amount":      "25000",
		"due_day":             10,
		"late_fee_percent":    "10",
		"daily_interest_rate": "0.1",
	}
	matches := mock.MatchedBy(func(in appfinance.PlanInput) bool {
		return in.Name == "Propinas 10.ª classe" && in.ClassID != nil && *in.ClassID == classID &&
			in.CourseID == nil && in.MonthlyAmount.Equal(decimal.NewFromInt(25000)) && in.DueDay == 10 &&
			in.StartMonth == 0 && in.Months == 0
	})

	plans := new(mockPlanService)
	r := planRouter(&rc, plans)
	plans.On("CreatePlan", mock.Anything, rc, matches).Return(&appfinance.PlanResponse{ID: uuid.New(), Active: true}, nil).Once()
	id := uuid.New()
	plans.On("UpdatePlan", mock.Anything, rc, id, matches).Return(&appfinance.PlanResponse{ID: id}, nil).Once()

	assert.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/payment-plans", body).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPut, "/payment-plans/"+id.String(), body).Code)
	plans.AssertExpectations(t)

	t.Run("due day above 28 is rejected", func(t *testing.T) {
		invalid := map[string]any{}
		for k, v := range body {
			invalid[k] = v
		}
		invalid["due_day"] = 31
		w := doJSON(r, http.MethodPost, "/payment-plans", invalid)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, shared.CodeValidation, decodeError(t, w).Code)
	})
}

func TestPlanHandler_ListPlans(t *testing.T) {
	rc := testCaller(finance.RoleSecretaria)
	plans := new(mockPlanService)
	r := planRouter(&rc, plans)

	active := false
	page := shared.NewPaginated([]appfinance.PlanResponse{{Name: "Transporte"}}, 1, 1, 20)
	plans.On("ListPlans", mock.Anything, rc, appfinance.PlanListQuery{
		AcademicYear: "2023/2024",
		Active:       &active,
		Page:         1,
		PageSize:     20,
	}).Return(&page, nil).Once()

	w := doJSON(r, http.MethodGet, "/payment-plans?academic_year=2023/2024&active=false", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), decodeResponse(t, w).Meta.Total)
	plans.AssertExpectations(t)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/payment-plans?active=maybe", nil).Code)
}

func TestPlanHandler_Toggle(t *testing.T) {
	rc := testCaller(finance.RoleFinanceiro)
	plans := new(mockPlanService)
	r := planRouter(&rc, plans)
	id := uuid.New()

	plans.On("DeactivatePlan", mock.Anything, rc, id).Return(&appfinance.PlanResponse{ID: id, Active: false}, nil).Once()
	plans.On("ActivatePlan", mock.Anything, rc, id).Return(nil, finance.ErrPlanNotFound).Once()
	plans.On("GetPlan", mock.Anything, rc, id).Return(&appfinance.PlanResponse{ID: id}, nil).Once()

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/payment-plans/"+id.String()+"/deactivate", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodPost, "/payment-plans/"+id.String()+"/activate", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/payment-plans/"+id.String(), nil).Code)
	plans.AssertExpectations(t)
}

func TestPlanHandler_GenerateInvoices(t *testing.T) {
	rc := testCaller(finance.RoleSecretaria)
	id := uuid.New()
	s1, s2, classID := uuid.New(), uuid.New(), uuid.New()

	t.Run("passes students and class through", func(t *testing.T) {
		plans := new(mockPlanService)
		r := planRouter(&rc, plans)
		plans.On("GenerateInvoices", mock.Anything, rc, appfinance.GenerateInvoicesInput{
			PlanID:     id,
			StudentIDs: []uuid.UUID{s1, s2},
			ClassID:    &classID,
		}).Return(&appfinance.GenerateInvoicesResult{PlanID: id, Students: 2, Created: 18, Skipped: 2}, nil).Once()

		w := doJSON(r, http.MethodPost, "/payment-plans/"+id.String()+"/generate", map[string]any{
			"student_ids": []string{s1.String(), s2.String()},
			"class_id":    classID.String(),
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.EqualValues(t, 18, data["created"])
		assert.EqualValues(t, 2, data["skipped"])
		plans.AssertExpectations(t)
	})

	t.Run("inactive plan", func(t *testing.T) {
		plans := new(mockPlanService)
		r := planRouter(&rc, plans)
		plans.On("GenerateInvoices", mock.Anything, rc, mock.Anything).Return(nil, finance.ErrPlanInactive).Once()

		w := doJSON(r, http.MethodPost, "/payment-plans/"+id.String()+"/generate", map[string]any{"class_id": classID.String()})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, finance.CodePlanInactive, decodeError(t, w).Code)
	})

	t.Run("invalid student id", func(t *testing.T) {
		r := planRouter(&rc, new(mockPlanService))
		w := doJSON(r, http.MethodPost, "/payment-plans/"+id.String()+"/generate", map[string]any{"student_ids": []string{"abc"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
