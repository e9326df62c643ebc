package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appfinance "github.com/synexa/sis/internal/application/finance"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/interfaces/http/dto"
)

// PlanHandler handles payment plan endpoints
type PlanHandler struct {
	BaseHandler
	plans PlanService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(plans PlanService) *PlanHandler {
	return &PlanHandler{plans: plans}
}

// PlanRequest is the body of plan create and update
// @Description Recurring billing template for an academic year
type PlanRequest struct {
	Name              string          `json:"name" binding:"required,min=2,max=120" example:"Propinas 10.ª classe"`
	AcademicYear      string          `json:"academic_year" binding:"required,academic_year" example:"2023/2024"`
	CourseID          string          `json:"course_id" binding:"omitempty,uuid"`
	ClassID           string          `json:"class_id" binding:"omitempty,uuid"`
	InvoiceType       string          `json:"invoice_type" binding:"omitempty,oneof=TUITION MATERIAL UNIFORM ACTIVITY TRANSPORT FOOD FINE OTHER" example:"TUITION"`
	MonthlyAmount     decimal.Decimal `json:"monthly_amount" binding:"decimal_gt0" swaggertype:"string" example:"25000.00"`
	DueDay            int             `json:"due_day" binding:"required,min=1,max=28" example:"10"`
	LateFeePercent    decimal.Decimal `json:"late_fee_percent" binding:"decimal_gte0" swaggertype:"string" example:"10"`
	DailyInterestRate decimal.Decimal `json:"daily_interest_rate" binding:"decimal_gte0" swaggertype:"string" example:"0.1"`
	StartMonth        int             `json:"start_month" binding:"omitempty,min=1,max=12" example:"9"`
	Months            int             `json:"months" binding:"omitempty,min=1,max=12" example:"10"`
}

// GenerateInvoicesRequest is the body of POST /payment-plans/:id/generate
// @Description Students to bill: an explicit list, a class, or both
type GenerateInvoicesRequest struct {
	StudentIDs   []string `json:"student_ids" binding:"omitempty,max=1000,dive,uuid"`
	ClassID      string   `json:"class_id" binding:"omitempty,uuid"`
	AcademicYear string   `json:"academic_year" binding:"omitempty,academic_year" example:"2023/2024"`
}

// ListPlansQuery holds the query string of GET /payment-plans
type ListPlansQuery struct {
	AcademicYear string `form:"academic_year" binding:"omitempty,academic_year"`
	ClassID      string `form:"class_id" binding:"omitempty,uuid"`
	Active       string `form:"active" binding:"omitempty,oneof=true false"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1"`
}

func (r PlanRequest) toInput() appfinance.PlanInput {
	courseID, _ := optionalUUID(r.CourseID)
	classID, _ := optionalUUID(r.ClassID)
	return appfinance.PlanInput{
		Name:              strings.TrimSpace(r.Name),
		AcademicYear:      r.AcademicYear,
		CourseID:          courseID,
		ClassID:           classID,
		InvoiceType:       r.InvoiceType,
		MonthlyAmount:     r.MonthlyAmount,
		DueDay:            r.DueDay,
		LateFeePercent:    r.LateFeePercent,
		DailyInterestRate: r.DailyInterestRate,
		StartMonth:        r.StartMonth,
		Months:            r.Months,
	}
}

// CreatePlan godoc
// @Summary      Create payment plan
// @Tags         payment-plans
// @Accept       json
// @Produce      json
// @Param        request body PlanRequest true "Plan"
// @Success      201 {object} dto.Response{data=appfinance.PlanResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	plan, err := h.plans.CreatePlan(c.Request.Context(), rc, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, plan)
}

// UpdatePlan godoc
// @Summary      Update payment plan
// @Description  Changes apply to invoices generated afterwards
// @Tags         payment-plans
// @Accept       json
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Param        request body PlanRequest true "Plan"
// @Success      200 {object} dto.Response{data=appfinance.PlanResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-plans/{id} [put]
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	plan, err := h.plans.UpdatePlan(c.Request.Context(), rc, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// GetPlan godoc
// @Summary      Get payment plan
// @Tags         payment-plans
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfinance.PlanResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-plans/{id} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	plan, err := h.plans.GetPlan(c.Request.Context(), rc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// ListPlans godoc
// @Summary      List payment plans
// @Tags         payment-plans
// @Produce      json
// @Param        academic_year query string false "Academic year" example(2023/2024)
// @Param        class_id query string false "Class ID" format(uuid)
// @Param        active query boolean false "Only active or inactive plans"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]appfinance.PlanResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /payment-plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	var q ListPlansQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	classID, _ := optionalUUID(q.ClassID)
	var active *bool
	if q.Active != "" {
		v, _ := strconv.ParseBool(q.Active)
		active = &v
	}
	page, pageSize := pageParams(q.Page, q.PageSize)

	result, err := h.plans.ListPlans(c.Request.Context(), rc, appfinance.PlanListQuery{
		AcademicYear: q.AcademicYear,
		ClassID:      classID,
		Active:       active,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Page(c, dto.NewPageResponse(result))
}

// ActivatePlan godoc
// @Summary      Activate payment plan
// @Tags         payment-plans
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfinance.PlanResponse}
// @Security     BearerAuth
// @Router       /payment-plans/{id}/activate [post]
func (h *PlanHandler) ActivatePlan(c *gin.Context) {
	h.toggle(c, h.plans.ActivatePlan)
}

// DeactivatePlan godoc
// @Summary      Deactivate payment plan
// @Description  Inactive plans cannot generate invoices. Issued invoices are untouched.
// @Tags         payment-plans
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfinance.PlanResponse}
// @Security     BearerAuth
// @Router       /payment-plans/{id}/deactivate [post]
func (h *PlanHandler) DeactivatePlan(c *gin.Context) {
	h.toggle(c, h.plans.DeactivatePlan)
}

func (h *PlanHandler) toggle(c *gin.Context, fn func(ctx context.Context, rc finance.RequestContext, id uuid.UUID) (*appfinance.PlanResponse, error)) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	plan, err := fn(c.Request.Context(), rc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// GenerateInvoices godoc
// @Summary      Generate plan invoices
// @Description  Issue one invoice per student per plan month. Months already billed are skipped, so the call can be repeated safely.
// @Tags         payment-plans
// @Accept       json
// @Produce      json
// @Param        id path string true "Plan ID" format(uuid)
// @Param        request body GenerateInvoicesRequest true "Students"
// @Success      201 {object} dto.Response{data=appfinance.GenerateInvoicesResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payment-plans/{id}/generate [post]
func (h *PlanHandler) GenerateInvoices(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req GenerateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	studentIDs := make([]uuid.UUID, 0, len(req.StudentIDs))
	for _, s := range req.StudentIDs {
		studentIDs = append(studentIDs, uuid.MustParse(s))
	}
	classID, _ := optionalUUID(req.ClassID)

	result, err := h.plans.GenerateInvoices(c.Request.Context(), rc, appfinance.GenerateInvoicesInput{
		PlanID:       id,
		StudentIDs:   studentIDs,
		ClassID:      classID,
		AcademicYear: req.AcademicYear,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
