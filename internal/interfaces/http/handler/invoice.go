package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appfinance "github.com/synexa/sis/internal/application/finance"
	"github.com/synexa/sis/internal/interfaces/http/dto"
)

// InvoiceHandler handles invoice and payment recording endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices InvoiceService
	payments PaymentService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices InvoiceService, payments PaymentService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, payments: payments}
}

// CreateInvoiceRequest is the body of POST /invoices
// @Description Request body for issuing a single invoice
type CreateInvoiceRequest struct {
	StudentID         string          `json:"student_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Type              string          `json:"type" binding:"omitempty,oneof=TUITION MATERIAL UNIFORM ACTIVITY TRANSPORT FOOD FINE OTHER" example:"MATERIAL"`
	Description       string          `json:"description" binding:"max=255" example:"Material escolar 1.º trimestre"`
	Amount            decimal.Decimal `json:"amount" binding:"decimal_gt0" swaggertype:"string" example:"15000.00"`
	DueDate           string          `json:"due_date" binding:"required,datetime=2006-01-02" example:"2024-02-10"`
	BillingMonth      int             `json:"billing_month" binding:"omitempty,min=1,max=12" example:"2"`
	BillingYear       int             `json:"billing_year" binding:"omitempty,min=2000,max=2100" example:"2024"`
	AcademicYear      string          `json:"academic_year" binding:"omitempty,academic_year" example:"2023/2024"`
	LateFeePercent    decimal.Decimal `json:"late_fee_percent" binding:"decimal_gte0" swaggertype:"string" example:"10"`
	DailyInterestRate decimal.Decimal `json:"daily_interest_rate" binding:"decimal_gte0" swaggertype:"string" example:"0.1"`
}

// PayInvoiceRequest is the body of POST /invoices/:id/pay
// @Description Request body for recording a payment against an invoice
type PayInvoiceRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"decimal_gt0" swaggertype:"string" example:"5000.00"`
	Method      string          `json:"method" binding:"required,payment_method" example:"BANK_TRANSFER"`
	Reference   string          `json:"reference" binding:"max=100" example:"TRF-000123"`
	PaymentDate string          `json:"payment_date" binding:"omitempty,datetime=2006-01-02" example:"2024-02-05"`
}

// CancelRequest is the body of the cancel endpoints
// @Description Request body for cancelling an invoice or payment
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500" example:"Lançamento em duplicado"`
}

// ListInvoicesQuery holds the query string of GET /invoices
type ListInvoicesQuery struct {
	Status       string `form:"status" binding:"omitempty,oneof=PENDING PARTIAL PAID OVERDUE CANCELLED"`
	StudentID    string `form:"student_id" binding:"omitempty,uuid"`
	PlanID       string `form:"plan_id" binding:"omitempty,uuid"`
	Month        string `form:"month"`
	Year         string `form:"year"`
	AcademicYear string `form:"academic_year" binding:"omitempty,academic_year"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1"`
	OrderBy      string `form:"order_by" binding:"omitempty,oneof=due_date invoice_number amount created_at"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CreateInvoice godoc
// @Summary      Issue an invoice
// @Description  Issue a single invoice for a student outside any payment plan
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body CreateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response{data=appfinance.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	studentID := uuid.MustParse(req.StudentID)
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		h.InvalidField(c, "due_date", "Data inválida, use o formato AAAA-MM-DD")
		return
	}
	month, year := req.BillingMonth, req.BillingYear
	if month == 0 {
		month = int(dueDate.Month())
	}
	if year == 0 {
		year = dueDate.Year()
	}

	invoice, err := h.invoices.CreateInvoice(c.Request.Context(), rc, appfinance.CreateInvoiceInput{
		StudentID:         studentID,
		Type:              req.Type,
		Description:       strings.TrimSpace(req.Description),
		Amount:            req.Amount,
		DueDate:           dueDate,
		BillingMonth:      month,
		BillingYear:       year,
		AcademicYear:      req.AcademicYear,
		LateFeePercent:    req.LateFeePercent,
		DailyInterestRate: req.DailyInterestRate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// ListInvoices godoc
// @Summary      List invoices
// @Description  Paginated invoice list. Status filters use the status derived at request time.
// @Tags         invoices
// @Produce      json
// @Param        status query string false "Status" Enums(PENDING, PARTIAL, PAID, OVERDUE, CANCELLED)
// @Param        student_id query string false "Student ID" format(uuid)
// @Param        plan_id query string false "Payment plan ID" format(uuid)
// @Param        month query int false "Billing month" minimum(1) maximum(12)
// @Param        year query int false "Billing year"
// @Param        academic_year query string false "Academic year" example(2023/2024)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field" Enums(due_date, invoice_number, amount, created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]appfinance.InvoiceResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	var q ListInvoicesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	// older clients send camelCase
	if q.StudentID == "" {
		q.StudentID = c.Query("studentId")
	}
	studentID, err := optionalUUID(q.StudentID)
	if err != nil {
		h.InvalidField(c, "student_id", "Identificador inválido")
		return
	}
	planID, _ := optionalUUID(q.PlanID)
	month, err := optionalInt(q.Month)
	if err != nil || (month != nil && (*month < 1 || *month > 12)) {
		h.InvalidField(c, "month", "Mês inválido")
		return
	}
	year, err := optionalInt(q.Year)
	if err != nil {
		h.InvalidField(c, "year", "Ano inválido")
		return
	}
	page, pageSize := pageParams(q.Page, q.PageSize)

	result, err := h.invoices.ListInvoices(c.Request.Context(), rc, appfinance.InvoiceListQuery{
		Status:       q.Status,
		StudentID:    studentID,
		PlanID:       planID,
		Month:        month,
		Year:         year,
		AcademicYear: q.AcademicYear,
		Page:         page,
		PageSize:     pageSize,
		OrderBy:      q.OrderBy,
		OrderDir:     q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Page(c, dto.NewPageResponse(result))
}

// GetInvoice godoc
// @Summary      Get invoice
// @Description  Invoice with its payments and the late fee and interest accrued so far
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfinance.InvoiceDetailResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.GetInvoice(c.Request.Context(), rc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// CancelInvoice godoc
// @Summary      Cancel invoice
// @Description  Cancel an invoice. Its payments must be cancelled first.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body CancelRequest true "Reason"
// @Success      200 {object} dto.Response{data=appfinance.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	invoice, err := h.invoices.CancelInvoice(c.Request.Context(), rc, id, strings.TrimSpace(req.Reason))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// PayInvoice godoc
// @Summary      Record payment
// @Description  Record a payment against an invoice. Send an Idempotency-Key header to make retries safe.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        Idempotency-Key header string false "Client-generated key"
// @Param        request body PayInvoiceRequest true "Payment"
// @Success      201 {object} dto.Response{data=appfinance.PaymentResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/pay [post]
func (h *InvoiceHandler) PayInvoice(c *gin.Context) {
	rc, ok := h.requestContext(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req PayInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	var paymentDate time.Time
	if req.PaymentDate != "" {
		d, err := parseDate(req.PaymentDate)
		if err != nil {
			h.InvalidField(c, "payment_date", "Data inválida, use o formato AAAA-MM-DD")
			return
		}
		paymentDate = d
	}

	result, err := h.payments.RecordPayment(c.Request.Context(), rc, appfinance.RecordPaymentInput{
		InvoiceID:   id,
		Amount:      req.Amount,
		Method:      req.Method,
		Reference:   strings.TrimSpace(req.Reference),
		PaymentDate: paymentDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
