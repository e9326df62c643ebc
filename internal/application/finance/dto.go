package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared/valueobject"
)

// DateLayout is the wire format for civil dates (due dates, payment dates)
const DateLayout = "2006-01-02"

// ===================== Inputs =====================

// CreateInvoiceInput carries a manually issued invoice
type CreateInvoiceInput struct {
	StudentID         uuid.UUID
	Type              string
	Description       string
	Amount            decimal.Decimal
	DueDate           time.Time
	BillingMonth      int
	BillingYear       int
	AcademicYear      string
	LateFeePercent    decimal.Decimal
	DailyInterestRate decimal.Decimal
}

// RecordPaymentInput carries a settlement against one invoice
type RecordPaymentInput struct {
	InvoiceID   uuid.UUID
	Amount      decimal.Decimal
	Method      string
	Reference   string
	PaymentDate time.Time
}

// InvoiceListQuery filters the invoice list. Status is evaluated at the
// request's current date.
type InvoiceListQuery struct {
	Status       string
	StudentID    *uuid.UUID
	PlanID       *uuid.UUID
	Month        *int
	Year         *int
	AcademicYear string
	Page         int
	PageSize     int
	OrderBy      string
	OrderDir     string
}

// PlanInput carries the editable terms of a payment plan
type PlanInput struct {
	Name              string
	AcademicYear      string
	CourseID          *uuid.UUID
	ClassID           *uuid.UUID
	InvoiceType       string
	MonthlyAmount     decimal.Decimal
	DueDay            int
	LateFeePercent    decimal.Decimal
	DailyInterestRate decimal.Decimal
	StartMonth        int
	Months            int
}

func (in PlanInput) terms() finance.PaymentPlanTerms {
	return finance.PaymentPlanTerms{
		Name:              in.Name,
		AcademicYear:      in.AcademicYear,
		CourseID:          in.CourseID,
		ClassID:           in.ClassID,
		InvoiceType:       finance.InvoiceType(in.InvoiceType),
		MonthlyAmount:     in.MonthlyAmount,
		DueDay:            in.DueDay,
		LateFeePercent:    in.LateFeePercent,
		DailyInterestRate: in.DailyInterestRate,
		StartMonth:        in.StartMonth,
		Months:            in.Months,
	}
}

// PlanListQuery filters the plan list
type PlanListQuery struct {
	AcademicYear string
	ClassID      *uuid.UUID
	Active       *bool
	Page         int
	PageSize     int
}

// GenerateInvoicesInput names the target population of a generation run.
// StudentIDs and ClassID may be combined; duplicates are ignored.
type GenerateInvoicesInput struct {
	PlanID       uuid.UUID
	StudentIDs   []uuid.UUID
	ClassID      *uuid.UUID
	AcademicYear string
}

// ===================== Responses =====================

// InvoiceResponse is an invoice with its status derived at AsOf
type InvoiceResponse struct {
	ID                uuid.UUID         `json:"id"`
	InvoiceNumber     string            `json:"invoice_number"`
	StudentID         uuid.UUID         `json:"student_id"`
	PlanID            *uuid.UUID        `json:"plan_id,omitempty"`
	Type              string            `json:"type"`
	Description       string            `json:"description,omitempty"`
	Amount            valueobject.Money `json:"amount"`
	PaidAmount        valueobject.Money `json:"paid_amount"`
	Balance           valueobject.Money `json:"balance"`
	Credit            valueobject.Money `json:"credit"`
	LateFee           valueobject.Money `json:"late_fee"`
	Interest          valueobject.Money `json:"interest"`
	TotalDue          valueobject.Money `json:"total_due"`
	Status            string            `json:"status"`
	DueDate           string            `json:"due_date"`
	DaysOverdue       int               `json:"days_overdue"`
	BillingMonth      int               `json:"billing_month"`
	BillingYear       int               `json:"billing_year"`
	AcademicYear      string            `json:"academic_year"`
	LateFeePercent    string            `json:"late_fee_percent"`
	DailyInterestRate string            `json:"daily_interest_rate"`
	PaidAt            *string           `json:"paid_at,omitempty"`
	CancelledAt       *time.Time        `json:"cancelled_at,omitempty"`
	CancelledBy       *uuid.UUID        `json:"cancelled_by,omitempty"`
	CancelReason      string            `json:"cancel_reason,omitempty"`
	CreatedBy         *uuid.UUID        `json:"created_by,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Version           int               `json:"version"`
}

// LedgerLineResponse is a derived charge beside the invoice amount
type LedgerLineResponse struct {
	Kind        string            `json:"kind"`
	Amount      valueobject.Money `json:"amount"`
	Description string            `json:"description"`
	Since       string            `json:"since"`
	Days        int               `json:"days,omitempty"`
}

// InvoiceDetailResponse is an invoice with its payments and accrual ledger
type InvoiceDetailResponse struct {
	InvoiceResponse
	Payments []PaymentResponse   `json:"payments"`
	Ledger   []LedgerLineResponse `json:"ledger"`
}

// PaymentResponse is a recorded payment
type PaymentResponse struct {
	ID           uuid.UUID         `json:"id"`
	InvoiceID    uuid.UUID         `json:"invoice_id"`
	StudentID    uuid.UUID         `json:"student_id"`
	Amount       valueobject.Money `json:"amount"`
	Method       string            `json:"method"`
	Reference    string            `json:"reference,omitempty"`
	PaymentDate  string            `json:"payment_date"`
	Status       string            `json:"status"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	CancelledBy  *uuid.UUID        `json:"cancelled_by,omitempty"`
	CancelReason string            `json:"cancel_reason,omitempty"`
	CreatedBy    *uuid.UUID        `json:"created_by,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// PaymentResult is the payment and the invoice state it produced
type PaymentResult struct {
	Payment PaymentResponse `json:"payment"`
	Invoice InvoiceResponse `json:"invoice"`
}

// PlanResponse is a payment plan
type PlanResponse struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	AcademicYear      string            `json:"academic_year"`
	CourseID          *uuid.UUID        `json:"course_id,omitempty"`
	ClassID           *uuid.UUID        `json:"class_id,omitempty"`
	InvoiceType       string            `json:"invoice_type"`
	MonthlyAmount     valueobject.Money `json:"monthly_amount"`
	DueDay            int               `json:"due_day"`
	LateFeePercent    string            `json:"late_fee_percent"`
	DailyInterestRate string            `json:"daily_interest_rate"`
	StartMonth        int               `json:"start_month"`
	Months            int               `json:"months"`
	Active            bool              `json:"active"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Version           int               `json:"version"`
}

// GenerateInvoicesResult reports what a generation run did
type GenerateInvoicesResult struct {
	PlanID   uuid.UUID         `json:"plan_id"`
	Students int               `json:"students"`
	Created  int               `json:"created"`
	Skipped  int               `json:"skipped"`
	Invoices []InvoiceResponse `json:"invoices"`
}

// DefaulterResponse is one student's overdue exposure
type DefaulterResponse struct {
	StudentID     uuid.UUID         `json:"student_id"`
	StudentName   string            `json:"student_name,omitempty"`
	StudentNumber string            `json:"student_number,omitempty"`
	ClassName     string            `json:"class_name,omitempty"`
	TotalOverdue  valueobject.Money `json:"total_overdue"`
	TotalAccrued  valueobject.Money `json:"total_accrued"`
	TotalDue      valueobject.Money `json:"total_due"`
	OverdueCount  int               `json:"overdue_count"`
	OldestDueDate string            `json:"oldest_due_date"`
	DaysOverdue   int               `json:"days_overdue"`
	InvoiceIDs    []uuid.UUID       `json:"invoice_ids"`
}

// DefaulterListResponse is the defaulter report at AsOf
type DefaulterListResponse struct {
	AsOf         string              `json:"as_of"`
	Count        int                 `json:"count"`
	TotalOverdue valueobject.Money   `json:"total_overdue"`
	Defaulters   []DefaulterResponse `json:"defaulters"`
}

// MonthlyRevenueResponse is collected vs expected for one month
type MonthlyRevenueResponse struct {
	Year      int               `json:"year"`
	Month     int               `json:"month"`
	Collected valueobject.Money `json:"collected"`
	Expected  valueobject.Money `json:"expected"`
}

// MethodRevenueResponse is collected money for one payment method
type MethodRevenueResponse struct {
	Method string            `json:"method"`
	Amount valueobject.Money `json:"amount"`
	Count  int               `json:"count"`
}

// RevenueSummaryResponse compares expected and collected revenue
type RevenueSummaryResponse struct {
	From           string                   `json:"from"`
	To             string                   `json:"to"`
	Collected      valueobject.Money        `json:"collected"`
	Expected       valueobject.Money        `json:"expected"`
	CollectionRate string                   `json:"collection_rate"`
	ByMonth        []MonthlyRevenueResponse `json:"by_month"`
	ByMethod       []MethodRevenueResponse  `json:"by_method"`
}

// ExportResult points at an exported report
type ExportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Rows      int       `json:"rows"`
}

// ===================== Mappers =====================

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func toInvoiceResponse(inv *finance.Invoice, now time.Time, policy finance.Policy) InvoiceResponse {
	acc := finance.ComputeAccrual(inv, now, policy)
	resp := InvoiceResponse{
		ID:                inv.ID,
		InvoiceNumber:     inv.InvoiceNumber,
		StudentID:         inv.StudentID,
		PlanID:            inv.PlanID,
		Type:              string(inv.Type),
		Description:       inv.Description,
		Amount:            valueobject.Kwanza(inv.Amount),
		PaidAmount:        valueobject.Kwanza(inv.PaidAmount),
		Balance:           valueobject.Kwanza(acc.Balance),
		Credit:            valueobject.Kwanza(inv.Credit()),
		LateFee:           valueobject.Kwanza(acc.LateFee),
		Interest:          valueobject.Kwanza(acc.Interest),
		TotalDue:          valueobject.Kwanza(acc.TotalDue()),
		Status:            string(inv.Status(now, policy)),
		DueDate:           formatDate(inv.DueDate),
		DaysOverdue:       inv.DaysOverdue(now),
		BillingMonth:      inv.BillingMonth,
		BillingYear:       inv.BillingYear,
		AcademicYear:      inv.AcademicYear,
		LateFeePercent:    inv.LateFeePercent.String(),
		DailyInterestRate: inv.DailyInterestRate.String(),
		CancelledAt:       inv.CancelledAt,
		CancelledBy:       inv.CancelledBy,
		CancelReason:      inv.CancelReason,
		CreatedBy:         inv.CreatedBy,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
		Version:           inv.Version,
	}
	if inv.PaidAt != nil {
		paidAt := formatDate(*inv.PaidAt)
		resp.PaidAt = &paidAt
	}
	return resp
}

func toInvoiceResponses(invoices []*finance.Invoice, now time.Time, policy finance.Policy) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		out[i] = toInvoiceResponse(inv, now, policy)
	}
	return out
}

func toLedgerResponses(lines []finance.LedgerLine) []LedgerLineResponse {
	out := make([]LedgerLineResponse, len(lines))
	for i, l := range lines {
		out[i] = LedgerLineResponse{
			Kind:        string(l.Kind),
			Amount:      valueobject.Kwanza(l.Amount),
			Description: l.Description,
			Since:       formatDate(l.Since),
			Days:        l.Days,
		}
	}
	return out
}

func toPaymentResponse(p *finance.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID,
		InvoiceID:    p.InvoiceID,
		StudentID:    p.StudentID,
		Amount:       valueobject.Kwanza(p.Amount),
		Method:       string(p.Method),
		Reference:    p.Reference,
		PaymentDate:  formatDate(p.PaymentDate),
		Status:       string(p.Status),
		CancelledAt:  p.CancelledAt,
		CancelledBy:  p.CancelledBy,
		CancelReason: p.CancelReason,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    p.CreatedAt,
	}
}

func toPaymentResponses(payments []*finance.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = toPaymentResponse(p)
	}
	return out
}

func toPlanResponse(p *finance.PaymentPlan) PlanResponse {
	return PlanResponse{
		ID:                p.ID,
		Name:              p.Name,
		AcademicYear:      p.AcademicYear,
		CourseID:          p.CourseID,
		ClassID:           p.ClassID,
		InvoiceType:       string(p.InvoiceType),
		MonthlyAmount:     valueobject.Kwanza(p.MonthlyAmount),
		DueDay:            p.DueDay,
		LateFeePercent:    p.LateFeePercent.String(),
		DailyInterestRate: p.DailyInterestRate.String(),
		StartMonth:        p.StartMonth,
		Months:            p.Months,
		Active:            p.Active,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
}
