package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/shared"
)

// Billing window defaults: the Angolan school year runs September to June.
const (
	DefaultPlanStartMonth = 9
	DefaultPlanMonths     = 10
	MaxDueDay             = 28
)

// PaymentPlan is the template from which monthly invoices are generated
type PaymentPlan struct {
	shared.TenantAggregateRoot
	Name              string
	AcademicYear      string
	CourseID          *uuid.UUID
	ClassID           *uuid.UUID
	InvoiceType       InvoiceType
	MonthlyAmount     decimal.Decimal
	DueDay            int
	LateFeePercent    decimal.Decimal
	DailyInterestRate decimal.Decimal
	StartMonth        int
	Months            int
	Active            bool
}

// PaymentPlanTerms is the editable part of a plan
type PaymentPlanTerms struct {
	Name              string
	AcademicYear      string
	CourseID          *uuid.UUID
	ClassID           *uuid.UUID
	InvoiceType       InvoiceType
	MonthlyAmount     decimal.Decimal
	DueDay            int
	LateFeePercent    decimal.Decimal
	DailyInterestRate decimal.Decimal
	StartMonth        int
	Months            int
}

// BillingPeriod is one calendar month of a plan's window
type BillingPeriod struct {
	Month int
	Year  int
}

// NewPaymentPlan creates an active plan
func NewPaymentPlan(tenantID, createdBy uuid.UUID, terms PaymentPlanTerms, now time.Time) (*PaymentPlan, error) {
	if tenantID == uuid.Nil {
		return nil, NewValidationError("tenant_id", "A escola é obrigatória")
	}
	terms, err := normalizeTerms(terms)
	if err != nil {
		return nil, err
	}
	plan := &PaymentPlan{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, now),
		Active:              true,
	}
	plan.apply(terms)
	plan.SetCreatedBy(createdBy)
	return plan, nil
}

// Update replaces the plan terms. Existing invoices keep the terms they were
// generated with.
func (p *PaymentPlan) Update(terms PaymentPlanTerms, now time.Time) error {
	terms, err := normalizeTerms(terms)
	if err != nil {
		return err
	}
	p.apply(terms)
	p.Touch(now)
	p.IncrementVersion()
	return nil
}

// Activate re-enables generation
func (p *PaymentPlan) Activate(now time.Time) {
	if p.Active {
		return
	}
	p.Active = true
	p.Touch(now)
	p.IncrementVersion()
}

// Deactivate stops future generation; existing invoices are untouched
func (p *PaymentPlan) Deactivate(now time.Time) {
	if !p.Active {
		return
	}
	p.Active = false
	p.Touch(now)
	p.IncrementVersion()
}

// Periods lists the billing months of the plan, starting at StartMonth of the
// academic year's first calendar year and rolling into the second.
func (p *PaymentPlan) Periods() []BillingPeriod {
	ay, err := ParseAcademicYear(p.AcademicYear)
	if err != nil {
		return nil
	}
	periods := make([]BillingPeriod, 0, p.Months)
	month, year := p.StartMonth, ay.StartYear
	for range p.Months {
		periods = append(periods, BillingPeriod{Month: month, Year: year})
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return periods
}

// DueDateFor returns the due date of a period
func (p *PaymentPlan) DueDateFor(period BillingPeriod) time.Time {
	return time.Date(period.Year, time.Month(period.Month), p.DueDay, 0, 0, 0, 0, time.UTC)
}

// CoversClass reports whether the plan applies to students of classID.
// A plan without a class scope applies to everyone.
func (p *PaymentPlan) CoversClass(classID *uuid.UUID) bool {
	if p.ClassID == nil {
		return true
	}
	return classID != nil && *classID == *p.ClassID
}

func (p *PaymentPlan) apply(t PaymentPlanTerms) {
	p.Name = t.Name
	p.AcademicYear = t.AcademicYear
	p.CourseID = t.CourseID
	p.ClassID = t.ClassID
	p.InvoiceType = t.InvoiceType
	p.MonthlyAmount = t.MonthlyAmount
	p.DueDay = t.DueDay
	p.LateFeePercent = t.LateFeePercent
	p.DailyInterestRate = t.DailyInterestRate
	p.StartMonth = t.StartMonth
	p.Months = t.Months
}

func normalizeTerms(t PaymentPlanTerms) (PaymentPlanTerms, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return t, NewValidationError("name", "O nome do plano é obrigatório")
	}
	if len(t.Name) > 120 {
		return t, NewValidationError("name", "O nome do plano não pode exceder 120 caracteres")
	}
	ay, err := ParseAcademicYear(t.AcademicYear)
	if err != nil {
		return t, err
	}
	t.AcademicYear = ay.String()
	if t.InvoiceType == "" {
		t.InvoiceType = InvoiceTypeTuition
	}
	if !t.InvoiceType.IsValid() {
		return t, NewValidationError("invoice_type", "Tipo de factura inválido")
	}
	if err := validateAmount("monthly_amount", t.MonthlyAmount); err != nil {
		return t, err
	}
	if t.DueDay < 1 || t.DueDay > MaxDueDay {
		return t, NewValidationError("due_day", "O dia de vencimento deve estar entre 1 e 28")
	}
	if err := validatePercent("late_fee_percent", t.LateFeePercent); err != nil {
		return t, err
	}
	if err := validateDailyRate("daily_interest_rate", t.DailyInterestRate); err != nil {
		return t, err
	}
	if t.StartMonth == 0 {
		t.StartMonth = DefaultPlanStartMonth
	}
	if t.Months == 0 {
		t.Months = DefaultPlanMonths
	}
	if t.StartMonth < 1 || t.StartMonth > 12 {
		return t, NewValidationError("start_month", "O mês inicial deve estar entre 1 e 12")
	}
	if t.Months < 1 || t.Months > 12 {
		return t, NewValidationError("months", "O número de meses deve estar entre 1 e 12")
	}
	return t, nil
}
