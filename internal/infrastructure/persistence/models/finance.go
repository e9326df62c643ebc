package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/finance"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// Status is never stored; queries derive it from the columns below.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber     string              `gorm:"type:varchar(50);not null;index"`
	StudentID         uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoices_plan_slot,priority:2"`
	PlanID            *uuid.UUID          `gorm:"type:uuid;uniqueIndex:idx_invoices_plan_slot,priority:1"`
	Type              finance.InvoiceType `gorm:"type:varchar(20);not null"`
	Description       string              `gorm:"type:varchar(255)"`
	Amount            decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	PaidAmount        decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	DueDate           time.Time           `gorm:"type:date;not null;index"`
	BillingMonth      int                 `gorm:"not null;uniqueIndex:idx_invoices_plan_slot,priority:3"`
	BillingYear       int                 `gorm:"not null;uniqueIndex:idx_invoices_plan_slot,priority:4"`
	AcademicYear      string              `gorm:"type:varchar(9);not null;index"`
	LateFeePercent    decimal.Decimal     `gorm:"type:decimal(5,2);not null"`
	DailyInterestRate decimal.Decimal     `gorm:"type:decimal(8,6);not null"`
	PaidAt            *time.Time
	CancelledAt       *time.Time `gorm:"index"`
	CancelledBy       *uuid.UUID `gorm:"type:uuid"`
	CancelReason      string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	inv := &finance.Invoice{
		InvoiceNumber:     m.InvoiceNumber,
		StudentID:         m.StudentID,
		PlanID:            m.PlanID,
		Type:              m.Type,
		Description:       m.Description,
		Amount:            m.Amount,
		PaidAmount:        m.PaidAmount,
		DueDate:           finance.DateOf(m.DueDate),
		BillingMonth:      m.BillingMonth,
		BillingYear:       m.BillingYear,
		AcademicYear:      m.AcademicYear,
		LateFeePercent:    m.LateFeePercent,
		DailyInterestRate: m.DailyInterestRate,
		PaidAt:            m.PaidAt,
		CancelledAt:       m.CancelledAt,
		CancelledBy:       m.CancelledBy,
		CancelReason:      m.CancelReason,
	}
	inv.TenantAggregateRoot = m.root()
	return inv
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *finance.Invoice) {
	m.setRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.StudentID = inv.StudentID
	m.PlanID = inv.PlanID
	m.Type = inv.Type
	m.Description = inv.Description
	m.Amount = inv.Amount
	m.PaidAmount = inv.PaidAmount
	m.DueDate = finance.DateOf(inv.DueDate)
	m.BillingMonth = inv.BillingMonth
	m.BillingYear = inv.BillingYear
	m.AcademicYear = inv.AcademicYear
	m.LateFeePercent = inv.LateFeePercent
	m.DailyInterestRate = inv.DailyInterestRate
	m.PaidAt = inv.PaidAt
	m.CancelledAt = inv.CancelledAt
	m.CancelledBy = inv.CancelledBy
	m.CancelReason = inv.CancelReason
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	TenantAggregateModel
	InvoiceID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	StudentID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Method       finance.PaymentMethod `gorm:"type:varchar(30);not null"`
	Reference    string                `gorm:"type:varchar(100)"`
	PaymentDate  time.Time             `gorm:"type:date;not null;index"`
	Status       finance.PaymentStatus `gorm:"type:varchar(20);not null;index"`
	CancelledAt  *time.Time
	CancelledBy  *uuid.UUID `gorm:"type:uuid"`
	CancelReason string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *finance.Payment {
	p := &finance.Payment{
		InvoiceID:    m.InvoiceID,
		StudentID:    m.StudentID,
		Amount:       m.Amount,
		Method:       m.Method,
		Reference:    m.Reference,
		PaymentDate:  finance.DateOf(m.PaymentDate),
		Status:       m.Status,
		CancelledAt:  m.CancelledAt,
		CancelledBy:  m.CancelledBy,
		CancelReason: m.CancelReason,
	}
	p.TenantAggregateRoot = m.root()
	return p
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.setRoot(p.TenantAggregateRoot)
	m.InvoiceID = p.InvoiceID
	m.StudentID = p.StudentID
	m.Amount = p.Amount
	m.Method = p.Method
	m.Reference = p.Reference
	m.PaymentDate = finance.DateOf(p.PaymentDate)
	m.Status = p.Status
	m.CancelledAt = p.CancelledAt
	m.CancelledBy = p.CancelledBy
	m.CancelReason = p.CancelReason
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentPlanModel is the persistence model for the PaymentPlan aggregate root.
type PaymentPlanModel struct {
	TenantAggregateModel
	Name              string              `gorm:"type:varchar(150);not null"`
	AcademicYear      string              `gorm:"type:varchar(9);not null;index"`
	CourseID          *uuid.UUID          `gorm:"type:uuid"`
	ClassID           *uuid.UUID          `gorm:"type:uuid;index"`
	InvoiceType       finance.InvoiceType `gorm:"type:varchar(20);not null"`
	MonthlyAmount     decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	DueDay            int                 `gorm:"not null"`
	LateFeePercent    decimal.Decimal     `gorm:"type:decimal(5,2);not null"`
	DailyInterestRate decimal.Decimal     `gorm:"type:decimal(8,6);not null"`
	StartMonth        int                 `gorm:"not null"`
	Months            int                 `gorm:"not null"`
	Active            bool                `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentPlanModel) TableName() string {
	return "payment_plans"
}

// ToDomain converts the persistence model to a domain PaymentPlan.
func (m *PaymentPlanModel) ToDomain() *finance.PaymentPlan {
	plan := &finance.PaymentPlan{
		Name:              m.Name,
		AcademicYear:      m.AcademicYear,
		CourseID:          m.CourseID,
		ClassID:           m.ClassID,
		InvoiceType:       m.InvoiceType,
		MonthlyAmount:     m.MonthlyAmount,
		DueDay:            m.DueDay,
		LateFeePercent:    m.LateFeePercent,
		DailyInterestRate: m.DailyInterestRate,
		StartMonth:        m.StartMonth,
		Months:            m.Months,
		Active:            m.Active,
	}
	plan.TenantAggregateRoot = m.root()
	return plan
}

// FromDomain populates the persistence model from a domain PaymentPlan.
func (m *PaymentPlanModel) FromDomain(plan *finance.PaymentPlan) {
	m.setRoot(plan.TenantAggregateRoot)
	m.Name = plan.Name
	m.AcademicYear = plan.AcademicYear
	m.CourseID = plan.CourseID
	m.ClassID = plan.ClassID
	m.InvoiceType = plan.InvoiceType
	m.MonthlyAmount = plan.MonthlyAmount
	m.DueDay = plan.DueDay
	m.LateFeePercent = plan.LateFeePercent
	m.DailyInterestRate = plan.DailyInterestRate
	m.StartMonth = plan.StartMonth
	m.Months = plan.Months
	m.Active = plan.Active
}

// PaymentPlanModelFromDomain creates a new persistence model from a domain PaymentPlan.
func PaymentPlanModelFromDomain(plan *finance.PaymentPlan) *PaymentPlanModel {
	m := &PaymentPlanModel{}
	m.FromDomain(plan)
	return m
}

// StudentModel is a read-only view of the students table owned by the
// enrollment module.
type StudentModel struct {
	BaseModel
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name          string     `gorm:"type:varchar(200);not null"`
	StudentNumber string     `gorm:"type:varchar(30);index"`
	ClassID       *uuid.UUID `gorm:"type:uuid;index"`
	ClassName     string     `gorm:"type:varchar(100)"`
	Active        bool       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StudentModel) TableName() string {
	return "students"
}

// ToDomain converts the row to the finance view of a student.
func (m *StudentModel) ToDomain() finance.Student {
	return finance.Student{
		ID:            m.ID,
		Name:          m.Name,
		StudentNumber: m.StudentNumber,
		ClassID:       m.ClassID,
		ClassName:     m.ClassName,
		Active:        m.Active,
	}
}

// StudentModelFromDomain builds a students row, mostly for fixtures.
func StudentModelFromDomain(tenantID uuid.UUID, s finance.Student, at time.Time) *StudentModel {
	return &StudentModel{
		BaseModel: BaseModel{
			ID:        s.ID,
			CreatedAt: at,
			UpdatedAt: at,
		},
		TenantID:      tenantID,
		Name:          s.Name,
		StudentNumber: s.StudentNumber,
		ClassID:       s.ClassID,
		ClassName:     s.ClassName,
		Active:        s.Active,
	}
}

// AllModels lists every model owned by the billing core, for AutoMigrate in tests.
func AllModels() []any {
	return []any{
		&PaymentPlanModel{},
		&InvoiceModel{},
		&PaymentModel{},
		&StudentModel{},
	}
}
