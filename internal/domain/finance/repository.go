package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/shared"
)

// InvoiceFilter defines filtering options for invoice queries.
// Status is evaluated against AsOf with the same rules as ComputeStatus.
type InvoiceFilter struct {
	shared.Filter
	Status            *InvoiceStatus
	StudentID         *uuid.UUID
	PlanID            *uuid.UUID
	Month             *int
	Year              *int
	AcademicYear      string
	AsOf              time.Time
	OverduePrecedence bool
}

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	// FindByID loads an invoice without locking
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate loads an invoice and locks its row until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindAll returns one page of invoices and the total match count
	FindAll(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]*Invoice, int64, error)

	// FindUnpaidDueBefore returns non-cancelled invoices with a positive
	// balance whose due date is before the given day
	FindUnpaidDueBefore(ctx context.Context, tenantID uuid.UUID, day time.Time) ([]*Invoice, error)

	// FindDueBetween returns invoices due inside the period, cancelled included
	FindDueBetween(ctx context.Context, tenantID uuid.UUID, period Period) ([]*Invoice, error)

	// ExistingKeys returns the dedupe keys already taken by a plan for the students
	ExistingKeys(ctx context.Context, tenantID, planID uuid.UUID, studentIDs []uuid.UUID) (map[DedupeKey]bool, error)

	// Create inserts a new invoice
	Create(ctx context.Context, inv *Invoice) error

	// SaveWithLock updates an invoice, failing with CONCURRENCY_CONFLICT if the
	// stored version is not the one the invoice was loaded with
	SaveWithLock(ctx context.Context, inv *Invoice) error

	// NextInvoiceNumber returns the next free number for the month of at
	NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID, prefix string, at time.Time) (string, error)
}

// PaymentRepository persists payments
type PaymentRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]*Payment, error)
	FindActiveInPeriod(ctx context.Context, tenantID uuid.UUID, period Period) ([]*Payment, error)
	// SumActiveByInvoice recomputes paid amount from the payment rows
	SumActiveByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (PaymentTotals, error)
	Create(ctx context.Context, p *Payment) error
	SaveWithLock(ctx context.Context, p *Payment) error
}

// PaymentTotals is an aggregate over an invoice's payments
type PaymentTotals struct {
	Count  int64
	Amount decimal.Decimal
}

// PaymentPlanFilter defines filtering options for plan queries
type PaymentPlanFilter struct {
	shared.Filter
	AcademicYear string
	ClassID      *uuid.UUID
	Active       *bool
}

// PaymentPlanRepository persists payment plans
type PaymentPlanRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PaymentPlan, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter PaymentPlanFilter) ([]*PaymentPlan, int64, error)
	Create(ctx context.Context, plan *PaymentPlan) error
	SaveWithLock(ctx context.Context, plan *PaymentPlan) error
}
