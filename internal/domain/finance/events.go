package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/shared"
)

// Event type names
const (
	EventTypeInvoiceCreated   = "InvoiceCreated"
	EventTypeInvoiceCancelled = "InvoiceCancelled"
	EventTypePaymentRecorded  = "PaymentRecorded"
	EventTypePaymentCancelled = "PaymentCancelled"

	AggregateTypeInvoice = "Invoice"
)

// InvoiceCreatedEvent is raised when an invoice is opened
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	StudentID     uuid.UUID       `json:"student_id"`
	PlanID        *uuid.UUID      `json:"plan_id,omitempty"`
	InvoiceType   InvoiceType     `json:"invoice_type"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
}

// NewInvoiceCreatedEvent creates an InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice, at time.Time) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.TenantID, at),
		InvoiceNumber:   inv.InvoiceNumber,
		StudentID:       inv.StudentID,
		PlanID:          inv.PlanID,
		InvoiceType:     inv.Type,
		Amount:          inv.Amount,
		DueDate:         inv.DueDate,
	}
}

// InvoiceCancelledEvent is raised when an invoice is cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string    `json:"invoice_number"`
	StudentID     uuid.UUID `json:"student_id"`
	Reason        string    `json:"reason"`
}

// NewInvoiceCancelledEvent creates an InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice, at time.Time) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, AggregateTypeInvoice, inv.ID, inv.TenantID, at),
		InvoiceNumber:   inv.InvoiceNumber,
		StudentID:       inv.StudentID,
		Reason:          inv.CancelReason,
	}
}

// PaymentRecordedEvent is raised on the invoice when a payment is applied
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	InvoiceNumber string          `json:"invoice_number"`
	StudentID     uuid.UUID       `json:"student_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Status        InvoiceStatus   `json:"status"`
}

// NewPaymentRecordedEvent creates a PaymentRecordedEvent
func NewPaymentRecordedEvent(inv *Invoice, p *Payment, status InvoiceStatus, at time.Time) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeInvoice, inv.ID, inv.TenantID, at),
		PaymentID:       p.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		StudentID:       inv.StudentID,
		Amount:          p.Amount,
		Method:          p.Method,
		PaidAmount:      inv.PaidAmount,
		Status:          status,
	}
}

// PaymentCancelledEvent is raised on the invoice when a payment is reverted
type PaymentCancelledEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Status        InvoiceStatus   `json:"status"`
	Reason        string          `json:"reason"`
}

// NewPaymentCancelledEvent creates a PaymentCancelledEvent
func NewPaymentCancelledEvent(inv *Invoice, p *Payment, status InvoiceStatus, at time.Time) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCancelled, AggregateTypeInvoice, inv.ID, inv.TenantID, at),
		PaymentID:       p.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Amount:          p.Amount,
		Method:          p.Method,
		PaidAmount:      inv.PaidAmount,
		Status:          status,
		Reason:          p.CancelReason,
	}
}
