package finance

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/shared"
)

// PaymentMethod is how the money reached the school
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodCheck        PaymentMethod = "CHECK"
)

var (
	paymentMethodsMu sync.RWMutex
	paymentMethods   = map[PaymentMethod]struct{}{
		PaymentMethodCash:         {},
		PaymentMethodBankTransfer: {},
		PaymentMethodMobileMoney:  {},
		PaymentMethodCard:         {},
		PaymentMethodCheck:        {},
	}
)

// RegisterPaymentMethod adds a school-specific method (e.g. "MULTICAIXA_EXPRESS").
func RegisterPaymentMethod(m PaymentMethod) {
	m = PaymentMethod(strings.ToUpper(strings.TrimSpace(string(m))))
	if m == "" {
		return
	}
	paymentMethodsMu.Lock()
	defer paymentMethodsMu.Unlock()
	paymentMethods[m] = struct{}{}
}

// IsValid checks the method against the registered set
func (m PaymentMethod) IsValid() bool {
	paymentMethodsMu.RLock()
	defer paymentMethodsMu.RUnlock()
	_, ok := paymentMethods[m]
	return ok
}

// PaymentStatus tracks whether a payment still counts toward its invoice
type PaymentStatus string

const (
	PaymentStatusActive    PaymentStatus = "ACTIVE"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Payment is a settlement against exactly one invoice.
// Immutable once recorded, except for cancellation.
type Payment struct {
	shared.TenantAggregateRoot
	InvoiceID    uuid.UUID
	StudentID    uuid.UUID
	Amount       decimal.Decimal
	Method       PaymentMethod
	Reference    string
	PaymentDate  time.Time
	Status       PaymentStatus
	CancelledAt  *time.Time
	CancelledBy  *uuid.UUID
	CancelReason string
}

// NewPaymentInput carries the facts of a settlement
type NewPaymentInput struct {
	Invoice     *Invoice
	Amount      decimal.Decimal
	Method      PaymentMethod
	Reference   string
	PaymentDate time.Time
	CreatedBy   uuid.UUID
	Now         time.Time
}

// NewPayment validates a settlement against its invoice. It does not touch the
// invoice; Invoice.ApplyPayment does that. A cancelled invoice is reported
// before any problem with the payment itself.
func NewPayment(in NewPaymentInput) (*Payment, error) {
	if in.Invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	if in.Invoice.IsCancelled() {
		return nil, ErrInvoiceCancelled
	}
	if err := validateAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	method := PaymentMethod(strings.ToUpper(strings.TrimSpace(string(in.Method))))
	if !method.IsValid() {
		return nil, NewValidationError("method", "Método de pagamento inválido")
	}
	reference := strings.TrimSpace(in.Reference)
	if len(reference) > 100 {
		return nil, NewValidationError("reference", "A referência não pode exceder 100 caracteres")
	}
	if in.PaymentDate.IsZero() {
		in.PaymentDate = in.Now
	}
	if DateOf(in.PaymentDate).After(DateOf(in.Now)) {
		return nil, NewValidationError("payment_date", "A data de pagamento não pode ser futura")
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(in.Invoice.TenantID, in.Now),
		InvoiceID:           in.Invoice.ID,
		StudentID:           in.Invoice.StudentID,
		Amount:              in.Amount,
		Method:              method,
		Reference:           reference,
		PaymentDate:         DateOf(in.PaymentDate),
		Status:              PaymentStatusActive,
	}
	p.SetCreatedBy(in.CreatedBy)
	return p, nil
}

// IsActive returns true while the payment counts toward its invoice
func (p *Payment) IsActive() bool {
	return p.Status == PaymentStatusActive
}

// Cancel marks the payment cancelled. The caller must revert the invoice in
// the same transaction.
func (p *Payment) Cancel(by uuid.UUID, reason string, now time.Time) error {
	if !p.IsActive() {
		return ErrPaymentAlreadyCancelled
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return NewValidationError("reason", "O motivo da anulação é obrigatório")
	}
	at := now
	p.Status = PaymentStatusCancelled
	p.CancelledAt = &at
	if by != uuid.Nil {
		p.CancelledBy = &by
	}
	p.CancelReason = reason
	p.Touch(now)
	p.IncrementVersion()
	return nil
}
