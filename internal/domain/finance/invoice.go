package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/domain/shared/valueobject"
)

// InvoiceType classifies what the student is being billed for
type InvoiceType string

const (
	InvoiceTypeTuition   InvoiceType = "TUITION"
	InvoiceTypeMaterial  InvoiceType = "MATERIAL"
	InvoiceTypeUniform   InvoiceType = "UNIFORM"
	InvoiceTypeActivity  InvoiceType = "ACTIVITY"
	InvoiceTypeTransport InvoiceType = "TRANSPORT"
	InvoiceTypeFood      InvoiceType = "FOOD"
	InvoiceTypeFine      InvoiceType = "FINE"
	InvoiceTypeOther     InvoiceType = "OTHER"
)

// IsValid checks if the invoice type is known
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeTuition, InvoiceTypeMaterial, InvoiceTypeUniform, InvoiceTypeActivity,
		InvoiceTypeTransport, InvoiceTypeFood, InvoiceTypeFine, InvoiceTypeOther:
		return true
	}
	return false
}

// Invoice is an amount owed by one student for one billing period.
// It is the unit of transactional isolation: every payment mutation goes
// through the invoice so paid amount and status cannot drift apart.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber     string
	StudentID         uuid.UUID
	PlanID            *uuid.UUID
	Type              InvoiceType
	Description       string
	Amount            decimal.Decimal
	PaidAmount        decimal.Decimal
	DueDate           time.Time
	BillingMonth      int
	BillingYear       int
	AcademicYear      string
	LateFeePercent    decimal.Decimal
	DailyInterestRate decimal.Decimal
	PaidAt            *time.Time
	CancelledAt       *time.Time
	CancelledBy       *uuid.UUID
	CancelReason      string
}

// NewInvoiceInput carries everything needed to open an invoice
type NewInvoiceInput struct {
	TenantID          uuid.UUID
	StudentID         uuid.UUID
	PlanID            *uuid.UUID
	InvoiceNumber     string
	Type              InvoiceType
	Description       string
	Amount            decimal.Decimal
	DueDate           time.Time
	BillingMonth      int
	BillingYear       int
	AcademicYear      string
	LateFeePercent    decimal.Decimal
	DailyInterestRate decimal.Decimal
	CreatedBy         uuid.UUID
	Now               time.Time
}

// NewInvoice validates the input and opens a PENDING invoice
func NewInvoice(in NewInvoiceInput) (*Invoice, error) {
	in.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	if in.InvoiceNumber == "" {
		return nil, NewValidationError("invoice_number", "O número da factura é obrigatório")
	}
	if len(in.InvoiceNumber) > 50 {
		return nil, NewValidationError("invoice_number", "O número da factura não pode exceder 50 caracteres")
	}
	if in.TenantID == uuid.Nil {
		return nil, NewValidationError("tenant_id", "A escola é obrigatória")
	}
	if in.StudentID == uuid.Nil {
		return nil, NewValidationError("student_id", "O aluno é obrigatório")
	}
	if in.Type == "" {
		in.Type = InvoiceTypeTuition
	}
	if !in.Type.IsValid() {
		return nil, NewValidationError("type", "Tipo de factura inválido")
	}
	if err := validateAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	if in.DueDate.IsZero() {
		return nil, NewValidationError("due_date", "A data de vencimento é obrigatória")
	}
	if in.BillingMonth < 1 || in.BillingMonth > 12 {
		return nil, NewValidationError("billing_month", "O mês de facturação deve estar entre 1 e 12")
	}
	if in.BillingYear < 2000 || in.BillingYear > 2100 {
		return nil, NewValidationError("billing_year", "Ano de facturação inválido")
	}
	if _, err := ParseAcademicYear(in.AcademicYear); err != nil {
		return nil, err
	}
	if err := validatePercent("late_fee_percent", in.LateFeePercent); err != nil {
		return nil, err
	}
	if err := validateDailyRate("daily_interest_rate", in.DailyInterestRate); err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(in.TenantID, in.Now),
		InvoiceNumber:       in.InvoiceNumber,
		StudentID:           in.StudentID,
		PlanID:              in.PlanID,
		Type:                in.Type,
		Description:         strings.TrimSpace(in.Description),
		Amount:              in.Amount,
		PaidAmount:          decimal.Zero,
		DueDate:             DateOf(in.DueDate),
		BillingMonth:        in.BillingMonth,
		BillingYear:         in.BillingYear,
		AcademicYear:        in.AcademicYear,
		LateFeePercent:      in.LateFeePercent,
		DailyInterestRate:   in.DailyInterestRate,
	}
	inv.SetCreatedBy(in.CreatedBy)
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv, in.Now))
	return inv, nil
}

// IsCancelled returns true once the invoice has been cancelled
func (inv *Invoice) IsCancelled() bool {
	return inv.CancelledAt != nil
}

// Balance returns the unpaid part of the invoice, never negative
func (inv *Invoice) Balance() decimal.Decimal {
	return Balance(inv.Amount, inv.PaidAmount)
}

// Credit returns what was paid beyond the amount (only with overpayment enabled)
func (inv *Invoice) Credit() decimal.Decimal {
	c := inv.PaidAmount.Sub(inv.Amount)
	if c.IsNegative() {
		return decimal.Zero
	}
	return c
}

// Status derives the invoice status at now
func (inv *Invoice) Status(now time.Time, policy Policy) InvoiceStatus {
	return policy.ComputeStatus(inv.Amount, inv.PaidAmount, inv.DueDate, inv.IsCancelled(), now)
}

// DaysOverdue returns whole days past the due date while a balance remains
func (inv *Invoice) DaysOverdue(now time.Time) int {
	if inv.IsCancelled() || !inv.Balance().IsPositive() {
		return 0
	}
	return DaysPastDue(inv.DueDate, now)
}

// DedupeKey identifies the billing slot a plan-generated invoice occupies
func (inv *Invoice) DedupeKey() DedupeKey {
	var planID uuid.UUID
	if inv.PlanID != nil {
		planID = *inv.PlanID
	}
	return DedupeKey{StudentID: inv.StudentID, PlanID: planID, Month: inv.BillingMonth, Year: inv.BillingYear}
}

// ApplyPayment adds an active payment to the paid amount
func (inv *Invoice) ApplyPayment(p *Payment, policy Policy, now time.Time) error {
	if inv.IsCancelled() {
		return ErrInvoiceCancelled
	}
	if p == nil || p.InvoiceID != inv.ID {
		return NewValidationError("invoice_id", "O pagamento não pertence a esta factura")
	}
	if !p.IsActive() {
		return shared.ErrInvalidState
	}
	if err := validateAmount("amount", p.Amount); err != nil {
		return err
	}

	newPaid := inv.PaidAmount.Add(p.Amount)
	if newPaid.GreaterThan(inv.Amount) && !policy.AllowOverpayment {
		return NewOverpaymentError(p.Amount, inv.Balance())
	}

	inv.PaidAmount = newPaid
	status := inv.Status(now, policy)
	if status == InvoiceStatusPaid && inv.PaidAt == nil {
		paidAt := p.PaymentDate
		inv.PaidAt = &paidAt
	}
	inv.Touch(now)
	inv.IncrementVersion()
	inv.AddDomainEvent(NewPaymentRecordedEvent(inv, p, status, now))
	return nil
}

// RevertPayment removes a cancelled payment's effect from the paid amount
func (inv *Invoice) RevertPayment(p *Payment, policy Policy, now time.Time) error {
	if inv.IsCancelled() {
		return shared.ErrInvalidState
	}
	if p == nil || p.InvoiceID != inv.ID {
		return NewValidationError("invoice_id", "O pagamento não pertence a esta factura")
	}
	if p.Amount.GreaterThan(inv.PaidAmount) {
		return shared.ErrInvalidState.WithDetail("paid_amount", inv.PaidAmount.StringFixed(valueobject.MinorUnits))
	}

	inv.PaidAmount = inv.PaidAmount.Sub(p.Amount)
	status := inv.Status(now, policy)
	if status != InvoiceStatusPaid {
		inv.PaidAt = nil
	}
	inv.Touch(now)
	inv.IncrementVersion()
	inv.AddDomainEvent(NewPaymentCancelledEvent(inv, p, status, now))
	return nil
}

// Cancel closes the invoice for good. Active payments must be cancelled first
// so the paid amount is zero when the balance freezes.
func (inv *Invoice) Cancel(by uuid.UUID, reason string, now time.Time) error {
	if inv.IsCancelled() {
		return ErrInvoiceAlreadyCancelled
	}
	if inv.PaidAmount.IsPositive() {
		return ErrInvoiceHasPayments
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return NewValidationError("reason", "O motivo da anulação é obrigatório")
	}

	at := now
	inv.CancelledAt = &at
	if by != uuid.Nil {
		inv.CancelledBy = &by
	}
	inv.CancelReason = reason
	inv.Touch(now)
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv, now))
	return nil
}

// DedupeKey is the natural key of a plan-generated invoice
type DedupeKey struct {
	StudentID uuid.UUID
	PlanID    uuid.UUID
	Month     int
	Year      int
}

func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError(field, "O valor deve ser superior a zero")
	}
	if !amount.Equal(amount.Round(valueobject.MinorUnits)) {
		return NewValidationError(field, "O valor não pode ter mais de duas casas decimais")
	}
	return nil
}

func validatePercent(field string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return NewValidationError(field, "A percentagem deve estar entre 0 e 100")
	}
	return nil
}

func validateDailyRate(field string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return NewValidationError(field, "A taxa de juro diária deve estar entre 0 e 1")
	}
	return nil
}
