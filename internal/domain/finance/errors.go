package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/domain/shared/valueobject"
)

// Error codes specific to the billing core
const (
	CodeAlreadyCancelled = "ALREADY_CANCELLED"
	CodeOverpayment      = "OVERPAYMENT"
	CodePlanInactive     = "PLAN_INACTIVE"
)

var (
	ErrInvoiceNotFound         = shared.NewDomainError(shared.CodeNotFound, "Factura não encontrada")
	ErrPaymentNotFound         = shared.NewDomainError(shared.CodeNotFound, "Pagamento não encontrado")
	ErrPlanNotFound            = shared.NewDomainError(shared.CodeNotFound, "Plano de pagamento não encontrado")
	ErrStudentNotFound         = shared.NewDomainError(shared.CodeNotFound, "Aluno não encontrado")
	ErrInvoiceCancelled        = shared.NewDomainError(shared.CodeInvalidState, "Não é possível registar pagamentos numa factura anulada")
	ErrInvoiceAlreadyCancelled = shared.NewDomainError(CodeAlreadyCancelled, "A factura já foi anulada")
	ErrInvoiceHasPayments      = shared.NewDomainError(shared.CodeInvalidState, "A factura tem pagamentos activos; anule-os primeiro")
	ErrPaymentAlreadyCancelled = shared.NewDomainError(CodeAlreadyCancelled, "O pagamento já foi anulado")
	ErrPlanInactive            = shared.NewDomainError(CodePlanInactive, "O plano de pagamento está inactivo")
	ErrOverpayment             = shared.NewDomainError(CodeOverpayment, "O valor excede o saldo em dívida")
)

// NewValidationError builds a VALIDATION_ERROR naming the offending field
func NewValidationError(field, message string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeValidation, message).WithDetail("field", field)
}

// NewOverpaymentError reports how much could still be paid
func NewOverpaymentError(amount, balance decimal.Decimal) *shared.DomainError {
	msg := fmt.Sprintf("O valor do pagamento (%s) excede o saldo em dívida (%s)",
		valueobject.FormatKwanza(valueobject.Kwanza(amount)),
		valueobject.FormatKwanza(valueobject.Kwanza(balance)))
	return &shared.DomainError{
		Code:    CodeOverpayment,
		Message: msg,
		Details: map[string]any{
			"amount":  amount.StringFixed(valueobject.MinorUnits),
			"balance": balance.StringFixed(valueobject.MinorUnits),
		},
	}
}
