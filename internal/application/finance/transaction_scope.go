package finance

import (
	"context"

	"github.com/synexa/sis/internal/domain/finance"
)

// TransactionScope provides transactional access to the billing repositories.
// An invoice and its payments are always written inside one scope so the paid
// amount and the payment rows commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives repositories bound to the current transaction.
type TransactionalRepositories interface {
	InvoiceRepo() finance.InvoiceRepository
	PaymentRepo() finance.PaymentRepository
	PlanRepo() finance.PaymentPlanRepository
}

// NoOpTransactionScope runs fn directly against the given repositories.
// Used in tests.
type NoOpTransactionScope struct {
	invoiceRepo finance.InvoiceRepository
	paymentRepo finance.PaymentRepository
	planRepo    finance.PaymentPlanRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope.
func NewNoOpTransactionScope(
	invoiceRepo finance.InvoiceRepository,
	paymentRepo finance.PaymentRepository,
	planRepo finance.PaymentPlanRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		planRepo:    planRepo,
	}
}

// Execute runs fn without a transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) InvoiceRepo() finance.InvoiceRepository  { return s.invoiceRepo }
func (s *NoOpTransactionScope) PaymentRepo() finance.PaymentRepository  { return s.paymentRepo }
func (s *NoOpTransactionScope) PlanRepo() finance.PaymentPlanRepository { return s.planRepo }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
