package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synexa/sis/internal/domain/shared"
)

// Test helpers
func newTestInvoice(t *testing.T, amount string, due time.Time) *Invoice {
	t.Helper()
	inv, err := NewInvoice(NewInvoiceInput{
		TenantID:      uuid.New(),
		StudentID:     uuid.New(),
		InvoiceNumber: "FT-202401-00001",
		Type:          InvoiceTypeTuition,
		Amount:        d(amount),
		DueDate:       due,
		BillingMonth:  int(due.Month()),
		BillingYear:   due.Year(),
		AcademicYear:  "2023/2024",
		CreatedBy:     uuid.New(),
		Now:           day(2023, time.December, 20),
	})
	require.NoError(t, err)
	inv.ClearDomainEvents()
	return inv
}

func newTestPayment(t *testing.T, inv *Invoice, amount string, on time.Time) *Payment {
	t.Helper()
	p, err := NewPayment(NewPaymentInput{
		Invoice:     inv,
		Amount:      d(amount),
		Method:      PaymentMethodCash,
		PaymentDate: on,
		CreatedBy:   uuid.New(),
		Now:         on,
	})
	require.NoError(t, err)
	return p
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T", err)
	assert.Equal(t, code, de.Code)
}

func TestNewInvoice(t *testing.T) {
	valid := func() NewInvoiceInput {
		return NewInvoiceInput{
			TenantID:      uuid.New(),
			StudentID:     uuid.New(),
			InvoiceNumber: "FT-202401-00001",
			Amount:        d("15000"),
			DueDate:       day(2024, 1, 10),
			BillingMonth:  1,
			BillingYear:   2024,
			AcademicYear:  "2023/2024",
			Now:           day(2023, 12, 1),
		}
	}

	t.Run("creates pending invoice", func(t *testing.T) {
		inv, err := NewInvoice(valid())
		require.NoError(t, err)
		assert.Equal(t, InvoiceTypeTuition, inv.Type, "type defaults to tuition")
		assert.True(t, inv.PaidAmount.IsZero())
		assert.True(t, inv.Balance().Equal(d("15000")))
		assert.Equal(t, InvoiceStatusPending, inv.Status(day(2024, 1, 1), DefaultPolicy()))
		assert.Equal(t, 1, inv.GetVersion())
		require.Len(t, inv.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeInvoiceCreated, inv.GetDomainEvents()[0].EventType())
	})

	tests := []struct {
		name   string
		mutate func(*NewInvoiceInput)
		field  string
	}{
		{"empty number", func(in *NewInvoiceInput) { in.InvoiceNumber = "  " }, "invoice_number"},
		{"missing student", func(in *NewInvoiceInput) { in.StudentID = uuid.Nil }, "student_id"},
		{"bad type", func(in *NewInvoiceInput) { in.Type = "BOOKS" }, "type"},
		{"zero amount", func(in *NewInvoiceInput) { in.Amount = d("0") }, "amount"},
		{"negative amount", func(in *NewInvoiceInput) { in.Amount = d("-1") }, "amount"},
		{"sub-cent amount", func(in *NewInvoiceInput) { in.Amount = d("10.001") }, "amount"},
		{"missing due date", func(in *NewInvoiceInput) { in.DueDate = time.Time{} }, "due_date"},
		{"bad month", func(in *NewInvoiceInput) { in.BillingMonth = 13 }, "billing_month"},
		{"bad year", func(in *NewInvoiceInput) { in.BillingYear = 1990 }, "billing_year"},
		{"bad academic year", func(in *NewInvoiceInput) { in.AcademicYear = "2023/2025" }, "academic_year"},
		{"late fee over 100", func(in *NewInvoiceInput) { in.LateFeePercent = d("150") }, "late_fee_percent"},
		{"negative interest", func(in *NewInvoiceInput) { in.DailyInterestRate = d("-0.01") }, "daily_interest_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := NewInvoice(in)
			assertCode(t, err, shared.CodeValidation)
			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.field, de.Details["field"])
		})
	}
}

func TestInvoice_Scenario_FullPaymentBeforeDue(t *testing.T) {
	inv := newTestInvoice(t, "15000.00", day(2024, 1, 10))
	p := newTestPayment(t, inv, "15000.00", day(2024, 1, 5))

	require.NoError(t, inv.ApplyPayment(p, DefaultPolicy(), day(2024, 1, 5)))

	assert.Equal(t, InvoiceStatusPaid, inv.Status(day(2024, 1, 5), DefaultPolicy()))
	assert.True(t, inv.Balance().IsZero())
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, day(2024, 1, 5), *inv.PaidAt)
}

func TestInvoice_Scenario_UnpaidPastDue(t *testing.T) {
	inv := newTestInvoice(t, "15000.00", day(2024, 1, 10))

	assert.Equal(t, InvoiceStatusOverdue, inv.Status(day(2024, 2, 1), DefaultPolicy()))
	assert.True(t, inv.Balance().Equal(d("15000.00")))
}

func TestInvoice_Scenario_PartialThenOverdue(t *testing.T) {
	inv := newTestInvoice(t, "10000.00", day(2024, 1, 10))
	p := newTestPayment(t, inv, "4000.00", day(2024, 1, 3))

	require.NoError(t, inv.ApplyPayment(p, DefaultPolicy(), day(2024, 1, 3)))
	assert.Equal(t, InvoiceStatusPartial, inv.Status(day(2024, 1, 3), DefaultPolicy()))
	assert.True(t, inv.Balance().Equal(d("6000.00")))

	assert.Equal(t, InvoiceStatusOverdue, inv.Status(day(2024, 2, 1), DefaultPolicy()))
	assert.True(t, inv.Balance().Equal(d("6000.00")))
}

func TestInvoice_Scenario_PayCancelledInvoice(t *testing.T) {
	inv := newTestInvoice(t, "15000.00", day(2024, 1, 10))
	p := newTestPayment(t, inv, "100.00", day(2024, 1, 2))
	require.NoError(t, inv.Cancel(uuid.New(), "Aluno transferido", day(2024, 1, 2)))

	err := inv.ApplyPayment(p, DefaultPolicy(), day(2024, 1, 3))

	assertCode(t, err, shared.CodeInvalidState)
	assert.True(t, inv.PaidAmount.IsZero())
}

func TestInvoice_Scenario_Overpayment(t *testing.T) {
	inv := newTestInvoice(t, "15000.00", day(2024, 1, 10))
	p := newTestPayment(t, inv, "20000.00", day(2024, 1, 2))

	err := inv.ApplyPayment(p, DefaultPolicy(), day(2024, 1, 2))

	assertCode(t, err, CodeOverpayment)
	assert.True(t, inv.PaidAmount.IsZero(), "rejected payment leaves invoice untouched")
	assert.Equal(t, 1, inv.GetVersion())
	assert.Empty(t, inv.GetDomainEvents())
}

func TestInvoice_ApplyPayment(t *testing.T) {
	t.Run("exact remaining balance pays the invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "10000", day(2024, 1, 10))
		require.NoError(t, inv.ApplyPayment(newTestPayment(t, inv, "2500.50", day(2024, 1, 1)), DefaultPolicy(), day(2024, 1, 1)))
		remaining := inv.Balance().String()
		require.NoError(t, inv.ApplyPayment(newTestPayment(t, inv, remaining, day(2024, 1, 2)), DefaultPolicy(), day(2024, 1, 2)))

		assert.Equal(t, InvoiceStatusPaid, inv.Status(day(2024, 1, 2), DefaultPolicy()))
		assert.True(t, inv.Balance().IsZero())
		assert.Equal(t, 3, inv.GetVersion())
	})

	t.Run("overpayment allowed by policy records credit", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.AllowOverpayment = true
		inv := newTestInvoice(t, "15000", day(2024, 1, 10))

		require.NoError(t, inv.ApplyPayment(newTestPayment(t, inv, "20000", day(2024, 1, 1)), policy, day(2024, 1, 1)))

		assert.Equal(t, InvoiceStatusPaid, inv.Status(day(2024, 1, 1), policy))
		assert.True(t, inv.Balance().IsZero())
		assert.True(t, inv.Credit().Equal(d("5000")))
	})

	t.Run("payment for another invoice is rejected", func(t *testing.T) {
		inv := newTestInvoice(t, "15000", day(2024, 1, 10))
		other := newTestInvoice(t, "15000", day(2024, 1, 10))

		err := inv.ApplyPayment(newTestPayment(t, other, "100", day(2024, 1, 1)), DefaultPolicy(), day(2024, 1, 1))
		assertCode(t, err, shared.CodeValidation)
	})

	t.Run("emits payment recorded event", func(t *testing.T) {
		inv := newTestInvoice(t, "15000", day(2024, 1, 10))
		p := newTestPayment(t, inv, "5000", day(2024, 1, 1))
		require.NoError(t, inv.ApplyPayment(p, DefaultPolicy(), day(2024, 1, 1)))

		events := inv.GetDomainEvents()
		require.Len(t, events, 1)
		ev, ok := events[0].(*PaymentRecordedEvent)
		require.True(t, ok)
		assert.Equal(t, p.ID, ev.PaymentID)
		assert.Equal(t, InvoiceStatusPartial, ev.Status)
		assert.True(t, ev.PaidAmount.Equal(d("5000")))
	})
}

func TestInvoice_RecordThenCancelRoundTrip(t *testing.T) {
	policy := DefaultPolicy()
	inv := newTestInvoice(t, "10000", day(2024, 1, 10))
	before := inv.PaidAmount
	statusBefore := inv.Status(day(2024, 1, 5), policy)

	p := newTestPayment(t, inv, "10000", day(2024, 1, 5))
	require.NoError(t, inv.ApplyPayment(p, policy, day(2024, 1, 5)))
	require.Equal(t, InvoiceStatusPaid, inv.Status(day(2024, 1, 5), policy))

	require.NoError(t, p.Cancel(uuid.New(), "Cheque devolvido", day(2024, 1, 5)))
	require.NoError(t, inv.RevertPayment(p, policy, day(2024, 1, 5)))

	assert.True(t, inv.PaidAmount.Equal(before))
	assert.Equal(t, statusBefore, inv.Status(day(2024, 1, 5), policy))
	assert.Nil(t, inv.PaidAt)
}

func TestInvoice_RevertPayment_MoreThanPaid(t *testing.T) {
	inv := newTestInvoice(t, "10000", day(2024, 1, 10))
	p := newTestPayment(t, inv, "4000", day(2024, 1, 5))

	err := inv.RevertPayment(p, DefaultPolicy(), day(2024, 1, 5))
	assertCode(t, err, shared.CodeInvalidState)
}

func TestInvoice_Cancel(t *testing.T) {
	t.Run("cancels unpaid invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "15000", day(2024, 1, 10))
		by := uuid.New()
		require.NoError(t, inv.Cancel(by, "Emitida por engano", day(2024, 1, 2)))

		assert.True(t, inv.IsCancelled())
		assert.Equal(t, by, *inv.CancelledBy)
		assert.Equal(t, InvoiceStatusCancelled, inv.Status(day(2024, 3, 1), DefaultPolicy()))
		assert.Equal(t, 0, inv.DaysOverdue(day(2024, 3, 1)))
	})

	t.Run("second cancel fails", func(t *testing.T) {
		inv := newTestInvoice(t, "15000", day(2024, 1, 10))
		require.NoError(t, inv.Cancel(uuid.New(), "x", day(2024, 1, 2)))
		assertCode(t, inv.Cancel(uuid.New(), "x", day(2024, 1, 2)), CodeAlreadyCancelled)
	})

	t.Run("requires payments to be cancelled first", func(t *testing.T) {
		inv := newTestInvoice(t, "15000", day(2024, 1, 10))
		require.NoError(t, inv.ApplyPayment(newTestPayment(t, inv, "100", day(2024, 1, 1)), DefaultPolicy(), day(2024, 1, 1)))
		assertCode(t, inv.Cancel(uuid.New(), "x", day(2024, 1, 2)), shared.CodeInvalidState)
	})

	t.Run("requires a reason", func(t *testing.T) {
		inv := newTestInvoice(t, "15000", day(2024, 1, 10))
		assertCode(t, inv.Cancel(uuid.New(), " ", day(2024, 1, 2)), shared.CodeValidation)
	})
}

func TestInvoice_DedupeKey(t *testing.T) {
	inv := newTestInvoice(t, "15000", day(2024, 1, 10))
	planID := uuid.New()
	inv.PlanID = &planID

	key := inv.DedupeKey()
	assert.Equal(t, DedupeKey{StudentID: inv.StudentID, PlanID: planID, Month: 1, Year: 2024}, key)
}
