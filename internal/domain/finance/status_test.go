package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func TestComputeStatus(t *testing.T) {
	due := day(2024, time.January, 10)

	tests := []struct {
		name      string
		amount    string
		paid      string
		cancelled bool
		now       time.Time
		want      InvoiceStatus
	}{
		{"cancelled wins over everything", "15000", "15000", true, day(2024, 2, 1), InvoiceStatusCancelled},
		{"cancelled unpaid past due", "15000", "0", true, day(2024, 2, 1), InvoiceStatusCancelled},
		{"fully paid before due", "15000", "15000", false, day(2024, 1, 5), InvoiceStatusPaid},
		{"fully paid after due", "15000", "15000", false, day(2024, 3, 1), InvoiceStatusPaid},
		{"overpaid is paid", "15000", "16000", false, day(2024, 1, 5), InvoiceStatusPaid},
		{"partial before due", "10000", "4000", false, day(2024, 1, 5), InvoiceStatusPartial},
		{"partial on due day", "10000", "4000", false, day(2024, 1, 10), InvoiceStatusPartial},
		{"partial after due", "10000", "4000", false, day(2024, 2, 1), InvoiceStatusOverdue},
		{"unpaid before due", "15000", "0", false, day(2024, 1, 9), InvoiceStatusPending},
		{"unpaid on due day late evening", "15000", "0", false, time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC), InvoiceStatusPending},
		{"unpaid day after due", "15000", "0", false, day(2024, 1, 11), InvoiceStatusOverdue},
		{"unpaid well past due", "15000", "0", false, day(2024, 2, 1), InvoiceStatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStatus(d(tt.amount), d(tt.paid), due, tt.cancelled, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_ComputeStatus_PartialPrecedence(t *testing.T) {
	due := day(2024, time.January, 10)
	policy := DefaultPolicy()
	policy.OverduePrecedence = false

	assert.Equal(t, InvoiceStatusPartial, policy.ComputeStatus(d("10000"), d("4000"), due, false, day(2024, 2, 1)))
	// an untouched invoice is still overdue regardless of precedence
	assert.Equal(t, InvoiceStatusOverdue, policy.ComputeStatus(d("10000"), d("0"), due, false, day(2024, 2, 1)))
}

func TestComputeStatus_UsesLocalCalendarDay(t *testing.T) {
	luanda := time.FixedZone("WAT", 3600)
	due := day(2024, time.January, 10)

	// 00:30 on the 11th in Luanda is still the 10th in UTC
	now := time.Date(2024, 1, 11, 0, 30, 0, 0, luanda)
	assert.Equal(t, InvoiceStatusOverdue, ComputeStatus(d("100"), d("0"), due, false, now))
}

func TestBalance(t *testing.T) {
	assert.True(t, Balance(d("15000"), d("0")).Equal(d("15000")))
	assert.True(t, Balance(d("10000"), d("4000")).Equal(d("6000")))
	assert.True(t, Balance(d("15000"), d("15000")).IsZero())
	assert.True(t, Balance(d("15000"), d("20000")).IsZero(), "balance is floored at zero")
}

func TestDaysPastDue(t *testing.T) {
	due := day(2024, time.January, 10)
	assert.Equal(t, 0, DaysPastDue(due, day(2024, 1, 10)))
	assert.Equal(t, 1, DaysPastDue(due, day(2024, 1, 11)))
	assert.Equal(t, 22, DaysPastDue(due, day(2024, 2, 1)))
	assert.Equal(t, 0, DaysPastDue(due, day(2024, 1, 1)))
}

func TestInvoiceStatus_Helpers(t *testing.T) {
	for _, s := range []InvoiceStatus{InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusOverdue} {
		assert.True(t, s.IsOpen(), s)
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, InvoiceStatusPaid.IsOpen())
	assert.False(t, InvoiceStatusCancelled.IsOpen())
	assert.False(t, InvoiceStatus("LATE").IsValid())
	assert.Equal(t, "PAID", InvoiceStatusPaid.String())
}
